package cache

import "testing"

func TestBuildKey_Deterministic(t *testing.T) {
	a := BuildKey("price", "ETH", "polygon")
	b := BuildKey("price", "ETH", "polygon")
	if a != b {
		t.Errorf("same request produced different keys: %q vs %q", a, b)
	}
}

func TestBuildKey_DistinctRequests(t *testing.T) {
	tests := []struct {
		name string
		a, b string
	}{
		{
			name: "different network",
			a:    BuildKey("price", "ETH", "polygon"),
			b:    BuildKey("price", "ETH", "ethereum"),
		},
		{
			name: "different symbol",
			a:    BuildKey("price", "ETH"),
			b:    BuildKey("price", "BTC"),
		},
		{
			name: "different category",
			a:    BuildKey("price", "ETH"),
			b:    BuildKey("historical-price", "ETH"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.a == tt.b {
				t.Errorf("distinct requests collided on key %q", tt.a)
			}
		})
	}
}

func TestBuildKey_Shape(t *testing.T) {
	got := BuildKey("gas", "ethereum")
	want := "gas::ethereum"
	if got != want {
		t.Errorf("key shape: got %q, want %q", got, want)
	}
}
