package publish

import (
	"bytes"
	"context"
	"io"
	"log"
	"testing"
	"time"

	"filippo.io/edwards25519"
	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chain-oracle/internal/domain"
	"chain-oracle/internal/resolver"
	"chain-oracle/internal/storage"
	"chain-oracle/internal/storage/memory"
)

func newPublisher(store storage.PublicationStore) *Publisher {
	return NewPublisher(PublisherOptions{
		Store:  store,
		Logger: log.New(io.Discard, "", 0),
	})
}

func samplePayload() map[string]any {
	return map[string]any{"symbol": "ETH", "priceUsd": 2500.0}
}

func TestPublisher_Publish(t *testing.T) {
	store := memory.NewPublicationStore()
	p := newPublisher(store)

	pub, err := p.Publish(context.Background(), Request{Network: "solana", Payload: samplePayload()})
	require.NoError(t, err)

	assert.Equal(t, domain.NetworkSolana, pub.Network)
	assert.Equal(t, domain.StatusSimulated, pub.Status)
	assert.Equal(t, samplePayload(), pub.Payload)
	assert.Positive(t, pub.CreatedAt)

	_, err = uuid.Parse(pub.ID)
	assert.NoError(t, err, "publication id must be a uuid")

	raw, err := base58.Decode(pub.Signature)
	require.NoError(t, err, "signature must be base58")
	assert.Len(t, raw, signatureLen)

	stored, err := store.Get(context.Background(), pub.ID)
	require.NoError(t, err)
	assert.Equal(t, pub.Signature, stored.Signature)
}

func TestPublisher_NetworkAliases(t *testing.T) {
	p := newPublisher(memory.NewPublicationStore())

	pub, err := p.Publish(context.Background(), Request{Network: "sol", Payload: samplePayload()})
	require.NoError(t, err)
	assert.Equal(t, domain.NetworkSolana, pub.Network)
}

func TestPublisher_InvalidRequests(t *testing.T) {
	p := newPublisher(memory.NewPublicationStore())

	tests := []struct {
		name string
		req  Request
	}{
		{"unknown network", Request{Network: "dogecoin", Payload: samplePayload()}},
		{"empty network", Request{Network: "", Payload: samplePayload()}},
		{"nil payload", Request{Network: "solana"}},
		{"empty payload", Request{Network: "solana", Payload: map[string]any{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Publish(context.Background(), tt.req)
			var valErr *resolver.ValidationError
			require.ErrorAs(t, err, &valErr)
		})
	}
}

func TestPublisher_PublisherKeyValidation(t *testing.T) {
	p := newPublisher(memory.NewPublicationStore())

	onCurve := base58.Encode(edwards25519.NewGeneratorPoint().Bytes())
	_, err := p.Publish(context.Background(), Request{
		Network:      "solana",
		Payload:      samplePayload(),
		PublisherKey: onCurve,
	})
	assert.NoError(t, err)

	// y=1 decodes to x=0, and x=0 with the sign bit set fails
	// decompression outright.
	offCurve := append(append([]byte{0x01}, make([]byte, 30)...), 0x80)

	bad := []string{
		"not-base58-0OIl",
		base58.Encode([]byte("short")),
		// All-ones is a non-canonical encoding (y reduced mod p); SetBytes
		// tolerates it, the canonical round-trip does not.
		base58.Encode(bytes.Repeat([]byte{0xff}, 32)),
		base58.Encode(offCurve),
	}
	for _, key := range bad {
		_, err := p.Publish(context.Background(), Request{
			Network:      "solana",
			Payload:      samplePayload(),
			PublisherKey: key,
		})
		var valErr *resolver.ValidationError
		require.ErrorAs(t, err, &valErr, "key %q", key)
		assert.Equal(t, "publisherKey", valErr.Field)
	}
}

func TestPublisher_KeyIgnoredOffSolana(t *testing.T) {
	p := newPublisher(memory.NewPublicationStore())

	_, err := p.Publish(context.Background(), Request{
		Network:      "ethereum",
		Payload:      samplePayload(),
		PublisherKey: "not-a-key",
	})
	assert.NoError(t, err, "publisher keys only apply to solana publishes")
}

func TestPublisher_SignaturesAreUnique(t *testing.T) {
	p := newPublisher(memory.NewPublicationStore())

	a, err := p.Publish(context.Background(), Request{Network: "solana", Payload: samplePayload()})
	require.NoError(t, err)
	b, err := p.Publish(context.Background(), Request{Network: "solana", Payload: samplePayload()})
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, a.Signature, b.Signature)
}

func TestPublisher_Get(t *testing.T) {
	store := memory.NewPublicationStore()
	p := newPublisher(store)

	pub, err := p.Publish(context.Background(), Request{Network: "polygon", Payload: samplePayload()})
	require.NoError(t, err)

	got, err := p.Get(context.Background(), pub.ID)
	require.NoError(t, err)
	assert.Equal(t, pub.ID, got.ID)

	_, err = p.Get(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = p.Get(context.Background(), "")
	var valErr *resolver.ValidationError
	assert.ErrorAs(t, err, &valErr)
}

func TestPublisher_TimestampUsesClock(t *testing.T) {
	p := newPublisher(memory.NewPublicationStore())
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	pub, err := p.Publish(context.Background(), Request{Network: "solana", Payload: samplePayload()})
	require.NoError(t, err)
	assert.Equal(t, fixed.UnixMilli(), pub.CreatedAt)
}
