package memory

import (
	"context"
	"errors"
	"testing"

	"chain-oracle/internal/domain"
	"chain-oracle/internal/storage"
)

func TestPublicationStore_InsertAndGet(t *testing.T) {
	store := NewPublicationStore()
	ctx := context.Background()

	pub := &domain.Publication{
		ID:        "pub-1",
		Network:   domain.NetworkSolana,
		Payload:   map[string]any{"kind": "attestation", "value": 42.0},
		Signature: "sig",
		Status:    domain.StatusSimulated,
		CreatedAt: 1704067200000,
	}

	if err := store.Insert(ctx, pub); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.Get(ctx, "pub-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != domain.StatusSimulated {
		t.Errorf("Status mismatch: got %s", got.Status)
	}
	if got.Payload["kind"] != "attestation" {
		t.Errorf("Payload not echoed back: %v", got.Payload)
	}
}

func TestPublicationStore_Duplicate(t *testing.T) {
	store := NewPublicationStore()
	ctx := context.Background()

	pub := &domain.Publication{ID: "pub-1", Network: domain.NetworkEthereum}
	if err := store.Insert(ctx, pub); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, pub); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestPublicationStore_PayloadCopyOut(t *testing.T) {
	store := NewPublicationStore()
	ctx := context.Background()

	pub := &domain.Publication{
		ID:      "pub-1",
		Network: domain.NetworkEthereum,
		Payload: map[string]any{"k": "v"},
	}
	if err := store.Insert(ctx, pub); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, _ := store.Get(ctx, "pub-1")
	got.Payload["k"] = "mutated"

	again, _ := store.Get(ctx, "pub-1")
	if again.Payload["k"] != "v" {
		t.Error("stored payload was mutated through a returned copy")
	}
}

func TestPublicationStore_NotFound(t *testing.T) {
	store := NewPublicationStore()

	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
