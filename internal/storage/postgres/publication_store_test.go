package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chain-oracle/internal/domain"
	"chain-oracle/internal/storage"
)

func TestPublicationStore_RoundTrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPublicationStore(pool)
	ctx := context.Background()

	pub := &domain.Publication{
		ID:      "f3a85c1e-0000-4000-8000-000000000001",
		Network: domain.NetworkSolana,
		Payload: map[string]any{
			"kind":  "attestation",
			"value": 42.5,
			"tags":  []any{"a", "b"},
		},
		Signature: "5VfYtCk...sig",
		Status:    domain.StatusSimulated,
		CreatedAt: 1704067200000,
	}
	require.NoError(t, store.Insert(ctx, pub))

	got, err := store.Get(ctx, pub.ID)
	require.NoError(t, err)
	assert.Equal(t, pub.ID, got.ID)
	assert.Equal(t, domain.NetworkSolana, got.Network)
	assert.Equal(t, domain.StatusSimulated, got.Status)
	assert.Equal(t, "attestation", got.Payload["kind"])
	assert.Equal(t, 42.5, got.Payload["value"])
}

func TestPublicationStore_Duplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPublicationStore(pool)
	ctx := context.Background()

	pub := &domain.Publication{ID: "dup", Network: domain.NetworkEthereum, Status: domain.StatusSimulated}
	require.NoError(t, store.Insert(ctx, pub))

	err := store.Insert(ctx, pub)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestPublicationStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPublicationStore(pool)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
