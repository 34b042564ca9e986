package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"chain-oracle/internal/domain"
	"chain-oracle/internal/storage"
)

// PublicationStore implements storage.PublicationStore using PostgreSQL.
// The opaque payload is stored as JSONB and round-tripped untouched.
type PublicationStore struct {
	pool *Pool
}

// NewPublicationStore creates a new PublicationStore.
func NewPublicationStore(pool *Pool) *PublicationStore {
	return &PublicationStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PublicationStore = (*PublicationStore)(nil)

// Insert adds a publication. Returns ErrDuplicateKey if the id exists.
func (s *PublicationStore) Insert(ctx context.Context, pub *domain.Publication) error {
	if pub == nil || pub.ID == "" {
		return storage.ErrInvalidInput
	}

	payload, err := json.Marshal(pub.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	query := `
		INSERT INTO publications (id, network, payload, signature, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = s.pool.Exec(ctx, query,
		pub.ID, pub.Network.String(), payload, pub.Signature, pub.Status, pub.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert publication: %w", err)
	}
	return nil
}

// Get retrieves a publication by id. Returns ErrNotFound if absent.
func (s *PublicationStore) Get(ctx context.Context, id string) (*domain.Publication, error) {
	query := `
		SELECT id, network, payload, signature, status, created_at
		FROM publications
		WHERE id = $1
	`

	var (
		pub     domain.Publication
		network string
		payload []byte
	)
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&pub.ID, &network, &payload, &pub.Signature, &pub.Status, &pub.CreatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get publication: %w", err)
	}

	pub.Network = domain.Network(network)
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &pub.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
	}
	return &pub, nil
}
