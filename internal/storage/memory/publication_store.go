package memory

import (
	"context"
	"maps"
	"sync"

	"chain-oracle/internal/domain"
	"chain-oracle/internal/storage"
)

// PublicationStore is an in-memory implementation of storage.PublicationStore.
type PublicationStore struct {
	mu   sync.RWMutex
	byID map[string]*domain.Publication
}

// NewPublicationStore creates an empty in-memory publication store.
func NewPublicationStore() *PublicationStore {
	return &PublicationStore{
		byID: make(map[string]*domain.Publication),
	}
}

var _ storage.PublicationStore = (*PublicationStore)(nil)

// Insert adds a publication. Returns ErrDuplicateKey if the id exists.
func (s *PublicationStore) Insert(_ context.Context, pub *domain.Publication) error {
	if pub == nil || pub.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[pub.ID]; exists {
		return storage.ErrDuplicateKey
	}

	s.byID[pub.ID] = copyPublication(pub)
	return nil
}

// Get retrieves a publication by id. Returns ErrNotFound if absent.
func (s *PublicationStore) Get(_ context.Context, id string) (*domain.Publication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pub, exists := s.byID[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyPublication(pub), nil
}

// copyPublication deep-copies a publication including its opaque payload.
func copyPublication(pub *domain.Publication) *domain.Publication {
	pubCopy := *pub
	if pub.Payload != nil {
		pubCopy.Payload = maps.Clone(pub.Payload)
	}
	return &pubCopy
}
