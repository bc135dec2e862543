package memory

import (
	"context"
	"sync"

	"wallet-ledger/internal/domain"
	"wallet-ledger/internal/storage"
)

// MetadataCacheStore is an in-memory implementation of storage.MetadataCacheStore.
type MetadataCacheStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TokenMetadata // keyed by mint address
}

// NewMetadataCacheStore creates a new in-memory metadata cache store.
func NewMetadataCacheStore() *MetadataCacheStore {
	return &MetadataCacheStore{
		data: make(map[string]*domain.TokenMetadata),
	}
}

// Get retrieves cached metadata. Returns ErrNotFound if not cached.
func (s *MetadataCacheStore) Get(_ context.Context, mint string) (*domain.TokenMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, exists := s.data[mint]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *m
	return &copy, nil
}

// Upsert inserts or replaces cached metadata.
func (s *MetadataCacheStore) Upsert(_ context.Context, m *domain.TokenMetadata) error {
	if m == nil || m.MintAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *m
	s.data[m.MintAddress] = &copy
	return nil
}

var _ storage.MetadataCacheStore = (*MetadataCacheStore)(nil)
