package memory

import (
	"context"
	"fmt"
	"sync"

	"wallet-ledger/internal/domain"
	"wallet-ledger/internal/storage"
)

// PriceCacheStore is an in-memory implementation of storage.PriceCacheStore.
type PriceCacheStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PricePoint // keyed by mint|timestamp
}

// NewPriceCacheStore creates a new in-memory price cache store.
func NewPriceCacheStore() *PriceCacheStore {
	return &PriceCacheStore{
		data: make(map[string]*domain.PricePoint),
	}
}

func priceCacheKey(mint string, timestamp int64) string {
	return fmt.Sprintf("%s|%d", mint, timestamp)
}

// Get retrieves a cached price. Returns ErrNotFound if not cached.
func (s *PriceCacheStore) Get(_ context.Context, mint string, timestamp int64) (*domain.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[priceCacheKey(mint, timestamp)]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *p
	return &copy, nil
}

// Upsert inserts or replaces a cached price.
func (s *PriceCacheStore) Upsert(_ context.Context, p *domain.PricePoint) error {
	if p == nil || p.MintAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *p
	s.data[priceCacheKey(p.MintAddress, p.Timestamp)] = &copy
	return nil
}

var _ storage.PriceCacheStore = (*PriceCacheStore)(nil)
