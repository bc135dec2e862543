package memory

import (
	"context"
	"sync"

	"wallet-ledger/internal/domain"
	"wallet-ledger/internal/storage"
)

// PriceHistoryStore is an in-memory implementation of storage.PriceHistoryStore.
type PriceHistoryStore struct {
	mu   sync.RWMutex
	data []*domain.PricePoint
}

// NewPriceHistoryStore creates a new in-memory price history store.
func NewPriceHistoryStore() *PriceHistoryStore {
	return &PriceHistoryStore{}
}

// AppendBulk records resolved prices.
func (s *PriceHistoryStore) AppendBulk(_ context.Context, points []*domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range points {
		if p == nil || p.MintAddress == "" {
			return storage.ErrInvalidInput
		}
		copy := *p
		s.data = append(s.data, &copy)
	}
	return nil
}

// Latest returns the most recently recorded price per mint, preferring
// the newest point timestamp and, among equal timestamps, the latest
// fetch. Mints with no history are absent from the result.
func (s *PriceHistoryStore) Latest(_ context.Context, mints []string) (map[string]*domain.PricePoint, error) {
	if len(mints) == 0 {
		return map[string]*domain.PricePoint{}, nil
	}

	wanted := make(map[string]struct{}, len(mints))
	for _, m := range mints {
		if m == "" {
			return nil, storage.ErrInvalidInput
		}
		wanted[m] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*domain.PricePoint)
	for _, p := range s.data {
		if _, ok := wanted[p.MintAddress]; !ok {
			continue
		}
		cur, ok := result[p.MintAddress]
		if ok && (cur.Timestamp > p.Timestamp ||
			(cur.Timestamp == p.Timestamp && cur.FetchedAt > p.FetchedAt)) {
			continue
		}
		copy := *p
		result[p.MintAddress] = &copy
	}
	return result, nil
}

// All returns a snapshot of every appended point, in append order.
func (s *PriceHistoryStore) All() []*domain.PricePoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.PricePoint, 0, len(s.data))
	for _, p := range s.data {
		copy := *p
		result = append(result, &copy)
	}
	return result
}

var _ storage.PriceHistoryStore = (*PriceHistoryStore)(nil)
