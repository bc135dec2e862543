package memory

import (
	"context"
	"sort"
	"sync"

	"wallet-ledger/internal/domain"
	"wallet-ledger/internal/storage"
)

// AccountStore is an in-memory implementation of storage.AccountStore.
type AccountStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Account // keyed by account ID
}

// NewAccountStore creates a new in-memory account store.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		data: make(map[string]*domain.Account),
	}
}

// Insert adds a new account. Returns ErrDuplicateKey if the ID exists.
func (s *AccountStore) Insert(_ context.Context, a *domain.Account) error {
	if a == nil || a.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[a.ID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *a
	s.data[a.ID] = &copy
	return nil
}

// GetByID retrieves an account. Returns ErrNotFound if not exists.
func (s *AccountStore) GetByID(_ context.Context, accountID string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.data[accountID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *a
	return &copy, nil
}

// GetActive retrieves all active accounts with a wallet address, ordered by ID.
func (s *AccountStore) GetActive(_ context.Context) ([]*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Account
	for _, a := range s.data {
		if a.Active && a.WalletAddress != "" {
			copy := *a
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// UpdateMetrics writes recomputed summary fields onto the account record.
func (s *AccountStore) UpdateMetrics(_ context.Context, accountID string, m *domain.AccountMetrics) error {
	if m == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, exists := s.data[accountID]
	if !exists {
		return storage.ErrNotFound
	}

	a.PnlPercent = m.PnlPercent
	a.TotalProfitUsd = m.TotalProfitUsd
	a.TotalTrades = m.TotalTrades
	a.LastTradeTimestamp = m.LastTradeTimestamp
	return nil
}

// DeactivateStale marks accounts inactive whose last trade is older than cutoff.
func (s *AccountStore) DeactivateStale(_ context.Context, cutoff int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	for _, a := range s.data {
		if a.Active && a.LastTradeTimestamp > 0 && a.LastTradeTimestamp < cutoff {
			a.Active = false
			changed++
		}
	}
	return changed, nil
}

var _ storage.AccountStore = (*AccountStore)(nil)
