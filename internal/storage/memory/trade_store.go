package memory

import (
	"context"
	"sort"
	"sync"

	"wallet-ledger/internal/domain"
	"wallet-ledger/internal/idhash"
	"wallet-ledger/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
//
// Signed trades are keyed by signature. Trades without a signature are
// keyed by the deterministic (account, mint, timestamp) hash, matching
// the fallback dedup key used by the sync layer.
type TradeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Trade
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data: make(map[string]*domain.Trade),
	}
}

func tradeStoreKey(t *domain.Trade) string {
	if t.Signature != "" {
		return t.Signature
	}
	return idhash.TradeID(t.AccountID, t.MintAddress, t.Timestamp)
}

// Insert adds a new trade. Returns ErrDuplicateKey if the signature exists.
func (s *TradeStore) Insert(_ context.Context, t *domain.Trade) error {
	if t == nil || t.AccountID == "" || t.MintAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := tradeStoreKey(t)
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *t
	s.data[key] = &copy
	return nil
}

// InsertMinimal adds a trade keeping only the always-present fields,
// mirroring the reduced-column statement of the SQL store.
func (s *TradeStore) InsertMinimal(ctx context.Context, t *domain.Trade) error {
	if t == nil {
		return storage.ErrInvalidInput
	}
	minimal := *t
	minimal.AmountSol = 0
	minimal.Source = ""
	minimal.PriceSource = ""
	return s.Insert(ctx, &minimal)
}

// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(_ context.Context, trades []*domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(trades))

	// First pass: check for duplicates (existing + intra-batch)
	for _, t := range trades {
		if t == nil || t.AccountID == "" || t.MintAddress == "" {
			return storage.ErrInvalidInput
		}

		key := tradeStoreKey(t)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, t := range trades {
		copy := *t
		s.data[tradeStoreKey(t)] = &copy
	}

	return nil
}

// GetByAccount retrieves all trades for an account, ordered by timestamp ASC.
func (s *TradeStore) GetByAccount(_ context.Context, accountID string) ([]*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Trade
	for _, t := range s.data {
		if t.AccountID == accountID {
			copy := *t
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Timestamp != result[j].Timestamp {
			return result[i].Timestamp < result[j].Timestamp
		}
		return result[i].Signature < result[j].Signature
	})

	return result, nil
}

// AllSignatures returns every trade signature present in the store.
func (s *TradeStore) AllSignatures(_ context.Context) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]struct{}, len(s.data))
	for _, t := range s.data {
		if t.Signature != "" {
			result[t.Signature] = struct{}{}
		}
	}
	return result, nil
}

// AccountKeys returns the (timestamp, mint) composite keys recorded for an account.
func (s *TradeStore) AccountKeys(_ context.Context, accountID string) (map[storage.TradeKey]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[storage.TradeKey]struct{})
	for _, t := range s.data {
		if t.AccountID == accountID {
			result[storage.TradeKey{Timestamp: t.Timestamp, MintAddress: t.MintAddress}] = struct{}{}
		}
	}
	return result, nil
}

var _ storage.TradeStore = (*TradeStore)(nil)
