package postgres

import (
	"context"
	"fmt"

	"wallet-ledger/internal/domain"
	"wallet-ledger/internal/storage"
)

// PriceCacheStore implements storage.PriceCacheStore using PostgreSQL.
type PriceCacheStore struct {
	pool *Pool
}

// NewPriceCacheStore creates a new PriceCacheStore.
func NewPriceCacheStore(pool *Pool) *PriceCacheStore {
	return &PriceCacheStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PriceCacheStore = (*PriceCacheStore)(nil)

// Get retrieves a cached price. Returns ErrNotFound if not cached.
func (s *PriceCacheStore) Get(ctx context.Context, mint string, timestamp int64) (*domain.PricePoint, error) {
	query := `
		SELECT mint_address, ts, price_usd, price_sol, is_bonded, source, fetched_at
		FROM token_prices
		WHERE mint_address = $1 AND ts = $2
	`

	var p domain.PricePoint
	err := s.pool.QueryRow(ctx, query, mint, timestamp).Scan(
		&p.MintAddress, &p.Timestamp, &p.PriceUsd, &p.PriceSol,
		&p.IsBonded, &p.Source, &p.FetchedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get cached price: %w", err)
	}
	return &p, nil
}

// Upsert inserts or replaces a cached price.
func (s *PriceCacheStore) Upsert(ctx context.Context, p *domain.PricePoint) error {
	if p == nil || p.MintAddress == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO token_prices (
			mint_address, ts, price_usd, price_sol, is_bonded, source, fetched_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (mint_address, ts) DO UPDATE SET
			price_usd = EXCLUDED.price_usd,
			price_sol = EXCLUDED.price_sol,
			is_bonded = EXCLUDED.is_bonded,
			source = EXCLUDED.source,
			fetched_at = EXCLUDED.fetched_at
	`

	_, err := s.pool.Exec(ctx, query,
		p.MintAddress, p.Timestamp, p.PriceUsd, p.PriceSol,
		p.IsBonded, p.Source, p.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert cached price: %w", err)
	}
	return nil
}
