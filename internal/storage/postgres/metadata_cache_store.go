package postgres

import (
	"context"
	"fmt"

	"wallet-ledger/internal/domain"
	"wallet-ledger/internal/storage"
)

// MetadataCacheStore implements storage.MetadataCacheStore using PostgreSQL.
type MetadataCacheStore struct {
	pool *Pool
}

// NewMetadataCacheStore creates a new MetadataCacheStore.
func NewMetadataCacheStore(pool *Pool) *MetadataCacheStore {
	return &MetadataCacheStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MetadataCacheStore = (*MetadataCacheStore)(nil)

// Get retrieves cached metadata. Returns ErrNotFound if not cached.
func (s *MetadataCacheStore) Get(ctx context.Context, mint string) (*domain.TokenMetadata, error) {
	query := `
		SELECT mint_address, symbol, name, fetched_at
		FROM token_metadata
		WHERE mint_address = $1
	`

	var m domain.TokenMetadata
	err := s.pool.QueryRow(ctx, query, mint).Scan(
		&m.MintAddress, &m.Symbol, &m.Name, &m.FetchedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get cached metadata: %w", err)
	}
	return &m, nil
}

// Upsert inserts or replaces cached metadata.
func (s *MetadataCacheStore) Upsert(ctx context.Context, m *domain.TokenMetadata) error {
	if m == nil || m.MintAddress == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO token_metadata (mint_address, symbol, name, fetched_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (mint_address) DO UPDATE SET
			symbol = EXCLUDED.symbol,
			name = EXCLUDED.name,
			fetched_at = EXCLUDED.fetched_at
	`

	_, err := s.pool.Exec(ctx, query, m.MintAddress, m.Symbol, m.Name, m.FetchedAt)
	if err != nil {
		return fmt.Errorf("upsert cached metadata: %w", err)
	}
	return nil
}
