package clickhouse

import (
	"context"
	"fmt"

	"wallet-ledger/internal/domain"
	"wallet-ledger/internal/storage"
)

// PriceHistoryStore implements storage.PriceHistoryStore using ClickHouse.
// Duplicate points are tolerated: the backing ReplacingMergeTree collapses
// them by fetched_at during merges.
type PriceHistoryStore struct {
	conn *Conn
}

// NewPriceHistoryStore creates a new PriceHistoryStore.
func NewPriceHistoryStore(conn *Conn) *PriceHistoryStore {
	return &PriceHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceHistoryStore = (*PriceHistoryStore)(nil)

// AppendBulk records resolved prices.
func (s *PriceHistoryStore) AppendBulk(ctx context.Context, points []*domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO price_history (
			mint_address, ts, price_usd, price_sol, is_bonded, source, fetched_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		if p == nil || p.MintAddress == "" {
			return storage.ErrInvalidInput
		}
		bonded := uint8(0)
		if p.IsBonded {
			bonded = 1
		}
		err = batch.Append(
			p.MintAddress, p.Timestamp, p.PriceUsd, p.PriceSol,
			bonded, p.Source, p.FetchedAt,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// Latest returns the most recent recorded point per requested mint. The
// resolver reads it as the mark-price fallback when the live provider is
// down.
func (s *PriceHistoryStore) Latest(ctx context.Context, mints []string) (map[string]*domain.PricePoint, error) {
	if len(mints) == 0 {
		return map[string]*domain.PricePoint{}, nil
	}

	query := `
		SELECT mint_address, ts, price_usd, price_sol, is_bonded, source, fetched_at
		FROM price_history FINAL
		WHERE mint_address IN ?
		ORDER BY mint_address, ts DESC, fetched_at DESC
		LIMIT 1 BY mint_address
	`

	rows, err := s.conn.Query(ctx, query, mints)
	if err != nil {
		return nil, fmt.Errorf("query latest prices: %w", err)
	}
	defer rows.Close()

	result := make(map[string]*domain.PricePoint, len(mints))
	for rows.Next() {
		var p domain.PricePoint
		var bonded uint8
		if err := rows.Scan(&p.MintAddress, &p.Timestamp, &p.PriceUsd, &p.PriceSol, &bonded, &p.Source, &p.FetchedAt); err != nil {
			return nil, fmt.Errorf("scan price history row: %w", err)
		}
		p.IsBonded = bonded == 1
		result[p.MintAddress] = &p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price history rows: %w", err)
	}
	return result, nil
}
