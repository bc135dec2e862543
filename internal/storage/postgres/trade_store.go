package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"wallet-ledger/internal/domain"
	"wallet-ledger/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL. The UNIQUE
// constraint on signature is the system's duplicate backstop; the
// application-level pre-check in the sync layer is an optimization only.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

const tradeColumns = `
	signature, account_id, mint_address, symbol, side,
	quantity, amount_usd, amount_sol, profit_loss_usd,
	ts, source, price_source
`

const insertTradeQuery = `
	INSERT INTO trades (
		signature, account_id, mint_address, symbol, side,
		quantity, amount_usd, amount_sol, profit_loss_usd,
		ts, source, price_source
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9,
		$10, $11, $12
	)
`

const insertMinimalTradeQuery = `
	INSERT INTO trades (
		signature, account_id, mint_address, symbol, side,
		quantity, amount_usd, profit_loss_usd, ts
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9
	)
`

// Insert adds a new trade. Returns ErrDuplicateKey if the signature exists.
func (s *TradeStore) Insert(ctx context.Context, t *domain.Trade) error {
	if t == nil || t.AccountID == "" || t.MintAddress == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertTradeQuery,
		nullableSignature(t.Signature), t.AccountID, t.MintAddress, t.Symbol, t.Side,
		t.Quantity, t.AmountUsd, t.AmountSol, t.ProfitLossUsd,
		t.Timestamp, t.Source, t.PriceSource,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// InsertMinimal adds a trade naming only the columns every schema
// version has, so a store running an older migration set can still
// accept it. Returns ErrDuplicateKey if the signature exists.
func (s *TradeStore) InsertMinimal(ctx context.Context, t *domain.Trade) error {
	if t == nil || t.AccountID == "" || t.MintAddress == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertMinimalTradeQuery,
		nullableSignature(t.Signature), t.AccountID, t.MintAddress, t.Symbol, t.Side,
		t.Quantity, t.AmountUsd, t.ProfitLossUsd, t.Timestamp,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert minimal trade: %w", err)
	}
	return nil
}

// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(ctx context.Context, trades []*domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range trades {
		if t == nil || t.AccountID == "" || t.MintAddress == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, insertTradeQuery,
			nullableSignature(t.Signature), t.AccountID, t.MintAddress, t.Symbol, t.Side,
			t.Quantity, t.AmountUsd, t.AmountSol, t.ProfitLossUsd,
			t.Timestamp, t.Source, t.PriceSource,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByAccount retrieves all trades for an account, ordered by timestamp ASC.
func (s *TradeStore) GetByAccount(ctx context.Context, accountID string) ([]*domain.Trade, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE account_id = $1
		ORDER BY ts ASC, signature ASC
	`

	rows, err := s.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("get trades by account: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// AllSignatures returns every non-null trade signature in the store.
func (s *TradeStore) AllSignatures(ctx context.Context) (map[string]struct{}, error) {
	query := `SELECT signature FROM trades WHERE signature IS NOT NULL`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all signatures: %w", err)
	}
	defer rows.Close()

	result := make(map[string]struct{})
	for rows.Next() {
		var sig string
		if err := rows.Scan(&sig); err != nil {
			return nil, fmt.Errorf("scan signature row: %w", err)
		}
		result[sig] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signature rows: %w", err)
	}
	return result, nil
}

// AccountKeys returns the (timestamp, mint) composite keys recorded for an account.
func (s *TradeStore) AccountKeys(ctx context.Context, accountID string) (map[storage.TradeKey]struct{}, error) {
	query := `SELECT ts, mint_address FROM trades WHERE account_id = $1`

	rows, err := s.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("get account trade keys: %w", err)
	}
	defer rows.Close()

	result := make(map[storage.TradeKey]struct{})
	for rows.Next() {
		var key storage.TradeKey
		if err := rows.Scan(&key.Timestamp, &key.MintAddress); err != nil {
			return nil, fmt.Errorf("scan trade key row: %w", err)
		}
		result[key] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade key rows: %w", err)
	}
	return result, nil
}

// nullableSignature maps an empty signature to NULL so the UNIQUE
// constraint ignores signatureless trades.
func nullableSignature(sig string) *string {
	if sig == "" {
		return nil
	}
	return &sig
}

// scanTrades scans multiple rows into a slice of Trade.
func scanTrades(rows pgx.Rows) ([]*domain.Trade, error) {
	var trades []*domain.Trade

	for rows.Next() {
		var t domain.Trade
		var sig *string

		err := rows.Scan(
			&sig, &t.AccountID, &t.MintAddress, &t.Symbol, &t.Side,
			&t.Quantity, &t.AmountUsd, &t.AmountSol, &t.ProfitLossUsd,
			&t.Timestamp, &t.Source, &t.PriceSource,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}
		if sig != nil {
			t.Signature = *sig
		}

		trades = append(trades, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}

	return trades, nil
}
