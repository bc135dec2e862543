package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"wallet-ledger/internal/domain"
	"wallet-ledger/internal/storage"
)

// AccountStore implements storage.AccountStore using PostgreSQL.
type AccountStore struct {
	pool *Pool
}

// NewAccountStore creates a new AccountStore.
func NewAccountStore(pool *Pool) *AccountStore {
	return &AccountStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AccountStore = (*AccountStore)(nil)

const accountColumns = `
	id, username, wallet_address, pnl_percent, total_profit_usd,
	total_trades, last_trade_ts, active, created_at
`

// Insert adds a new account. Returns ErrDuplicateKey if the ID exists.
func (s *AccountStore) Insert(ctx context.Context, a *domain.Account) error {
	if a == nil || a.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO accounts (
			id, username, wallet_address, pnl_percent, total_profit_usd,
			total_trades, last_trade_ts, active, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.pool.Exec(ctx, query,
		a.ID, a.Username, a.WalletAddress, a.PnlPercent, a.TotalProfitUsd,
		a.TotalTrades, a.LastTradeTimestamp, a.Active, a.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByID retrieves an account. Returns ErrNotFound if not exists.
func (s *AccountStore) GetByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = $1
	`

	row := s.pool.QueryRow(ctx, query, accountID)
	a, err := scanAccount(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get account by id: %w", err)
	}
	return a, nil
}

// GetActive retrieves all active accounts with a wallet address.
func (s *AccountStore) GetActive(ctx context.Context) ([]*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE active = TRUE AND wallet_address <> ''
		ORDER BY id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get active accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		a, err := scanAccountRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account row: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate account rows: %w", err)
	}
	return accounts, nil
}

// UpdateMetrics writes recomputed summary fields onto the account record.
func (s *AccountStore) UpdateMetrics(ctx context.Context, accountID string, m *domain.AccountMetrics) error {
	if m == nil {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE accounts
		SET pnl_percent = $2,
		    total_profit_usd = $3,
		    total_trades = $4,
		    last_trade_ts = $5
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		accountID, m.PnlPercent, m.TotalProfitUsd, m.TotalTrades, m.LastTradeTimestamp,
	)
	if err != nil {
		return fmt.Errorf("update account metrics: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeactivateStale marks accounts inactive whose last trade is older than cutoff.
func (s *AccountStore) DeactivateStale(ctx context.Context, cutoff int64) (int, error) {
	query := `
		UPDATE accounts
		SET active = FALSE
		WHERE active = TRUE AND last_trade_ts > 0 AND last_trade_ts < $1
	`

	tag, err := s.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deactivate stale accounts: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// scanAccount scans a single row into an Account.
func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(
		&a.ID, &a.Username, &a.WalletAddress, &a.PnlPercent, &a.TotalProfitUsd,
		&a.TotalTrades, &a.LastTradeTimestamp, &a.Active, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// scanAccountRow scans the current rows cursor into an Account.
func scanAccountRow(rows pgx.Rows) (*domain.Account, error) {
	var a domain.Account
	err := rows.Scan(
		&a.ID, &a.Username, &a.WalletAddress, &a.PnlPercent, &a.TotalProfitUsd,
		&a.TotalTrades, &a.LastTradeTimestamp, &a.Active, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
