package storage

import (
	"context"

	"wallet-ledger/internal/domain"
)

// TradeKey identifies a trade within one account when the signature is
// unavailable: the (timestamp, mint) composite fallback key.
type TradeKey struct {
	Timestamp   int64
	MintAddress string
}

// TradeStore provides access to the persisted trade ledger.
type TradeStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if the signature exists.
	Insert(ctx context.Context, t *domain.Trade) error

	// InsertMinimal adds a new trade writing only the columns every
	// schema version carries, dropping the optional ones. Used as the
	// retry path when Insert fails against an older schema.
	InsertMinimal(ctx context.Context, t *domain.Trade) error

	// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, trades []*domain.Trade) error

	// GetByAccount retrieves all trades for an account, ordered by timestamp ASC.
	GetByAccount(ctx context.Context, accountID string) ([]*domain.Trade, error)

	// AllSignatures returns every trade signature present in the store.
	// Signatures are globally unique, so the scan is system-wide.
	AllSignatures(ctx context.Context) (map[string]struct{}, error)

	// AccountKeys returns the (timestamp, mint) composite keys recorded
	// for an account, used when a trade carries no signature.
	AccountKeys(ctx context.Context, accountID string) (map[TradeKey]struct{}, error)
}

// AccountStore provides access to leaderboard accounts.
type AccountStore interface {
	// GetByID retrieves an account. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, accountID string) (*domain.Account, error)

	// GetActive retrieves all active accounts with a wallet address.
	GetActive(ctx context.Context) ([]*domain.Account, error)

	// UpdateMetrics writes recomputed summary fields onto the account record.
	UpdateMetrics(ctx context.Context, accountID string, m *domain.AccountMetrics) error

	// DeactivateStale marks accounts inactive whose last trade is older
	// than cutoff (Unix seconds). Returns the number of accounts changed.
	DeactivateStale(ctx context.Context, cutoff int64) (int, error)
}

// PriceCacheStore is the persisted price cache consulted before the live
// price provider and written back after successful lookups.
type PriceCacheStore interface {
	// Get retrieves a cached price. Returns ErrNotFound if not cached.
	Get(ctx context.Context, mint string, timestamp int64) (*domain.PricePoint, error)

	// Upsert inserts or replaces a cached price.
	Upsert(ctx context.Context, p *domain.PricePoint) error
}

// MetadataCacheStore is the persisted token metadata cache.
type MetadataCacheStore interface {
	// Get retrieves cached metadata. Returns ErrNotFound if not cached.
	Get(ctx context.Context, mint string) (*domain.TokenMetadata, error)

	// Upsert inserts or replaces cached metadata.
	Upsert(ctx context.Context, m *domain.TokenMetadata) error
}

// PriceHistoryStore is an append-only sink for every price the resolver
// returns, kept for offline analytics. Duplicates are tolerated; the
// backing table is expected to deduplicate (e.g. ReplacingMergeTree).
type PriceHistoryStore interface {
	// AppendBulk records resolved prices. Never returns ErrDuplicateKey.
	AppendBulk(ctx context.Context, points []*domain.PricePoint) error

	// Latest returns the most recently recorded price per mint. Mints
	// with no history are absent from the result.
	Latest(ctx context.Context, mints []string) (map[string]*domain.PricePoint, error)
}
