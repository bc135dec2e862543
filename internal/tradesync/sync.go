// Package tradesync reconciles freshly computed trades against the
// persisted trade store and refreshes the owning account's summary.
// Ingestion is idempotent: a trade is inserted at most once, keyed by
// signature, with a per-account (timestamp, mint) fallback for trades
// that carry no signature.
package tradesync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"wallet-ledger/internal/domain"
	"wallet-ledger/internal/observability"
	"wallet-ledger/internal/stats"
	"wallet-ledger/internal/storage"
)

// Result reports the outcome of one sync pass.
type Result struct {
	Inserted   int // trades newly persisted
	Skipped    int // trades already present per the pre-check
	Duplicates int // inserts rejected by the store's unique constraint
	Failed     int // trades that could not be persisted on either attempt
}

// Syncer persists computed trades and updates account summaries.
type Syncer struct {
	trades   storage.TradeStore
	accounts storage.AccountStore
	logger   *slog.Logger
}

// NewSyncer creates a syncer over the given stores.
func NewSyncer(trades storage.TradeStore, accounts storage.AccountStore, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		trades:   trades,
		accounts: accounts,
		logger:   logger,
	}
}

// Sync inserts the genuinely new trades among computed, then recomputes
// the account summary over the full persisted history and writes it back.
// The refreshed summary is returned alongside the insert accounting.
func (s *Syncer) Sync(ctx context.Context, accountID string, computed []*domain.Trade) (*Result, *domain.AccountMetrics, error) {
	if accountID == "" {
		return nil, nil, storage.ErrInvalidInput
	}

	existingSigs, err := s.trades.AllSignatures(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load existing signatures: %w", err)
	}
	existingKeys, err := s.trades.AccountKeys(ctx, accountID)
	if err != nil {
		return nil, nil, fmt.Errorf("load account trade keys: %w", err)
	}

	result := &Result{}
	for _, t := range computed {
		if t == nil {
			continue
		}
		if s.alreadyPersisted(t, existingSigs, existingKeys) {
			result.Skipped++
			continue
		}

		trade := *t
		trade.AccountID = accountID
		s.insertOne(ctx, &trade, result)
	}

	all, err := s.trades.GetByAccount(ctx, accountID)
	if err != nil {
		return result, nil, fmt.Errorf("load persisted trades: %w", err)
	}

	summary := stats.Summarize(all)
	if err := s.accounts.UpdateMetrics(ctx, accountID, summary); err != nil {
		return result, summary, fmt.Errorf("update account summary: %w", err)
	}

	observability.RecordSyncResult(result.Inserted, result.Duplicates, result.Failed)
	s.logger.Info("trade sync complete",
		"account", accountID,
		"inserted", result.Inserted,
		"skipped", result.Skipped,
		"duplicates", result.Duplicates,
		"failed", result.Failed,
		"total", len(all))

	return result, summary, nil
}

func (s *Syncer) alreadyPersisted(t *domain.Trade, sigs map[string]struct{}, keys map[storage.TradeKey]struct{}) bool {
	if t.Signature != "" {
		_, exists := sigs[t.Signature]
		return exists
	}
	_, exists := keys[storage.TradeKey{Timestamp: t.Timestamp, MintAddress: t.MintAddress}]
	return exists
}

// insertOne attempts the full-column insert first; if the store rejects
// it for any reason other than a duplicate key, it retries with the
// required columns only. Older storage schemas do not carry the optional
// columns, and dropping them must not lose the trade.
func (s *Syncer) insertOne(ctx context.Context, trade *domain.Trade, result *Result) {
	err := s.trades.Insert(ctx, trade)
	if err == nil {
		result.Inserted++
		return
	}
	if errors.Is(err, storage.ErrDuplicateKey) {
		// Raced with a concurrent sync; the constraint is the backstop.
		result.Duplicates++
		return
	}

	s.logger.Warn("extended trade insert failed, retrying with required columns",
		"signature", trade.Signature,
		"account", trade.AccountID,
		"error", err)

	err = s.trades.InsertMinimal(ctx, trade)
	switch {
	case err == nil:
		result.Inserted++
	case errors.Is(err, storage.ErrDuplicateKey):
		result.Duplicates++
	default:
		result.Failed++
		s.logger.Warn("minimal trade insert failed",
			"signature", trade.Signature,
			"account", trade.AccountID,
			"error", err)
	}
}

