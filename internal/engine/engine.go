// Package engine wires the swap feed, trade builder, FIFO ledger, and
// trade sync into the two entry points callers use: full wallet
// reconstruction with persistence, and ad-hoc profile analytics.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"wallet-ledger/internal/domain"
	"wallet-ledger/internal/feed"
	"wallet-ledger/internal/ledger"
	"wallet-ledger/internal/observability"
	"wallet-ledger/internal/solana"
	"wallet-ledger/internal/stats"
	"wallet-ledger/internal/storage"
	"wallet-ledger/internal/trades"
	"wallet-ledger/internal/tradesync"
)

// BalanceSource reads wallet quote-asset balances from the provider.
// The ledger cannot supply them: quote legs never open positions, so
// SOL and USDC holdings are invisible to the replay.
type BalanceSource interface {
	WalletBalances(ctx context.Context, wallet string) *domain.WalletBalances
}

// Engine reconstructs wallet trade histories.
type Engine struct {
	feed     feed.Source
	builder  *trades.Builder
	prices   trades.PriceSource
	syncer   *tradesync.Syncer
	accounts storage.AccountStore
	logger   *slog.Logger
}

// New creates an engine. The syncer and account store may be nil for
// read-only deployments that only serve profile analytics.
func New(source feed.Source, builder *trades.Builder, prices trades.PriceSource, syncer *tradesync.Syncer, accounts storage.AccountStore, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		feed:     source,
		builder:  builder,
		prices:   prices,
		syncer:   syncer,
		accounts: accounts,
		logger:   logger,
	}
}

// Analytics is the ad-hoc profile view: aggregate stats, the full trade
// list newest first, and current open holdings.
type Analytics struct {
	Stats    *domain.AccountMetrics
	Trades   []*domain.Trade
	Holdings []*domain.PositionSummary
}

// reconstruction is the shared pipeline output.
type reconstruction struct {
	trades   []*domain.Trade
	holdings []*domain.PositionSummary
	metrics  *domain.AccountMetrics
}

// reconstruct runs the full pipeline for one wallet: fetch, order,
// build, replay, mark holdings, aggregate.
func (e *Engine) reconstruct(ctx context.Context, wallet string) (*reconstruction, error) {
	if err := solana.ValidateWalletAddress(wallet); err != nil {
		return nil, fmt.Errorf("wallet %q: %w", wallet, err)
	}

	swaps, err := e.feed.Swaps(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("fetch swaps: %w", err)
	}

	// The ledger is only correct over ascending timestamps.
	sort.SliceStable(swaps, func(i, j int) bool {
		return swaps[i].Timestamp < swaps[j].Timestamp
	})

	built := e.builder.BuildAll(ctx, swaps)

	book := ledger.NewBook(e.logger)
	replay, err := book.Replay(built)
	if err != nil {
		return nil, fmt.Errorf("replay ledger: %w", err)
	}

	holdings := e.markHoldings(ctx, book.Positions())

	metrics := stats.Aggregate(built, holdings, stats.HoldStats{
		WeightedDurationSeconds: replay.WeightedDuration,
		ConsumedQuantity:        replay.ConsumedQty,
	})

	if balances, ok := e.prices.(BalanceSource); ok {
		b := balances.WalletBalances(ctx, wallet)
		metrics.SolBalance = b.Sol
		metrics.UsdcBalance = b.Usdc
	}

	e.logger.Debug("wallet reconstructed",
		"wallet", wallet,
		"swaps", len(swaps),
		"trades", len(built),
		"holdings", len(holdings))

	return &reconstruction{trades: built, holdings: holdings, metrics: metrics}, nil
}

// markHoldings values open positions at the current resolved price.
func (e *Engine) markHoldings(ctx context.Context, open []*ledger.OpenPosition) []*domain.PositionSummary {
	holdings := make([]*domain.PositionSummary, 0, len(open))
	for _, pos := range open {
		mark := e.prices.Price(ctx, pos.MintAddress, 0)
		meta := e.prices.Metadata(ctx, pos.MintAddress)

		holdings = append(holdings, &domain.PositionSummary{
			MintAddress:   pos.MintAddress,
			Symbol:        meta.Symbol,
			Quantity:      pos.Quantity,
			AvgCostUsd:    pos.AvgCostUsd,
			MarkPriceUsd:  mark.PriceUsd,
			MarkValueUsd:  mark.PriceUsd * pos.Quantity,
			UnrealizedUsd: (mark.PriceUsd - pos.AvgCostUsd) * pos.Quantity,
		})
	}
	return holdings
}

// ReconstructWallet rebuilds the full trade history for a persisted
// account, syncs new trades into storage, refreshes the account summary,
// and returns the aggregate metrics.
func (e *Engine) ReconstructWallet(ctx context.Context, wallet, accountID string) (*domain.AccountMetrics, error) {
	if e.syncer == nil {
		return nil, fmt.Errorf("engine has no syncer configured")
	}

	started := time.Now()
	rec, err := e.reconstruct(ctx, wallet)
	if err != nil {
		observability.RecordReconstruction("error", time.Since(started).Seconds())
		return nil, err
	}

	_, summary, err := e.syncer.Sync(ctx, accountID, rec.trades)
	if err != nil {
		observability.RecordReconstruction("error", time.Since(started).Seconds())
		return nil, fmt.Errorf("sync trades: %w", err)
	}
	observability.RecordReconstruction("ok", time.Since(started).Seconds())

	// Summary fields reflect the persisted history, which may be wider
	// than this run's feed window.
	metrics := rec.metrics
	metrics.TotalTrades = summary.TotalTrades
	metrics.LastTradeTimestamp = summary.LastTradeTimestamp
	return metrics, nil
}

// ProfileAnalytics performs the full reconstruction without persistence,
// for ad-hoc profile views of any wallet. Trades are returned newest
// first.
func (e *Engine) ProfileAnalytics(ctx context.Context, wallet string) (*Analytics, error) {
	rec, err := e.reconstruct(ctx, wallet)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(rec.trades, func(i, j int) bool {
		return rec.trades[i].Timestamp > rec.trades[j].Timestamp
	})

	return &Analytics{
		Stats:    rec.metrics,
		Trades:   rec.trades,
		Holdings: rec.holdings,
	}, nil
}

// BatchResult accumulates per-wallet outcomes of a batch run.
type BatchResult struct {
	Processed int
	Failed    int
	Errors    []string
}

// RunBatch reconstructs every active account with a wallet address. One
// wallet's failure never aborts the batch; it is recorded and the run
// continues.
func (e *Engine) RunBatch(ctx context.Context) (*BatchResult, error) {
	if e.accounts == nil {
		return nil, fmt.Errorf("engine has no account store configured")
	}

	accounts, err := e.accounts.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active accounts: %w", err)
	}

	result := &BatchResult{}
	for _, acct := range accounts {
		if acct.WalletAddress == "" {
			continue
		}

		e.logger.Info("processing wallet",
			"account", acct.ID,
			"wallet", acct.WalletAddress)

		metrics, err := e.ReconstructWallet(ctx, acct.WalletAddress, acct.ID)
		if err != nil {
			observability.RecordBatchAccount("failed")
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("account %s: %v", acct.ID, err))
			e.logger.Error("wallet reconstruction failed",
				"account", acct.ID,
				"wallet", acct.WalletAddress,
				"error", err)
			continue
		}

		observability.RecordBatchAccount("processed")
		result.Processed++
		e.logger.Info("account updated",
			"account", acct.ID,
			"trades", metrics.TotalTrades,
			"profit_usd", metrics.TotalProfitUsd,
			"pnl_percent", metrics.PnlPercent)
	}

	observability.DefaultMetrics.LastBatchRun.SetToCurrentTime()
	return result, nil
}
