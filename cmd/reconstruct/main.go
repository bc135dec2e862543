// Package main reconstructs the trade history of a single wallet.
//
// With -account it persists the rebuilt trades and refreshes the account
// summary. Without it the run is read-only and prints profile analytics
// as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"wallet-ledger/internal/classify"
	"wallet-ledger/internal/config"
	"wallet-ledger/internal/engine"
	"wallet-ledger/internal/feed"
	"wallet-ledger/internal/logging"
	"wallet-ledger/internal/pricing"
	"wallet-ledger/internal/storage"
	chstore "wallet-ledger/internal/storage/clickhouse"
	"wallet-ledger/internal/storage/memory"
	"wallet-ledger/internal/storage/migrations"
	pgstore "wallet-ledger/internal/storage/postgres"
	"wallet-ledger/internal/trades"
	"wallet-ledger/internal/tradesync"
)

func main() {
	wallet := flag.String("wallet", "", "Solana wallet address to reconstruct")
	accountID := flag.String("account", "", "Account ID to persist results under (omit for read-only analytics)")
	flag.Parse()

	if *wallet == "" {
		fmt.Fprintln(os.Stderr, "-wallet is required")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New("reconstruct", cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, cleanup, err := buildStores(ctx, cfg)
	if err != nil {
		logger.Error("store setup failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	eng, err := buildEngine(cfg, stores, logger)
	if err != nil {
		logger.Error("engine setup failed", "error", err)
		os.Exit(1)
	}

	if *accountID != "" {
		metrics, err := eng.ReconstructWallet(ctx, *wallet, *accountID)
		if err != nil {
			logger.Error("reconstruction failed", "wallet", *wallet, "account_id", *accountID, "error", err)
			os.Exit(1)
		}
		logger.Info("reconstruction complete",
			"account_id", *accountID,
			"total_trades", metrics.TotalTrades,
			"total_profit_usd", metrics.TotalProfitUsd,
			"pnl_percent", metrics.PnlPercent,
			"win_rate", metrics.WinRate)
		return
	}

	analytics, err := eng.ProfileAnalytics(ctx, *wallet)
	if err != nil {
		logger.Error("analytics failed", "wallet", *wallet, "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(analytics); err != nil {
		logger.Error("encode analytics", "error", err)
		os.Exit(1)
	}
}

// appStores bundles the storage implementations one run needs.
type appStores struct {
	trades        storage.TradeStore
	accounts      storage.AccountStore
	priceCache    storage.PriceCacheStore
	metadataCache storage.MetadataCacheStore
	history       storage.PriceHistoryStore
}

func buildEngine(cfg *config.Config, stores *appStores, logger *slog.Logger) (*engine.Engine, error) {
	source, err := feed.NewClient(cfg.MoralisAPIKey,
		feedOptions(cfg)...,
	)
	if err != nil {
		return nil, fmt.Errorf("swap feed: %w", err)
	}

	gateway, err := pricing.NewGateway(cfg.MoralisAPIKey, gatewayOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("price gateway: %w", err)
	}

	resolverOpts := []pricing.ResolverOption{
		pricing.WithTTL(cfg.PriceTTL),
		pricing.WithPriceCacheStore(stores.priceCache),
		pricing.WithMetadataCacheStore(stores.metadataCache),
		pricing.WithLogger(logger),
	}
	if stores.history != nil {
		resolverOpts = append(resolverOpts, pricing.WithHistorySink(stores.history))
	}
	resolver := pricing.NewResolver(gateway, resolverOpts...)

	classifier := classify.New()
	if cfg.QuoteSetPath != "" {
		if err := classifier.LoadQuoteSet(cfg.QuoteSetPath); err != nil {
			return nil, fmt.Errorf("quote set: %w", err)
		}
	}

	builder := trades.NewBuilder(classifier, resolver, logger)
	syncer := tradesync.NewSyncer(stores.trades, stores.accounts, logger)

	return engine.New(source, builder, resolver, syncer, stores.accounts, logger), nil
}

func feedOptions(cfg *config.Config) []feed.ClientOption {
	opts := []feed.ClientOption{
		feed.WithNetwork(cfg.FeedNetwork),
		feed.WithPageLimit(cfg.FeedPageLimit),
		feed.WithMaxPages(cfg.FeedMaxPages),
	}
	if cfg.FeedBaseURL != "" {
		opts = append(opts, feed.WithBaseURL(cfg.FeedBaseURL))
	}
	return opts
}

func gatewayOptions(cfg *config.Config) []pricing.GatewayOption {
	opts := []pricing.GatewayOption{pricing.WithNetwork(cfg.FeedNetwork)}
	if cfg.FeedBaseURL != "" {
		opts = append(opts, pricing.WithBaseURL(cfg.FeedBaseURL))
	}
	return opts
}

// buildStores connects to PostgreSQL and ClickHouse, or falls back to
// in-memory stores when USE_MEMORY is set.
func buildStores(ctx context.Context, cfg *config.Config) (*appStores, func(), error) {
	if cfg.UseMemory {
		return &appStores{
			trades:        memory.NewTradeStore(),
			accounts:      memory.NewAccountStore(),
			priceCache:    memory.NewPriceCacheStore(),
			metadataCache: memory.NewMetadataCacheStore(),
			history:       memory.NewPriceHistoryStore(),
		}, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	stores := &appStores{
		trades:        pgstore.NewTradeStore(pool),
		accounts:      pgstore.NewAccountStore(pool),
		priceCache:    pgstore.NewPriceCacheStore(pool),
		metadataCache: pgstore.NewMetadataCacheStore(pool),
	}
	cleanup := pool.Close

	if cfg.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		stores.history = chstore.NewPriceHistoryStore(conn)
		cleanup = func() {
			_ = conn.Close()
			pool.Close()
		}
	}

	return stores, cleanup, nil
}
