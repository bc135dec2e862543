package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"wallet-ledger/internal/classify"
	"wallet-ledger/internal/domain"
	"wallet-ledger/internal/observability"
	"wallet-ledger/internal/storage"
)

// Resolver defaults.
const (
	DefaultTTL = 5 * time.Minute

	// FallbackSolPriceUsd is the conservative SOL price used when every
	// lookup path fails. Degrades valuation rather than aborting.
	FallbackSolPriceUsd = 150

	UnknownSymbol = "MEME"
	UnknownName   = "Unknown"
)

type cachedPrice struct {
	point     *domain.PricePoint
	fetchedAt time.Time
}

type cachedMeta struct {
	meta      *domain.TokenMetadata
	fetchedAt time.Time
}

type cachedStatus struct {
	status    *domain.BondingStatus
	fetchedAt time.Time
}

// Resolver layers an in-memory TTL cache and an optional persisted cache
// over the live provider. Price unavailability never aborts trade
// reconstruction: failures degrade to a zero price flagged "unavailable".
type Resolver struct {
	provider Provider
	prices   storage.PriceCacheStore    // optional persisted cache
	metadata storage.MetadataCacheStore // optional persisted cache
	history  storage.PriceHistoryStore  // optional history sink and fallback
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger

	mu          sync.RWMutex
	priceCache  map[string]cachedPrice
	metaCache   map[string]cachedMeta
	statusCache map[string]cachedStatus
}

// ResolverOption configures Resolver.
type ResolverOption func(*Resolver)

// WithTTL overrides the in-memory cache TTL.
func WithTTL(ttl time.Duration) ResolverOption {
	return func(r *Resolver) { r.ttl = ttl }
}

// WithClock injects a clock for tests.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) { r.now = now }
}

// WithPriceCacheStore attaches a persisted price cache.
func WithPriceCacheStore(s storage.PriceCacheStore) ResolverOption {
	return func(r *Resolver) { r.prices = s }
}

// WithMetadataCacheStore attaches a persisted metadata cache.
func WithMetadataCacheStore(s storage.MetadataCacheStore) ResolverOption {
	return func(r *Resolver) { r.metadata = s }
}

// WithHistorySink attaches a history store for resolved prices: every
// successful lookup is appended, and its newest point per mint serves as
// the mark-price fallback when the live provider is down.
func WithHistorySink(s storage.PriceHistoryStore) ResolverOption {
	return func(r *Resolver) { r.history = s }
}

// WithLogger sets the resolver logger.
func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver creates a resolver over the given live provider.
func NewResolver(provider Provider, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		provider:    provider,
		ttl:         DefaultTTL,
		now:         time.Now,
		logger:      slog.Default(),
		priceCache:  make(map[string]cachedPrice),
		metaCache:   make(map[string]cachedMeta),
		statusCache: make(map[string]cachedStatus),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func priceKey(mint string, timestamp int64) string {
	if timestamp == 0 {
		return fmt.Sprintf("%s|latest", mint)
	}
	return fmt.Sprintf("%s|%d", mint, timestamp)
}

// Price resolves the unit price of a mint at a timestamp (0 for latest).
// Lookup order: memory cache, persisted cache, live provider. A failed
// latest-price lookup falls back to the newest recorded history point;
// when that is absent too the result is a zero price with Source
// "unavailable", cached for the TTL so a flapping provider is not
// hammered.
func (r *Resolver) Price(ctx context.Context, mint string, timestamp int64) *domain.PricePoint {
	key := priceKey(mint, timestamp)

	r.mu.RLock()
	if c, ok := r.priceCache[key]; ok && r.now().Sub(c.fetchedAt) < r.ttl {
		r.mu.RUnlock()
		observability.RecordPriceCacheHit("memory")
		return c.point
	}
	r.mu.RUnlock()

	point := r.lookupPrice(ctx, mint, timestamp)
	if point.Source == domain.PriceSourceUnavailable {
		observability.RecordPriceLookup("degraded")
	} else {
		observability.RecordPriceLookup("ok")
	}

	r.mu.Lock()
	r.priceCache[key] = cachedPrice{point: point, fetchedAt: r.now()}
	r.mu.Unlock()

	if r.history != nil && point.Source != domain.PriceSourceUnavailable {
		if err := r.history.AppendBulk(ctx, []*domain.PricePoint{point}); err != nil {
			r.logger.Warn("price history append failed", "mint", mint, "error", err)
		}
	}
	return point
}

func (r *Resolver) lookupPrice(ctx context.Context, mint string, timestamp int64) *domain.PricePoint {
	if r.prices != nil && timestamp > 0 {
		cached, err := r.prices.Get(ctx, mint, timestamp)
		if err == nil {
			observability.RecordPriceCacheHit("store")
			return cached
		}
		if !errors.Is(err, storage.ErrNotFound) {
			r.logger.Warn("persisted price cache read failed", "mint", mint, "error", err)
		}
	}

	point, err := r.provider.TokenPrice(ctx, mint, timestamp)
	if err != nil {
		observability.RecordProviderCall("error")
		if fallback := r.lastRecorded(ctx, mint, timestamp); fallback != nil {
			r.logger.Warn("price lookup failed, using last recorded price",
				"mint", mint, "timestamp", timestamp, "error", err)
			return fallback
		}
		r.logger.Warn("price lookup failed, degrading to zero",
			"mint", mint, "timestamp", timestamp, "error", err)
		return &domain.PricePoint{
			MintAddress: mint,
			Timestamp:   timestamp,
			Source:      domain.PriceSourceUnavailable,
			FetchedAt:   r.now().Unix(),
		}
	}

	observability.RecordProviderCall("ok")

	status := r.Bonding(ctx, mint)
	point.IsBonded = status.IsBonded

	if r.prices != nil && timestamp > 0 {
		if err := r.prices.Upsert(ctx, point); err != nil {
			r.logger.Warn("persisted price cache write failed", "mint", mint, "error", err)
		}
	}
	return point
}

// lastRecorded returns the newest price the history sink holds for a
// mint, serving as the mark-price fallback when the live provider is
// down. Only latest-price lookups fall back; a point-in-time request
// answered with a stale mark would silently misprice the trade.
func (r *Resolver) lastRecorded(ctx context.Context, mint string, timestamp int64) *domain.PricePoint {
	if r.history == nil || timestamp != 0 {
		return nil
	}
	latest, err := r.history.Latest(ctx, []string{mint})
	if err != nil {
		r.logger.Warn("price history read failed", "mint", mint, "error", err)
		return nil
	}
	point, ok := latest[mint]
	if !ok {
		return nil
	}
	observability.RecordPriceCacheHit("history")
	return point
}

// Metadata resolves symbol and name for a mint. Failure yields the
// unknown-token placeholder, cached for the TTL.
func (r *Resolver) Metadata(ctx context.Context, mint string) *domain.TokenMetadata {
	r.mu.RLock()
	if c, ok := r.metaCache[mint]; ok && r.now().Sub(c.fetchedAt) < r.ttl {
		r.mu.RUnlock()
		return c.meta
	}
	r.mu.RUnlock()

	meta := r.lookupMetadata(ctx, mint)

	r.mu.Lock()
	r.metaCache[mint] = cachedMeta{meta: meta, fetchedAt: r.now()}
	r.mu.Unlock()
	return meta
}

func (r *Resolver) lookupMetadata(ctx context.Context, mint string) *domain.TokenMetadata {
	if r.metadata != nil {
		cached, err := r.metadata.Get(ctx, mint)
		if err == nil {
			return cached
		}
		if !errors.Is(err, storage.ErrNotFound) {
			r.logger.Warn("persisted metadata cache read failed", "mint", mint, "error", err)
		}
	}

	meta, err := r.provider.TokenMetadata(ctx, mint)
	if err != nil {
		r.logger.Warn("metadata lookup failed, using placeholder", "mint", mint, "error", err)
		return &domain.TokenMetadata{
			MintAddress: mint,
			Symbol:      UnknownSymbol,
			Name:        UnknownName,
			FetchedAt:   r.now().Unix(),
		}
	}

	if r.metadata != nil {
		if err := r.metadata.Upsert(ctx, meta); err != nil {
			r.logger.Warn("persisted metadata cache write failed", "mint", mint, "error", err)
		}
	}
	return meta
}

// Bonding resolves liquidity status with the same TTL discipline.
// Failure yields {status: "unknown", isBonded: false}.
func (r *Resolver) Bonding(ctx context.Context, mint string) *domain.BondingStatus {
	r.mu.RLock()
	if c, ok := r.statusCache[mint]; ok && r.now().Sub(c.fetchedAt) < r.ttl {
		r.mu.RUnlock()
		return c.status
	}
	r.mu.RUnlock()

	status, err := r.provider.BondingStatus(ctx, mint)
	if err != nil {
		r.logger.Warn("bonding status lookup failed", "mint", mint, "error", err)
		status = &domain.BondingStatus{Status: "unknown", IsBonded: false}
	}

	r.mu.Lock()
	r.statusCache[mint] = cachedStatus{status: status, fetchedAt: r.now()}
	r.mu.Unlock()
	return status
}

// WalletBalances reads the wallet's SOL and USDC balances from the
// provider. Failure degrades to zero balances: the profile view treats
// them as best effort, like every other resolved value.
func (r *Resolver) WalletBalances(ctx context.Context, wallet string) *domain.WalletBalances {
	balances, err := r.provider.WalletBalances(ctx, wallet)
	if err != nil {
		observability.RecordProviderCall("error")
		r.logger.Warn("wallet balance lookup failed, degrading to zero",
			"wallet", wallet, "error", err)
		return &domain.WalletBalances{}
	}
	observability.RecordProviderCall("ok")
	return balances
}

// SolPriceUsd resolves the current SOL price, falling back to a
// conservative constant when every path fails.
func (r *Resolver) SolPriceUsd(ctx context.Context) float64 {
	point := r.Price(ctx, classify.WrappedSolMint, 0)
	if point.PriceUsd > 0 {
		return point.PriceUsd
	}
	return FallbackSolPriceUsd
}
