// Package trades converts raw swap events into directional, mint-scoped
// trade records with USD and SOL notionals.
package trades

import (
	"context"
	"log/slog"

	"wallet-ledger/internal/classify"
	"wallet-ledger/internal/domain"
	"wallet-ledger/internal/observability"
)

// PriceSource is the slice of the price resolver the builder needs.
type PriceSource interface {
	Price(ctx context.Context, mint string, timestamp int64) *domain.PricePoint
	Metadata(ctx context.Context, mint string) *domain.TokenMetadata
	SolPriceUsd(ctx context.Context) float64
}

// Builder derives at most one Trade from each RawSwap: the position-asset
// leg, priced preferentially from the swap's own quote leg.
type Builder struct {
	classifier *classify.Classifier
	prices     PriceSource
	logger     *slog.Logger
}

// NewBuilder creates a trade builder.
func NewBuilder(classifier *classify.Classifier, prices PriceSource, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		classifier: classifier,
		prices:     prices,
		logger:     logger,
	}
}

// Build converts one swap into a trade. Returns nil for swaps that carry
// no position-asset information: quote-to-quote rebalances, legless
// records, and zero-quantity fills.
func (b *Builder) Build(ctx context.Context, swap *domain.RawSwap) *domain.Trade {
	if swap == nil {
		return nil
	}

	position, quote, side := b.selectLegs(swap)
	if position == nil {
		return nil
	}
	if position.Amount <= 0 {
		b.logger.Debug("dropping zero-quantity swap",
			"signature", swap.Signature,
			"mint", position.Mint)
		return nil
	}

	trade := &domain.Trade{
		Signature:   swap.Signature,
		MintAddress: position.Mint,
		Side:        side,
		Quantity:    position.Amount,
		Timestamp:   swap.Timestamp,
		Source:      swap.Source,
	}

	meta := b.prices.Metadata(ctx, position.Mint)
	trade.Symbol = meta.Symbol

	b.priceTrade(ctx, trade, position, quote)
	observability.RecordTradeBuilt(trade.Side)
	return trade
}

// selectLegs picks the position leg, its quote counterpart, and the trade
// direction. The received leg wins when both legs are position assets
// (position-to-position swaps are treated as acquiring the received asset).
func (b *Builder) selectLegs(swap *domain.RawSwap) (position, quote *domain.SwapLeg, side string) {
	outIsPosition := swap.LegOut != nil && b.classifier.Classify(swap.LegOut.Mint) == classify.ClassPosition
	inIsPosition := swap.LegIn != nil && b.classifier.Classify(swap.LegIn.Mint) == classify.ClassPosition

	switch {
	case outIsPosition:
		return swap.LegOut, swap.LegIn, domain.TradeSideBuy
	case inIsPosition:
		return swap.LegIn, swap.LegOut, domain.TradeSideSell
	default:
		return nil, nil, ""
	}
}

// priceTrade fills AmountUsd, AmountSol, and PriceSource. The swap's own
// quote leg is the preferred notional: it is the actually transacted
// value. The oracle price is the fallback.
func (b *Builder) priceTrade(ctx context.Context, trade *domain.Trade, position, quote *domain.SwapLeg) {
	if quote != nil && quote.Amount > 0 {
		switch quote.Mint {
		case classify.WrappedSolMint:
			solPrice := b.prices.SolPriceUsd(ctx)
			trade.AmountSol = quote.Amount
			trade.AmountUsd = quote.Amount * solPrice
			trade.PriceSource = domain.PriceSourceQuoteLeg
			return
		case classify.UsdcMint, classify.UsdtMint:
			// Stables transact at face value.
			trade.AmountUsd = quote.Amount
			if solPrice := b.prices.SolPriceUsd(ctx); solPrice > 0 {
				trade.AmountSol = quote.Amount / solPrice
			}
			trade.PriceSource = domain.PriceSourceQuoteLeg
			return
		}
		// Staking-derivative quote legs have no fixed USD face value;
		// fall through to the oracle path.
	}

	point := b.prices.Price(ctx, trade.MintAddress, trade.Timestamp)
	trade.AmountUsd = trade.Quantity * point.PriceUsd
	trade.AmountSol = trade.Quantity * point.PriceSol
	if point.Source == domain.PriceSourceUnavailable {
		trade.PriceSource = domain.PriceSourceUnavailable
		b.logger.Warn("trade recorded without price",
			"signature", trade.Signature,
			"mint", trade.MintAddress)
		return
	}
	trade.PriceSource = domain.PriceSourceOracle
}

// BuildAll converts a batch of swaps, dropping unparseable entries.
func (b *Builder) BuildAll(ctx context.Context, swaps []*domain.RawSwap) []*domain.Trade {
	out := make([]*domain.Trade, 0, len(swaps))
	for _, swap := range swaps {
		if t := b.Build(ctx, swap); t != nil {
			out = append(out, t)
		}
	}
	return out
}
