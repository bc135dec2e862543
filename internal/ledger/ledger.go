// Package ledger maintains per-mint FIFO lot inventories and computes
// realized cost basis for sells.
package ledger

import (
	"errors"
	"log/slog"

	"wallet-ledger/internal/domain"
)

// QuantityEpsilon is the tolerance below which a lot quantity is
// considered consumed.
const QuantityEpsilon = 1e-9

// ErrUnorderedInput is returned when Replay observes a timestamp regression.
// The ledger is only correct over timestamp-sorted input.
var ErrUnorderedInput = errors.New("trades are not in ascending timestamp order")

// SellResult describes the FIFO consumption performed for one sell.
type SellResult struct {
	CostUsd          float64 // cost basis consumed, USD
	CostSol          float64 // cost basis consumed, SOL
	WeightedDuration float64 // sum over consumed lots of (sellTs - acquiredAt) * takenQty
	ConsumedQty      float64 // quantity matched against open lots
	UncoveredQty     float64 // quantity sold beyond recorded inventory (zero-cost)
}

// Book holds the per-mint open lot queues for one reconstruction pass.
// It is ephemeral working state, rebuilt from scratch each run.
type Book struct {
	lots   map[string][]*domain.Lot
	logger *slog.Logger
}

// NewBook creates an empty lot book.
func NewBook(logger *slog.Logger) *Book {
	if logger == nil {
		logger = slog.Default()
	}
	return &Book{
		lots:   make(map[string][]*domain.Lot),
		logger: logger,
	}
}

// ApplyBuy pushes a new lot onto the back of the mint's queue.
// Zero-quantity buys are ignored.
func (b *Book) ApplyBuy(mint string, qty, amountUsd, amountSol float64, timestamp int64) {
	if qty <= QuantityEpsilon {
		return
	}
	b.lots[mint] = append(b.lots[mint], &domain.Lot{
		Quantity:    qty,
		UnitCostUsd: amountUsd / qty,
		UnitCostSol: amountSol / qty,
		AcquiredAt:  timestamp,
	})
}

// ApplySell consumes lots from the front of the mint's queue, oldest first.
// Quantity sold beyond the recorded inventory is treated as zero-cost: a
// deliberate lenient policy for wallets with incomplete swap history.
func (b *Book) ApplySell(mint string, qty float64, timestamp int64) SellResult {
	var res SellResult
	remaining := qty
	queue := b.lots[mint]

	for remaining > QuantityEpsilon && len(queue) > 0 {
		lot := queue[0]
		take := remaining
		if lot.Quantity < take {
			take = lot.Quantity
		}

		res.CostUsd += take * lot.UnitCostUsd
		res.CostSol += take * lot.UnitCostSol
		res.WeightedDuration += float64(timestamp-lot.AcquiredAt) * take
		res.ConsumedQty += take

		lot.Quantity -= take
		remaining -= take
		if lot.Quantity <= QuantityEpsilon {
			queue = queue[1:]
		}
	}
	b.lots[mint] = queue

	if remaining > QuantityEpsilon {
		res.UncoveredQty = remaining
		b.logger.Warn("sell exceeds recorded inventory, excess treated as zero-cost",
			"mint", mint,
			"uncovered_qty", remaining,
			"sold_qty", qty,
		)
	}
	return res
}

// OpenQuantity returns the total unsold quantity recorded for a mint.
func (b *Book) OpenQuantity(mint string) float64 {
	var total float64
	for _, lot := range b.lots[mint] {
		total += lot.Quantity
	}
	return total
}

// OpenPosition summarizes the remaining lots for a mint, or nil when the
// inventory is empty.
type OpenPosition struct {
	MintAddress string
	Quantity    float64
	AvgCostUsd  float64
	AvgCostSol  float64
}

// Positions returns one summary per mint that still has open quantity.
// Order is unspecified; callers sort as needed.
func (b *Book) Positions() []*OpenPosition {
	var out []*OpenPosition
	for mint, queue := range b.lots {
		var qty, costUsd, costSol float64
		for _, lot := range queue {
			qty += lot.Quantity
			costUsd += lot.Quantity * lot.UnitCostUsd
			costSol += lot.Quantity * lot.UnitCostSol
		}
		if qty <= QuantityEpsilon {
			continue
		}
		out = append(out, &OpenPosition{
			MintAddress: mint,
			Quantity:    qty,
			AvgCostUsd:  costUsd / qty,
			AvgCostSol:  costSol / qty,
		})
	}
	return out
}

// ReplayResult accumulates the realized outcome of a full replay.
type ReplayResult struct {
	RealizedProfitUsd float64 // sum of sell PnL
	WeightedDuration  float64 // duration-weighted quantity sum across sells
	ConsumedQty       float64 // total quantity matched against lots
}

// Replay folds a timestamp-sorted trade stream through the book, filling
// in ProfitLossUsd on sell trades in place. Returns ErrUnorderedInput on
// a timestamp regression.
func (b *Book) Replay(trades []*domain.Trade) (*ReplayResult, error) {
	res := &ReplayResult{}
	var prevTs int64

	for _, t := range trades {
		if t.Timestamp < prevTs {
			return nil, ErrUnorderedInput
		}
		prevTs = t.Timestamp

		switch t.Side {
		case domain.TradeSideBuy:
			b.ApplyBuy(t.MintAddress, t.Quantity, t.AmountUsd, t.AmountSol, t.Timestamp)
		case domain.TradeSideSell:
			sell := b.ApplySell(t.MintAddress, t.Quantity, t.Timestamp)
			t.ProfitLossUsd = t.AmountUsd - sell.CostUsd
			res.RealizedProfitUsd += t.ProfitLossUsd
			res.WeightedDuration += sell.WeightedDuration
			res.ConsumedQty += sell.ConsumedQty
		}
	}
	return res, nil
}
