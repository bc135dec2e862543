// Package stats folds trade histories into account-level metrics.
// Every ratio guards its denominator: an account with no sells or no
// volume reports zero, never NaN.
package stats

import (
	"math"

	"wallet-ledger/internal/domain"
)

// HoldStats carries the duration-weighted consumption totals produced by
// the ledger replay.
type HoldStats struct {
	WeightedDurationSeconds float64
	ConsumedQuantity        float64
}

// Aggregate computes the full metrics set for one account from its
// replayed trade history and open holdings. Sells are expected to carry
// their realized PnL already. SolBalance and UsdcBalance stay zero here:
// quote assets never enter the position ledger, so the engine fills them
// from the provider's account endpoints.
func Aggregate(trades []*domain.Trade, holdings []*domain.PositionSummary, hold HoldStats) *domain.AccountMetrics {
	m := &domain.AccountMetrics{}

	wins := 0
	for _, t := range trades {
		m.TotalVolumeUsd += t.AmountUsd
		m.TotalTrades++
		if t.Timestamp > m.LastTradeTimestamp {
			m.LastTradeTimestamp = t.Timestamp
		}
		if t.Side != domain.TradeSideSell {
			continue
		}
		m.TotalSells++
		m.RealizedProfitUsd += t.ProfitLossUsd
		if t.ProfitLossUsd > 0 {
			wins++
		}
		if t.ProfitLossUsd > m.TopWinUsd {
			m.TopWinUsd = t.ProfitLossUsd
		}
	}

	for _, h := range holdings {
		m.UnrealizedProfitUsd += h.UnrealizedUsd
	}

	m.TotalProfitUsd = m.RealizedProfitUsd + m.UnrealizedProfitUsd

	if m.TotalSells > 0 {
		m.WinRate = float64(wins) / float64(m.TotalSells) * 100
	}
	if hold.ConsumedQuantity > 0 {
		m.AvgHoldDurationSeconds = hold.WeightedDurationSeconds / hold.ConsumedQuantity
	}
	if m.TotalVolumeUsd > 0 {
		m.PnlPercent = m.TotalProfitUsd / m.TotalVolumeUsd * 100
	}

	return m
}

// Summarize computes the rounded leaderboard summary written back onto
// the account record: realized profit and PnL percent at two decimal
// places, trade count, and the most recent trade timestamp.
func Summarize(trades []*domain.Trade) *domain.AccountMetrics {
	m := &domain.AccountMetrics{}

	var totalProfit, totalVolume float64
	for _, t := range trades {
		totalProfit += t.ProfitLossUsd
		totalVolume += t.AmountUsd
		m.TotalTrades++
		if t.Timestamp > m.LastTradeTimestamp {
			m.LastTradeTimestamp = t.Timestamp
		}
	}

	m.RealizedProfitUsd = Round2(totalProfit)
	m.TotalProfitUsd = m.RealizedProfitUsd
	m.TotalVolumeUsd = totalVolume
	if totalVolume > 0 {
		m.PnlPercent = Round2(totalProfit / totalVolume * 100)
	}
	return m
}

// Round2 rounds to two decimal places, the precision stored on account
// summary rows.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
