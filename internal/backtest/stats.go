package backtest

import (
	"math"

	"github.com/newthinker/stratlab/internal/series"
	"github.com/newthinker/stratlab/internal/signal"
)

// periodsPerYear annualizes daily ratios.
const periodsPerYear = 252

// CalculateStats computes performance statistics from the aligned signal,
// return and cumulative series of a backtest.
func CalculateStats(signals []series.Position, market, strat []series.Value, cumMarket, cumStrategy []float64) Stats {
	if len(signals) == 0 {
		return Stats{}
	}

	stats := Stats{
		Periods: len(signals),
		Trades:  signal.Changes(signals),
	}
	for _, p := range signals {
		switch p {
		case series.Long:
			stats.LongPeriods++
		case series.Short:
			stats.ShortPeriods++
		default:
			stats.FlatPeriods++
		}
	}
	stats.Exposure = percent(stats.LongPeriods+stats.ShortPeriods, stats.Periods)

	var inMarket, winning int
	for t := 1; t < len(strat) && t <= len(signals); t++ {
		r, ok := series.Get(strat[t])
		if !ok || signals[t-1] == series.Flat {
			continue
		}
		inMarket++
		if r > 0 {
			winning++
		}
	}
	stats.WinRate = percent(winning, inMarket)

	stats.MaxDrawdown = calculateMaxDrawdown(cumStrategy) * 100
	stats.MarketMaxDrawdown = calculateMaxDrawdown(cumMarket) * 100
	stats.SharpeRatio = calculateSharpeRatio(series.Defined(strat))
	stats.MarketSharpeRatio = calculateSharpeRatio(series.Defined(market))

	return stats
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

// calculateMaxDrawdown finds the largest peak-to-trough decline of a growth
// curve that starts from 1.
func calculateMaxDrawdown(curve []float64) float64 {
	var maxDD float64
	peak := 1.0

	for _, v := range curve {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd := (peak - v) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}

	return maxDD
}

// calculateSharpeRatio computes risk-adjusted return
// Assumes risk-free rate of 0 for simplicity
func calculateSharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	stdDev := math.Sqrt(variance / float64(len(returns)-1))

	if stdDev == 0 {
		return 0
	}

	return mean * periodsPerYear / (stdDev * math.Sqrt(periodsPerYear))
}
