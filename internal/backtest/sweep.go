package backtest

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/newthinker/stratlab/internal/core"
	"github.com/newthinker/stratlab/internal/series"
	"github.com/newthinker/stratlab/internal/strategy"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// SweepEntry is the outcome of one moving-average window pair.
type SweepEntry struct {
	Short               int     `json:"short_window"`
	Long                int     `json:"long_window"`
	TotalMarketReturn   float64 `json:"total_market_return"`
	TotalStrategyReturn float64 `json:"total_strategy_return"`
	Stats               Stats   `json:"stats"`
}

// DefaultSweepGrid enumerates every valid moving-average window pair with
// short windows from MinShortWindow to MaxShortWindow and long windows from
// MinLongWindow to MaxLongWindow, stepping by the given amounts.
func DefaultSweepGrid(shortStep, longStep int) ([]strategy.MovingAverage, error) {
	if shortStep <= 0 || longStep <= 0 {
		return nil, core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("sweep steps must be positive, got %d and %d", shortStep, longStep))
	}

	shorts := lo.RangeWithSteps(strategy.MinShortWindow, strategy.MaxShortWindow+1, shortStep)
	longs := lo.RangeWithSteps(strategy.MinLongWindow, strategy.MaxLongWindow+1, longStep)

	grid := lo.FlatMap(shorts, func(short int, _ int) []strategy.MovingAverage {
		return lo.Map(longs, func(long int, _ int) strategy.MovingAverage {
			return strategy.MovingAverage{Short: short, Long: long}
		})
	})
	return lo.Filter(grid, func(ma strategy.MovingAverage, _ int) bool {
		return ma.Validate() == nil
	}), nil
}

// Sweep evaluates every grid point over ps and returns the entries ranked by
// total strategy return, best first. Ties keep grid order.
func Sweep(ps *series.PriceSeries, grid []strategy.MovingAverage) ([]SweepEntry, error) {
	return sweep(context.Background(), ps, grid)
}

// sweep stops between grid points once ctx is done.
func sweep(ctx context.Context, ps *series.PriceSeries, grid []strategy.MovingAverage) ([]SweepEntry, error) {
	if len(grid) == 0 {
		return nil, core.WrapError(core.ErrInvalidParameter, fmt.Errorf("empty sweep grid"))
	}

	entries := make([]SweepEntry, 0, len(grid))
	for i, ma := range grid {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("sweep stopped after %d of %d pairs: %w", i, len(grid), err)
		}
		result, err := Evaluate(ma, ps)
		if err != nil {
			return nil, fmt.Errorf("sweep %s: %w", ma.Name(), err)
		}
		entries = append(entries, SweepEntry{
			Short:               ma.Short,
			Long:                ma.Long,
			TotalMarketReturn:   result.TotalMarketReturn,
			TotalStrategyReturn: result.TotalStrategyReturn,
			Stats:               result.Stats,
		})
	}

	slices.SortStableFunc(entries, func(a, b SweepEntry) int {
		return cmp.Compare(b.TotalStrategyReturn, a.TotalStrategyReturn)
	})
	return entries, nil
}

// Best returns the entry with the highest total strategy return.
func Best(entries []SweepEntry) (SweepEntry, bool) {
	if len(entries) == 0 {
		return SweepEntry{}, false
	}
	return lo.MaxBy(entries, func(a, b SweepEntry) bool {
		return a.TotalStrategyReturn > b.TotalStrategyReturn
	}), true
}

// Sweep loads symbol once and evaluates the whole grid over it.
func (b *Backtester) Sweep(ctx context.Context, symbol string, start, end time.Time, grid []strategy.MovingAverage) ([]SweepEntry, error) {
	ps, err := b.Load(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}

	entries, err := sweep(ctx, ps, grid)
	if err != nil {
		return nil, err
	}
	if b.metrics != nil {
		b.metrics.RecordSweep(len(entries))
	}

	best, _ := Best(entries)
	b.logger.Info("sweep completed",
		zap.String("symbol", symbol),
		zap.Int("combinations", len(entries)),
		zap.Int("best_short", best.Short),
		zap.Int("best_long", best.Long),
		zap.Float64("best_return", best.TotalStrategyReturn),
	)
	return entries, nil
}
