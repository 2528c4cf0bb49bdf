package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/newthinker/stratlab/internal/core"
	"github.com/newthinker/stratlab/internal/metrics"
	"github.com/newthinker/stratlab/internal/series"
	"github.com/newthinker/stratlab/internal/strategy"
	"go.uber.org/zap"
)

// DailyInterval is the bar interval backtests request.
const DailyInterval = "1d"

// OHLCVProvider defines the interface for fetching historical OHLCV data
type OHLCVProvider interface {
	FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error)
}

// Backtester runs strategy backtests against historical data
type Backtester struct {
	provider OHLCVProvider
	logger   *zap.Logger
	metrics  *metrics.Registry
}

// Option configures a Backtester.
type Option func(*Backtester)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Backtester) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithMetrics records backtest counts and durations in reg.
func WithMetrics(reg *metrics.Registry) Option {
	return func(b *Backtester) {
		b.metrics = reg
	}
}

// New creates a new Backtester with the given OHLCV provider
func New(provider OHLCVProvider, opts ...Option) *Backtester {
	b := &Backtester{
		provider: provider,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Load fetches daily bars for symbol and builds a price series from them.
func (b *Backtester) Load(ctx context.Context, symbol string, start, end time.Time) (*series.PriceSeries, error) {
	bars, err := b.provider.FetchHistory(ctx, symbol, start, end, DailyInterval)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, core.WrapError(core.ErrNoData,
			fmt.Errorf("%s between %s and %s", symbol, start.Format(time.DateOnly), end.Format(time.DateOnly)))
	}
	return series.FromOHLCV(symbol, bars)
}

// Run executes a backtest for the given strategy and symbol over the specified time range
func (b *Backtester) Run(ctx context.Context, strat strategy.Strategy, symbol string, start, end time.Time) (*Result, error) {
	began := time.Now()

	result, err := b.run(ctx, strat, symbol, start, end)

	name := "unknown"
	if strat != nil {
		name = string(strat.Kind())
	}
	b.record(name, result, err, time.Since(began))

	if err != nil {
		b.logger.Warn("backtest failed",
			zap.String("strategy", name),
			zap.String("symbol", symbol),
			zap.Error(err),
		)
		return nil, err
	}

	b.logger.Info("backtest completed",
		zap.String("strategy", result.Strategy),
		zap.String("symbol", symbol),
		zap.Int("periods", result.Stats.Periods),
		zap.Float64("total_market_return", result.TotalMarketReturn),
		zap.Float64("total_strategy_return", result.TotalStrategyReturn),
		zap.Duration("duration", time.Since(began)),
	)
	return result, nil
}

func (b *Backtester) run(ctx context.Context, strat strategy.Strategy, symbol string, start, end time.Time) (*Result, error) {
	// Reject bad strategies before touching the network.
	if strat == nil {
		return nil, core.WrapError(core.ErrInvalidStrategy, fmt.Errorf("no strategy given"))
	}
	if err := strat.Validate(); err != nil {
		return nil, err
	}

	ps, err := b.Load(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return Evaluate(strat, ps)
}

func (b *Backtester) record(name string, result *Result, err error, elapsed time.Duration) {
	if b.metrics == nil {
		return
	}
	b.metrics.RecordBacktest(name, statusOf(err), elapsed.Seconds())
	if result == nil {
		return
	}
	b.metrics.RecordPositions(name, series.Long.String(), result.Stats.LongPeriods)
	b.metrics.RecordPositions(name, series.Short.String(), result.Stats.ShortPeriods)
	b.metrics.RecordPositions(name, series.Flat.String(), result.Stats.FlatPeriods)
}

// statusOf maps an error to a metric label.
func statusOf(err error) string {
	if err == nil {
		return "success"
	}
	var coded *core.Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "canceled"
	}
	return "error"
}
