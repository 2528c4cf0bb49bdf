package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/newthinker/stratlab/internal/core"
	"github.com/newthinker/stratlab/internal/series"
	"github.com/newthinker/stratlab/internal/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func flatSeries(t *testing.T, n int, price float64) *series.PriceSeries {
	t.Helper()
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = price
	}
	ps, err := series.FromCloses("FLAT", day0, closes)
	require.NoError(t, err)
	return ps
}

func trendSeries(t *testing.T, n int) *series.PriceSeries {
	t.Helper()
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + 10*math.Sin(float64(i)/8) + float64(i)*0.05
	}
	ps, err := series.FromCloses("WAVE", day0, closes)
	require.NoError(t, err)
	return ps
}

func TestStrategyReturns_Lag(t *testing.T) {
	signals := []series.Position{series.Long, series.Long, series.Short, series.Flat}
	returns := []series.Value{series.None(), series.Some(0.02), series.Some(0.01), series.Some(-0.03)}

	out, err := StrategyReturns(signals, returns)
	require.NoError(t, err)
	require.Len(t, out, 4)

	assert.True(t, out[0].IsNone())

	r1, ok := series.Get(out[1])
	require.True(t, ok)
	assert.InDelta(t, 0.02, r1, 1e-12)

	r2, ok := series.Get(out[2])
	require.True(t, ok)
	assert.InDelta(t, 0.01, r2, 1e-12)

	// Short held into a falling period earns the negated return.
	r3, ok := series.Get(out[3])
	require.True(t, ok)
	assert.InDelta(t, 0.03, r3, 1e-12)
}

func TestStrategyReturns_AbsentReturnStaysAbsent(t *testing.T) {
	signals := []series.Position{series.Long, series.Long, series.Long}
	returns := []series.Value{series.None(), series.None(), series.Some(0.05)}

	out, err := StrategyReturns(signals, returns)
	require.NoError(t, err)
	assert.True(t, out[1].IsNone())
	assert.True(t, out[2].IsSome())
}

func TestStrategyReturns_LengthMismatch(t *testing.T) {
	_, err := StrategyReturns([]series.Position{series.Long}, series.Absent(2))
	assert.ErrorIs(t, err, core.ErrInvalidSeries)
}

func TestCumulative(t *testing.T) {
	got := Cumulative([]series.Value{series.None(), series.Some(0.1), series.Some(-0.1)})
	require.Len(t, got, 3)
	assert.InDelta(t, 1.0, got[0], 1e-12)
	assert.InDelta(t, 1.1, got[1], 1e-12)
	assert.InDelta(t, 0.99, got[2], 1e-12)
}

func TestCumulative_AbsentIsIdentity(t *testing.T) {
	got := Cumulative([]series.Value{series.Some(0.5), series.None(), series.Some(0)})
	assert.Equal(t, []float64{1.5, 1.5, 1.5}, got)
}

func TestTotal_IsSimpleSum(t *testing.T) {
	got := Total([]series.Value{series.None(), series.Some(0.1), series.Some(-0.1), series.Some(0.05)})
	assert.InDelta(t, 0.05, got, 1e-12)
	assert.Zero(t, Total(series.Absent(3)))
}

func TestEvaluate_FlatSeriesAllStrategies(t *testing.T) {
	ps := flatSeries(t, 300, 42)

	for _, kind := range strategy.Kinds() {
		t.Run(string(kind), func(t *testing.T) {
			s, err := strategy.Default(kind)
			require.NoError(t, err)

			result, err := Evaluate(s, ps)
			require.NoError(t, err)

			require.Len(t, result.Signals, 300)
			require.Len(t, result.StrategyReturns, 300)
			require.Len(t, result.CumulativeStrategy, 300)
			assert.Zero(t, result.TotalMarketReturn)
			assert.Zero(t, result.TotalStrategyReturn)
			assert.InDelta(t, 1.0, result.CumulativeStrategy[299], 1e-12)

			for i := s.Warmup(); i < 300; i++ {
				if kind == strategy.KindMovingAverage {
					// Equal averages never count as a crossover.
					assert.Equal(t, series.Short, result.Signals[i], "index %d", i)
				} else {
					assert.Equal(t, series.Flat, result.Signals[i], "index %d", i)
				}
			}
		})
	}
}

func TestEvaluate_FlatSeriesIndicators(t *testing.T) {
	ps := flatSeries(t, 300, 42)

	rsi, err := Evaluate(strategy.RSI{Period: 14}, ps)
	require.NoError(t, err)
	line, ok := rsi.Indicator(strategy.LineRSI)
	require.True(t, ok)
	v, ok := series.Get(line[299])
	require.True(t, ok)
	assert.Equal(t, 50.0, v)

	bb, err := Evaluate(strategy.Bollinger{Period: 20}, ps)
	require.NoError(t, err)
	upper, _ := bb.Indicator(strategy.LineUpperBand)
	lower, _ := bb.Indicator(strategy.LineLowerBand)
	u, _ := series.Get(upper[299])
	l, _ := series.Get(lower[299])
	assert.Equal(t, 42.0, u)
	assert.Equal(t, 42.0, l)

	macd, err := Evaluate(strategy.MACD{Short: 12, Long: 26, Signal: 9}, ps)
	require.NoError(t, err)
	hist, _ := macd.Indicator(strategy.LineHistogram)
	h, _ := series.Get(hist[299])
	assert.Equal(t, 0.0, h)
}

func TestEvaluate_ResultAlignment(t *testing.T) {
	ps := trendSeries(t, 250)

	result, err := Evaluate(strategy.MovingAverage{Short: 10, Long: 50}, ps)
	require.NoError(t, err)

	assert.Equal(t, "WAVE", result.Symbol)
	assert.Equal(t, strategy.KindMovingAverage, result.Kind)
	assert.Equal(t, map[string]int{"short_window": 10, "long_window": 50}, result.Params)
	assert.Equal(t, ps.Start(), result.StartDate)
	assert.Equal(t, ps.End(), result.EndDate)

	n := ps.Len()
	assert.Len(t, result.Times, n)
	assert.Len(t, result.Closes, n)
	assert.Len(t, result.MarketReturns, n)
	assert.Len(t, result.CumulativeMarket, n)
	for _, line := range result.Indicators {
		assert.Len(t, line.Values, n, line.Name)
	}

	for i := 1; i < n; i++ {
		sr, ok := series.Get(result.StrategyReturns[i])
		require.True(t, ok)
		mr, _ := series.Get(result.MarketReturns[i])
		assert.InDelta(t, result.Signals[i-1].Float()*mr, sr, 1e-12)
	}
	assert.InDelta(t, Total(result.StrategyReturns), result.TotalStrategyReturn, 1e-12)
	assert.Equal(t, result.Stats.Periods, n)
}

func TestEvaluate_Errors(t *testing.T) {
	ps := flatSeries(t, 10, 1)

	_, err := Evaluate(nil, ps)
	assert.ErrorIs(t, err, core.ErrInvalidStrategy)

	_, err = Evaluate(strategy.RSI{Period: 2}, ps)
	assert.ErrorIs(t, err, core.ErrInvalidParameter)

	_, err = Evaluate(strategy.RSI{Period: 14}, nil)
	assert.ErrorIs(t, err, core.ErrNoData)
}
