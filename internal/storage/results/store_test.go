// internal/storage/results/store_test.go
package results

import (
	"context"
	"testing"
	"time"

	"github.com/newthinker/stratlab/internal/backtest"
	"github.com/newthinker/stratlab/internal/core"
	"github.com/newthinker/stratlab/internal/series"
	"github.com/newthinker/stratlab/internal/storage/archive"
	"github.com/newthinker/stratlab/internal/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evaluate(t *testing.T, symbol string, s strategy.Strategy) *backtest.Result {
	t.Helper()
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 50 + float64(i%5)
	}
	ps, err := series.FromCloses(symbol, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), closes)
	require.NoError(t, err)
	r, err := backtest.Evaluate(s, ps)
	require.NoError(t, err)
	return r
}

func newStore(t *testing.T) *Store {
	t.Helper()
	fs, err := archive.NewLocalFS(t.TempDir())
	require.NoError(t, err)
	return NewStore(fs)
}

func TestPath(t *testing.T) {
	r := &backtest.Result{Symbol: "btc-usd", Kind: strategy.KindRSI}
	at := time.Date(2024, 5, 6, 7, 8, 9, 1500, time.UTC)

	assert.Equal(t, "reports/BTC-USD/rsi/20240506T070809.000001500Z-ab12cd34.json", Path(r, at, "ab12cd34"))
	assert.Equal(t, "reports/__ETC/rsi/20240506T070809.000001500Z-ab12cd34.json",
		Path(&backtest.Result{Symbol: "../etc", Kind: strategy.KindRSI}, at, "ab12cd34"))
}

func TestStore_SaveSameInstantKeepsBoth(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	store.now = func() time.Time { return at }

	first := evaluate(t, "AAPL", strategy.RSI{Period: 5})
	second := evaluate(t, "AAPL", strategy.RSI{Period: 7})

	p1, err := store.Save(ctx, first)
	require.NoError(t, err)
	p2, err := store.Save(ctx, second)
	require.NoError(t, err)
	assert.NotEqual(t, p1, p2)

	listed, err := store.List(ctx, ListFilter{Symbol: "AAPL", Strategy: "rsi"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{p1, p2}, listed)

	loaded, err := store.Load(ctx, p1)
	require.NoError(t, err)
	assert.Equal(t, first.Strategy, loaded.Strategy)
	loaded, err = store.Load(ctx, p2)
	require.NoError(t, err)
	assert.Equal(t, second.Strategy, loaded.Strategy)
}

func TestStore_SaveLoad(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	result := evaluate(t, "AAPL", strategy.RSI{Period: 5})

	p, err := store.Save(ctx, result)
	require.NoError(t, err)
	assert.Contains(t, p, "reports/AAPL/rsi/")

	loaded, err := store.Load(ctx, p)
	require.NoError(t, err)

	assert.Equal(t, result.Strategy, loaded.Strategy)
	assert.Equal(t, result.Kind, loaded.Kind)
	assert.Equal(t, result.Signals, loaded.Signals)
	assert.InDelta(t, result.TotalStrategyReturn, loaded.TotalStrategyReturn, 1e-12)
	require.Len(t, loaded.MarketReturns, len(result.MarketReturns))
	assert.True(t, loaded.MarketReturns[0].IsNone(), "absent values survive the round trip")

	rsi, ok := loaded.Indicator(strategy.LineRSI)
	require.True(t, ok)
	assert.True(t, rsi[0].IsNone())
	assert.True(t, rsi[len(rsi)-1].IsSome())
}

func TestStore_LoadMissing(t *testing.T) {
	_, err := newStore(t).Load(context.Background(), "reports/AAPL/rsi/none.json")
	assert.ErrorIs(t, err, core.ErrReportNotFound)
}

func TestStore_List(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	store.suffix = func() string { return "00000000" }

	rsi := evaluate(t, "AAPL", strategy.RSI{Period: 5})
	macd := evaluate(t, "AAPL", strategy.MACD{Short: 3, Long: 6, Signal: 2})
	other := evaluate(t, "MSFT", strategy.RSI{Period: 5})

	for _, r := range []*backtest.Result{rsi, macd, rsi, other} {
		_, err := store.Save(ctx, r)
		require.NoError(t, err)
	}

	all, err := store.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	aaplRSI, err := store.List(ctx, ListFilter{Symbol: "AAPL", Strategy: "rsi"})
	require.NoError(t, err)
	require.Len(t, aaplRSI, 2)
	assert.Equal(t, "reports/AAPL/rsi/20240101T000300.000000000Z-00000000.json", aaplRSI[0], "newest first")

	anyRSI, err := store.List(ctx, ListFilter{Strategy: "rsi", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, anyRSI, 2)
	assert.Equal(t, "reports/MSFT/rsi/20240101T000400.000000000Z-00000000.json", anyRSI[0])
}
