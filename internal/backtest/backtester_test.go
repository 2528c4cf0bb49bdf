package backtest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/newthinker/stratlab/internal/core"
	"github.com/newthinker/stratlab/internal/metrics"
	"github.com/newthinker/stratlab/internal/strategy"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// mockProvider implements OHLCVProvider for testing
type mockProvider struct {
	data     []core.OHLCV
	err      error
	calls    int
	interval string
	onFetch  func()
}

func (m *mockProvider) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	m.calls++
	m.interval = interval
	if m.onFetch != nil {
		m.onFetch()
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.data, nil
}

func makeBars(symbol string, closes []float64) []core.OHLCV {
	bars := make([]core.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = core.OHLCV{
			Symbol:   symbol,
			Interval: DailyInterval,
			Open:     c,
			High:     c,
			Low:      c,
			Close:    c,
			Volume:   1000,
			Time:     day0.AddDate(0, 0, i),
		}
	}
	return bars
}

func TestBacktester_Run(t *testing.T) {
	closes := []float64{100, 102, 101, 105, 107, 104, 103, 108, 110, 109, 112, 111}
	provider := &mockProvider{data: makeBars("AAPL", closes)}
	bt := New(provider)

	result, err := bt.Run(context.Background(), strategy.RSI{Period: 5}, "AAPL", day0, day0.AddDate(0, 0, 30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if provider.interval != DailyInterval {
		t.Errorf("interval = %q, want %q", provider.interval, DailyInterval)
	}
	if result.Symbol != "AAPL" {
		t.Errorf("Symbol = %q, want AAPL", result.Symbol)
	}
	if result.Strategy != "RSI (5)" {
		t.Errorf("Strategy = %q, want RSI (5)", result.Strategy)
	}
	if len(result.Signals) != len(closes) {
		t.Errorf("len(Signals) = %d, want %d", len(result.Signals), len(closes))
	}
	if !result.StartDate.Equal(day0) {
		t.Errorf("StartDate = %v, want %v", result.StartDate, day0)
	}
}

func TestBacktester_Run_UnsortedBars(t *testing.T) {
	bars := makeBars("AAPL", []float64{100, 101, 102})
	bars[0], bars[2] = bars[2], bars[0]
	bt := New(&mockProvider{data: bars})

	result, err := bt.Run(context.Background(), strategy.RSI{Period: 5}, "AAPL", day0, day0.AddDate(0, 0, 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Closes[0] != 100 || result.Closes[2] != 102 {
		t.Errorf("bars not ordered by time: %v", result.Closes)
	}
}

func TestBacktester_Run_InvalidStrategyBeforeFetch(t *testing.T) {
	provider := &mockProvider{data: makeBars("AAPL", []float64{1, 2, 3})}
	bt := New(provider)

	_, err := bt.Run(context.Background(), nil, "AAPL", day0, day0)
	if !errors.Is(err, core.ErrInvalidStrategy) {
		t.Errorf("expected ErrInvalidStrategy, got %v", err)
	}

	_, err = bt.Run(context.Background(), strategy.MovingAverage{Short: 60, Long: 50}, "AAPL", day0, day0)
	if !errors.Is(err, core.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}

	if provider.calls != 0 {
		t.Errorf("provider called %d times, want 0", provider.calls)
	}
}

func TestBacktester_Run_NoData(t *testing.T) {
	bt := New(&mockProvider{data: nil})

	_, err := bt.Run(context.Background(), strategy.RSI{Period: 14}, "AAPL", day0, day0.AddDate(0, 0, 10))
	if !errors.Is(err, core.ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestBacktester_Run_ProviderError(t *testing.T) {
	fetchErr := core.WrapError(core.ErrCollectorFailed, errors.New("connection refused"))
	bt := New(&mockProvider{err: fetchErr})

	_, err := bt.Run(context.Background(), strategy.RSI{Period: 14}, "AAPL", day0, day0.AddDate(0, 0, 10))
	if !errors.Is(err, core.ErrCollectorFailed) {
		t.Errorf("expected ErrCollectorFailed, got %v", err)
	}
}

func TestBacktester_Run_ContextCanceled(t *testing.T) {
	bt := New(&mockProvider{data: makeBars("AAPL", []float64{1, 2, 3})})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := bt.Run(ctx, strategy.RSI{Period: 14}, "AAPL", day0, day0.AddDate(0, 0, 10))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestBacktester_Run_LogsAndMetrics(t *testing.T) {
	obs, logs := observer.New(zap.InfoLevel)
	reg := metrics.NewRegistry()
	bt := New(&mockProvider{data: makeBars("AAPL", []float64{1, 2, 3, 4, 5, 6, 7})},
		WithLogger(zap.New(obs)), WithMetrics(reg))

	for i := 0; i < 2; i++ {
		if _, err := bt.Run(context.Background(), strategy.RSI{Period: 5}, "AAPL", day0, day0.AddDate(0, 0, 7)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if n := logs.FilterMessage("backtest completed").Len(); n != 2 {
		t.Errorf("expected 2 completion logs, got %d", n)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	found := false
	for _, mf := range mfs {
		if mf.GetName() == "stratlab_backtests_total" {
			found = true
			if got := mf.GetMetric()[0].GetCounter().GetValue(); got != 2 {
				t.Errorf("backtests_total = %v, want 2", got)
			}
		}
	}
	if !found {
		t.Error("expected stratlab_backtests_total metric")
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "success"},
		{core.WrapError(core.ErrNoData, errors.New("x")), "NO_DATA"},
		{context.DeadlineExceeded, "canceled"},
		{errors.New("boom"), "error"},
	}

	for _, tt := range tests {
		if got := statusOf(tt.err); got != tt.want {
			t.Errorf("statusOf(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
