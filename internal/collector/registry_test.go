package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/newthinker/stratlab/internal/core"
	"github.com/newthinker/stratlab/internal/metrics"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// mockCollector for testing
type mockCollector struct {
	name    string
	markets []core.Market
	bars    []core.OHLCV
	err     error
}

func (m *mockCollector) Name() string { return m.name }
func (m *mockCollector) SupportedMarkets() []core.Market {
	if m.markets == nil {
		return []core.Market{core.MarketUS}
	}
	return m.markets
}
func (m *mockCollector) Init(cfg Config) error { return nil }
func (m *mockCollector) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	return m.bars, m.err
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	mock := &mockCollector{name: "mock"}
	r.Register(mock)

	c, ok := r.Get("mock")
	if !ok {
		t.Fatal("expected to find registered collector")
	}

	if c.Name() != "mock" {
		t.Errorf("expected name 'mock', got '%s'", c.Name())
	}
}

func TestRegistry_GetAll(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockCollector{name: "a"})
	r.Register(&mockCollector{name: "b"})

	all := r.GetAll()
	if len(all) != 2 {
		t.Errorf("expected 2 collectors, got %d", len(all))
	}
}

func TestRegistry_MustGet(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockCollector{name: "yahoo"})
	r.Register(&mockCollector{name: "csv"})

	if _, err := r.MustGet("csv"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	_, err := r.MustGet("bloomberg")
	if !errors.Is(err, core.ErrConfigInvalid) {
		t.Errorf("expected ErrConfigInvalid, got %v", err)
	}

	names := r.Names()
	if len(names) != 2 || names[0] != "csv" || names[1] != "yahoo" {
		t.Errorf("Names() = %v, want [csv yahoo]", names)
	}
}

func TestSupports(t *testing.T) {
	c := &mockCollector{name: "m", markets: []core.Market{core.MarketUS, core.MarketCrypto}}

	if !Supports(c, "AAPL") {
		t.Error("expected AAPL to be supported")
	}
	if !Supports(c, "BTC-USD") {
		t.Error("expected BTC-USD to be supported")
	}
	if Supports(c, "0700.HK") {
		t.Error("expected 0700.HK to be unsupported")
	}
}

func TestMetered_RecordsFetches(t *testing.T) {
	reg := metrics.NewRegistry()
	obs, logs := observer.New(zap.DebugLevel)

	ok := NewMetered(&mockCollector{name: "mock", bars: []core.OHLCV{{Symbol: "AAPL", Close: 1}}}, reg, zap.New(obs))
	bars, err := ok.FetchHistory(context.Background(), "AAPL", time.Now(), time.Now(), "1d")
	if err != nil || len(bars) != 1 {
		t.Fatalf("unexpected result: %v, %v", bars, err)
	}

	failing := NewMetered(&mockCollector{name: "mock", err: core.ErrCollectorTimeout}, reg, zap.New(obs))
	if _, err := failing.FetchHistory(context.Background(), "AAPL", time.Now(), time.Now(), "1d"); !errors.Is(err, core.ErrCollectorTimeout) {
		t.Errorf("expected ErrCollectorTimeout, got %v", err)
	}

	if logs.FilterMessage("fetch failed").Len() != 1 {
		t.Error("expected one failure log")
	}

	statuses := map[string]float64{}
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != "stratlab_collector_fetches_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "status" {
					statuses[l.GetValue()] = m.GetCounter().GetValue()
				}
			}
		}
	}
	if statuses["success"] != 1 || statuses["timeout"] != 1 {
		t.Errorf("unexpected fetch statuses %v", statuses)
	}
}

func TestMetered_NilRegistry(t *testing.T) {
	m := NewMetered(&mockCollector{name: "mock"}, nil)
	if _, err := m.FetchHistory(context.Background(), "AAPL", time.Now(), time.Now(), "1d"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if m.Name() != "mock" {
		t.Errorf("expected embedded name, got %s", m.Name())
	}
}
