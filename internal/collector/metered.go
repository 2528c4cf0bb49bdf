package collector

import (
	"context"
	"errors"
	"time"

	"github.com/newthinker/stratlab/internal/core"
	"github.com/newthinker/stratlab/internal/metrics"
	"go.uber.org/zap"
)

// Metered wraps a collector with fetch logging and metrics.
type Metered struct {
	Collector
	metrics *metrics.Registry
	logger  *zap.Logger
}

// NewMetered wraps c. A nil registry disables metrics.
func NewMetered(c Collector, reg *metrics.Registry, logger ...*zap.Logger) *Metered {
	l := zap.NewNop()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &Metered{Collector: c, metrics: reg, logger: l}
}

// FetchHistory delegates to the wrapped collector and records the outcome.
func (m *Metered) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	began := time.Now()
	bars, err := m.Collector.FetchHistory(ctx, symbol, start, end, interval)

	status := "success"
	switch {
	case errors.Is(err, core.ErrCollectorTimeout), errors.Is(err, context.DeadlineExceeded):
		status = "timeout"
	case err != nil:
		status = "error"
	}
	if m.metrics != nil {
		m.metrics.RecordFetch(m.Name(), status)
	}

	if err != nil {
		m.logger.Warn("fetch failed",
			zap.String("collector", m.Name()),
			zap.String("symbol", symbol),
			zap.Error(err),
		)
		return nil, err
	}

	m.logger.Debug("fetched history",
		zap.String("collector", m.Name()),
		zap.String("symbol", symbol),
		zap.Int("bars", len(bars)),
		zap.Duration("duration", time.Since(began)),
	)
	return bars, nil
}
