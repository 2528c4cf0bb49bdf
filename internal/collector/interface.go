package collector

import (
	"context"
	"time"

	"github.com/newthinker/stratlab/internal/core"
)

// Config holds collector configuration
type Config struct {
	Timeout time.Duration
	BaseURL string // HTTP collectors; empty uses the public endpoint
	Dir     string // file collectors
}

// Collector defines the interface for historical price sources
type Collector interface {
	// Metadata
	Name() string
	SupportedMarkets() []core.Market

	// Lifecycle
	Init(cfg Config) error

	// Data fetching
	FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error)
}

// Supports reports whether c serves the market symbol trades on.
func Supports(c Collector, symbol string) bool {
	market := core.DetectMarket(symbol)
	for _, m := range c.SupportedMarkets() {
		if m == market {
			return true
		}
	}
	return false
}
