package backtest

import (
	"time"

	"github.com/newthinker/stratlab/internal/series"
	"github.com/newthinker/stratlab/internal/strategy"
)

// Result holds the complete output of one strategy over one price series.
// Every series is aligned index-for-index with Times.
type Result struct {
	Strategy  string         `json:"strategy"`
	Kind      strategy.Kind  `json:"kind"`
	Params    map[string]int `json:"params"`
	Symbol    string         `json:"symbol"`
	StartDate time.Time      `json:"start_date"`
	EndDate   time.Time      `json:"end_date"`

	Times      []time.Time       `json:"times"`
	Closes     []float64         `json:"closes"`
	Indicators []strategy.Line   `json:"indicators"`
	Signals    []series.Position `json:"signals"`

	MarketReturns      []series.Value `json:"market_returns"`
	StrategyReturns    []series.Value `json:"strategy_returns"`
	CumulativeMarket   []float64      `json:"cumulative_market"`
	CumulativeStrategy []float64      `json:"cumulative_strategy"`

	TotalMarketReturn   float64 `json:"total_market_return"`
	TotalStrategyReturn float64 `json:"total_strategy_return"`

	Stats Stats `json:"stats"`
}

// Stats holds performance statistics. Percentages are in the 0-100 range.
type Stats struct {
	Periods      int `json:"periods"`
	Trades       int `json:"trades"` // position changes
	LongPeriods  int `json:"long_periods"`
	ShortPeriods int `json:"short_periods"`
	FlatPeriods  int `json:"flat_periods"`

	Exposure          float64 `json:"exposure"`            // Percentage of periods not flat
	WinRate           float64 `json:"win_rate"`            // Percentage of in-market periods with a positive return
	MaxDrawdown       float64 `json:"max_drawdown"`        // Strategy curve, peak-to-trough
	MarketMaxDrawdown float64 `json:"market_max_drawdown"` // Buy-and-hold curve, peak-to-trough
	SharpeRatio       float64 `json:"sharpe_ratio"`        // Annualized, risk-free rate 0
	MarketSharpeRatio float64 `json:"market_sharpe_ratio"`
}

// Indicator returns the named indicator line.
func (r *Result) Indicator(name string) ([]series.Value, bool) {
	for _, l := range r.Indicators {
		if l.Name == name {
			return l.Values, true
		}
	}
	return nil, false
}
