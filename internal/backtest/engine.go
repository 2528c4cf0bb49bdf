package backtest

import (
	"fmt"

	"github.com/newthinker/stratlab/internal/core"
	"github.com/newthinker/stratlab/internal/series"
	"github.com/newthinker/stratlab/internal/strategy"
)

// StrategyReturns applies each signal to the next period's market return:
// out[t] = signals[t-1] * returns[t]. out[0] is absent, as is any period
// whose market return is absent.
func StrategyReturns(signals []series.Position, returns []series.Value) ([]series.Value, error) {
	if len(signals) != len(returns) {
		return nil, core.WrapError(core.ErrInvalidSeries,
			fmt.Errorf("signals length %d, returns length %d", len(signals), len(returns)))
	}

	out := series.Absent(len(returns))
	for t := 1; t < len(returns); t++ {
		r, ok := series.Get(returns[t])
		if !ok {
			continue
		}
		out[t] = series.Some(signals[t-1].Float() * r)
	}
	return out, nil
}

// Cumulative compounds returns into a growth curve starting from 1.
// Absent returns leave the curve unchanged.
func Cumulative(returns []series.Value) []float64 {
	out := make([]float64, len(returns))
	acc := 1.0
	for i, v := range returns {
		if r, ok := series.Get(v); ok {
			acc *= 1 + r
		}
		out[i] = acc
	}
	return out
}

// Total is the simple (non-compounded) sum of the defined returns.
func Total(returns []series.Value) float64 {
	var sum float64
	for _, v := range returns {
		if r, ok := series.Get(v); ok {
			sum += r
		}
	}
	return sum
}

// Evaluate runs s over ps and assembles the full result. It returns either a
// complete result or an error, never a partial result.
func Evaluate(s strategy.Strategy, ps *series.PriceSeries) (*Result, error) {
	eval, err := strategy.Evaluate(s, ps)
	if err != nil {
		return nil, err
	}

	market := ps.Returns()
	strat, err := StrategyReturns(eval.Signals, market)
	if err != nil {
		return nil, err
	}

	cumMarket := Cumulative(market)
	cumStrategy := Cumulative(strat)

	return &Result{
		Strategy:            s.Name(),
		Kind:                s.Kind(),
		Params:              s.Params(),
		Symbol:              ps.Symbol(),
		StartDate:           ps.Start(),
		EndDate:             ps.End(),
		Times:               ps.Times(),
		Closes:              ps.Closes(),
		Indicators:          eval.Lines,
		Signals:             eval.Signals,
		MarketReturns:       market,
		StrategyReturns:     strat,
		CumulativeMarket:    cumMarket,
		CumulativeStrategy:  cumStrategy,
		TotalMarketReturn:   Total(market),
		TotalStrategyReturn: Total(strat),
		Stats:               CalculateStats(eval.Signals, market, strat, cumMarket, cumStrategy),
	}, nil
}
