// Package report renders backtest results for people and spreadsheets.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/newthinker/stratlab/internal/backtest"
)

// Percent formats a fractional return as a percentage with two decimals.
func Percent(fraction float64) string {
	return fmt.Sprintf("%.2f%%", fraction*100)
}

// WriteSummary prints the performance summary of r.
func WriteSummary(w io.Writer, r *backtest.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "=== Backtest ===")
	fmt.Fprintf(tw, "Strategy:\t%s\n", r.Strategy)
	fmt.Fprintf(tw, "Symbol:\t%s\n", r.Symbol)
	fmt.Fprintf(tw, "Period:\t%s to %s (%d bars)\n",
		r.StartDate.Format(time.DateOnly), r.EndDate.Format(time.DateOnly), r.Stats.Periods)
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "=== Performance ===")
	fmt.Fprintf(tw, "Total Market Return:\t%s\n", Percent(r.TotalMarketReturn))
	fmt.Fprintf(tw, "Total Strategy Return:\t%s\n", Percent(r.TotalStrategyReturn))
	fmt.Fprintf(tw, "Max Drawdown (market):\t%.2f%%\n", r.Stats.MarketMaxDrawdown)
	fmt.Fprintf(tw, "Max Drawdown (strategy):\t%.2f%%\n", r.Stats.MaxDrawdown)
	fmt.Fprintf(tw, "Sharpe (market):\t%.2f\n", r.Stats.MarketSharpeRatio)
	fmt.Fprintf(tw, "Sharpe (strategy):\t%.2f\n", r.Stats.SharpeRatio)
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "=== Positions ===")
	fmt.Fprintf(tw, "Trades:\t%d\n", r.Stats.Trades)
	fmt.Fprintf(tw, "Long / Short / Flat:\t%d / %d / %d\n",
		r.Stats.LongPeriods, r.Stats.ShortPeriods, r.Stats.FlatPeriods)
	fmt.Fprintf(tw, "Exposure:\t%.2f%%\n", r.Stats.Exposure)
	fmt.Fprintf(tw, "Win Rate:\t%.2f%%\n", r.Stats.WinRate)

	return tw.Flush()
}

// WriteSweep prints the top entries of a ranked sweep. top <= 0 prints all.
func WriteSweep(w io.Writer, symbol string, entries []backtest.SweepEntry, top int) error {
	if top <= 0 || top > len(entries) {
		top = len(entries)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "=== MA Sweep: %s (%d combinations) ===\n", symbol, len(entries))
	fmt.Fprintln(tw, "Rank\tShort\tLong\tStrategy Return\tMarket Return\tMax Drawdown\tTrades\t")
	for i, e := range entries[:top] {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%s\t%.2f%%\t%d\t\n",
			i+1, e.Short, e.Long,
			Percent(e.TotalStrategyReturn), Percent(e.TotalMarketReturn),
			e.Stats.MaxDrawdown, e.Stats.Trades)
	}
	return tw.Flush()
}
