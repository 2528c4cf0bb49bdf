package main

import (
	"context"
	"fmt"
	"time"

	"github.com/newthinker/stratlab/internal/backtest"
	"github.com/newthinker/stratlab/internal/config"
	"github.com/newthinker/stratlab/internal/report"
	"github.com/spf13/cobra"
)

var (
	sweepSymbol    string
	sweepFrom      string
	sweepTo        string
	sweepShortStep int
	sweepLongStep  int
	sweepTop       int
	sweepSource    string
	sweepCSVDir    string
	sweepTimeout   time.Duration
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Rank moving-average window pairs",
	Long: `Backtest every moving-average crossover with short windows 5..50 and
long windows 50..200 on one price history and rank the pairs by total
strategy return.`,
	Args: cobra.NoArgs,
	RunE: runSweep,
}

func init() {
	sweepCmd.Flags().StringVar(&sweepSymbol, "symbol", "", "Symbol to sweep (required)")
	sweepCmd.Flags().StringVar(&sweepFrom, "from", "", "Start date YYYY-MM-DD (required)")
	sweepCmd.Flags().StringVar(&sweepTo, "to", "", "End date YYYY-MM-DD, inclusive (required)")
	sweepCmd.Flags().IntVar(&sweepShortStep, "short-step", 5, "Short window step")
	sweepCmd.Flags().IntVar(&sweepLongStep, "long-step", 10, "Long window step")
	sweepCmd.Flags().IntVar(&sweepTop, "top", 10, "Number of pairs to print")
	sweepCmd.Flags().StringVar(&sweepSource, "source", "", "Data source: yahoo or csv (default from config)")
	sweepCmd.Flags().StringVar(&sweepCSVDir, "csv-dir", "", "Directory of <SYMBOL>.csv price files")
	sweepCmd.Flags().DurationVar(&sweepTimeout, "timeout", 2*time.Minute, "Overall timeout")

	sweepCmd.MarkFlagRequired("symbol")
	sweepCmd.MarkFlagRequired("from")
	sweepCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	fromDate, toDate, err := parseDates(sweepFrom, sweepTo)
	if err != nil {
		return err
	}
	grid, err := backtest.DefaultSweepGrid(sweepShortStep, sweepLongStep)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), sweepTimeout)
	defer cancel()

	a, log, err := setup(func(cfg *config.Config) {
		overrideSource(cfg, sweepSource, sweepCSVDir)
	})
	if log != nil {
		defer log.Sync()
	}
	if err != nil {
		return err
	}

	bt, err := a.Backtester(sweepSource)
	if err != nil {
		return err
	}

	entries, err := bt.Sweep(ctx, sweepSymbol, fromDate, toDate, grid)
	if err != nil {
		return fmt.Errorf("sweep on %s: %w", sweepSymbol, err)
	}

	return report.WriteSweep(cmd.OutOrStdout(), sweepSymbol, entries, sweepTop)
}
