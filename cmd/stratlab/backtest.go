package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/newthinker/stratlab/internal/config"
	"github.com/newthinker/stratlab/internal/report"
	"github.com/spf13/cobra"
)

var (
	backtestSymbol  string
	backtestFrom    string
	backtestTo      string
	backtestParams  []string
	backtestSource  string
	backtestCSVDir  string
	backtestCSVOut  string
	backtestSave    bool
	backtestTimeout time.Duration
)

var backtestCmd = &cobra.Command{
	Use:   "backtest [strategy]",
	Short: "Run backtest on a strategy",
	Long: `Run a strategy against historical data and show performance statistics.

Strategies: ma_crossover, rsi, bollinger, macd (display names and aliases
such as "Moving Averages" or "bb" are accepted).`,
	Example: `  stratlab backtest rsi --symbol AAPL --from 2023-01-01 --to 2023-12-31
  stratlab backtest ma --symbol BTC-USD --from 2022-01-01 --to 2023-12-31 --param short_window=20 --param long_window=100 --csv out.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runBacktest,
}

func init() {
	backtestCmd.Flags().StringVar(&backtestSymbol, "symbol", "", "Symbol to backtest (required)")
	backtestCmd.Flags().StringVar(&backtestFrom, "from", "", "Start date YYYY-MM-DD (required)")
	backtestCmd.Flags().StringVar(&backtestTo, "to", "", "End date YYYY-MM-DD, inclusive (required)")
	backtestCmd.Flags().StringArrayVarP(&backtestParams, "param", "p", nil, "Strategy parameter key=value (repeatable)")
	backtestCmd.Flags().StringVar(&backtestSource, "source", "", "Data source: yahoo or csv (default from config)")
	backtestCmd.Flags().StringVar(&backtestCSVDir, "csv-dir", "", "Directory of <SYMBOL>.csv price files")
	backtestCmd.Flags().StringVar(&backtestCSVOut, "csv", "", "Write the aligned series to this CSV file")
	backtestCmd.Flags().BoolVar(&backtestSave, "save", false, "Save the result to the report archive")
	backtestCmd.Flags().DurationVar(&backtestTimeout, "timeout", 2*time.Minute, "Overall timeout")

	backtestCmd.MarkFlagRequired("symbol")
	backtestCmd.MarkFlagRequired("from")
	backtestCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	fromDate, toDate, err := parseDates(backtestFrom, backtestTo)
	if err != nil {
		return err
	}
	params, err := parseParams(backtestParams)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), backtestTimeout)
	defer cancel()

	a, log, err := setup(func(cfg *config.Config) {
		overrideSource(cfg, backtestSource, backtestCSVDir)
	})
	if log != nil {
		defer log.Sync()
	}
	if err != nil {
		return err
	}

	strat, err := a.Strategies().Build(args[0], params)
	if err != nil {
		return err
	}
	bt, err := a.Backtester(backtestSource)
	if err != nil {
		return err
	}

	result, err := bt.Run(ctx, strat, backtestSymbol, fromDate, toDate)
	if err != nil {
		return fmt.Errorf("backtest %s on %s: %w", strat.Name(), backtestSymbol, err)
	}

	out := cmd.OutOrStdout()
	if err := report.WriteSummary(out, result); err != nil {
		return err
	}

	if backtestCSVOut != "" {
		if err := writeCSVFile(backtestCSVOut, func(f *os.File) error {
			return report.WriteCSV(f, result)
		}); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nSeries written to %s\n", backtestCSVOut)
	}

	if backtestSave {
		reports, err := a.Reports()
		if err != nil {
			return err
		}
		p, err := reports.Save(ctx, result)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Report saved to %s\n", p)
	}
	return nil
}

// overrideSource applies --source and --csv-dir to the loaded config.
func overrideSource(cfg *config.Config, source, csvDir string) {
	if source != "" {
		cfg.Data.Source = source
	}
	if csvDir != "" {
		cfg.Data.CSVDir = csvDir
	}
}

func writeCSVFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
