package report

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/newthinker/stratlab/internal/backtest"
	"github.com/newthinker/stratlab/internal/series"
)

// CSV column names ahead of the indicator lines.
var leadingColumns = []string{"date", "close"}

// CSV column names after the indicator lines.
var trailingColumns = []string{
	"signal", "market_return", "strategy_return", "cumulative_market", "cumulative_strategy",
}

// WriteCSV writes one row per bar with the close, every indicator line, the
// position and the return series. Absent values are empty cells.
func WriteCSV(w io.Writer, r *backtest.Result) error {
	cw := csv.NewWriter(w)

	header := append([]string{}, leadingColumns...)
	for _, line := range r.Indicators {
		header = append(header, line.Name)
	}
	header = append(header, trailingColumns...)
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, 0, len(header))
	for i, t := range r.Times {
		record = record[:0]
		record = append(record, t.Format(time.DateOnly), formatFloat(r.Closes[i]))
		for _, line := range r.Indicators {
			record = append(record, formatValue(line.Values[i]))
		}
		record = append(record,
			strconv.Itoa(int(r.Signals[i])),
			formatValue(r.MarketReturns[i]),
			formatValue(r.StrategyReturns[i]),
			formatFloat(r.CumulativeMarket[i]),
			formatFloat(r.CumulativeStrategy[i]),
		)
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatValue(v series.Value) string {
	if f, ok := series.Get(v); ok {
		return formatFloat(f)
	}
	return ""
}
