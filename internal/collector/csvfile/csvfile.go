// Package csvfile serves daily bars from local CSV files named <SYMBOL>.csv
// with a date,open,high,low,close,volume header.
package csvfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/newthinker/stratlab/internal/collector"
	"github.com/newthinker/stratlab/internal/core"
)

var validSymbol = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9.\-^]{0,19}$`)

var dateLayouts = []string{time.DateOnly, time.RFC3339, "2006-01-02 15:04:05", "2006/01/02"}

// date parses the date column in any of dateLayouts.
type date struct {
	time.Time
}

// UnmarshalCSV implements gocsv.TypeUnmarshaller.
func (d *date) UnmarshalCSV(s string) error {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("unrecognized date %q", s)
}

type row struct {
	Date   date    `csv:"date"`
	Open   float64 `csv:"open"`
	High   float64 `csv:"high"`
	Low    float64 `csv:"low"`
	Close  float64 `csv:"close"`
	Volume float64 `csv:"volume"`
}

// Collector reads bars from a directory of CSV files
type Collector struct {
	dir string
}

// New creates a CSV collector rooted at dir
func New(dir string) *Collector {
	return &Collector{dir: dir}
}

func (c *Collector) Name() string {
	return "csv"
}

func (c *Collector) SupportedMarkets() []core.Market {
	return []core.Market{core.MarketUS, core.MarketHK, core.MarketCNA, core.MarketEU, core.MarketCrypto}
}

func (c *Collector) Init(cfg collector.Config) error {
	if cfg.Dir != "" {
		c.dir = cfg.Dir
	}
	if c.dir == "" {
		return core.WrapError(core.ErrConfigMissing, errors.New("csv data directory not set"))
	}
	return nil
}

// FetchHistory returns the bars of <dir>/<SYMBOL>.csv dated within
// [start, end], both inclusive at day granularity, in time order.
func (c *Collector) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	if !validSymbol.MatchString(symbol) {
		return nil, core.WrapError(core.ErrSymbolNotFound, fmt.Errorf("invalid symbol format: %s", symbol))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(c.dir, strings.ToUpper(symbol)+".csv")
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, core.WrapError(core.ErrSymbolNotFound, fmt.Errorf("%s: no file %s", symbol, path))
		}
		return nil, core.WrapError(core.ErrCollectorFailed, err)
	}
	defer f.Close()

	var rows []row
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("parsing %s: %w", path, err))
	}

	from := truncateDay(start)
	until := truncateDay(end).AddDate(0, 0, 1)

	bars := make([]core.OHLCV, 0, len(rows))
	for _, r := range rows {
		t := r.Date.Time
		if t.Before(from) || !t.Before(until) {
			continue
		}
		bars = append(bars, core.OHLCV{
			Symbol:   symbol,
			Interval: interval,
			Open:     r.Open,
			High:     r.High,
			Low:      r.Low,
			Close:    r.Close,
			Volume:   int64(r.Volume),
			Time:     t,
		})
	}

	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Time.Before(bars[j].Time)
	})
	return bars, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
