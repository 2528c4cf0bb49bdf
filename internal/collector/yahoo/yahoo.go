package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/newthinker/stratlab/internal/collector"
	"github.com/newthinker/stratlab/internal/core"
)

const (
	baseURL        = "https://query1.finance.yahoo.com/v8/finance/chart"
	defaultTimeout = 10 * time.Second
	userAgent      = "Mozilla/5.0 (compatible; stratlab/1.0)"
)

// validSymbol matches tickers like AAPL, BRK-B, BTC-USD, 600519.SH, 0700.HK
var validSymbol = regexp.MustCompile(`^[A-Za-z0-9]{1,10}([.-][A-Za-z]{1,4})?$`)

// validateSymbol checks if a symbol has valid format
func validateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if len(symbol) > 20 {
		return fmt.Errorf("symbol too long: %s", symbol)
	}
	if !validSymbol.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}

// Yahoo implements the Yahoo Finance chart collector
type Yahoo struct {
	client  *http.Client
	baseURL string
}

// New creates a new Yahoo collector
func New() *Yahoo {
	return &Yahoo{
		client: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL: baseURL,
	}
}

func (y *Yahoo) Name() string {
	return "yahoo"
}

func (y *Yahoo) SupportedMarkets() []core.Market {
	return []core.Market{core.MarketUS, core.MarketHK, core.MarketEU, core.MarketCNA, core.MarketCrypto}
}

func (y *Yahoo) Init(cfg collector.Config) error {
	if cfg.Timeout > 0 {
		y.client.Timeout = cfg.Timeout
	}
	if cfg.BaseURL != "" {
		y.baseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	return nil
}

// toYahooSymbol converts internal symbol format to Yahoo format
func (y *Yahoo) toYahooSymbol(symbol string) string {
	symbol = strings.ToUpper(symbol)
	// Shanghai stocks: 600519.SH -> 600519.SS
	if strings.HasSuffix(symbol, ".SH") {
		return strings.TrimSuffix(symbol, ".SH") + ".SS"
	}
	// Tether pairs trade as USD on Yahoo
	if strings.HasSuffix(symbol, "-USDT") {
		return strings.TrimSuffix(symbol, "T")
	}
	return symbol
}

// FetchHistory fetches historical OHLCV data. Both ends of the range are
// inclusive at day granularity.
func (y *Yahoo) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	if err := validateSymbol(symbol); err != nil {
		return nil, core.WrapError(core.ErrSymbolNotFound, err)
	}
	if end.Before(start) {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("end %s before start %s",
			end.Format(time.DateOnly), start.Format(time.DateOnly)))
	}

	url := fmt.Sprintf("%s/%s?interval=%s&period1=%d&period2=%d&events=history",
		y.baseURL, y.toYahooSymbol(symbol), y.toYahooInterval(interval),
		start.Unix(), end.AddDate(0, 0, 1).Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := y.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, core.WrapError(core.ErrCollectorTimeout, err)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("fetching history: %w", err))
	}
	defer resp.Body.Close()

	var result chartResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&result)

	if result.Chart.Error != nil {
		if result.Chart.Error.Code == "Not Found" || resp.StatusCode == http.StatusNotFound {
			return nil, core.WrapError(core.ErrSymbolNotFound, fmt.Errorf("%s: %s", symbol, result.Chart.Error.Description))
		}
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("yahoo error: %s", result.Chart.Error.Description))
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, core.WrapError(core.ErrSymbolNotFound, fmt.Errorf("%s", symbol))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}
	if decodeErr != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("decoding response: %w", decodeErr))
	}

	if len(result.Chart.Result) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no data for symbol: %s", symbol))
	}

	return toBars(symbol, interval, result.Chart.Result[0]), nil
}

func toBars(symbol, interval string, r chartResult) []core.OHLCV {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	quotes := r.Indicators.Quote[0]
	closes := quotes.Close
	// Adjusted closes account for splits and dividends.
	if len(r.Indicators.AdjClose) > 0 && len(r.Indicators.AdjClose[0].AdjClose) == len(r.Timestamp) {
		closes = r.Indicators.AdjClose[0].AdjClose
	}

	data := make([]core.OHLCV, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		c := at(closes, i)
		if c == nil {
			continue // Skip missing data
		}
		bar := core.OHLCV{
			Symbol:   symbol,
			Interval: interval,
			Close:    *c,
			Time:     time.Unix(ts, 0).UTC(),
		}
		if v := at(quotes.Open, i); v != nil {
			bar.Open = *v
		}
		if v := at(quotes.High, i); v != nil {
			bar.High = *v
		}
		if v := at(quotes.Low, i); v != nil {
			bar.Low = *v
		}
		if i < len(quotes.Volume) && quotes.Volume[i] != nil {
			bar.Volume = *quotes.Volume[i]
		}
		data = append(data, bar)
	}
	return data
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

func (y *Yahoo) toYahooInterval(interval string) string {
	switch interval {
	case "1m", "5m", "1h", "1d", "1wk", "1mo":
		return interval
	default:
		return "1d"
	}
}

// Yahoo API response types
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta       chartMeta  `json:"meta"`
	Timestamp  []int64    `json:"timestamp"`
	Indicators indicators `json:"indicators"`
}

type chartMeta struct {
	Symbol   string `json:"symbol"`
	Currency string `json:"currency"`
}

type indicators struct {
	Quote    []quoteIndicator    `json:"quote"`
	AdjClose []adjCloseIndicator `json:"adjclose"`
}

type quoteIndicator struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

type adjCloseIndicator struct {
	AdjClose []*float64 `json:"adjclose"`
}
