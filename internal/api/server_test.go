// internal/api/server_test.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/stratlab/internal/api/middleware"
	"github.com/newthinker/stratlab/internal/api/response"
	"github.com/newthinker/stratlab/internal/backtest"
	"github.com/newthinker/stratlab/internal/core"
	"github.com/newthinker/stratlab/internal/metrics"
	"github.com/newthinker/stratlab/internal/storage/archive"
	"github.com/newthinker/stratlab/internal/storage/results"
	"github.com/newthinker/stratlab/internal/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type rampProvider struct{}

func (rampProvider) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	bars := make([]core.OHLCV, 120)
	for i := range bars {
		bars[i] = core.OHLCV{Symbol: symbol, Interval: interval, Close: 100 + float64(i%17), Time: start.AddDate(0, 0, i)}
	}
	return bars, nil
}

func newTestServer(t *testing.T, cfg Config) (*Server, *metrics.Registry) {
	t.Helper()
	fs, err := archive.NewLocalFS(t.TempDir())
	require.NoError(t, err)

	reg := metrics.NewRegistry()
	srv, err := NewServer(cfg, Dependencies{
		Backtester: backtest.New(rampProvider{}, backtest.WithMetrics(reg)),
		Strategies: strategy.NewRegistry(nil),
		Reports:    results.NewStore(fs),
		Metrics:    reg,
		Universe:   []string{"AAPL", "BTC-USD"},
	}, zap.NewNop())
	require.NoError(t, err)
	return srv, reg
}

func serve(srv *Server, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestNewServer_RequiresDependencies(t *testing.T) {
	_, err := NewServer(Config{}, Dependencies{}, nil)
	assert.Error(t, err)
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t, Config{Host: "localhost", APIKey: "test-key"})

	w := serve(srv, "GET", "/api/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(metrics.RequestIDHeader))
}

func TestServer_APIAuth_Required(t *testing.T) {
	srv, _ := newTestServer(t, Config{APIKey: "test-key"})

	w := serve(srv, "GET", "/api/strategies", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(srv, "GET", "/api/strategies", "", map[string]string{middleware.APIKeyHeader: "test-key"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_Routes(t *testing.T) {
	srv, _ := newTestServer(t, Config{MetricsPath: "/metrics"})

	tests := []struct {
		method, path string
		want         int
	}{
		{"GET", "/api/strategies", http.StatusOK},
		{"GET", "/api/universe", http.StatusOK},
		{"GET", "/api/reports", http.StatusOK},
		{"GET", "/api/backtest/missing", http.StatusNotFound},
		{"GET", "/api/sweep/missing", http.StatusNotFound},
		{"DELETE", "/api/strategies", http.StatusMethodNotAllowed},
		{"GET", "/metrics", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := serve(srv, tt.method, tt.path, "", nil)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestServer_BacktestRoundTrip(t *testing.T) {
	srv, reg := newTestServer(t, Config{MetricsPath: "/metrics"})

	w := serve(srv, "POST", "/api/backtest",
		`{"symbol":"AAPL","strategy":"Moving Averages","start":"2024-01-01","end":"2024-04-30","params":{"short_window":5,"long_window":50}}`, nil)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var accepted response.SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accepted))
	id := accepted.Data.(map[string]any)["job_id"].(string)

	var status map[string]any
	require.Eventually(t, func() bool {
		w := serve(srv, "GET", "/api/backtest/"+id, "", nil)
		var resp response.SuccessResponse
		if json.Unmarshal(w.Body.Bytes(), &resp) != nil {
			return false
		}
		status = resp.Data.(map[string]any)
		return status["status"] == "complete" || status["status"] == "failed"
	}, 5*time.Second, 10*time.Millisecond)

	require.Equal(t, "complete", status["status"])
	outcome := status["result"].(map[string]any)
	result := outcome["result"].(map[string]any)
	assert.Equal(t, "ma_crossover", result["kind"])
	assert.Len(t, result["signals"], 120)

	metricsBody := serve(srv, "GET", "/metrics", "", nil).Body.String()
	assert.True(t, strings.Contains(metricsBody, `stratlab_backtests_total{status="success",strategy="ma_crossover"} 1`),
		"backtest counter missing from exposition")
	assert.Contains(t, metricsBody, `path="/api/backtest/{id}"`)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}
