// internal/api/handler/api/backtest.go
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/newthinker/stratlab/internal/api/job"
	"github.com/newthinker/stratlab/internal/api/response"
	"github.com/newthinker/stratlab/internal/backtest"
	"github.com/newthinker/stratlab/internal/metrics"
	"github.com/newthinker/stratlab/internal/storage/results"
	"github.com/newthinker/stratlab/internal/strategy"
	"go.uber.org/zap"
)

const (
	jobTypeBacktest = "backtest"
	backtestTimeout = 5 * time.Minute
)

// BacktestRequest is the request body for starting a backtest.
type BacktestRequest struct {
	Symbol   string         `json:"symbol" validate:"required,max=20"`
	Strategy string         `json:"strategy" validate:"required"`
	Start    string         `json:"start" validate:"required,datetime=2006-01-02"`
	End      string         `json:"end" validate:"required,datetime=2006-01-02"`
	Params   map[string]any `json:"params,omitempty"`
	Save     bool           `json:"save,omitempty"`
}

// BacktestOutcome is the result stored on a completed backtest job.
type BacktestOutcome struct {
	Result     *backtest.Result `json:"result"`
	ReportPath string           `json:"report_path,omitempty"`
}

// BacktestHandler handles backtest API requests.
type BacktestHandler struct {
	jobStore   *job.Store
	backtester *backtest.Backtester
	strategies *strategy.Registry
	reports    *results.Store
	metrics    *metrics.Registry
	logger     *zap.Logger
	timeout    time.Duration
}

// HandlerOption configures the job-running handlers.
type HandlerOption func(*handlerOptions)

type handlerOptions struct {
	reports *results.Store
	metrics *metrics.Registry
	logger  *zap.Logger
}

// WithReports saves results on request when set.
func WithReports(s *results.Store) HandlerOption {
	return func(o *handlerOptions) { o.reports = s }
}

// WithMetrics publishes active job counts.
func WithMetrics(reg *metrics.Registry) HandlerOption {
	return func(o *handlerOptions) { o.metrics = reg }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) HandlerOption {
	return func(o *handlerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func buildOptions(opts []HandlerOption) handlerOptions {
	o := handlerOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewBacktestHandler creates a new backtest handler.
func NewBacktestHandler(
	jobStore *job.Store,
	backtester *backtest.Backtester,
	strategies *strategy.Registry,
	opts ...HandlerOption,
) *BacktestHandler {
	o := buildOptions(opts)
	return &BacktestHandler{
		jobStore:   jobStore,
		backtester: backtester,
		strategies: strategies,
		reports:    o.reports,
		metrics:    o.metrics,
		logger:     o.logger,
		timeout:    backtestTimeout,
	}
}

// Create validates the request, resolves the strategy and starts a
// backtest job. Bad requests fail synchronously; data errors surface on
// the job.
func (h *BacktestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req BacktestRequest
	if err := decodeRequest(r, &req); err != nil {
		response.FromError(w, err)
		return
	}

	start, end, err := dateRange(req.Start, req.End)
	if err != nil {
		response.FromError(w, err)
		return
	}

	strat, err := h.strategies.Build(req.Strategy, req.Params)
	if err != nil {
		response.FromError(w, err)
		return
	}

	j := h.jobStore.Create(jobTypeBacktest)
	h.publishActive()

	go h.runBacktest(j.ID, strat, req.Symbol, start, end, req.Save)

	response.JSON(w, http.StatusAccepted, map[string]any{
		"job_id":   j.ID,
		"status":   j.Status,
		"strategy": strat.Name(),
	})
}

// runBacktest executes the backtest and updates job status.
func (h *BacktestHandler) runBacktest(
	jobID string,
	strat strategy.Strategy,
	symbol string,
	start, end time.Time,
	save bool,
) {
	defer h.publishActive()

	h.jobStore.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusRunning
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	result, err := h.backtester.Run(ctx, strat, symbol, start, end)
	if err != nil {
		h.fail(jobID, err)
		return
	}

	outcome := BacktestOutcome{Result: result}
	if save && h.reports != nil {
		p, err := h.reports.Save(ctx, result)
		if err != nil {
			h.fail(jobID, err)
			return
		}
		outcome.ReportPath = p
	}

	h.jobStore.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusComplete
		j.Progress = 100
		j.Result = outcome
	})
}

func (h *BacktestHandler) fail(jobID string, err error) {
	h.logger.Warn("backtest job failed", zap.String("job_id", jobID), zap.Error(err))
	h.jobStore.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusFailed
		j.Error = jobError(err)
	})
}

func (h *BacktestHandler) publishActive() {
	if h.metrics != nil {
		h.metrics.SetJobsActive(jobTypeBacktest, h.jobStore.Active(jobTypeBacktest))
	}
}

// GetStatus returns the status of a job, with its result once complete.
func (h *BacktestHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	jobStatus(w, h.jobStore, r.PathValue("id"))
}

func jobStatus(w http.ResponseWriter, store *job.Store, id string) {
	j, err := store.Get(id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	resp := map[string]any{
		"job_id":   j.ID,
		"type":     j.Type,
		"status":   j.Status,
		"progress": j.Progress,
	}

	if j.Status == job.StatusComplete {
		resp["result"] = j.Result
	}
	if j.Status == job.StatusFailed && j.Error != nil {
		resp["error"] = response.Detail(j.Error)
	}

	response.JSON(w, http.StatusOK, resp)
}
