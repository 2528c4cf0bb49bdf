// internal/api/handler/api/sweep.go
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/newthinker/stratlab/internal/api/job"
	"github.com/newthinker/stratlab/internal/api/response"
	"github.com/newthinker/stratlab/internal/backtest"
	"github.com/newthinker/stratlab/internal/metrics"
	"github.com/newthinker/stratlab/internal/strategy"
	"go.uber.org/zap"
)

const (
	jobTypeSweep     = "sweep"
	defaultShortStep = 5
	defaultLongStep  = 10
	defaultSweepTop  = 10
)

// SweepRequest is the request body for a moving-average window sweep.
type SweepRequest struct {
	Symbol    string `json:"symbol" validate:"required,max=20"`
	Start     string `json:"start" validate:"required,datetime=2006-01-02"`
	End       string `json:"end" validate:"required,datetime=2006-01-02"`
	ShortStep int    `json:"short_step,omitempty" validate:"omitempty,min=1,max=45"`
	LongStep  int    `json:"long_step,omitempty" validate:"omitempty,min=1,max=150"`
	Top       int    `json:"top,omitempty" validate:"omitempty,min=1"`
}

// SweepOutcome is the result stored on a completed sweep job.
type SweepOutcome struct {
	Symbol    string                `json:"symbol"`
	Evaluated int                   `json:"evaluated"`
	Best      *backtest.SweepEntry  `json:"best,omitempty"`
	Entries   []backtest.SweepEntry `json:"entries"`
}

// SweepHandler runs parameter sweeps as async jobs.
type SweepHandler struct {
	jobStore   *job.Store
	backtester *backtest.Backtester
	metrics    *metrics.Registry
	logger     *zap.Logger
	timeout    time.Duration
}

// NewSweepHandler creates a new sweep handler.
func NewSweepHandler(jobStore *job.Store, backtester *backtest.Backtester, opts ...HandlerOption) *SweepHandler {
	o := buildOptions(opts)
	return &SweepHandler{
		jobStore:   jobStore,
		backtester: backtester,
		metrics:    o.metrics,
		logger:     o.logger,
		timeout:    backtestTimeout,
	}
}

// Create validates the request, builds the grid and starts a sweep job.
func (h *SweepHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req SweepRequest
	if err := decodeRequest(r, &req); err != nil {
		response.FromError(w, err)
		return
	}

	start, end, err := dateRange(req.Start, req.End)
	if err != nil {
		response.FromError(w, err)
		return
	}

	grid, err := backtest.DefaultSweepGrid(
		orDefault(req.ShortStep, defaultShortStep),
		orDefault(req.LongStep, defaultLongStep),
	)
	if err != nil {
		response.FromError(w, err)
		return
	}

	j := h.jobStore.Create(jobTypeSweep)
	h.publishActive()

	go h.runSweep(j.ID, req.Symbol, start, end, grid, orDefault(req.Top, defaultSweepTop))

	response.JSON(w, http.StatusAccepted, map[string]any{
		"job_id":     j.ID,
		"status":     j.Status,
		"grid_size":  len(grid),
		"short_step": orDefault(req.ShortStep, defaultShortStep),
		"long_step":  orDefault(req.LongStep, defaultLongStep),
	})
}

func (h *SweepHandler) runSweep(
	jobID, symbol string,
	start, end time.Time,
	grid []strategy.MovingAverage,
	top int,
) {
	defer h.publishActive()

	h.jobStore.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusRunning
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	entries, err := h.backtester.Sweep(ctx, symbol, start, end, grid)
	if err != nil {
		h.logger.Warn("sweep job failed", zap.String("job_id", jobID), zap.Error(err))
		h.jobStore.Update(jobID, func(j *job.Job) {
			j.Status = job.StatusFailed
			j.Error = jobError(err)
		})
		return
	}

	outcome := SweepOutcome{Symbol: symbol, Evaluated: len(entries), Entries: entries}
	if best, ok := backtest.Best(entries); ok {
		outcome.Best = &best
	}
	if top < len(outcome.Entries) {
		outcome.Entries = outcome.Entries[:top]
	}

	h.jobStore.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusComplete
		j.Progress = 100
		j.Result = outcome
	})
}

func (h *SweepHandler) publishActive() {
	if h.metrics != nil {
		h.metrics.SetJobsActive(jobTypeSweep, h.jobStore.Active(jobTypeSweep))
	}
}

// GetStatus returns the status of a sweep job.
func (h *SweepHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	jobStatus(w, h.jobStore, r.PathValue("id"))
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
