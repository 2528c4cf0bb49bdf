// internal/api/handler/api/reports.go
package api

import (
	"net/http"
	"path"
	"strings"

	"github.com/newthinker/stratlab/internal/api/response"
	"github.com/newthinker/stratlab/internal/core"
	"github.com/newthinker/stratlab/internal/storage/results"
	"github.com/newthinker/stratlab/internal/strategy"
	"github.com/spf13/cast"
)

const defaultReportLimit = 50

// ReportsHandler serves saved backtest reports.
type ReportsHandler struct {
	store *results.Store
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(store *results.Store) *ReportsHandler {
	return &ReportsHandler{store: store}
}

// List handles GET /api/reports?symbol=&strategy=&limit=.
func (h *ReportsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := results.ListFilter{
		Symbol: q.Get("symbol"),
		Limit:  defaultReportLimit,
	}
	if name := q.Get("strategy"); name != "" {
		kind, err := strategy.ParseKind(name)
		if err != nil {
			response.FromError(w, err)
			return
		}
		filter.Strategy = string(kind)
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := cast.ToIntE(raw)
		if err != nil || limit <= 0 {
			response.FromError(w, core.WrapError(core.ErrInvalidRequest, err))
			return
		}
		filter.Limit = limit
	}

	paths, err := h.store.List(r.Context(), filter)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"reports": paths,
		"count":   len(paths),
	})
}

// Get handles GET /api/reports/{path...}. The path may be given with or
// without the leading reports/ segment that List returns.
func (h *ReportsHandler) Get(w http.ResponseWriter, r *http.Request) {
	p := strings.TrimPrefix(path.Clean("/"+r.PathValue("path")), "/")
	if !strings.HasPrefix(p, results.Root+"/") {
		p = path.Join(results.Root, p)
	}
	if !strings.HasSuffix(p, ".json") {
		response.FromError(w, core.ErrReportNotFound)
		return
	}

	result, err := h.store.Load(r.Context(), p)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, result)
}
