// internal/api/handler/api/strategies.go
package api

import (
	"net/http"

	"github.com/newthinker/stratlab/internal/api/response"
	"github.com/newthinker/stratlab/internal/strategy"
	"github.com/samber/lo"
)

// StrategyInfo describes one selectable strategy with its effective
// default parameters.
type StrategyInfo struct {
	Kind        strategy.Kind  `json:"kind"`
	DisplayName string         `json:"display_name"`
	Name        string         `json:"name"`
	Params      map[string]int `json:"params"`
	Warmup      int            `json:"warmup"`
}

// StrategiesHandler lists the available strategies.
type StrategiesHandler struct {
	registry *strategy.Registry
}

// NewStrategiesHandler creates a new strategies handler.
func NewStrategiesHandler(registry *strategy.Registry) *StrategiesHandler {
	return &StrategiesHandler{registry: registry}
}

// List handles GET /api/strategies.
func (h *StrategiesHandler) List(w http.ResponseWriter, r *http.Request) {
	infos := lo.Map(h.registry.GetAll(), func(s strategy.Strategy, _ int) StrategyInfo {
		return StrategyInfo{
			Kind:        s.Kind(),
			DisplayName: s.Kind().DisplayName(),
			Name:        s.Name(),
			Params:      s.Params(),
			Warmup:      s.Warmup(),
		}
	})

	response.JSON(w, http.StatusOK, map[string]any{
		"strategies": infos,
	})
}
