// internal/api/handler/api/universe.go
package api

import (
	"net/http"
	"strings"

	"github.com/newthinker/stratlab/internal/api/response"
	"github.com/newthinker/stratlab/internal/core"
	"github.com/samber/lo"
)

// UniverseEntry is one ticker of the configured universe.
type UniverseEntry struct {
	Symbol string      `json:"symbol"`
	Market core.Market `json:"market"`
}

// UniverseHandler serves the default ticker universe.
type UniverseHandler struct {
	entries []UniverseEntry
}

// NewUniverseHandler creates a handler over the given tickers. Duplicates
// are dropped, case-insensitively.
func NewUniverseHandler(symbols []string) *UniverseHandler {
	unique := lo.UniqBy(symbols, strings.ToUpper)
	return &UniverseHandler{
		entries: lo.Map(unique, func(s string, _ int) UniverseEntry {
			return UniverseEntry{Symbol: s, Market: core.DetectMarket(s)}
		}),
	}
}

// List handles GET /api/universe?q=<prefix>.
func (h *UniverseHandler) List(w http.ResponseWriter, r *http.Request) {
	query := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("q")))

	entries := h.entries
	if query != "" {
		entries = lo.Filter(entries, func(e UniverseEntry, _ int) bool {
			return strings.HasPrefix(strings.ToUpper(e.Symbol), query)
		})
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"symbols": entries,
		"count":   len(entries),
	})
}
