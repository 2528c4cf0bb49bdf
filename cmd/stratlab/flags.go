package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/newthinker/stratlab/internal/core"
)

const dateLayout = "2006-01-02"

// parseDates parses an inclusive YYYY-MM-DD range.
func parseDates(from, to string) (time.Time, time.Time, error) {
	start, err := time.Parse(dateLayout, from)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid from date format (expected YYYY-MM-DD): %w", err)
	}
	end, err := time.Parse(dateLayout, to)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid to date format (expected YYYY-MM-DD): %w", err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date must not be before start date")
	}
	return start, end, nil
}

// parseParams turns repeated key=value flags into strategy parameters.
// Values stay strings; strategy.Parse converts them as decimal integers.
func parseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, core.WrapError(core.ErrInvalidParameter, fmt.Errorf("expected key=value, got %q", pair))
		}
		params[key] = strings.TrimSpace(raw)
	}
	return params, nil
}
