package series

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/newthinker/stratlab/internal/core"
)

// Point is one close observation.
type Point struct {
	Time  time.Time `json:"time"`
	Close float64   `json:"close"`
}

// PriceSeries is an ordered close-price history with strictly increasing
// timestamps. It is immutable once built.
type PriceSeries struct {
	symbol string
	points []Point
}

// New validates points and builds a series. Points must already be in
// chronological order without duplicate timestamps.
func New(symbol string, points []Point) (*PriceSeries, error) {
	if len(points) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no price points for %q", symbol))
	}

	for i, p := range points {
		if p.Close <= 0 || math.IsNaN(p.Close) || math.IsInf(p.Close, 0) {
			return nil, core.WrapError(core.ErrInvalidSeries,
				fmt.Errorf("close at index %d is not a positive finite number: %v", i, p.Close))
		}
		if i > 0 && !p.Time.After(points[i-1].Time) {
			return nil, core.WrapError(core.ErrInvalidSeries,
				fmt.Errorf("timestamp at index %d (%s) does not follow %s",
					i, p.Time.Format(time.RFC3339), points[i-1].Time.Format(time.RFC3339)))
		}
	}

	cp := make([]Point, len(points))
	copy(cp, points)
	return &PriceSeries{symbol: symbol, points: cp}, nil
}

// FromOHLCV orders bars by time, drops invalid bars and keeps the last bar
// for any repeated timestamp before building the series.
func FromOHLCV(symbol string, bars []core.OHLCV) (*PriceSeries, error) {
	valid := make([]core.OHLCV, 0, len(bars))
	for _, b := range bars {
		if b.IsValid() {
			valid = append(valid, b)
		}
	}
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].Time.Before(valid[j].Time)
	})

	points := make([]Point, 0, len(valid))
	for _, b := range valid {
		if n := len(points); n > 0 && points[n-1].Time.Equal(b.Time) {
			points[n-1].Close = b.Close
			continue
		}
		points = append(points, Point{Time: b.Time, Close: b.Close})
	}

	return New(symbol, points)
}

// FromCloses builds a daily series starting at start.
func FromCloses(symbol string, start time.Time, closes []float64) (*PriceSeries, error) {
	points := make([]Point, len(closes))
	for i, c := range closes {
		points[i] = Point{Time: start.AddDate(0, 0, i), Close: c}
	}
	return New(symbol, points)
}

func (s *PriceSeries) Symbol() string {
	return s.symbol
}

func (s *PriceSeries) Len() int {
	return len(s.points)
}

// Points returns a copy of the underlying points.
func (s *PriceSeries) Points() []Point {
	cp := make([]Point, len(s.points))
	copy(cp, s.points)
	return cp
}

func (s *PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.points))
	for i, p := range s.points {
		out[i] = p.Close
	}
	return out
}

func (s *PriceSeries) Times() []time.Time {
	out := make([]time.Time, len(s.points))
	for i, p := range s.points {
		out[i] = p.Time
	}
	return out
}

// Start returns the first timestamp.
func (s *PriceSeries) Start() time.Time {
	return s.points[0].Time
}

// End returns the last timestamp.
func (s *PriceSeries) End() time.Time {
	return s.points[len(s.points)-1].Time
}

// Returns computes simple period returns. The first entry is absent.
func (s *PriceSeries) Returns() []Value {
	out := make([]Value, len(s.points))
	out[0] = None()
	for i := 1; i < len(s.points); i++ {
		out[i] = Some(s.points[i].Close/s.points[i-1].Close - 1)
	}
	return out
}
