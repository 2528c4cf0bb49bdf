package strategy

import (
	"fmt"

	"github.com/newthinker/stratlab/internal/core"
	"github.com/newthinker/stratlab/internal/indicator"
	"github.com/newthinker/stratlab/internal/series"
	"github.com/newthinker/stratlab/internal/signal"
)

// Indicator line names
const (
	LineShortMA    = "short_ma"
	LineLongMA     = "long_ma"
	LineRSI        = "rsi"
	LineUpperBand  = "upper_band"
	LineMiddleBand = "middle_band"
	LineLowerBand  = "lower_band"
	LineMACD       = "macd"
	LineSignalLine = "signal_line"
	LineHistogram  = "histogram"
)

// Line is a named indicator series aligned with the price series.
type Line struct {
	Name   string         `json:"name"`
	Values []series.Value `json:"values"`
}

// Evaluation is the indicator output and position series of one strategy
// over one price series.
type Evaluation struct {
	Lines   []Line
	Signals []series.Position
}

// Line returns the named indicator line.
func (e *Evaluation) Line(name string) ([]series.Value, bool) {
	for _, l := range e.Lines {
		if l.Name == name {
			return l.Values, true
		}
	}
	return nil, false
}

// Evaluate computes the indicator lines for s over ps and converts them to
// positions.
func Evaluate(s Strategy, ps *series.PriceSeries) (*Evaluation, error) {
	if s == nil {
		return nil, core.WrapError(core.ErrInvalidStrategy, fmt.Errorf("no strategy given"))
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if ps == nil || ps.Len() == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("empty price series"))
	}

	closes := ps.Closes()

	switch v := s.(type) {
	case MovingAverage:
		return evaluateMovingAverage(v, closes)
	case RSI:
		return evaluateRSI(v, closes)
	case Bollinger:
		return evaluateBollinger(v, closes)
	case MACD:
		return evaluateMACD(v, closes)
	default:
		return nil, core.WrapError(core.ErrInvalidStrategy, fmt.Errorf("unsupported variant %T", s))
	}
}

func evaluateMovingAverage(s MovingAverage, closes []float64) (*Evaluation, error) {
	shortMA, err := indicator.SMA(closes, s.Short)
	if err != nil {
		return nil, err
	}
	longMA, err := indicator.SMA(closes, s.Long)
	if err != nil {
		return nil, err
	}
	positions, err := signal.MovingAverage(shortMA, longMA)
	if err != nil {
		return nil, err
	}
	return &Evaluation{
		Lines: []Line{
			{Name: LineShortMA, Values: shortMA},
			{Name: LineLongMA, Values: longMA},
		},
		Signals: positions,
	}, nil
}

func evaluateRSI(s RSI, closes []float64) (*Evaluation, error) {
	rsi, err := indicator.RSI(closes, s.Period)
	if err != nil {
		return nil, err
	}
	return &Evaluation{
		Lines:   []Line{{Name: LineRSI, Values: rsi}},
		Signals: signal.RSI(rsi),
	}, nil
}

func evaluateBollinger(s Bollinger, closes []float64) (*Evaluation, error) {
	bands, err := indicator.Bollinger(closes, s.Period, indicator.DefaultBandWidth)
	if err != nil {
		return nil, err
	}
	positions, err := signal.Bollinger(closes, bands.Upper, bands.Lower)
	if err != nil {
		return nil, err
	}
	return &Evaluation{
		Lines: []Line{
			{Name: LineUpperBand, Values: bands.Upper},
			{Name: LineMiddleBand, Values: bands.Middle},
			{Name: LineLowerBand, Values: bands.Lower},
		},
		Signals: positions,
	}, nil
}

func evaluateMACD(s MACD, closes []float64) (*Evaluation, error) {
	lines, err := indicator.MACD(closes, s.Short, s.Long, s.Signal)
	if err != nil {
		return nil, err
	}
	positions, err := signal.MACD(lines.MACD, lines.Signal)
	if err != nil {
		return nil, err
	}
	return &Evaluation{
		Lines: []Line{
			{Name: LineMACD, Values: lines.MACD},
			{Name: LineSignalLine, Values: lines.Signal},
			{Name: LineHistogram, Values: lines.Histogram},
		},
		Signals: positions,
	}, nil
}
