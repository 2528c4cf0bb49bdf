package strategy

import (
	"fmt"

	"github.com/newthinker/stratlab/internal/core"
)

// Parameter keys
const (
	ParamShortWindow  = "short_window"
	ParamLongWindow   = "long_window"
	ParamPeriod       = "period"
	ParamShortPeriod  = "short_period"
	ParamLongPeriod   = "long_period"
	ParamSignalPeriod = "signal_period"
)

// Parameter bounds
const (
	MinShortWindow = 5
	MaxShortWindow = 50
	MinLongWindow  = 50
	MaxLongWindow  = 200

	MinRSIPeriod = 5
	MaxRSIPeriod = 50

	MinBollingerPeriod = 10
	MaxBollingerPeriod = 50

	MaxMACDPeriod = 200
)

// MovingAverage compares a short and a long simple moving average.
type MovingAverage struct {
	Short int
	Long  int
}

func (MovingAverage) Kind() Kind { return KindMovingAverage }
func (MovingAverage) sealed()    {}

func (m MovingAverage) Name() string {
	return fmt.Sprintf("MA Crossover (%d/%d)", m.Short, m.Long)
}

func (m MovingAverage) Params() map[string]int {
	return map[string]int{ParamShortWindow: m.Short, ParamLongWindow: m.Long}
}

func (m MovingAverage) Validate() error {
	if err := checkRange(ParamShortWindow, m.Short, MinShortWindow, MaxShortWindow); err != nil {
		return err
	}
	if err := checkRange(ParamLongWindow, m.Long, MinLongWindow, MaxLongWindow); err != nil {
		return err
	}
	if m.Short > m.Long {
		return paramError("short window %d must not exceed long window %d", m.Short, m.Long)
	}
	return nil
}

func (m MovingAverage) Warmup() int { return m.Long - 1 }

// RSI trades the oversold and overbought zones of the RSI oscillator.
type RSI struct {
	Period int
}

func (RSI) Kind() Kind { return KindRSI }
func (RSI) sealed()    {}

func (r RSI) Name() string {
	return fmt.Sprintf("RSI (%d)", r.Period)
}

func (r RSI) Params() map[string]int {
	return map[string]int{ParamPeriod: r.Period}
}

func (r RSI) Validate() error {
	return checkRange(ParamPeriod, r.Period, MinRSIPeriod, MaxRSIPeriod)
}

func (r RSI) Warmup() int { return r.Period - 1 }

// Bollinger fades closes outside two-standard-deviation bands.
type Bollinger struct {
	Period int
}

func (Bollinger) Kind() Kind { return KindBollinger }
func (Bollinger) sealed()    {}

func (b Bollinger) Name() string {
	return fmt.Sprintf("Bollinger Bands (%d)", b.Period)
}

func (b Bollinger) Params() map[string]int {
	return map[string]int{ParamPeriod: b.Period}
}

func (b Bollinger) Validate() error {
	return checkRange(ParamPeriod, b.Period, MinBollingerPeriod, MaxBollingerPeriod)
}

func (b Bollinger) Warmup() int { return b.Period - 1 }

// MACD follows the MACD line against its signal line.
type MACD struct {
	Short  int
	Long   int
	Signal int
}

func (MACD) Kind() Kind { return KindMACD }
func (MACD) sealed()    {}

func (m MACD) Name() string {
	return fmt.Sprintf("MACD (%d/%d/%d)", m.Short, m.Long, m.Signal)
}

func (m MACD) Params() map[string]int {
	return map[string]int{
		ParamShortPeriod:  m.Short,
		ParamLongPeriod:   m.Long,
		ParamSignalPeriod: m.Signal,
	}
}

func (m MACD) Validate() error {
	if err := checkRange(ParamShortPeriod, m.Short, 1, MaxMACDPeriod); err != nil {
		return err
	}
	if err := checkRange(ParamLongPeriod, m.Long, 2, MaxMACDPeriod); err != nil {
		return err
	}
	if err := checkRange(ParamSignalPeriod, m.Signal, 1, MaxMACDPeriod); err != nil {
		return err
	}
	if m.Short >= m.Long {
		return paramError("short period %d must be below long period %d", m.Short, m.Long)
	}
	return nil
}

// Warmup is zero: both averages are seeded by the first close.
func (m MACD) Warmup() int { return 0 }

// Default returns the variant of kind with its default parameters.
func Default(kind Kind) (Strategy, error) {
	switch kind {
	case KindMovingAverage:
		return MovingAverage{Short: 20, Long: 100}, nil
	case KindRSI:
		return RSI{Period: 14}, nil
	case KindBollinger:
		return Bollinger{Period: 20}, nil
	case KindMACD:
		return MACD{Short: 12, Long: 26, Signal: 9}, nil
	default:
		return nil, core.WrapError(core.ErrInvalidStrategy, fmt.Errorf("%q", kind))
	}
}
