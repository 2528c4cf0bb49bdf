// Package signal turns indicator lines into position series.
//
// Every rule returns one position per input index. An absent input never
// satisfies a comparison, so warm-up periods map to series.Flat.
package signal

import (
	"fmt"

	"github.com/newthinker/stratlab/internal/core"
	"github.com/newthinker/stratlab/internal/series"
)

// RSI thresholds
const (
	RSIOversold   = 30.0
	RSIOverbought = 70.0
)

func checkLengths(n int, others ...int) error {
	for _, m := range others {
		if m != n {
			return core.WrapError(core.ErrInvalidSeries,
				fmt.Errorf("misaligned inputs: %d vs %d entries", n, m))
		}
	}
	return nil
}

// MovingAverage is long while the short average is above the long one and
// short otherwise. Only warm-up entries are flat.
func MovingAverage(shortMA, longMA []series.Value) ([]series.Position, error) {
	if err := checkLengths(len(shortMA), len(longMA)); err != nil {
		return nil, err
	}

	out := make([]series.Position, len(shortMA))
	for i := range shortMA {
		s, okS := series.Get(shortMA[i])
		l, okL := series.Get(longMA[i])
		switch {
		case !okS || !okL:
			out[i] = series.Flat
		case s > l:
			out[i] = series.Long
		default:
			out[i] = series.Short
		}
	}
	return out, nil
}

// RSI is long when oversold, short when overbought and flat in between.
func RSI(rsi []series.Value) []series.Position {
	out := make([]series.Position, len(rsi))
	for i, v := range rsi {
		r, ok := series.Get(v)
		switch {
		case !ok:
			out[i] = series.Flat
		case r < RSIOversold:
			out[i] = series.Long
		case r > RSIOverbought:
			out[i] = series.Short
		default:
			out[i] = series.Flat
		}
	}
	return out
}

// Bollinger is long below the lower band, short above the upper band.
func Bollinger(closes []float64, upper, lower []series.Value) ([]series.Position, error) {
	if err := checkLengths(len(closes), len(upper), len(lower)); err != nil {
		return nil, err
	}

	out := make([]series.Position, len(closes))
	for i, c := range closes {
		if lo, ok := series.Get(lower[i]); ok && c < lo {
			out[i] = series.Long
			continue
		}
		if up, ok := series.Get(upper[i]); ok && c > up {
			out[i] = series.Short
			continue
		}
		out[i] = series.Flat
	}
	return out, nil
}

// MACD is long while the MACD line is above its signal line and short while
// it is below. Exact equality is flat.
func MACD(macd, signalLine []series.Value) ([]series.Position, error) {
	if err := checkLengths(len(macd), len(signalLine)); err != nil {
		return nil, err
	}

	out := make([]series.Position, len(macd))
	for i := range macd {
		m, okM := series.Get(macd[i])
		s, okS := series.Get(signalLine[i])
		switch {
		case !okM || !okS:
			out[i] = series.Flat
		case m > s:
			out[i] = series.Long
		case m < s:
			out[i] = series.Short
		default:
			out[i] = series.Flat
		}
	}
	return out, nil
}

// Changes counts how often the position differs from the previous one.
func Changes(positions []series.Position) int {
	n := 0
	for i := 1; i < len(positions); i++ {
		if positions[i] != positions[i-1] {
			n++
		}
	}
	return n
}
