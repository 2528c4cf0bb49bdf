package indicator

import (
	"github.com/newthinker/stratlab/internal/series"
)

// MACDLines holds the MACD line, its signal line and their difference.
type MACDLines struct {
	MACD      []series.Value
	Signal    []series.Value
	Histogram []series.Value
}

// MACD calculates EMA(short) - EMA(long) and its signalPeriod EMA.
func MACD(prices []float64, short, long, signalPeriod int) (MACDLines, error) {
	fast, err := EMAOfPrices(prices, short)
	if err != nil {
		return MACDLines{}, err
	}
	slow, err := EMAOfPrices(prices, long)
	if err != nil {
		return MACDLines{}, err
	}
	if err := validateWindow("macd signal period", signalPeriod); err != nil {
		return MACDLines{}, err
	}

	line := make([]series.Value, len(prices))
	for i := range prices {
		f, okF := series.Get(fast[i])
		s, okS := series.Get(slow[i])
		if okF && okS {
			line[i] = series.Some(f - s)
		} else {
			line[i] = series.None()
		}
	}

	signal, err := EMA(line, signalPeriod)
	if err != nil {
		return MACDLines{}, err
	}

	hist := make([]series.Value, len(prices))
	for i := range prices {
		m, okM := series.Get(line[i])
		s, okS := series.Get(signal[i])
		if okM && okS {
			hist[i] = series.Some(m - s)
		} else {
			hist[i] = series.None()
		}
	}

	return MACDLines{MACD: line, Signal: signal, Histogram: hist}, nil
}
