package indicator

import (
	"fmt"

	"github.com/newthinker/stratlab/internal/core"
	"github.com/newthinker/stratlab/internal/series"
)

func validateWindow(name string, window int) error {
	if window <= 0 {
		return core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("%s must be positive, got %d", name, window))
	}
	return nil
}

// SMA calculates the Simple Moving Average.
// Output is aligned with prices; the first period-1 entries are absent.
func SMA(prices []float64, period int) ([]series.Value, error) {
	if err := validateWindow("sma period", period); err != nil {
		return nil, err
	}

	result := series.Absent(len(prices))

	var sum float64
	for i, p := range prices {
		sum += p
		if i >= period {
			sum -= prices[i-period]
		}
		if i >= period-1 {
			result[i] = series.Some(sum / float64(period))
		}
	}

	return result, nil
}

// EMA calculates the Exponential Moving Average with multiplier 2/(span+1).
// The recursion is seeded by the first defined input with no bias
// correction of early terms. Absent inputs before the seed stay absent;
// absent inputs after it carry the previous average forward.
func EMA(values []series.Value, span int) ([]series.Value, error) {
	if err := validateWindow("ema span", span); err != nil {
		return nil, err
	}

	result := series.Absent(len(values))
	multiplier := 2.0 / float64(span+1)

	var ema float64
	seeded := false
	for i, v := range values {
		x, ok := series.Get(v)
		switch {
		case !ok && !seeded:
			continue
		case !ok:
		case !seeded:
			ema = x
			seeded = true
		default:
			ema = (x-ema)*multiplier + ema
		}
		result[i] = series.Some(ema)
	}

	return result, nil
}

// EMAOfPrices is EMA over a fully defined price slice.
func EMAOfPrices(prices []float64, span int) ([]series.Value, error) {
	values := make([]series.Value, len(prices))
	for i, p := range prices {
		values[i] = series.Some(p)
	}
	return EMA(values, span)
}
