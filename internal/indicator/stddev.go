package indicator

import (
	"math"

	"github.com/newthinker/stratlab/internal/series"
)

// RollingStd calculates the trailing sample standard deviation (n-1
// denominator). Entries before the window fills are absent, and a window
// of one is absent everywhere since a single observation has no sample
// deviation.
//
// Sums are kept relative to the first price so that flat stretches give
// exactly zero.
func RollingStd(prices []float64, period int) ([]series.Value, error) {
	if err := validateWindow("std period", period); err != nil {
		return nil, err
	}

	result := series.Absent(len(prices))
	if period < 2 || len(prices) == 0 {
		return result, nil
	}

	shift := prices[0]
	n := float64(period)
	var sum, sumSq float64
	for i, p := range prices {
		d := p - shift
		sum += d
		sumSq += d * d
		if i >= period {
			old := prices[i-period] - shift
			sum -= old
			sumSq -= old * old
		}
		if i >= period-1 {
			variance := (sumSq - sum*sum/n) / (n - 1)
			if variance < 0 {
				variance = 0
			}
			result[i] = series.Some(math.Sqrt(variance))
		}
	}

	return result, nil
}
