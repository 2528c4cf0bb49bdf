package indicator

import (
	"github.com/newthinker/stratlab/internal/series"
)

// DefaultBandWidth is the number of standard deviations between the
// middle band and each outer band.
const DefaultBandWidth = 2.0

// Bands holds Bollinger Band lines aligned with the input prices.
type Bands struct {
	Upper  []series.Value
	Middle []series.Value
	Lower  []series.Value
	Std    []series.Value
}

// Bollinger calculates bands at k sample standard deviations around the
// period SMA. An entry is absent wherever either the SMA or the deviation
// is absent.
func Bollinger(prices []float64, period int, k float64) (Bands, error) {
	middle, err := SMA(prices, period)
	if err != nil {
		return Bands{}, err
	}
	std, err := RollingStd(prices, period)
	if err != nil {
		return Bands{}, err
	}

	bands := Bands{
		Upper:  series.Absent(len(prices)),
		Middle: middle,
		Lower:  series.Absent(len(prices)),
		Std:    std,
	}
	for i := range prices {
		m, ok := series.Get(middle[i])
		if !ok {
			continue
		}
		s, ok := series.Get(std[i])
		if !ok {
			continue
		}
		bands.Upper[i] = series.Some(m + k*s)
		bands.Lower[i] = series.Some(m - k*s)
	}

	return bands, nil
}
