package indicator

import (
	"github.com/newthinker/stratlab/internal/series"
)

// RSINeutral is reported when the window saw neither gains nor losses.
const RSINeutral = 50.0

// RSI calculates the Relative Strength Index from simple trailing means
// of gains and losses over period price changes.
//
// The first change is undefined and counts as neither gain nor loss, so the
// first window spans indices 0..period-1 and only period-1 entries are absent.
// A window with no losses saturates at 100; a window with neither gains
// nor losses is RSINeutral.
func RSI(prices []float64, period int) ([]series.Value, error) {
	if err := validateWindow("rsi period", period); err != nil {
		return nil, err
	}

	result := series.Absent(len(prices))
	gains := make([]float64, len(prices))
	losses := make([]float64, len(prices))
	for i := 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	// Non-zero counts let an all-zero window report exactly zero instead of
	// rounding residue from the running sums.
	var gainSum, lossSum float64
	var gainCount, lossCount int
	for i := 0; i < len(prices); i++ {
		gainSum += gains[i]
		lossSum += losses[i]
		if gains[i] > 0 {
			gainCount++
		}
		if losses[i] > 0 {
			lossCount++
		}

		if i >= period {
			gainSum -= gains[i-period]
			lossSum -= losses[i-period]
			if gains[i-period] > 0 {
				gainCount--
			}
			if losses[i-period] > 0 {
				lossCount--
			}
		}
		if gainCount == 0 {
			gainSum = 0
		}
		if lossCount == 0 {
			lossSum = 0
		}

		if i >= period-1 {
			avgGain := gainSum / float64(period)
			avgLoss := lossSum / float64(period)
			result[i] = series.Some(rsiValue(avgGain, avgLoss))
		}
	}

	return result, nil
}

func rsiValue(avgGain, avgLoss float64) float64 {
	switch {
	case avgLoss == 0 && avgGain == 0:
		return RSINeutral
	case avgLoss == 0:
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
