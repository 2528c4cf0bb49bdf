package indicator

import (
	"errors"
	"math"
	"testing"

	"github.com/newthinker/stratlab/internal/core"
	"github.com/newthinker/stratlab/internal/series"
)

func TestSMA_Calculate(t *testing.T) {
	prices := []float64{10, 11, 12, 13, 14, 15}

	sma, err := SMA(prices, 3)
	if err != nil {
		t.Fatalf("SMA: %v", err)
	}

	// SMA(3) for [10,11,12,13,14,15]:
	// [0], [1] absent
	// [2] = (10+11+12)/3 = 11
	// [3] = (11+12+13)/3 = 12
	// [4] = (12+13+14)/3 = 13
	// [5] = (13+14+15)/3 = 14
	if len(sma) != len(prices) {
		t.Fatalf("expected %d values, got %d", len(prices), len(sma))
	}
	for i := 0; i < 2; i++ {
		if sma[i].IsSome() {
			t.Errorf("sma[%d] should be absent during warm-up", i)
		}
	}

	expected := []float64{11, 12, 13, 14}
	for i, v := range expected {
		got, ok := series.Get(sma[i+2])
		if !ok || got != v {
			t.Errorf("sma[%d] = %v (defined=%v), want %f", i+2, got, ok, v)
		}
	}
}

func TestSMA_MatchesWindowMean(t *testing.T) {
	prices := wave(120)
	const w = 17

	sma, err := SMA(prices, w)
	if err != nil {
		t.Fatalf("SMA: %v", err)
	}

	for i := range prices {
		if i < w-1 {
			if sma[i].IsSome() {
				t.Fatalf("sma[%d] should be absent", i)
			}
			continue
		}
		var sum float64
		for _, p := range prices[i-w+1 : i+1] {
			sum += p
		}
		got, _ := series.Get(sma[i])
		if !almostEqual(got, sum/w, 1e-9) {
			t.Errorf("sma[%d] = %f, want %f", i, got, sum/w)
		}
	}
}

func TestSMA_NotEnoughData(t *testing.T) {
	prices := []float64{10, 11}
	sma, err := SMA(prices, 5)
	if err != nil {
		t.Fatalf("SMA: %v", err)
	}

	if len(sma) != 2 {
		t.Fatalf("expected aligned output of 2 values, got %d", len(sma))
	}
	for i, v := range sma {
		if v.IsSome() {
			t.Errorf("sma[%d] should be absent", i)
		}
	}
}

func TestSMA_InvalidPeriod(t *testing.T) {
	for _, p := range []int{0, -3} {
		_, err := SMA([]float64{1, 2, 3}, p)
		if !errors.Is(err, core.ErrInvalidParameter) {
			t.Errorf("period %d: expected ErrInvalidParameter, got %v", p, err)
		}
	}
}

func TestEMA_Calculate(t *testing.T) {
	// span 3 -> multiplier 0.5, seeded by the first price
	ema, err := EMAOfPrices([]float64{10, 11, 12}, 3)
	if err != nil {
		t.Fatalf("EMA: %v", err)
	}

	expected := []float64{10, 10.5, 11.25}
	for i, v := range expected {
		got, ok := series.Get(ema[i])
		if !ok || got != v {
			t.Errorf("ema[%d] = %v, want %v", i, got, v)
		}
	}
}

func TestEMA_AbsentInputs(t *testing.T) {
	in := []series.Value{series.None(), series.Some(4), series.None(), series.Some(8)}

	ema, err := EMA(in, 3)
	if err != nil {
		t.Fatalf("EMA: %v", err)
	}

	if ema[0].IsSome() {
		t.Error("ema[0] should stay absent before the seed")
	}
	expected := map[int]float64{1: 4, 2: 4, 3: 6}
	for i, v := range expected {
		got, ok := series.Get(ema[i])
		if !ok || got != v {
			t.Errorf("ema[%d] = %v (defined=%v), want %v", i, got, ok, v)
		}
	}
}

func TestEMA_ConstantConverges(t *testing.T) {
	prices := make([]float64, 50)
	for i := range prices {
		prices[i] = 42.5
	}

	ema, err := EMAOfPrices(prices, 12)
	if err != nil {
		t.Fatalf("EMA: %v", err)
	}
	for i, v := range ema {
		if got, _ := series.Get(v); got != 42.5 {
			t.Fatalf("ema[%d] = %f, want 42.5", i, got)
		}
	}
}

func TestEMA_InvalidSpan(t *testing.T) {
	_, err := EMAOfPrices([]float64{1}, 0)
	if !errors.Is(err, core.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}

// wave returns a deterministic oscillating price path.
func wave(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 10*math.Sin(float64(i)/5) + float64(i)*0.1
	}
	return out
}

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}
