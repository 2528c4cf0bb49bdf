package strategy

import (
	"fmt"
	"strings"

	"github.com/newthinker/stratlab/internal/core"
)

// Kind identifies one of the supported strategy variants.
type Kind string

const (
	KindMovingAverage Kind = "ma_crossover"
	KindRSI           Kind = "rsi"
	KindBollinger     Kind = "bollinger"
	KindMACD          Kind = "macd"
)

// Kinds lists every variant in display order.
func Kinds() []Kind {
	return []Kind{KindMovingAverage, KindRSI, KindBollinger, KindMACD}
}

// DisplayName returns the human-readable strategy name.
func (k Kind) DisplayName() string {
	switch k {
	case KindMovingAverage:
		return "Moving Averages"
	case KindRSI:
		return "RSI (Relative Strength Index)"
	case KindBollinger:
		return "Bollinger Bands"
	case KindMACD:
		return "MACD"
	default:
		return string(k)
	}
}

var kindAliases = map[string]Kind{
	"ma":              KindMovingAverage,
	"sma":             KindMovingAverage,
	"moving_average":  KindMovingAverage,
	"moving_averages": KindMovingAverage,
	"bollinger_bands": KindBollinger,
	"bb":              KindBollinger,
}

// ParseKind resolves a canonical kind, a display name or a known alias.
// Matching ignores case.
func ParseKind(name string) (Kind, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, k := range Kinds() {
		if key == string(k) || key == strings.ToLower(k.DisplayName()) {
			return k, nil
		}
	}
	if k, ok := kindAliases[key]; ok {
		return k, nil
	}
	return "", core.WrapError(core.ErrInvalidStrategy, fmt.Errorf("%q", name))
}

// Strategy is a fully parameterised strategy variant. The set of
// implementations is closed: MovingAverage, RSI, Bollinger and MACD.
type Strategy interface {
	Kind() Kind
	// Name includes the parameters, e.g. "MA Crossover (20/100)".
	Name() string
	// Params returns the parameters keyed as accepted by Parse.
	Params() map[string]int
	// Validate reports out-of-range parameters as core.ErrInvalidParameter.
	Validate() error
	// Warmup is the number of leading bars without a defined indicator.
	Warmup() int

	sealed()
}

func paramError(format string, args ...any) error {
	return core.WrapError(core.ErrInvalidParameter, fmt.Errorf(format, args...))
}

func checkRange(name string, v, lo, hi int) error {
	if v < lo || v > hi {
		return paramError("%s %d outside [%d,%d]", name, v, lo, hi)
	}
	return nil
}
