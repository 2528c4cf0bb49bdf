package strategy

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Parse resolves name to a variant, applies params over its defaults and
// validates the result. Unknown names fail with core.ErrInvalidStrategy,
// unknown keys and out-of-range values with core.ErrInvalidParameter.
func Parse(name string, params map[string]any) (Strategy, error) {
	kind, err := ParseKind(name)
	if err != nil {
		return nil, err
	}
	s, err := Default(kind)
	if err != nil {
		return nil, err
	}
	if s, err = apply(s, params); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func apply(s Strategy, params map[string]any) (Strategy, error) {
	if len(params) == 0 {
		return s, nil
	}

	known := s.Params()
	values := make(map[string]int, len(params))
	for key, raw := range params {
		k := strings.ToLower(strings.TrimSpace(key))
		if _, ok := known[k]; !ok {
			return nil, paramError("unknown parameter %q for %s (accepted: %s)",
				key, s.Kind(), strings.Join(paramKeys(known), ", "))
		}
		v, err := toInt(raw)
		if err != nil {
			return nil, paramError("%s: %v", key, err)
		}
		values[k] = v
	}

	pick := func(key string, current int) int {
		if v, ok := values[key]; ok {
			return v
		}
		return current
	}

	switch v := s.(type) {
	case MovingAverage:
		v.Short = pick(ParamShortWindow, v.Short)
		v.Long = pick(ParamLongWindow, v.Long)
		return v, nil
	case RSI:
		v.Period = pick(ParamPeriod, v.Period)
		return v, nil
	case Bollinger:
		v.Period = pick(ParamPeriod, v.Period)
		return v, nil
	case MACD:
		v.Short = pick(ParamShortPeriod, v.Short)
		v.Long = pick(ParamLongPeriod, v.Long)
		v.Signal = pick(ParamSignalPeriod, v.Signal)
		return v, nil
	}
	return s, nil
}

// toInt accepts integers, integral floats (JSON numbers) and numeric
// strings (CLI flags).
func toInt(raw any) (int, error) {
	switch f := raw.(type) {
	case nil, bool:
		return 0, fmt.Errorf("expected a whole number, got %v", raw)
	case string:
		return strconv.Atoi(strings.TrimSpace(f))
	case float64:
		if f != math.Trunc(f) {
			return 0, fmt.Errorf("%v is not a whole number", f)
		}
	case float32:
		if float64(f) != math.Trunc(float64(f)) {
			return 0, fmt.Errorf("%v is not a whole number", f)
		}
	}
	return cast.ToIntE(raw)
}

func paramKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
