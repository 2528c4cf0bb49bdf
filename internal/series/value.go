package series

import (
	"github.com/moznion/go-optional"
)

// Value is a numeric entry that may be absent. Absent entries mark warm-up
// periods and undefined returns; they are never treated as zero.
type Value = optional.Option[float64]

// Some returns a defined value.
func Some(v float64) Value {
	return optional.Some(v)
}

// None returns an absent value.
func None() Value {
	return optional.None[float64]()
}

// Get returns the float and whether it is defined.
func Get(v Value) (float64, bool) {
	if v.IsNone() {
		return 0, false
	}
	return v.Unwrap(), true
}

// Defined returns the defined entries of values, in order.
func Defined(values []Value) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := Get(v); ok {
			out = append(out, f)
		}
	}
	return out
}

// Absent returns a slice of n absent values.
func Absent(n int) []Value {
	out := make([]Value, n)
	for i := range out {
		out[i] = None()
	}
	return out
}
