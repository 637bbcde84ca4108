package multiton

import (
	"fmt"
	"math"
	"reflect"
)

// Mode specifies how a Reducer combines the values collected by a getter.
type Mode int

const (
	// FoldMode folds values left-to-right, starting from the zero accumulator.
	// The first call receives (zero R, values[0], 0, values).
	FoldMode Mode = iota

	// SomeMode reports whether at least one value satisfies the predicate.
	// Over an empty sequence the result is false.
	SomeMode

	// EveryMode reports whether all values satisfy the predicate.
	// Over an empty sequence the result is true.
	EveryMode
)

// String returns the string representation of the Mode.
func (m Mode) String() string {
	switch m {
	case FoldMode:
		return "Fold"
	case SomeMode:
		return "Some"
	case EveryMode:
		return "Every"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// IsValid checks if the mode is valid.
func (m Mode) IsValid() bool {
	return m >= FoldMode && m <= EveryMode
}

// FoldFunc combines the accumulator with the value at index.
type FoldFunc[V, R any] func(acc R, value V, index int, values []V) R

// Reducer combines a sequence of per-instance field values into one result.
// The zero Reducer is a no-op that always yields the zero value of R.
//
// Build a Reducer with Fold, Some or Every.
type Reducer[V, R any] struct {
	mode  Mode
	fold  FoldFunc[V, R]
	whole func(values []V) R
}

// Fold returns a Reducer that folds values left-to-right with fn, starting
// from the zero value of R. A nil fn yields the no-op reducer.
//
// Example:
//
//	sum := multiton.Fold(func(acc, v int, _ int, _ []int) int { return acc + v })
func Fold[V, R any](fn FoldFunc[V, R]) Reducer[V, R] {
	return Reducer[V, R]{mode: FoldMode, fold: fn}
}

// Some returns a Reducer reporting whether at least one value satisfies pred.
// A nil pred uses Truthy.
func Some[V any](pred func(V) bool) Reducer[V, bool] {
	if pred == nil {
		pred = Truthy[V]
	}

	return Reducer[V, bool]{
		mode: SomeMode,
		whole: func(values []V) bool {
			for _, v := range values {
				if pred(v) {
					return true
				}
			}
			return false
		},
	}
}

// Every returns a Reducer reporting whether every value satisfies pred.
// A nil pred uses Truthy.
func Every[V any](pred func(V) bool) Reducer[V, bool] {
	if pred == nil {
		pred = Truthy[V]
	}

	return Reducer[V, bool]{
		mode: EveryMode,
		whole: func(values []V) bool {
			for _, v := range values {
				if !pred(v) {
					return false
				}
			}
			return true
		},
	}
}

// Number is satisfied by the built-in integer and floating point types.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Sum returns a Reducer adding all values together.
func Sum[V Number]() Reducer[V, V] {
	return Fold(func(acc V, value V, _ int, _ []V) V {
		return acc + value
	})
}

// Mode returns the reduction mode.
func (r Reducer[V, R]) Mode() Mode {
	return r.mode
}

// Reduce applies the reducer to values.
func (r Reducer[V, R]) Reduce(values []V) R {
	if r.whole != nil {
		return r.whole(values)
	}

	var acc R
	if r.fold == nil {
		return acc
	}

	for i, v := range values {
		acc = r.fold(acc, v, i, values)
	}

	return acc
}

// Truthy reports whether v is anything other than the zero value of its
// type. Nil interfaces and NaN are false.
func Truthy[V any](v V) bool {
	rv := reflect.ValueOf(any(v))
	if !rv.IsValid() {
		return false
	}

	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		if math.IsNaN(rv.Float()) {
			return false
		}
	}

	return !rv.IsZero()
}
