// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwcov

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// Value is the set of types that can be sampled by a coverpoint.
//
type Value = constraints.Integer

// An Interval is a closed range of values [Lo, Hi]. Both ends are inclusive.
//
type Interval[T Value] struct {
	Lo, Hi T
}

// Range returns the interval [lo, hi]. Reversed bounds are swapped.
//
func Range[T Value](lo, hi T) Interval[T] {
	return Interval[T]{lo, hi}.Normalize()
}

// Point returns the single value interval [v, v].
//
func Point[T Value](v T) Interval[T] {
	return Interval[T]{v, v}
}

// Values returns one single value interval per value in vs.
//
func Values[T Value](vs ...T) []Interval[T] {
	ivs := make([]Interval[T], len(vs))
	for i, v := range vs {
		ivs[i] = Point(v)
	}
	return ivs
}

// Normalize returns i with Lo <= Hi.
//
func (i Interval[T]) Normalize() Interval[T] {
	if i.Hi < i.Lo {
		i.Lo, i.Hi = i.Hi, i.Lo
	}
	return i
}

// Contains returns true if v is within i.
//
func (i Interval[T]) Contains(v T) bool {
	return i.Lo <= v && v <= i.Hi
}

// Overlaps returns true if i and o have at least one value in common.
//
func (i Interval[T]) Overlaps(o Interval[T]) bool {
	return i.Lo <= o.Hi && o.Lo <= i.Hi
}

// Len returns the number of values in i. The result wraps to 0 for an
// interval spanning the whole 64 bits value space.
//
func (i Interval[T]) Len() uint64 {
	return uint64(i.Hi) - uint64(i.Lo) + 1
}

func (i Interval[T]) String() string {
	if i.Lo == i.Hi {
		return fmt.Sprint(i.Lo)
	}
	return fmt.Sprintf("[%v, %v]", i.Lo, i.Hi)
}
