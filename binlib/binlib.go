// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package binlib provides a library of reusable bin specifications for
// hwcov coverpoints.
//
package binlib

import (
	"cmp"
	"maps"
	"slices"
	"unsafe"

	hw "github.com/db47h/hwcov"
	"github.com/db47h/hwcov/internal/rangeexpr"
	"github.com/pkg/errors"
)

func signed[T hw.Value]() bool {
	var z T
	return ^z < 0
}

// Full returns the interval spanning all the values of T.
//
func Full[T hw.Value]() hw.Interval[T] {
	var z T
	if signed[T]() {
		lo := ^z << (unsafe.Sizeof(z)*8 - 1)
		return hw.Interval[T]{Lo: lo, Hi: ^lo}
	}
	return hw.Interval[T]{Lo: 0, Hi: ^z}
}

// Auto returns automatic bins for r: one bin per value if r holds at most
// maxBins values, otherwise maxBins bins evenly splitting r. A maxBins of 0
// means DefaultCoverpointOption().AutoBinMax.
//
//	Name: auto[i]
//
func Auto[T hw.Value](maxBins uint, r hw.Interval[T]) hw.BinSpec[T] {
	if maxBins == 0 {
		maxBins = hw.DefaultCoverpointOption().AutoBinMax
	}
	r = r.Normalize()
	n := uint64(maxBins)
	if l := r.Len(); l != 0 && l < n {
		n = l
	}
	return hw.BinArray("auto", n, r)
}

// AutoFor returns automatic bins covering all the values of T, using the
// AutoBinMax field of opt.
//
func AutoFor[T hw.Value](opt hw.CoverpointOption) hw.BinSpec[T] {
	return Auto(opt.AutoBinMax, Full[T]())
}

// Corners returns bins for the bounds of r and for the values in between.
//
//	Names: min, mid, max
//
// mid is omitted if r holds less than three values, max if it holds a single
// value.
//
func Corners[T hw.Value](r hw.Interval[T]) []hw.BinSpec[T] {
	r = r.Normalize()
	bs := []hw.BinSpec[T]{hw.Bin("min", hw.Point(r.Lo))}
	if r.Lo == r.Hi {
		return bs
	}
	if l := r.Len(); l == 0 || l > 2 {
		bs = append(bs, hw.Bin("mid", hw.Range(r.Lo+1, r.Hi-1)))
	}
	return append(bs, hw.Bin("max", hw.Point(r.Hi)))
}

// Enum returns one single value bin per entry in names, named after the
// entry. Bins are sorted by value.
//
func Enum[T hw.Value](names map[T]string) []hw.BinSpec[T] {
	vs := slices.SortedFunc(maps.Keys(names), cmp.Compare[T])
	bs := make([]hw.BinSpec[T], len(vs))
	for i, v := range vs {
		bs[i] = hw.Bin(names[v], hw.Point(v))
	}
	return bs
}

// PowersOfTwo returns a bin array with one bin per power of two, from 1 to
// 1<<(bits-1). This is also the set of one-hot values on bits bits.
//
//	Name: name[i] for value 1<<i
//
func PowersOfTwo[T hw.Value](name string, bits uint) hw.BinSpec[T] {
	vs := make([]T, bits)
	for i := range vs {
		vs[i] = T(1) << i
	}
	return hw.BinArrayValues(name, vs...)
}

func convert[T hw.Value](v int64) (T, error) {
	t := T(v)
	if int64(t) != v || v < 0 && !signed[T]() {
		return 0, errors.Errorf("value %d out of range for %T", v, t)
	}
	return t, nil
}

// Intervals parses a textual list of ranges like "0, 4..7, [10:20]" into
// intervals of type T.
//
func Intervals[T hw.Value](expr string) ([]hw.Interval[T], error) {
	rs, err := rangeexpr.Parse(expr)
	if err != nil {
		return nil, err
	}
	ivs := make([]hw.Interval[T], len(rs))
	for i, r := range rs {
		lo, err := convert[T](r.Lo)
		if err != nil {
			return nil, errors.Wrapf(err, "in %q", expr)
		}
		hi, err := convert[T](r.Hi)
		if err != nil {
			return nil, errors.Wrapf(err, "in %q", expr)
		}
		ivs[i] = hw.Range(lo, hi)
	}
	return ivs, nil
}

// Parse returns a bin of the given kind covering the ranges in expr. See
// Intervals.
//
func Parse[T hw.Value](name string, kind hw.BinKind, expr string) (hw.BinSpec[T], error) {
	ivs, err := Intervals[T](expr)
	if err != nil {
		return hw.BinSpec[T]{}, errors.Wrapf(err, "bin %s", name)
	}
	return hw.Bin(name, ivs...).As(kind), nil
}
