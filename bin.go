// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwcov

import (
	"cmp"
	"fmt"
	"math/bits"
	"slices"
	"strconv"

	"github.com/pkg/errors"
)

// BinKind is the kind of a bin.
//
type BinKind int

// Bin kinds. When a value falls into bins of different kinds, Ignore takes
// precedence over Illegal, which takes precedence over Regular.
//
const (
	Regular BinKind = iota
	Illegal
	Ignore
	numKinds
)

var kindNames = [...]string{"default", "illegal", "ignore"}

func (k BinKind) String() string {
	if k < 0 || k >= numKinds {
		return "BinKind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

type arrayMode uint8

const (
	single arrayMode = iota
	split
	enumerate
)

// A BinSpec describes one or more bins to be added to a coverpoint.
//
// BinSpecs are created with Bin, IllegalBin, IgnoreBin, BinArray, BinArrayOf
// or BinArrayValues.
//
type BinSpec[T Value] struct {
	Name   string
	Kind   BinKind
	Ranges []Interval[T]

	mode  arrayMode
	count uint64
}

// Bin returns the spec of a regular bin covering the given ranges.
//
func Bin[T Value](name string, ranges ...Interval[T]) BinSpec[T] {
	return BinSpec[T]{Name: name, Kind: Regular, Ranges: ranges}
}

// IllegalBin returns the spec of an illegal bin. Sampling a value in an
// illegal bin fails with an IllegalSampleError.
//
func IllegalBin[T Value](name string, ranges ...Interval[T]) BinSpec[T] {
	return BinSpec[T]{Name: name, Kind: Illegal, Ranges: ranges}
}

// IgnoreBin returns the spec of an ignore bin. Values in an ignore bin are
// never counted by regular or illegal bins.
//
func IgnoreBin[T Value](name string, ranges ...Interval[T]) BinSpec[T] {
	return BinSpec[T]{Name: name, Kind: Ignore, Ranges: ranges}
}

// BinArray returns the spec of count bins named name[0] to name[count-1]
// evenly splitting r. The last bin absorbs any remainder. If count is 0 or
// greater than the number of values in r, a single bin named name covering r
// is created instead.
//
func BinArray[T Value](name string, count uint64, r Interval[T]) BinSpec[T] {
	return BinSpec[T]{Name: name, Kind: Regular, Ranges: []Interval[T]{r.Normalize()}, mode: split, count: count}
}

// BinArrayOf returns the spec of one bin per interval in ranges, named
// name[0] to name[len(ranges)-1]. Overlapping elements are not merged.
//
func BinArrayOf[T Value](name string, ranges ...Interval[T]) BinSpec[T] {
	return BinSpec[T]{Name: name, Kind: Regular, Ranges: ranges, mode: enumerate}
}

// BinArrayValues is like BinArrayOf with single value intervals.
//
func BinArrayValues[T Value](name string, vs ...T) BinSpec[T] {
	return BinArrayOf(name, Values(vs...)...)
}

// As returns a copy of s with the given kind.
//
func (s BinSpec[T]) As(kind BinKind) BinSpec[T] {
	s.Kind = kind
	return s
}

// expand returns the elementary bins described by s.
func (s BinSpec[T]) expand() []BinSpec[T] {
	switch s.mode {
	case split:
		return s.split()
	case enumerate:
		bs := make([]BinSpec[T], len(s.Ranges))
		for i, r := range s.Ranges {
			bs[i] = BinSpec[T]{Name: arrayName(s.Name, i), Kind: s.Kind, Ranges: []Interval[T]{r}}
		}
		return bs
	}
	return []BinSpec[T]{s}
}

func (s BinSpec[T]) split() []BinSpec[T] {
	r := s.Ranges[0]
	n := r.Len() // 0 means 1<<64
	if s.count == 0 || n != 0 && s.count > n {
		return []BinSpec[T]{{Name: s.Name, Kind: s.Kind, Ranges: []Interval[T]{r}}}
	}
	// size = (n+1)/count. Not needed for a single bin, which ends at r.Hi.
	var size uint64
	switch {
	case s.count == 1:
	case n == 0:
		size, _ = bits.Div64(1, 1, s.count)
	default:
		lo, hi := bits.Add64(n, 1, 0)
		size, _ = bits.Div64(hi, lo, s.count)
	}
	bs := make([]BinSpec[T], s.count)
	start := uint64(r.Lo)
	for i := range bs {
		iv := Interval[T]{Lo: T(start), Hi: T(start + size - 1)}
		if i == len(bs)-1 {
			iv.Hi = r.Hi
		}
		bs[i] = BinSpec[T]{Name: arrayName(s.Name, i), Kind: s.Kind, Ranges: []Interval[T]{iv}}
		start += size
	}
	return bs
}

func arrayName(name string, i int) string {
	return name + "[" + strconv.Itoa(i) + "]"
}

// mergeIntervals returns a sorted copy of ivs where overlapping intervals
// have been merged. merged is called for each overlapping pair.
func mergeIntervals[T Value](ivs []Interval[T], merged func(a, b Interval[T])) []Interval[T] {
	s := make([]Interval[T], len(ivs))
	for i, iv := range ivs {
		s[i] = iv.Normalize()
	}
	slices.SortStableFunc(s, func(a, b Interval[T]) int { return cmp.Compare(a.Lo, b.Lo) })
	out := s[:0]
	for _, iv := range s {
		if n := len(out); n > 0 && iv.Lo <= out[n-1].Hi {
			merged(out[n-1], iv)
			out[n-1].Hi = max(out[n-1].Hi, iv.Hi)
			continue
		}
		out = append(out, iv)
	}
	return slices.Clip(out)
}

type binRecord[T Value] struct {
	name      string
	kind      BinKind
	intervals []Interval[T]
	hits      []uint64
}

func newBinRecord[T Value](name string, kind BinKind, ivs []Interval[T]) *binRecord[T] {
	return &binRecord[T]{name: name, kind: kind, intervals: ivs, hits: make([]uint64, len(ivs))}
}

// sample records a hit on interval i if it contains v. Illegal bins return an
// IllegalSampleError on hit.
func (b *binRecord[T]) sample(v T, i int) (bool, error) {
	if !b.intervals[i].Contains(v) {
		return false, nil
	}
	b.hits[i]++
	if b.kind == Illegal {
		return true, errors.WithStack(&IllegalSampleError{Bin: b.name, Value: fmt.Sprint(v)})
	}
	return true, nil
}

func (b *binRecord[T]) contains(v T) bool {
	for _, iv := range b.intervals {
		if iv.Contains(v) {
			return true
		}
	}
	return false
}

// fresh returns a copy of b with zeroed hit counters.
func (b *binRecord[T]) fresh() *binRecord[T] {
	return newBinRecord(b.name, b.kind, b.intervals)
}

// BinNode implementation.

func (b *binRecord[T]) Name() string  { return b.name }
func (b *binRecord[T]) Kind() BinKind { return b.kind }
func (b *binRecord[T]) Len() int      { return len(b.intervals) }

func (b *binRecord[T]) Bounds(i int) (lo, hi string) {
	iv := b.intervals[i]
	return fmt.Sprint(iv.Lo), fmt.Sprint(iv.Hi)
}

func (b *binRecord[T]) Hits() []uint64 { return slices.Clone(b.hits) }

func (b *binRecord[T]) HitCount() uint64 {
	var n uint64
	for _, h := range b.hits {
		n += h
	}
	return n
}

func (b *binRecord[T]) Accept(v Visitor) { v.VisitBin(b) }

// BinRef is a handle to a bin of a coverpoint.
//
type BinRef[T Value] struct {
	cp   *Coverpoint[T]
	kind BinKind
	idx  int
}

func (b BinRef[T]) record() (*binRecord[T], error) {
	r, err := b.cp.record()
	if err != nil {
		return nil, err
	}
	return r.tiers[b.kind].bins[b.idx], nil
}

// Kind returns the kind of the bin.
//
func (b BinRef[T]) Kind() BinKind {
	return b.kind
}

// Name returns the bin name.
//
func (b BinRef[T]) Name() (string, error) {
	r, err := b.record()
	if err != nil {
		return "", err
	}
	return r.name, nil
}

// Intervals returns the bin's disjoint intervals in ascending order.
//
func (b BinRef[T]) Intervals() ([]Interval[T], error) {
	r, err := b.record()
	if err != nil {
		return nil, err
	}
	return slices.Clone(r.intervals), nil
}

// Hits returns the hit counters of each interval.
//
func (b BinRef[T]) Hits() ([]uint64, error) {
	r, err := b.record()
	if err != nil {
		return nil, err
	}
	return r.Hits(), nil
}

// HitCount returns the total number of hits of the bin.
//
func (b BinRef[T]) HitCount() (uint64, error) {
	r, err := b.record()
	if err != nil {
		return 0, err
	}
	return r.HitCount(), nil
}

// Contains returns true if v is within one of the bin's intervals.
//
func (b BinRef[T]) Contains(v T) (bool, error) {
	r, err := b.record()
	if err != nil {
		return false, err
	}
	return r.contains(v), nil
}

// IsEmpty returns true if the bin has no intervals.
//
func (b BinRef[T]) IsEmpty() (bool, error) {
	r, err := b.record()
	if err != nil {
		return false, err
	}
	return len(r.intervals) == 0, nil
}
