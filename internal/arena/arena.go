// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package arena provides a slot arena addressed by generation checked handles.
//
// Values never move once allocated. Freeing a slot bumps its generation so
// that any handle still pointing at it fails to resolve instead of reading
// whatever was allocated there next.
//
package arena

import (
	"fmt"
	"math/bits"

	"github.com/pkg/errors"
)

// ErrStale is returned when resolving a handle whose slot has been freed.
//
var ErrStale = errors.New("stale arena handle")

const (
	minLenShift = 4
	minLen      = 1 << minLenShift
)

// Handle addresses a value in an Arena. The zero Handle is nil.
//
type Handle struct {
	slot uint32 // one plus the slot index
	gen  uint32
}

// Nil returns whether h is the nil handle.
//
func (h Handle) Nil() bool {
	return h.slot == 0
}

func (h Handle) String() string {
	if h.Nil() {
		return "nil"
	}
	return fmt.Sprintf("%d#%d", h.slot, h.gen)
}

type entry[T any] struct {
	gen   uint32
	live  bool
	value T
}

// Arena stores values of type T in slices of logarithmically growing size.
// Lookups are O(1).
//
// A zero Arena is empty and ready to use.
//
type Arena[T any] struct {
	// cap(table[0]) == minLen and cap(table[n]) == 2*cap(table[n-1]).
	table [][]entry[T]
	free  []uint32
	live  int
}

// New allocates a new value in the arena and returns its handle.
//
func (a *Arena[T]) New(value T) Handle {
	var slot uint32
	if n := len(a.free); n > 0 {
		slot = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		slot = a.grow()
	}
	e := a.at(slot)
	e.live = true
	e.value = value
	a.live++
	return Handle{slot: slot, gen: e.gen}
}

// Get resolves h. It returns ErrStale if h is nil, was never allocated by
// this arena or if its slot has been freed since.
//
func (a *Arena[T]) Get(h Handle) (*T, error) {
	if h.Nil() || int(h.slot) > a.cap() {
		return nil, errors.WithStack(ErrStale)
	}
	e := a.at(h.slot)
	if !e.live || e.gen != h.gen {
		return nil, errors.WithStack(ErrStale)
	}
	return &e.value, nil
}

// Free releases the slot addressed by h. Freeing a stale handle is an error.
//
func (a *Arena[T]) Free(h Handle) error {
	if _, err := a.Get(h); err != nil {
		return err
	}
	a.release(h.slot)
	return nil
}

// Reset frees every live slot. All handles allocated so far become stale.
//
func (a *Arena[T]) Reset() {
	for i := range a.cap() {
		slot := uint32(i + 1)
		if a.at(slot).live {
			a.release(slot)
		}
	}
}

// Len returns the number of live values.
//
func (a *Arena[T]) Len() int {
	return a.live
}

func (a *Arena[T]) release(slot uint32) {
	e := a.at(slot)
	var zero T
	e.value = zero
	e.live = false
	e.gen++
	a.free = append(a.free, slot)
	a.live--
}

// grow appends a fresh slot and returns its number.
func (a *Arena[T]) grow() uint32 {
	if a.table == nil {
		a.table = [][]entry[T]{make([]entry[T], 0, minLen)}
	}
	last := &a.table[len(a.table)-1]
	if len(*last) == cap(*last) {
		a.table = append(a.table, make([]entry[T], 0, 2*cap(*last)))
		last = &a.table[len(a.table)-1]
	}
	// generations start at 1 so that a zero Handle never resolves.
	*last = append(*last, entry[T]{gen: 1})
	return uint32(a.cap())
}

// cap returns the number of slots allocated so far, live or not.
func (a *Arena[T]) cap() int {
	if len(a.table) == 0 {
		return 0
	}
	n := len(a.table) - 1
	return max(0, minLen<<n-minLen) + len(a.table[n])
}

func (a *Arena[T]) at(slot uint32) *entry[T] {
	idx := int(slot) - 1
	// slice k starts at index (2^k - 1) << minLenShift.
	k := bits.UintSize - bits.LeadingZeros(uint(idx)+minLen) - (minLenShift + 1)
	idx -= max(0, minLen<<k-minLen)
	return &a.table[k][idx]
}
