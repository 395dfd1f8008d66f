// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package interval implements a flattened interval index: a sorted partition
// of the value space into disjoint cells, where each cell lists every
// (bin, interval) pair claiming it.
//
package interval

import (
	"fmt"
	"iter"
	"slices"

	"github.com/tidwall/btree"
	"golang.org/x/exp/constraints"
)

// Endpoint is a type that may be used as an interval endpoint.
//
type Endpoint = constraints.Integer

// Ref references interval number Interval of bin number Bin in a coverpoint.
//
type Ref struct {
	Bin      int
	Interval int
}

// Cell is a disjoint sub range [Lo, Hi] of the index along with the
// references of every interval that covers it.
//
type Cell[K Endpoint] struct {
	Lo, Hi K
	Refs   []Ref
}

// Contains returns whether v lies within the cell bounds.
//
func (c Cell[K]) Contains(v K) bool {
	return c.Lo <= v && v <= c.Hi
}

// Index is a flattened interval index. The zero value is ready to use.
//
// Cells are keyed by their upper bound so that a lower bound search on a
// value yields the only cell that may contain it.
//
type Index[K Endpoint] struct {
	tree btree.Map[K, Cell[K]]
}

// Lookup returns the cell containing v.
//
func (x *Index[K]) Lookup(v K) (Cell[K], bool) {
	it := x.tree.Iter()
	if !it.Seek(v) {
		return Cell[K]{}, false
	}
	c := it.Value()
	if v < c.Lo {
		return Cell[K]{}, false
	}
	return c, true
}

// Insert adds the inclusive interval [lo, hi] with the given reference.
//
// Cells straddling lo or hi are sliced first so that both become cell
// boundaries; a sliced cell hands its references to both halves. The
// reference is then appended to every cell within [lo, hi] and new cells are
// created for the gaps between them.
//
func (x *Index[K]) Insert(lo, hi K, ref Ref) {
	if hi < lo {
		panic(fmt.Sprintf("interval: lo (%v) > hi (%v)", lo, hi))
	}
	x.sliceBefore(lo)
	x.sliceAfter(hi)

	var pending []Cell[K]
	cur, done := lo, false
	it := x.tree.Iter()
	for ok := it.Seek(lo); ok; ok = it.Next() {
		c := it.Value()
		if hi < c.Lo {
			break
		}
		if cur < c.Lo {
			pending = append(pending, Cell[K]{Lo: cur, Hi: c.Lo - 1, Refs: []Ref{ref}})
		}
		c.Refs = append(slices.Clip(c.Refs), ref)
		pending = append(pending, c)
		if c.Hi == hi {
			done = true
			break
		}
		cur = c.Hi + 1
	}
	if !done {
		pending = append(pending, Cell[K]{Lo: cur, Hi: hi, Refs: []Ref{ref}})
	}
	for _, c := range pending {
		x.tree.Set(c.Hi, c)
	}
}

// sliceBefore splits the cell containing v, if any, so that v starts a cell.
func (x *Index[K]) sliceBefore(v K) {
	c, ok := x.Lookup(v)
	if !ok || c.Lo == v {
		return
	}
	x.tree.Set(v-1, Cell[K]{Lo: c.Lo, Hi: v - 1, Refs: slices.Clone(c.Refs)})
	x.tree.Set(c.Hi, Cell[K]{Lo: v, Hi: c.Hi, Refs: slices.Clone(c.Refs)})
}

// sliceAfter splits the cell containing v, if any, so that v ends a cell.
func (x *Index[K]) sliceAfter(v K) {
	c, ok := x.Lookup(v)
	if !ok || c.Hi == v {
		return
	}
	x.tree.Set(v, Cell[K]{Lo: c.Lo, Hi: v, Refs: slices.Clone(c.Refs)})
	x.tree.Set(c.Hi, Cell[K]{Lo: v + 1, Hi: c.Hi, Refs: slices.Clone(c.Refs)})
}

// Len returns the number of cells in the index.
//
func (x *Index[K]) Len() int {
	return x.tree.Len()
}

// Cells returns an iterator over the cells of the index in ascending order.
//
func (x *Index[K]) Cells() iter.Seq[Cell[K]] {
	return func(yield func(Cell[K]) bool) {
		x.tree.Scan(func(_ K, c Cell[K]) bool {
			return yield(c)
		})
	}
}

// Clone returns a copy of x. Cells are shared until either index is modified.
//
func (x *Index[K]) Clone() *Index[K] {
	return &Index[K]{tree: *x.tree.Copy()}
}

// Format implements fmt.Formatter.
//
func (x *Index[K]) Format(s fmt.State, v rune) {
	fmt.Fprint(s, "{")
	first := true
	for c := range x.Cells() {
		if !first {
			fmt.Fprint(s, ", ")
		}
		first = false
		if c.Lo == c.Hi {
			fmt.Fprintf(s, "%v: ", c.Lo)
		} else {
			fmt.Fprintf(s, "[%v, %v]: ", c.Lo, c.Hi)
		}
		fmt.Fprintf(s, fmt.FormatString(s, v), c.Refs)
	}
	fmt.Fprint(s, "}")
}
