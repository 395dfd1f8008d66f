package interval_test

import (
	"fmt"
	"slices"
	"testing"
	"testing/quick"

	"github.com/db47h/hwcov/internal/interval"
	"github.com/stretchr/testify/assert"
)

type cell struct {
	lo, hi int
	refs   []interval.Ref
}

func cells(x *interval.Index[int]) []cell {
	var out []cell
	for c := range x.Cells() {
		out = append(out, cell{c.Lo, c.Hi, c.Refs})
	}
	return out
}

func ref(bin, iv int) interval.Ref {
	return interval.Ref{Bin: bin, Interval: iv}
}

func TestIndex_Insert(t *testing.T) {
	type in struct {
		lo, hi int
		ref    interval.Ref
	}
	data := []struct {
		name string
		ins  []in
		want []cell
	}{
		{"empty", nil, nil},
		{"single", []in{{1, 5, ref(0, 0)}}, []cell{{1, 5, []interval.Ref{ref(0, 0)}}}},
		{"disjoint",
			[]in{{7, 9, ref(0, 1)}, {1, 5, ref(0, 0)}},
			[]cell{{1, 5, []interval.Ref{ref(0, 0)}}, {7, 9, []interval.Ref{ref(0, 1)}}}},
		{"slice",
			// bins: first [1,5],[7,9]; second [4,8]; third [8,9]; fourth [9,100]
			[]in{
				{1, 5, ref(0, 0)}, {7, 9, ref(0, 1)},
				{4, 8, ref(1, 0)},
				{8, 9, ref(2, 0)},
				{9, 100, ref(3, 0)},
			},
			[]cell{
				{1, 3, []interval.Ref{ref(0, 0)}},
				{4, 5, []interval.Ref{ref(0, 0), ref(1, 0)}},
				{6, 6, []interval.Ref{ref(1, 0)}},
				{7, 7, []interval.Ref{ref(0, 1), ref(1, 0)}},
				{8, 8, []interval.Ref{ref(0, 1), ref(1, 0), ref(2, 0)}},
				{9, 9, []interval.Ref{ref(0, 1), ref(2, 0), ref(3, 0)}},
				{10, 100, []interval.Ref{ref(3, 0)}},
			}},
		{"cover",
			[]in{{3, 4, ref(0, 0)}, {8, 8, ref(1, 0)}, {0, 10, ref(2, 0)}},
			[]cell{
				{0, 2, []interval.Ref{ref(2, 0)}},
				{3, 4, []interval.Ref{ref(0, 0), ref(2, 0)}},
				{5, 7, []interval.Ref{ref(2, 0)}},
				{8, 8, []interval.Ref{ref(1, 0), ref(2, 0)}},
				{9, 10, []interval.Ref{ref(2, 0)}},
			}},
		{"inner",
			[]in{{0, 10, ref(0, 0)}, {4, 6, ref(1, 0)}},
			[]cell{
				{0, 3, []interval.Ref{ref(0, 0)}},
				{4, 6, []interval.Ref{ref(0, 0), ref(1, 0)}},
				{7, 10, []interval.Ref{ref(0, 0)}},
			}},
	}

	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			var x interval.Index[int]
			for _, i := range d.ins {
				x.Insert(i.lo, i.hi, i.ref)
			}
			assert.Equal(t, d.want, cells(&x))
		})
	}
}

func TestIndex_Lookup(t *testing.T) {
	var x interval.Index[int8]
	x.Insert(-128, -100, ref(0, 0))
	x.Insert(0, 0, ref(1, 0))
	x.Insert(100, 127, ref(2, 0))

	for _, d := range []struct {
		v    int8
		ok   bool
		refs []interval.Ref
	}{
		{-128, true, []interval.Ref{ref(0, 0)}},
		{-100, true, []interval.Ref{ref(0, 0)}},
		{-99, false, nil},
		{0, true, []interval.Ref{ref(1, 0)}},
		{1, false, nil},
		{127, true, []interval.Ref{ref(2, 0)}},
	} {
		c, ok := x.Lookup(d.v)
		assert.Equal(t, d.ok, ok, "value %d", d.v)
		assert.Equal(t, d.refs, c.Refs, "value %d", d.v)
	}
}

func TestIndex_Clone(t *testing.T) {
	var x interval.Index[uint]
	x.Insert(0, 9, ref(0, 0))
	y := x.Clone()
	y.Insert(5, 20, ref(1, 0))

	assert.Equal(t, 1, x.Len())
	assert.Equal(t, 3, y.Len())
	c, _ := x.Lookup(5)
	assert.Equal(t, []interval.Ref{ref(0, 0)}, c.Refs)
	assert.Equal(t, "{[0, 9]: [{0 0}]}", fmt.Sprintf("%v", &x))
}

// every value covered by an inserted interval resolves to a cell that lists
// it, cells are disjoint and nothing else is covered.
func TestIndex_partition(t *testing.T) {
	f := func(bounds [][2]uint8) bool {
		var x interval.Index[uint8]
		cover := make([][]interval.Ref, 256)
		for i, b := range bounds {
			lo, hi := min(b[0], b[1]), max(b[0], b[1])
			r := ref(i, 0)
			x.Insert(lo, hi, r)
			for v := int(lo); v <= int(hi); v++ {
				cover[v] = append(cover[v], r)
			}
		}
		var prev *interval.Cell[uint8]
		for c := range x.Cells() {
			if c.Hi < c.Lo || prev != nil && c.Lo <= prev.Hi {
				return false
			}
			prev = &c
		}
		for v := range 256 {
			c, ok := x.Lookup(uint8(v))
			if ok != (len(cover[v]) > 0) {
				return false
			}
			if !ok {
				continue
			}
			got := slices.Clone(c.Refs)
			slices.SortFunc(got, func(a, b interval.Ref) int { return a.Bin - b.Bin })
			if !slices.Equal(got, cover[v]) {
				return false
			}
		}
		return true
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
}
