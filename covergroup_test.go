package hwcov_test

import (
	"testing"

	hw "github.com/db47h/hwcov"
	"github.com/db47h/hwcov/covtest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func illegalGroup(t *testing.T, abort bool) (*hw.Covergroup, *hw.Coverpoint[int], *hw.Coverpoint[int], func(int)) {
	t.Helper()
	ctx, _ := newContext(t, abort)
	cg := newGroup(t, ctx, "cg")
	v := 0
	a := newCoverpoint(t, cg, hw.CoverpointSpec[int]{
		Name:   "a",
		Sample: func() int { return v },
		Bins:   []hw.BinSpec[int]{hw.Bin("ok", hw.Range(0, 9)), hw.IllegalBin("bad", hw.Point(13))},
	})
	b := newCoverpoint(t, cg, hw.CoverpointSpec[int]{
		Name:   "b",
		Sample: func() int { return v },
		Bins:   []hw.BinSpec[int]{hw.Bin("any", hw.Range(0, 100))},
	})
	return cg, a, b, func(x int) { v = x }
}

func TestCovergroup_abortOnIllegal(t *testing.T) {
	cg, _, b, set := illegalGroup(t, true)
	set(13)
	err := cg.Sample()
	var ise *hw.IllegalSampleError
	if !assert.True(t, errors.As(err, &ise), "%v", err) {
		return
	}
	assert.Equal(t, "Illegal sample in [cg_0/a/bad] on value [13]!", ise.Error())
	// sampling stopped before b
	covtest.AssertCoverage(t, 0, b)
}

func TestCovergroup_logIllegal(t *testing.T) {
	ctx, log := newContext(t, false)
	cg := newGroup(t, ctx, "cg")
	v := 13
	newCoverpoint(t, cg, hw.CoverpointSpec[int]{
		Name:   "a",
		Sample: func() int { return v },
		Bins:   []hw.BinSpec[int]{hw.IllegalBin("bad", hw.Point(13))},
	})
	b := newCoverpoint(t, cg, hw.CoverpointSpec[int]{
		Name:   "b",
		Sample: func() int { return v },
		Bins:   []hw.BinSpec[int]{hw.Bin("any", hw.Range(0, 100))},
	})
	sample(t, cg)
	assert.Contains(t, log.String(), "Illegal sample in [cg_0/a/bad] on value [13]!")
	covtest.AssertCoverage(t, 100, b)
}

func TestCovergroup_names(t *testing.T) {
	ctx, _ := newContext(t, true)
	s, err := ctx.NewScope("top", "")
	check(t, err)
	assert.Equal(t, "top_0", s.Name())

	for _, n := range []string{"cg_0", "cg_1"} {
		cg, err := s.NewCovergroup("pkg::cg", "", nil)
		check(t, err)
		assert.Equal(t, n, cg.Name())
	}
	named, err := s.NewCovergroup("cg", "named", nil)
	check(t, err)
	assert.Equal(t, "named", named.Name())
	typ, err := named.TypeName()
	check(t, err)
	assert.Equal(t, "cg", typ)

	// scopes and covergroups share names
	_, err = s.NewScope("sub", "named")
	var dup *hw.DuplicateError
	assert.True(t, errors.As(err, &dup), "%v", err)
	_, err = s.NewCovergroup("other", "named", nil)
	assert.True(t, errors.As(err, &dup), "%v", err)
	_, err = s.NewCovergroup("", "x", nil)
	assert.Error(t, err)

	cgs, err := s.Covergroups()
	check(t, err)
	var names []string
	for _, cg := range cgs {
		names = append(names, cg.Name())
	}
	assert.Equal(t, []string{"cg_0", "cg_1", "named"}, names)

	_, err = s.Covergroup("nope")
	var nf *hw.NotFoundError
	assert.True(t, errors.As(err, &nf), "%v", err)
}

func TestCovergroup_static(t *testing.T) {
	ctx, _ := newContext(t, true)
	cg := newGroup(t, ctx, "cg")
	assert.Error(t, cg.Disable())
	assert.Error(t, cg.Enable())
	on, err := cg.Enabled()
	check(t, err)
	assert.True(t, on)

	// an empty covergroup has nothing to cover
	covtest.AssertCoverage(t, 0, cg)
	opt := hw.DefaultCovergroupOption()
	opt.Weight = 0
	check(t, cg.SetOption(opt))
	covtest.AssertCoverage(t, 100, cg)
	got, err := cg.Option()
	check(t, err)
	assert.Equal(t, opt, got)
}

func TestCovergroup_weights(t *testing.T) {
	ctx, _ := newContext(t, true)
	cg := newGroup(t, ctx, "cg")
	v := 0
	heavy := hw.DefaultCoverpointOption()
	heavy.Weight = 3
	newCoverpoint(t, cg, hw.CoverpointSpec[int]{
		Name: "heavy", Option: &heavy, Sample: func() int { return v },
		Bins: []hw.BinSpec[int]{hw.Bin("zero", hw.Point(0))},
	})
	newCoverpoint(t, cg, hw.CoverpointSpec[int]{
		Name: "light", Sample: func() int { return v },
		Bins: []hw.BinSpec[int]{hw.Bin("one", hw.Point(1))},
	})
	sample(t, cg)
	covtest.AssertCoverage(t, 75, cg)

	opt := hw.DefaultCovergroupOption()
	opt.Goal = 70
	check(t, cg.SetOption(opt))
	covtest.AssertCoverage(t, 100, cg)

	pct, covered, total, err := cg.CoverageCounts()
	check(t, err)
	assert.Equal(t, 100.0, pct)
	assert.Equal(t, 1, covered)
	assert.Equal(t, 2, total)
}

func TestCovergroup_typeCoverage(t *testing.T) {
	ctx, _ := newContext(t, true)
	s, err := ctx.NewScope("top", "top")
	check(t, err)
	v := 0
	var cgs [2]*hw.Covergroup
	for i := range cgs {
		cgs[i], err = s.NewCovergroup("cg", "", nil)
		check(t, err)
		newCoverpoint(t, cgs[i], hw.CoverpointSpec[int]{
			Name: "v", Sample: func() int { return v },
			Bins: []hw.BinSpec[int]{hw.Bin("zero", hw.Point(0)), hw.Bin("one", hw.Point(1))},
		})
	}
	sample(t, cgs[0])
	covtest.AssertCoverage(t, 50, cgs[0])
	covtest.AssertCoverage(t, 0, cgs[1])
	pct, err := cgs[1].TypeCoverage()
	check(t, err)
	covtest.EqualCoverage(t, 25, pct)

	opt, err := cgs[0].TypeOption()
	check(t, err)
	assert.Equal(t, hw.DefaultTypeOption(), opt)
	opt.Goal = 20
	check(t, cgs[0].SetTypeOption(opt))
	pct, err = ctx.TypeCoverage("top", "cg")
	check(t, err)
	covtest.EqualCoverage(t, 100, pct)
	opt, err = ctx.TypeOption("top", "cg")
	check(t, err)
	assert.EqualValues(t, 20, opt.Goal)

	_, err = ctx.TypeCoverage("top", "nope")
	var nf *hw.NotFoundError
	assert.True(t, errors.As(err, &nf), "%v", err)
}
