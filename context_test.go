package hwcov_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	hw "github.com/db47h/hwcov"
	"github.com/db47h/hwcov/covtest"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext_close(t *testing.T) {
	ctx, _ := newContext(t, true)
	s, err := ctx.NewScope("top", "top")
	check(t, err)
	cg, err := s.NewCovergroup("cg", "cg", nil)
	check(t, err)
	a := newCoverpoint(t, cg, hw.CoverpointSpec[int]{Name: "a", Bins: []hw.BinSpec[int]{hw.Bin("x", hw.Point(0))}})
	b := newCoverpoint(t, cg, hw.CoverpointSpec[uint16]{Name: "b", Bins: []hw.BinSpec[uint16]{hw.Bin("y", hw.Point[uint16](0))}})
	x, err := hw.NewCross(cg, "x", nil, a, b)
	check(t, err)
	bins, err := a.Bins()
	check(t, err)
	bin := bins[0]
	tpl := hw.NewTemplate("tpl", nil)
	check(t, hw.AddCoverpoint(tpl, hw.CoverpointSpec[int]{Name: "v"}))
	dyn, err := tpl.Instantiate(s, "")
	check(t, err)

	ctx.Close()
	ctx.Close()

	calls := map[string]func() error{
		"cvp.SampleValue": func() error { return a.SampleValue(0) },
		"cvp.Sample":      func() error { return a.Sample() },
		"cvp.Bind":        func() error { return a.Bind(func() int { return 0 }) },
		"cvp.Start":       func() error { return a.Start() },
		"cvp.AddBins":     func() error { return a.AddBins(hw.Bin("z", hw.Point(1))) },
		"cvp.InstCoverage": func() error {
			_, err := b.InstCoverage()
			return err
		},
		"cvp.BinHitCount": func() error { _, err := a.BinHitCount(0); return err },
		"cvp.Bins":        func() error { _, err := a.Bins(); return err },
		"cvp.LastHit":     func() error { _, _, err := a.LastHit(); return err },
		"bin.Name":        func() error { _, err := bin.Name(); return err },
		"bin.Hits":        func() error { _, err := bin.Hits(); return err },
		"bin.Contains":    func() error { _, err := bin.Contains(0); return err },
		"cross.Coverage":  func() error { _, err := x.InstCoverage(); return err },
		"cross.CrossBins": func() error { _, err := x.CrossBins(); return err },
		"cg.Sample":       func() error { return cg.Sample() },
		"cg.Coverage":     func() error { _, err := cg.InstCoverage(); return err },
		"cg.Items":        func() error { _, err := cg.Items(); return err },
		"cg.Disable":      func() error { return dyn.Disable() },
		"cg.BindSample":   func() error { return hw.BindSample(dyn, "v", func() int { return 0 }) },
		"scope.Coverage":  func() error { _, err := s.Coverage(); return err },
		"scope.NewScope":  func() error { _, err := s.NewScope("sub", ""); return err },
		"scope.Groups":    func() error { _, err := s.Covergroups(); return err },
		"ctx.Coverage":    func() error { _, err := ctx.Coverage(); return err },
		"ctx.NewScope":    func() error { _, err := ctx.NewScope("top", ""); return err },
		"ctx.Covergroup":  func() error { _, err := ctx.Covergroup("top/cg"); return err },
		"ctx.Source":      func() error { _, err := ctx.SourceFiles(); return err },
		"ctx.Walk":        func() error { return ctx.Walk(&countVisitor{}) },
		"ctx.NewCovergroup": func() error {
			_, err := ctx.NewCovergroup("cg", "", nil)
			return err
		},
		"NewCoverpoint": func() error {
			_, err := hw.NewCoverpoint(cg, hw.CoverpointSpec[int]{Name: "c"})
			return err
		},
		"Instantiate": func() error { _, err := tpl.Instantiate(s, ""); return err },
	}
	for name, f := range calls {
		err := f()
		assert.True(t, errors.Is(err, hw.ErrDataDeleted), "%s: %v", name, err)
	}
	assert.Equal(t, "a", a.Name())
	assert.Equal(t, "cg", cg.Name())

	// the template is still usable
	ctx2, _ := newContext(t, true)
	s2, err := ctx2.DefaultScope()
	check(t, err)
	_, err = tpl.Instantiate(s2, "")
	check(t, err)
}

func TestContext_scopes(t *testing.T) {
	ctx, _ := newContext(t, true)
	top, err := ctx.NewScope("top", "tb")
	check(t, err)
	sub, err := top.NewScope("agent", "")
	check(t, err)
	assert.Equal(t, "agent_0", sub.Name())
	typ, err := sub.TypeName()
	check(t, err)
	assert.Equal(t, "top::agent", typ)
	leaf, err := sub.NewScope("mon", "mon")
	check(t, err)
	typ, err = leaf.TypeName()
	check(t, err)
	assert.Equal(t, "top::agent::mon", typ)
	_, err = leaf.NewCovergroup("cg", "cg", nil)
	check(t, err)

	cg, err := ctx.Covergroup("tb/agent_0/mon/cg")
	check(t, err)
	assert.Equal(t, "cg", cg.Name())
	_, err = ctx.Covergroup("tb/nope/cg")
	var nf *hw.NotFoundError
	assert.True(t, errors.As(err, &nf), "%v", err)

	_, err = ctx.NewScope("top", "tb")
	var dup *hw.DuplicateError
	assert.True(t, errors.As(err, &dup), "%v", err)
	_, err = ctx.NewScope("", "x")
	assert.Error(t, err)

	// default scope
	_, err = ctx.NewCovergroup("cg", "root_cg", nil)
	check(t, err)
	def, err := ctx.DefaultScope()
	check(t, err)
	assert.Equal(t, hw.DefaultScopeName, def.Name())
	typ, err = def.TypeName()
	check(t, err)
	assert.Equal(t, hw.DefaultScopeType, typ)
	cg, err = ctx.Covergroup("root_cg")
	check(t, err)
	assert.Equal(t, "root_cg", cg.Name())

	ss, err := ctx.Scopes()
	check(t, err)
	require.Len(t, ss, 2)
	assert.Equal(t, "tb", ss[0].Name())
	assert.Equal(t, hw.DefaultScopeName, ss[1].Name())
	ss, err = top.Scopes()
	check(t, err)
	require.Len(t, ss, 1)
	assert.Same(t, ctx, ss[0].Context())
	s, err := top.Scope("agent_0")
	check(t, err)
	assert.Equal(t, "agent_0", s.Name())
}

func TestContext_coverage(t *testing.T) {
	ctx, _ := newContext(t, true)
	pct, err := ctx.Coverage()
	check(t, err)
	assert.Equal(t, 100.0, pct, "empty model")

	a, err := ctx.NewScope("a", "a0")
	check(t, err)
	b, err := ctx.NewScope("b", "b0")
	check(t, err)
	b1, err := ctx.NewScope("b", "b1")
	check(t, err)

	mk := func(s *hw.Scope, typ string, v int) *hw.Covergroup {
		cg, err := s.NewCovergroup(typ, "", nil)
		check(t, err)
		cp := newCoverpoint(t, cg, hw.CoverpointSpec[int]{
			Name: "v",
			Bins: []hw.BinSpec[int]{hw.BinArray("v", 4, hw.Range(0, 3))},
		})
		covtest.SampleValues(t, cp, v)
		return cg
	}
	// a/cg: 25, b/cg: (25 + 0) / 2, b/other: 25, b/w: 25 with weight 2.
	mk(a, "cg", 0)
	mk(b, "cg", 0)
	mk(b1, "cg", 5)
	mk(b1, "other", 1)
	cg := mk(b1, "w", 1)

	opt, err := cg.TypeOption()
	check(t, err)
	opt.Weight = 2
	check(t, cg.SetTypeOption(opt))

	pct, covered, total, err := ctx.CoverageCounts()
	check(t, err)
	covtest.EqualCoverage(t, (25+12.5+25+2*25)/5, pct)
	assert.Equal(t, 4, covered)
	assert.Equal(t, 20, total)

	// scope coverage only counts local instances
	pct, err = b1.Coverage()
	check(t, err)
	covtest.EqualCoverage(t, (0+25+2*25)/4.0, pct)

	pct, covered, total, err = ctx.TypeCoverageCounts("b", "cg")
	check(t, err)
	covtest.EqualCoverage(t, 12.5, pct)
	assert.Equal(t, 1, covered)
	assert.Equal(t, 8, total)
	check(t, ctx.SetTypeOption("b", "cg", hw.TypeOption{Weight: 0, Goal: 100}))
	pct, err = ctx.Coverage()
	check(t, err)
	covtest.EqualCoverage(t, (25+25+2*25)/4.0, pct)
}

// countVisitor counts nodes by kind.
type countVisitor struct {
	scopes, groups, cvps, crosses, bins int
	path                                []string
}

func (c *countVisitor) VisitScope(n hw.ScopeNode) {
	c.scopes++
	c.path = append(c.path, n.TypeName()+":"+n.Name())
	for _, tg := range n.Types() {
		for _, g := range tg.Instances {
			g.Accept(c)
		}
	}
	for _, s := range n.Scopes() {
		s.Accept(c)
	}
}

func (c *countVisitor) VisitCovergroup(n hw.CovergroupNode) {
	c.groups++
	c.path = append(c.path, n.ScopeTypeName()+"/"+n.TypeName()+":"+n.Name())
	for _, it := range n.Items() {
		it.Accept(c)
	}
}

func (c *countVisitor) VisitCoverpoint(n hw.CoverpointNode) {
	c.cvps++
	for _, b := range n.Bins() {
		b.Accept(c)
	}
}

func (c *countVisitor) VisitCross(n hw.CrossNode) { c.crosses++ }
func (c *countVisitor) VisitBin(n hw.BinNode)     { c.bins++ }

func TestContext_walk(t *testing.T) {
	ctx, _ := newContext(t, true)
	top, err := ctx.NewScope("top", "top")
	check(t, err)
	sub, err := top.NewScope("sub", "sub")
	check(t, err)
	for _, s := range []*hw.Scope{top, sub} {
		cg, err := s.NewCovergroup("cg", "", nil)
		check(t, err)
		a := newCoverpoint(t, cg, hw.CoverpointSpec[int]{Name: "a", Bins: []hw.BinSpec[int]{
			hw.BinArray("b", 2, hw.Range(0, 9)), hw.IgnoreBin("i", hw.Point(20)),
		}})
		b := newCoverpoint(t, cg, hw.CoverpointSpec[int]{Name: "b", Bins: []hw.BinSpec[int]{hw.Bin("x", hw.Point(0))}})
		_, err = hw.NewCross(cg, "axb", nil, a, b)
		check(t, err)
	}
	var c countVisitor
	check(t, ctx.Walk(&c))
	assert.Equal(t, 2, c.scopes)
	assert.Equal(t, 2, c.groups)
	assert.Equal(t, 4, c.cvps)
	assert.Equal(t, 2, c.crosses)
	assert.Equal(t, 8, c.bins)
	assert.Equal(t, []string{"top:top", "top/cg:cg_0", "top::sub:sub", "top::sub/cg:cg_0"}, c.path)
}

func TestContext_sourceFiles(t *testing.T) {
	ctx, _ := newContext(t, true)
	_, err := ctx.NewScope("top", "")
	check(t, err)
	tpl := hw.NewTemplate("t", nil)
	s, err := ctx.DefaultScope()
	check(t, err)
	_, err = tpl.Instantiate(s, "")
	check(t, err)

	fs, err := ctx.SourceFiles()
	check(t, err)
	require.Len(t, fs, 1)
	assert.Equal(t, "context_test.go", filepath.Base(fs[0].Name))
	assert.Equal(t, 1, fs[0].ID, "first key")

	var src []hw.Source
	check(t, ctx.Walk(visitFunc(func(n hw.CovergroupNode) {
		inst, typ := n.Source()
		src = append(src, inst, typ)
	})))
	require.Len(t, src, 2)
	assert.Equal(t, fs[0].ID, src[0].File)
	assert.NotEqual(t, src[0].Line, src[1].Line)
}

// visitFunc calls itself on every covergroup.
type visitFunc func(hw.CovergroupNode)

func (f visitFunc) VisitScope(n hw.ScopeNode) {
	for _, tg := range n.Types() {
		for _, g := range tg.Instances {
			g.Accept(f)
		}
	}
}
func (f visitFunc) VisitCovergroup(n hw.CovergroupNode) { f(n) }
func (visitFunc) VisitCoverpoint(hw.CoverpointNode)     {}
func (visitFunc) VisitCross(hw.CrossNode)               {}
func (visitFunc) VisitBin(hw.BinNode)                   {}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, fmt.Errorf("disk full") }

func TestContext_logWriters(t *testing.T) {
	ctx, log := newContext(t, true)
	var extra bytes.Buffer
	errc := ctx.AddLogWriter(&extra)
	fail := ctx.AddLogWriter(failWriter{})
	ctx.Logger().Warn("first")
	assert.Contains(t, log.String(), "first")
	assert.Contains(t, extra.String(), "first")
	select {
	case err := <-fail:
		assert.EqualError(t, err, "disk full")
	default:
		t.Error("no error from failing writer")
	}
	ctx.RemoveLogWriter(&extra)
	ctx.Logger().Warn("second")
	assert.Contains(t, log.String(), "second")
	assert.False(t, strings.Contains(extra.String(), "second"))
	select {
	case err, ok := <-errc:
		if ok {
			t.Errorf("unexpected error %v", err)
		}
	default:
	}
}

func TestContext_zeroConfig(t *testing.T) {
	ctx := hw.New(hw.Config{})
	t.Cleanup(ctx.Close)
	cfg := ctx.Config()
	assert.Equal(t, os.Stderr, cfg.Output)
	assert.Equal(t, logrus.WarnLevel, cfg.LogLevel)
	assert.False(t, cfg.ContinueOnIllegal)

	var log bytes.Buffer
	ctx = hw.New(hw.Config{Output: &log})
	t.Cleanup(ctx.Close)
	cg := newGroup(t, ctx, "cg")
	newCoverpoint(t, cg, hw.CoverpointSpec[int]{
		Name:   "cvp",
		Sample: func() int { return 0 },
		Bins:   []hw.BinSpec[int]{hw.IllegalBin("zero", hw.Point(0))},
	})
	var e *hw.IllegalSampleError
	require.True(t, errors.As(cg.Sample(), &e))
	assert.Equal(t, "zero", e.Bin)
	assert.Contains(t, log.String(), "Illegal sample in [cg_0/cvp/zero] on value [0]!")
}
