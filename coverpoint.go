// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwcov

import (
	"maps"
	"reflect"

	"github.com/db47h/hwcov/internal/arena"
	"github.com/db47h/hwcov/internal/interval"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// A CoverpointSpec describes a coverpoint. See NewCoverpoint.
//
type CoverpointSpec[T Value] struct {
	// Coverpoint name. Must be unique within its covergroup.
	Name string
	// Options. Defaults to DefaultCoverpointOption() if nil.
	Option *CoverpointOption
	// Bin specifications. Bins are added in order.
	Bins []BinSpec[T]
	// Sample expression evaluated by Sample. Can be bound later with Bind.
	Sample func() T
	// Optional sample condition. The coverpoint is not sampled if it returns
	// false.
	Condition func() bool
	// Textual forms of Sample and Condition, for reports.
	SampleExpr    string
	ConditionExpr string
	// Only record a hit on the first matching regular bin.
	StopOnFirstHit bool
}

// A Coverpoint classifies sampled values of type T into bins.
//
// Coverpoints are handles to data owned by a Context. Once the context is
// closed, all methods except Name fail with ErrDataDeleted.
//
type Coverpoint[T Value] struct {
	ctx  *Context
	h    arena.Handle
	name string
}

// NewCoverpoint creates a new coverpoint in covergroup cg. Bins are built in
// declaration order.
//
// Overlapping intervals within a bin are merged with a warning. Overlaps
// between distinct bins are allowed: a value hits all the bins containing it.
//
func NewCoverpoint[T Value](cg *Covergroup, spec CoverpointSpec[T]) (*Coverpoint[T], error) {
	g, err := cg.record()
	if err != nil {
		return nil, err
	}
	if spec.Name == "" {
		return nil, errors.Errorf("empty coverpoint name in covergroup %s", g.name)
	}
	if _, ok := g.itemNames[spec.Name]; ok {
		return nil, errors.WithStack(&DuplicateError{Kind: "coverpoint", Name: spec.Name, Parent: g.name})
	}

	r := &cvpRecord[T]{
		name:        spec.Name,
		option:      DefaultCoverpointOption(),
		binNames:    make(map[string]struct{}),
		expr:        spec.Sample,
		cond:        spec.Condition,
		exprStr:     spec.SampleExpr,
		condStr:     spec.ConditionExpr,
		collecting:  true,
		stopOnFirst: spec.StopOnFirstHit,
		log:         g.log.WithField("coverpoint", spec.Name),
	}
	if spec.Option != nil {
		r.option = *spec.Option
	}
	for _, b := range spec.Bins {
		if err = r.addBins(b); err != nil {
			return nil, errors.Wrapf(err, "coverpoint %s", spec.Name)
		}
	}
	r.checkOverlaps()

	h := cg.ctx.items.New(r)
	g.addItem(spec.Name, h)
	return &Coverpoint[T]{ctx: cg.ctx, h: h, name: spec.Name}, nil
}

type tier[T Value] struct {
	bins  []*binRecord[T]
	index interval.Index[T]
}

type cvpRecord[T Value] struct {
	name     string
	option   CoverpointOption
	tiers    [numKinds]tier[T]
	binNames map[string]struct{}

	misses  uint64
	lastBin int
	lastOK  bool

	expr        func() T
	cond        func() bool
	exprStr     string
	condStr     string
	collecting  bool
	stopOnFirst bool

	log *logrus.Entry
}

// addBins adds the bins described by spec.
func (r *cvpRecord[T]) addBins(spec BinSpec[T]) error {
	for _, b := range spec.expand() {
		if b.Kind < 0 || b.Kind >= numKinds {
			return errors.Errorf("bin %s: invalid kind %v", b.Name, b.Kind)
		}
		if _, ok := r.binNames[b.Name]; ok {
			return errors.WithStack(&DuplicateError{Kind: "bin", Name: b.Name, Parent: r.name})
		}
		ivs := mergeIntervals(b.Ranges, func(x, y Interval[T]) {
			r.log.WithField("bin", b.Name).Warnf("intervals %v and %v overlap, merging", x, y)
		})
		t := &r.tiers[b.Kind]
		n := len(t.bins)
		for i, iv := range ivs {
			t.index.Insert(iv.Lo, iv.Hi, interval.Ref{Bin: n, Interval: i})
		}
		t.bins = append(t.bins, newBinRecord(b.Name, b.Kind, ivs))
		r.binNames[b.Name] = struct{}{}
	}
	return nil
}

// checkOverlaps reports values claimed by several bins of the same kind when
// the DetectOverlap option is set.
func (r *cvpRecord[T]) checkOverlaps() {
	if !r.option.DetectOverlap {
		return
	}
	for k := range r.tiers {
		t := &r.tiers[k]
		for c := range t.index.Cells() {
			if len(c.Refs) < 2 {
				continue
			}
			names := make([]string, len(c.Refs))
			for i, ref := range c.Refs {
				names[i] = t.bins[ref.Bin].name
			}
			r.log.Warnf("%s bins %v overlap on %v", BinKind(k), names, Interval[T]{c.Lo, c.Hi})
		}
	}
}

// sampleValue classifies v: ignore bins first, then illegal bins, then
// regular bins.
func (r *cvpRecord[T]) sampleValue(v T) error {
	r.lastOK = false
	if !r.collecting {
		r.log.Warn("sample on stopped coverpoint")
		return nil
	}

	t := &r.tiers[Ignore]
	if c, ok := t.index.Lookup(v); ok {
		for _, ref := range c.Refs {
			if hit, _ := t.bins[ref.Bin].sample(v, ref.Interval); hit {
				r.misses++
				return nil
			}
		}
	}

	t = &r.tiers[Illegal]
	if c, ok := t.index.Lookup(v); ok {
		for _, ref := range c.Refs {
			if _, err := t.bins[ref.Bin].sample(v, ref.Interval); err != nil {
				var e *IllegalSampleError
				if errors.As(err, &e) {
					e.Coverpoint = r.name
				}
				return err
			}
		}
	}

	t = &r.tiers[Regular]
	if c, ok := t.index.Lookup(v); ok {
		for _, ref := range c.Refs {
			if hit, _ := t.bins[ref.Bin].sample(v, ref.Interval); hit {
				r.lastBin, r.lastOK = ref.Bin, true
				if r.stopOnFirst {
					break
				}
			}
		}
	}
	if !r.lastOK {
		r.misses++
	}
	return nil
}

func (r *cvpRecord[T]) sample() error {
	if r.cond != nil && !r.cond() {
		r.lastOK, r.lastBin = false, 0
		return nil
	}
	if r.expr == nil {
		return errors.Errorf("coverpoint %s: no sample expression bound", r.name)
	}
	return r.sampleValue(r.expr())
}

func (r *cvpRecord[T]) setCollecting(on bool) { r.collecting = on }

func (r *cvpRecord[T]) lastHit() (int, bool) { return r.lastBin, r.lastOK }

func (r *cvpRecord[T]) size() int { return len(r.tiers[Regular].bins) }

func (r *cvpRecord[T]) cloneFresh(log *logrus.Entry, _ func(string) item) (item, error) {
	c := &cvpRecord[T]{
		name:        r.name,
		option:      r.option,
		binNames:    maps.Clone(r.binNames),
		expr:        r.expr,
		cond:        r.cond,
		exprStr:     r.exprStr,
		condStr:     r.condStr,
		collecting:  true,
		stopOnFirst: r.stopOnFirst,
		log:         log.WithField("coverpoint", r.name),
	}
	for k := range r.tiers {
		t := &r.tiers[k]
		c.tiers[k].index = *t.index.Clone()
		c.tiers[k].bins = make([]*binRecord[T], len(t.bins))
		for i, b := range t.bins {
			c.tiers[k].bins[i] = b.fresh()
		}
	}
	return c, nil
}

func (r *cvpRecord[T]) bind(expr func() T) error {
	if r.expr != nil {
		return errors.Errorf("coverpoint %s: sample expression already bound", r.name)
	}
	r.expr = expr
	return nil
}

func (r *cvpRecord[T]) bindCondition(cond func() bool) error {
	if r.cond != nil {
		return errors.Errorf("coverpoint %s: sample condition already bound", r.name)
	}
	r.cond = cond
	return nil
}

// bindField binds the sample expression to the integer value held by fv.
func (r *cvpRecord[T]) bindField(fv reflect.Value) error {
	switch fv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return r.bind(func() T { return T(fv.Int()) })
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return r.bind(func() T { return T(fv.Uint()) })
	}
	return errors.Errorf("coverpoint %s: unsupported field type %s", r.name, fv.Type())
}

// CoverpointNode implementation.

func (r *cvpRecord[T]) Name() string             { return r.name }
func (r *cvpRecord[T]) Weight() uint             { return r.option.Weight }
func (r *cvpRecord[T]) Option() CoverpointOption { return r.option }
func (r *cvpRecord[T]) SampleExpr() string       { return r.exprStr }
func (r *cvpRecord[T]) Misses() uint64           { return r.misses }
func (r *cvpRecord[T]) Accept(v Visitor)         { v.VisitCoverpoint(r) }

func (r *cvpRecord[T]) Bins() []BinNode {
	var n int
	for k := range r.tiers {
		n += len(r.tiers[k].bins)
	}
	bs := make([]BinNode, 0, n)
	for k := range r.tiers {
		for _, b := range r.tiers[k].bins {
			bs = append(bs, b)
		}
	}
	return bs
}

func (cp *Coverpoint[T]) record() (*cvpRecord[T], error) {
	it, err := cp.ctx.item(cp.h)
	if err != nil {
		return nil, err
	}
	r, ok := it.(*cvpRecord[T])
	if !ok {
		return nil, errors.Errorf("%s is not a coverpoint of %T", cp.name, *new(T))
	}
	return r, nil
}

func (cp *Coverpoint[T]) handle() (*Context, arena.Handle) {
	return cp.ctx, cp.h
}

// Name returns the coverpoint name. It remains available after the context
// is closed.
//
func (cp *Coverpoint[T]) Name() string {
	return cp.name
}

// SampleValue samples v.
//
// If v is in an ignore bin, the sample is counted as a miss. Otherwise, if v
// is in an illegal bin, the hit is recorded and an *IllegalSampleError is
// returned. Otherwise all the regular bins containing v record a hit, or only
// the first one if StopOnFirstHit was set. A value in no bin is a miss.
//
// Sampling a stopped coverpoint does nothing.
//
func (cp *Coverpoint[T]) SampleValue(v T) error {
	r, err := cp.record()
	if err != nil {
		return err
	}
	return r.sampleValue(v)
}

// Sample evaluates the sample condition and, if true, samples the value
// returned by the sample expression.
//
func (cp *Coverpoint[T]) Sample() error {
	r, err := cp.record()
	if err != nil {
		return err
	}
	return r.sample()
}

// Bind binds the sample expression. It fails if already bound.
//
func (cp *Coverpoint[T]) Bind(expr func() T) error {
	r, err := cp.record()
	if err != nil {
		return err
	}
	return r.bind(expr)
}

// BindCondition binds the sample condition. It fails if already bound.
//
func (cp *Coverpoint[T]) BindCondition(cond func() bool) error {
	r, err := cp.record()
	if err != nil {
		return err
	}
	return r.bindCondition(cond)
}

// Start resumes sampling. Hit counts are preserved.
//
func (cp *Coverpoint[T]) Start() error {
	r, err := cp.record()
	if err != nil {
		return err
	}
	r.collecting = true
	return nil
}

// Stop suspends sampling.
//
func (cp *Coverpoint[T]) Stop() error {
	r, err := cp.record()
	if err != nil {
		return err
	}
	r.collecting = false
	return nil
}

// Collecting returns true if the coverpoint is not stopped.
//
func (cp *Coverpoint[T]) Collecting() (bool, error) {
	r, err := cp.record()
	if err != nil {
		return false, err
	}
	return r.collecting, nil
}

// InstCoverage returns the coverage percentage of the coverpoint.
//
func (cp *Coverpoint[T]) InstCoverage() (float64, error) {
	pct, _, _, err := cp.CoverageCounts()
	return pct, err
}

// CoverageCounts returns the coverage percentage of the coverpoint along with
// the number of covered regular bins and the total number of regular bins.
//
func (cp *Coverpoint[T]) CoverageCounts() (pct float64, covered, total int, err error) {
	r, err := cp.record()
	if err != nil {
		return 0, 0, 0, err
	}
	var c coverageVisitor
	r.Accept(&c)
	return c.result, c.covered, c.total, nil
}

// Size returns the number of regular bins.
//
func (cp *Coverpoint[T]) Size() (int, error) {
	r, err := cp.record()
	if err != nil {
		return 0, err
	}
	return r.size(), nil
}

// Misses returns the number of samples that hit no regular bin, including
// ignored samples.
//
func (cp *Coverpoint[T]) Misses() (uint64, error) {
	r, err := cp.record()
	if err != nil {
		return 0, err
	}
	return r.misses, nil
}

// LastHit returns the index of the last regular bin hit and whether the last
// sample hit a regular bin at all.
//
func (cp *Coverpoint[T]) LastHit() (bin int, ok bool, err error) {
	r, err := cp.record()
	if err != nil {
		return 0, false, err
	}
	bin, ok = r.lastHit()
	return bin, ok, nil
}

// Option returns the coverpoint options.
//
func (cp *Coverpoint[T]) Option() (CoverpointOption, error) {
	r, err := cp.record()
	if err != nil {
		return CoverpointOption{}, err
	}
	return r.option, nil
}

// SetOption replaces the coverpoint options.
//
func (cp *Coverpoint[T]) SetOption(opt CoverpointOption) error {
	r, err := cp.record()
	if err != nil {
		return err
	}
	r.option = opt
	return nil
}

// AddBins adds bins to the coverpoint. Coverage of the coverpoint and of the
// crosses using it are computed against the new bin count.
//
func (cp *Coverpoint[T]) AddBins(specs ...BinSpec[T]) error {
	r, err := cp.record()
	if err != nil {
		return err
	}
	for _, b := range specs {
		if err = r.addBins(b); err != nil {
			return errors.Wrapf(err, "coverpoint %s", r.name)
		}
	}
	r.checkOverlaps()
	return nil
}

// BinHitCount returns the hit count of regular bin i. An out of range index
// logs a warning and returns 0.
//
func (cp *Coverpoint[T]) BinHitCount(i int) (uint64, error) {
	r, err := cp.record()
	if err != nil {
		return 0, err
	}
	bins := r.tiers[Regular].bins
	if i < 0 || i >= len(bins) {
		r.log.Warnf("bin index %d out of range [0, %d)", i, len(bins))
		return 0, nil
	}
	return bins[i].HitCount(), nil
}

// Bins returns the regular bins in declaration order.
//
func (cp *Coverpoint[T]) Bins() ([]BinRef[T], error) {
	return cp.bins(Regular)
}

// IllegalBins returns the illegal bins in declaration order.
//
func (cp *Coverpoint[T]) IllegalBins() ([]BinRef[T], error) {
	return cp.bins(Illegal)
}

// IgnoreBins returns the ignore bins in declaration order.
//
func (cp *Coverpoint[T]) IgnoreBins() ([]BinRef[T], error) {
	return cp.bins(Ignore)
}

func (cp *Coverpoint[T]) bins(k BinKind) ([]BinRef[T], error) {
	r, err := cp.record()
	if err != nil {
		return nil, err
	}
	bs := make([]BinRef[T], len(r.tiers[k].bins))
	for i := range bs {
		bs[i] = BinRef[T]{cp: cp, kind: k, idx: i}
	}
	return bs, nil
}
