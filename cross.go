// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwcov

import (
	"slices"
	"strconv"
	"strings"

	"github.com/db47h/hwcov/internal/arena"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Crossable is implemented by coverpoints of any value type. It is used to
// pass coverpoints to NewCross.
//
type Crossable interface {
	Name() string
	handle() (*Context, arena.Handle)
}

// crossable is the view of a coverpoint record needed by crosses.
type crossable interface {
	Name() string
	lastHit() (int, bool)
	size() int
}

// A CrossBin is a hit tuple of a cross. Index holds one regular bin index per
// crossed coverpoint.
//
type CrossBin struct {
	Index []int
	Hits  uint64
}

// A Cross records the combinations of bins hit by two or more coverpoints
// sampled together.
//
type Cross struct {
	ctx  *Context
	h    arena.Handle
	name string
}

// NewCross creates a cross of the given coverpoints in cg. At least two
// coverpoints are required and all must belong to cg. The cross is sampled
// by cg after its coverpoints, in declaration order.
//
func NewCross(cg *Covergroup, name string, opt *CrossOption, cvps ...Crossable) (*Cross, error) {
	g, err := cg.record()
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, errors.Errorf("empty cross name in covergroup %s", g.name)
	}
	if _, ok := g.itemNames[name]; ok {
		return nil, errors.WithStack(&DuplicateError{Kind: "cross", Name: name, Parent: g.name})
	}
	if len(cvps) < 2 {
		return nil, errors.Errorf("cross %s: at least two coverpoints needed, got %d", name, len(cvps))
	}
	cs := make([]crossable, len(cvps))
	for i, cp := range cvps {
		ctx, h := cp.handle()
		if idx, ok := g.itemNames[cp.Name()]; ctx != cg.ctx || !ok || g.items[idx] != h {
			return nil, errors.WithStack(&NotFoundError{Kind: "coverpoint", Name: cp.Name(), Parent: g.name})
		}
		it, err := cg.ctx.item(h)
		if err != nil {
			return nil, err
		}
		c, ok := it.(crossable)
		if !ok {
			return nil, errors.Errorf("cross %s: %s is not a coverpoint", name, cp.Name())
		}
		cs[i] = c
	}
	r := newCrossRecord(name, opt, cs, g.log)
	h := cg.ctx.items.New(r)
	g.addItem(name, h)
	return &Cross{ctx: cg.ctx, h: h, name: name}, nil
}

type crossRecord struct {
	name       string
	option     CrossOption
	cvps       []crossable
	hits       map[string]*CrossBin
	misses     uint64
	collecting bool
	log        *logrus.Entry
}

func newCrossRecord(name string, opt *CrossOption, cvps []crossable, log *logrus.Entry) *crossRecord {
	r := &crossRecord{
		name:       name,
		option:     DefaultCrossOption(),
		cvps:       cvps,
		hits:       make(map[string]*CrossBin),
		collecting: true,
		log:        log.WithField("cross", name),
	}
	if opt != nil {
		r.option = *opt
	}
	return r
}

func tupleKey(idx []int) string {
	var sb strings.Builder
	for i, n := range idx {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(n))
	}
	return sb.String()
}

// sample records the tuple of bins last hit by the crossed coverpoints. If
// any of them missed its last sample, the cross misses too.
func (r *crossRecord) sample() error {
	if !r.collecting {
		return nil
	}
	idx := make([]int, len(r.cvps))
	for i, cp := range r.cvps {
		b, ok := cp.lastHit()
		if !ok {
			r.misses++
			return nil
		}
		idx[i] = b
	}
	k := tupleKey(idx)
	if cb, ok := r.hits[k]; ok {
		cb.Hits++
		return nil
	}
	r.hits[k] = &CrossBin{Index: idx, Hits: 1}
	return nil
}

func (r *crossRecord) setCollecting(on bool) { r.collecting = on }

func (r *crossRecord) cloneFresh(log *logrus.Entry, lookup func(string) item) (item, error) {
	cs := make([]crossable, len(r.cvps))
	for i, cp := range r.cvps {
		c, ok := lookup(cp.Name()).(crossable)
		if !ok {
			return nil, errors.Errorf("cross %s: coverpoint %s not found", r.name, cp.Name())
		}
		cs[i] = c
	}
	c := newCrossRecord(r.name, &r.option, cs, log)
	return c, nil
}

// CrossNode implementation.

func (r *crossRecord) Name() string        { return r.name }
func (r *crossRecord) Weight() uint        { return r.option.Weight }
func (r *crossRecord) Option() CrossOption { return r.option }
func (r *crossRecord) Misses() uint64      { return r.misses }
func (r *crossRecord) Accept(v Visitor)    { v.VisitCross(r) }

func (r *crossRecord) Coverpoints() []string {
	ns := make([]string, len(r.cvps))
	for i, cp := range r.cvps {
		ns[i] = cp.Name()
	}
	return ns
}

func (r *crossRecord) Size() int {
	n := 1
	for _, cp := range r.cvps {
		n *= cp.size()
	}
	return n
}

func (r *crossRecord) Bins() []CrossBin {
	bs := make([]CrossBin, 0, len(r.hits))
	for _, b := range r.hits {
		bs = append(bs, CrossBin{Index: slices.Clone(b.Index), Hits: b.Hits})
	}
	slices.SortFunc(bs, func(a, b CrossBin) int { return slices.Compare(a.Index, b.Index) })
	return bs
}

func (c *Cross) record() (*crossRecord, error) {
	it, err := c.ctx.item(c.h)
	if err != nil {
		return nil, err
	}
	r, ok := it.(*crossRecord)
	if !ok {
		return nil, errors.Errorf("%s is not a cross", c.name)
	}
	return r, nil
}

// Name returns the cross name.
//
func (c *Cross) Name() string {
	return c.name
}

// InstCoverage returns the percentage of bin tuples hit at least AtLeast
// times.
//
func (c *Cross) InstCoverage() (float64, error) {
	pct, _, _, err := c.CoverageCounts()
	return pct, err
}

// CoverageCounts returns the coverage percentage along with the number of
// covered tuples and the total number of tuples.
//
func (c *Cross) CoverageCounts() (pct float64, covered, total int, err error) {
	r, err := c.record()
	if err != nil {
		return 0, 0, 0, err
	}
	var v coverageVisitor
	r.Accept(&v)
	return v.result, v.covered, v.total, nil
}

// Size returns the product of the crossed coverpoint sizes.
//
func (c *Cross) Size() (int, error) {
	r, err := c.record()
	if err != nil {
		return 0, err
	}
	return r.Size(), nil
}

// CrossBins returns a copy of the hit tuples sorted by index.
//
func (c *Cross) CrossBins() ([]CrossBin, error) {
	r, err := c.record()
	if err != nil {
		return nil, err
	}
	return r.Bins(), nil
}

// Coverpoints returns the names of the crossed coverpoints.
//
func (c *Cross) Coverpoints() ([]string, error) {
	r, err := c.record()
	if err != nil {
		return nil, err
	}
	return r.Coverpoints(), nil
}

// Misses returns the number of samples where at least one crossed coverpoint
// missed.
//
func (c *Cross) Misses() (uint64, error) {
	r, err := c.record()
	if err != nil {
		return 0, err
	}
	return r.misses, nil
}

// Option returns the cross options.
//
func (c *Cross) Option() (CrossOption, error) {
	r, err := c.record()
	if err != nil {
		return CrossOption{}, err
	}
	return r.option, nil
}

// SetOption replaces the cross options.
//
func (c *Cross) SetOption(opt CrossOption) error {
	r, err := c.record()
	if err != nil {
		return err
	}
	r.option = opt
	return nil
}
