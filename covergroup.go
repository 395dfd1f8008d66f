// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwcov

import (
	"github.com/db47h/hwcov/internal/arena"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// item is implemented by coverpoint and cross records.
type item interface {
	ItemNode
	sample() error
	setCollecting(bool)
	// cloneFresh returns a copy of the item with zeroed counters. lookup
	// resolves items by name in the destination covergroup.
	cloneFresh(log *logrus.Entry, lookup func(string) item) (item, error)
}

type groupRecord struct {
	name      string
	typeName  string
	scopeType string
	gtype     *groupType
	option    CovergroupOption
	dynamic   bool
	enabled   bool
	items     []arena.Handle
	itemNames map[string]int
	scope     arena.Handle
	src       Source
	log       *logrus.Entry
}

func newGroupRecord(name, typeName string, opt *CovergroupOption, log *logrus.Entry) groupRecord {
	g := groupRecord{
		name:      name,
		typeName:  typeName,
		option:    DefaultCovergroupOption(),
		enabled:   true,
		itemNames: make(map[string]int),
		log:       log.WithField("covergroup", name),
	}
	if opt != nil {
		g.option = *opt
	}
	return g
}

func (g *groupRecord) addItem(name string, h arena.Handle) {
	g.itemNames[name] = len(g.items)
	g.items = append(g.items, h)
}

// A Covergroup samples a set of coverpoints and crosses together.
//
// Covergroups are either static, created with Scope.NewCovergroup, or dynamic,
// instantiated from a Template. Only dynamic covergroups can be disabled.
//
type Covergroup struct {
	ctx  *Context
	h    arena.Handle
	name string
}

// NewCovergroup creates a static covergroup instance in scope s. It is the
// same as s.NewCovergroup.
//
func NewCovergroup(s *Scope, typeName, instName string, opt *CovergroupOption) (*Covergroup, error) {
	src := s.ctx.caller(0)
	return s.newCovergroup(typeName, instName, opt, false, src, src)
}

func (cg *Covergroup) record() (*groupRecord, error) {
	if err := cg.ctx.check(); err != nil {
		return nil, err
	}
	return cg.ctx.group(cg.h)
}

// Name returns the covergroup instance name.
//
func (cg *Covergroup) Name() string {
	return cg.name
}

// Sample samples all coverpoints, then all crosses, in declaration order.
//
// Illegal samples are logged. Unless the context is configured with
// ContinueOnIllegal, sampling stops and the *IllegalSampleError is returned.
// Sampling a disabled covergroup logs a warning and does nothing.
//
func (cg *Covergroup) Sample() error {
	g, err := cg.record()
	if err != nil {
		return err
	}
	if !g.enabled {
		g.log.Warn("sample on disabled covergroup")
		return nil
	}
	its := make([]item, 0, len(g.items))
	for _, h := range g.items {
		it, err := cg.ctx.item(h)
		if err != nil {
			return err
		}
		its = append(its, it)
	}
	// coverpoints first: crosses use their last hits.
	for _, cross := range [...]bool{false, true} {
		for _, it := range its {
			if _, ok := it.(*crossRecord); ok != cross {
				continue
			}
			if err = it.sample(); err == nil {
				continue
			}
			var e *IllegalSampleError
			if !errors.As(err, &e) {
				return err
			}
			e.Covergroup = g.name
			g.log.Error(e.Error())
			if !cg.ctx.cfg.ContinueOnIllegal {
				return err
			}
		}
	}
	return nil
}

// InstCoverage returns the coverage of the covergroup instance. A disabled
// covergroup reports 100.
//
func (cg *Covergroup) InstCoverage() (float64, error) {
	pct, _, _, err := cg.CoverageCounts()
	return pct, err
}

// CoverageCounts returns the instance coverage along with the number of
// covered bins and the total number of bins of its coverpoints and crosses.
//
func (cg *Covergroup) CoverageCounts() (pct float64, covered, total int, err error) {
	g, err := cg.record()
	if err != nil {
		return 0, 0, 0, err
	}
	var c coverageVisitor
	(&groupNode{ctx: cg.ctx, rec: g}).Accept(&c)
	return c.result, c.covered, c.total, nil
}

// TypeCoverage returns the coverage of the covergroup type over all its
// enabled instances in scopes of the same type.
//
func (cg *Covergroup) TypeCoverage() (float64, error) {
	g, err := cg.record()
	if err != nil {
		return 0, err
	}
	return cg.ctx.TypeCoverage(g.scopeType, g.typeName)
}

// TypeName returns the covergroup type name.
//
func (cg *Covergroup) TypeName() (string, error) {
	g, err := cg.record()
	if err != nil {
		return "", err
	}
	return g.typeName, nil
}

// Option returns the instance options.
//
func (cg *Covergroup) Option() (CovergroupOption, error) {
	g, err := cg.record()
	if err != nil {
		return CovergroupOption{}, err
	}
	return g.option, nil
}

// SetOption replaces the instance options.
//
func (cg *Covergroup) SetOption(opt CovergroupOption) error {
	g, err := cg.record()
	if err != nil {
		return err
	}
	g.option = opt
	return nil
}

// TypeOption returns the options of the covergroup type.
//
func (cg *Covergroup) TypeOption() (TypeOption, error) {
	g, err := cg.record()
	if err != nil {
		return TypeOption{}, err
	}
	return g.gtype.option, nil
}

// SetTypeOption replaces the options of the covergroup type. This affects all
// instances of the type.
//
func (cg *Covergroup) SetTypeOption(opt TypeOption) error {
	g, err := cg.record()
	if err != nil {
		return err
	}
	g.gtype.option = opt
	return nil
}

// Items returns the names of the coverpoints and crosses in declaration
// order.
//
func (cg *Covergroup) Items() ([]string, error) {
	g, err := cg.record()
	if err != nil {
		return nil, err
	}
	ns := make([]string, len(g.items))
	for n, i := range g.itemNames {
		ns[i] = n
	}
	return ns, nil
}

func (cg *Covergroup) item(name string) (item, arena.Handle, error) {
	g, err := cg.record()
	if err != nil {
		return nil, arena.Handle{}, err
	}
	i, ok := g.itemNames[name]
	if !ok {
		return nil, arena.Handle{}, errors.WithStack(&NotFoundError{Kind: "coverpoint", Name: name, Parent: g.name})
	}
	it, err := cg.ctx.item(g.items[i])
	return it, g.items[i], err
}

// cvpHandle is an untyped coverpoint handle.
type cvpHandle struct {
	ctx  *Context
	h    arena.Handle
	name string
}

func (c cvpHandle) Name() string                     { return c.name }
func (c cvpHandle) handle() (*Context, arena.Handle) { return c.ctx, c.h }

// Coverpoint returns the coverpoint with the given name, regardless of its
// value type. Use LookupCoverpoint to get a typed handle.
//
func (cg *Covergroup) Coverpoint(name string) (Crossable, error) {
	it, h, err := cg.item(name)
	if err != nil {
		return nil, err
	}
	if _, ok := it.(crossable); !ok {
		return nil, errors.WithStack(&NotFoundError{Kind: "coverpoint", Name: name, Parent: cg.name})
	}
	return cvpHandle{ctx: cg.ctx, h: h, name: name}, nil
}

// LookupCoverpoint returns the coverpoint of type T with the given name in cg.
//
func LookupCoverpoint[T Value](cg *Covergroup, name string) (*Coverpoint[T], error) {
	it, h, err := cg.item(name)
	if err != nil {
		return nil, err
	}
	if _, ok := it.(*cvpRecord[T]); !ok {
		return nil, errors.Errorf("%s in %s is not a coverpoint of %T", name, cg.name, *new(T))
	}
	return &Coverpoint[T]{ctx: cg.ctx, h: h, name: name}, nil
}

// Cross returns the cross with the given name.
//
func (cg *Covergroup) Cross(name string) (*Cross, error) {
	it, h, err := cg.item(name)
	if err != nil {
		return nil, err
	}
	if _, ok := it.(*crossRecord); !ok {
		return nil, errors.WithStack(&NotFoundError{Kind: "cross", Name: name, Parent: cg.name})
	}
	return &Cross{ctx: cg.ctx, h: h, name: name}, nil
}

func (cg *Covergroup) setCollecting(on bool) error {
	g, err := cg.record()
	if err != nil {
		return err
	}
	for _, h := range g.items {
		it, err := cg.ctx.item(h)
		if err != nil {
			return err
		}
		it.setCollecting(on)
	}
	return nil
}

// Start resumes sampling of all coverpoints and crosses.
//
func (cg *Covergroup) Start() error { return cg.setCollecting(true) }

// Stop suspends sampling of all coverpoints and crosses.
//
func (cg *Covergroup) Stop() error { return cg.setCollecting(false) }

func (cg *Covergroup) setEnabled(on bool) error {
	g, err := cg.record()
	if err != nil {
		return err
	}
	if !g.dynamic {
		return errors.Errorf("covergroup %s: only template instances can be enabled or disabled", g.name)
	}
	g.enabled = on
	return nil
}

// Enable enables a covergroup instantiated from a Template.
//
func (cg *Covergroup) Enable() error { return cg.setEnabled(true) }

// Disable disables a covergroup instantiated from a Template. A disabled
// covergroup does not sample, reports a coverage of 100 and is left out of
// its type coverage.
//
func (cg *Covergroup) Disable() error { return cg.setEnabled(false) }

// Enabled returns whether cg is enabled. Static covergroups are always
// enabled.
//
func (cg *Covergroup) Enabled() (bool, error) {
	g, err := cg.record()
	if err != nil {
		return false, err
	}
	return g.enabled, nil
}

// groupNode implements CovergroupNode.
type groupNode struct {
	ctx *Context
	rec *groupRecord
}

func (n *groupNode) Name() string             { return n.rec.name }
func (n *groupNode) TypeName() string         { return n.rec.typeName }
func (n *groupNode) ScopeTypeName() string    { return n.rec.scopeType }
func (n *groupNode) Option() CovergroupOption { return n.rec.option }
func (n *groupNode) Enabled() bool            { return n.rec.enabled }
func (n *groupNode) Accept(v Visitor)         { v.VisitCovergroup(n) }

func (n *groupNode) TypeOption() TypeOption {
	if n.rec.gtype == nil {
		return DefaultTypeOption()
	}
	return n.rec.gtype.option
}

func (n *groupNode) Source() (inst, typ Source) {
	if n.rec.gtype == nil {
		return n.rec.src, n.rec.src
	}
	return n.rec.src, n.rec.gtype.src
}

func (n *groupNode) Items() []ItemNode {
	its := make([]ItemNode, 0, len(n.rec.items))
	for _, h := range n.rec.items {
		if it, err := n.ctx.item(h); err == nil {
			its = append(its, it)
		}
	}
	return its
}
