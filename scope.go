// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwcov

import (
	"strconv"
	"strings"

	"github.com/db47h/hwcov/internal/arena"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// children holds the named child scopes and covergroups of a scope or of a
// context. Scopes and covergroups share the same namespace.
type children struct {
	anon       int
	scopes     []arena.Handle
	groups     []arena.Handle
	scopeNames map[string]arena.Handle
	groupNames map[string]arena.Handle
}

func (c *children) init() {
	*c = children{
		scopeNames: make(map[string]arena.Handle),
		groupNames: make(map[string]arena.Handle),
	}
}

// claim checks that name is free. An empty name is replaced by the last
// component of typeName followed by a sequence number.
func (c *children) claim(kind, name, typeName, parent string) (string, error) {
	if name == "" {
		if i := strings.LastIndexByte(typeName, ':'); i >= 0 {
			typeName = typeName[i+1:]
		}
		name = typeName + "_" + strconv.Itoa(c.anon)
		c.anon++
	}
	_, s := c.scopeNames[name]
	_, g := c.groupNames[name]
	if s || g {
		return "", errors.WithStack(&DuplicateError{Kind: kind, Name: name, Parent: parent})
	}
	return name, nil
}

type scopeRecord struct {
	name     string
	typeName string
	id       uint
	self     arena.Handle
	parentID uint
	nested   bool
	src      Source
	kids     children
	log      *logrus.Entry
}

// A Scope is a named container of covergroup instances and child scopes.
// Covergroup types are grouped by scope type for type coverage.
//
type Scope struct {
	ctx  *Context
	h    arena.Handle
	name string
}

// NewScope creates a top level scope. If instName is empty, a unique name is
// generated from typeName.
//
func (ctx *Context) NewScope(typeName, instName string) (*Scope, error) {
	if err := ctx.check(); err != nil {
		return nil, err
	}
	return ctx.newScope(&ctx.root, nil, typeName, instName, ctx.caller(0))
}

// NewScope creates a child scope of s. The child scope type name is prefixed
// with the type name of s: "parent::child".
//
func (s *Scope) NewScope(typeName, instName string) (*Scope, error) {
	r, err := s.record()
	if err != nil {
		return nil, err
	}
	return s.ctx.newScope(&r.kids, r, r.typeName+"::"+typeName, instName, s.ctx.caller(0))
}

func (ctx *Context) newScope(kids *children, parent *scopeRecord, typeName, instName string, src Source) (*Scope, error) {
	if typeName == "" {
		return nil, errors.New("empty scope type name")
	}
	pname := "context"
	if parent != nil {
		pname = parent.name
	}
	name, err := kids.claim("scope", instName, typeName, pname)
	if err != nil {
		return nil, err
	}
	r := scopeRecord{
		name:     name,
		typeName: typeName,
		id:       ctx.nextKey(),
		src:      src,
		log:      ctx.log.WithField("scope", name),
	}
	if parent != nil {
		r.parentID, r.nested = parent.id, true
	}
	r.kids.init()
	h := ctx.scopes.New(r)
	p, _ := ctx.scopes.Get(h)
	p.self = h
	kids.scopes = append(kids.scopes, h)
	kids.scopeNames[name] = h
	return &Scope{ctx: ctx, h: h, name: name}, nil
}

// DefaultScope returns the scope used by Context.NewCovergroup. It is created
// on first use.
//
func (ctx *Context) DefaultScope() (*Scope, error) {
	if err := ctx.check(); err != nil {
		return nil, err
	}
	if ctx.defScope == nil {
		s, err := ctx.newScope(&ctx.root, nil, DefaultScopeType, DefaultScopeName, ctx.caller(0))
		if err != nil {
			return nil, err
		}
		ctx.defScope = s
	}
	return ctx.defScope, nil
}

// Scope returns the top level scope with the given name.
//
func (ctx *Context) Scope(name string) (*Scope, error) {
	if err := ctx.check(); err != nil {
		return nil, err
	}
	h, ok := ctx.root.scopeNames[name]
	if !ok {
		return nil, errors.WithStack(&NotFoundError{Kind: "scope", Name: name, Parent: "context"})
	}
	return &Scope{ctx: ctx, h: h, name: name}, nil
}

// Scopes returns the top level scopes in creation order.
//
func (ctx *Context) Scopes() ([]*Scope, error) {
	if err := ctx.check(); err != nil {
		return nil, err
	}
	return ctx.scopeHandles(ctx.root.scopes)
}

func (ctx *Context) scopeHandles(hs []arena.Handle) ([]*Scope, error) {
	ss := make([]*Scope, 0, len(hs))
	for _, h := range hs {
		r, err := ctx.scope(h)
		if err != nil {
			return nil, err
		}
		ss = append(ss, &Scope{ctx: ctx, h: h, name: r.name})
	}
	return ss, nil
}

// Covergroup returns the covergroup instance at path. The path is a slash
// separated list of scope names ending with a covergroup name. A single
// element path designates a covergroup of the default scope.
//
func (ctx *Context) Covergroup(path string) (*Covergroup, error) {
	if err := ctx.check(); err != nil {
		return nil, err
	}
	elems := strings.Split(path, "/")
	if len(elems) == 1 {
		s, err := ctx.DefaultScope()
		if err != nil {
			return nil, err
		}
		return s.Covergroup(path)
	}
	s, err := ctx.Scope(elems[0])
	if err != nil {
		return nil, err
	}
	for _, e := range elems[1 : len(elems)-1] {
		if s, err = s.Scope(e); err != nil {
			return nil, err
		}
	}
	return s.Covergroup(elems[len(elems)-1])
}

// NewCovergroup creates a static covergroup instance in the default scope.
//
func (ctx *Context) NewCovergroup(typeName, instName string, opt *CovergroupOption) (*Covergroup, error) {
	src := ctx.caller(0)
	s, err := ctx.DefaultScope()
	if err != nil {
		return nil, err
	}
	return s.newCovergroup(typeName, instName, opt, false, src, src)
}

func (s *Scope) record() (*scopeRecord, error) {
	if err := s.ctx.check(); err != nil {
		return nil, err
	}
	return s.ctx.scope(s.h)
}

// Name returns the scope instance name.
//
func (s *Scope) Name() string { return s.name }

// Context returns the context owning s.
//
func (s *Scope) Context() *Context { return s.ctx }

// TypeName returns the scope type name.
//
func (s *Scope) TypeName() (string, error) {
	r, err := s.record()
	if err != nil {
		return "", err
	}
	return r.typeName, nil
}

// Scope returns the child scope with the given name.
//
func (s *Scope) Scope(name string) (*Scope, error) {
	r, err := s.record()
	if err != nil {
		return nil, err
	}
	h, ok := r.kids.scopeNames[name]
	if !ok {
		return nil, errors.WithStack(&NotFoundError{Kind: "child scope", Name: name, Parent: r.name})
	}
	return &Scope{ctx: s.ctx, h: h, name: name}, nil
}

// Scopes returns the child scopes in creation order.
//
func (s *Scope) Scopes() ([]*Scope, error) {
	r, err := s.record()
	if err != nil {
		return nil, err
	}
	return s.ctx.scopeHandles(r.kids.scopes)
}

// Covergroup returns the covergroup instance with the given name.
//
func (s *Scope) Covergroup(name string) (*Covergroup, error) {
	r, err := s.record()
	if err != nil {
		return nil, err
	}
	h, ok := r.kids.groupNames[name]
	if !ok {
		return nil, errors.WithStack(&NotFoundError{Kind: "covergroup", Name: name, Parent: r.name})
	}
	return &Covergroup{ctx: s.ctx, h: h, name: name}, nil
}

// Covergroups returns the covergroup instances of s in creation order.
//
func (s *Scope) Covergroups() ([]*Covergroup, error) {
	r, err := s.record()
	if err != nil {
		return nil, err
	}
	cgs := make([]*Covergroup, 0, len(r.kids.groups))
	for _, h := range r.kids.groups {
		g, err := s.ctx.group(h)
		if err != nil {
			return nil, err
		}
		cgs = append(cgs, &Covergroup{ctx: s.ctx, h: h, name: g.name})
	}
	return cgs, nil
}

// NewCovergroup creates a static covergroup instance of type typeName in s.
// If instName is empty, a unique name is generated from typeName. Default
// options are used if opt is nil.
//
func (s *Scope) NewCovergroup(typeName, instName string, opt *CovergroupOption) (*Covergroup, error) {
	src := s.ctx.caller(0)
	return s.newCovergroup(typeName, instName, opt, false, src, src)
}

func (s *Scope) newCovergroup(typeName, instName string, opt *CovergroupOption, dynamic bool, src, typeSrc Source) (*Covergroup, error) {
	r, err := s.record()
	if err != nil {
		return nil, err
	}
	if typeName == "" {
		return nil, errors.Errorf("empty covergroup type name in scope %s", r.name)
	}
	name, err := r.kids.claim("covergroup", instName, typeName, r.name)
	if err != nil {
		return nil, err
	}
	t := s.ctx.groupType(r.typeName, typeName, typeSrc)
	g := newGroupRecord(name, typeName, opt, r.log)
	g.gtype = t
	g.scopeType = r.typeName
	g.scope = r.self
	g.dynamic = dynamic
	g.src = src
	h := s.ctx.groups.New(g)
	t.insts = append(t.insts, h)
	r.kids.groups = append(r.kids.groups, h)
	r.kids.groupNames[name] = h
	return &Covergroup{ctx: s.ctx, h: h, name: name}, nil
}

// Coverage returns the coverage of the covergroup types instantiated in s,
// restricted to the instances of s.
//
func (s *Scope) Coverage() (float64, error) {
	r, err := s.record()
	if err != nil {
		return 0, err
	}
	var c coverageVisitor
	(&scopeNode{ctx: s.ctx, rec: r}).Accept(&c)
	return c.result, nil
}

// scopeNode implements ScopeNode.
type scopeNode struct {
	ctx *Context
	rec *scopeRecord
}

func (n *scopeNode) Name() string           { return n.rec.name }
func (n *scopeNode) TypeName() string       { return n.rec.typeName }
func (n *scopeNode) InstanceID() uint       { return n.rec.id }
func (n *scopeNode) ParentID() (uint, bool) { return n.rec.parentID, n.rec.nested }
func (n *scopeNode) Source() Source         { return n.rec.src }
func (n *scopeNode) Accept(v Visitor)       { v.VisitScope(n) }

func (n *scopeNode) Types() []TypeGroup {
	var ts []*groupType
	for _, t := range n.ctx.types {
		if t.scopeType == n.rec.typeName {
			ts = append(ts, t)
		}
	}
	return n.ctx.typeGroups(ts, func(g *groupRecord) bool { return g.scope == n.rec.self })
}

func (n *scopeNode) Scopes() []ScopeNode {
	ns := make([]ScopeNode, 0, len(n.rec.kids.scopes))
	for _, h := range n.rec.kids.scopes {
		if r, err := n.ctx.scope(h); err == nil {
			ns = append(ns, &scopeNode{ctx: n.ctx, rec: r})
		}
	}
	return ns
}
