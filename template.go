// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwcov

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// A Template describes a covergroup type built at run time. Covergroups
// instantiated from a template get fresh copies of its coverpoints and
// crosses. Their sample expressions are bound per instance with BindSample,
// BindCondition or BindFields.
//
// Template instances are dynamic: they can be disabled.
//
type Template struct {
	typeName string
	ctx      *Context
	proto    *Covergroup
	log      *logRecorder
	file     string
	line     int
}

type logEntry struct {
	level  logrus.Level
	msg    string
	fields logrus.Fields
}

// logRecorder keeps the entries logged while building a template. They are
// logged again in the target context of each instance.
type logRecorder struct {
	entries []logEntry
}

func (r *logRecorder) Levels() []logrus.Level { return logrus.AllLevels }

func (r *logRecorder) Fire(e *logrus.Entry) error {
	fields := make(logrus.Fields, len(e.Data))
	for k, v := range e.Data {
		switch k {
		case "template", "covergroup":
		default:
			fields[k] = v
		}
	}
	r.entries = append(r.entries, logEntry{e.Level, e.Message, fields})
	return nil
}

// NewTemplate returns a new empty template for covergroup type typeName.
// Instances use opt, or the default options if opt is nil.
//
func NewTemplate(typeName string, opt *CovergroupOption) *Template {
	file, line := callerLine(0)
	rec := new(logRecorder)
	ctx := New(Config{LogLevel: logrus.TraceLevel, Output: io.Discard})
	ctx.log.AddHook(rec)
	g := newGroupRecord(typeName, typeName, opt, ctx.log.WithField("template", typeName))
	g.dynamic = true
	h := ctx.groups.New(g)
	return &Template{
		typeName: typeName,
		ctx:      ctx,
		proto:    &Covergroup{ctx: ctx, h: h, name: typeName},
		log:      rec,
		file:     file,
		line:     line,
	}
}

// TypeName returns the covergroup type name of the template.
//
func (t *Template) TypeName() string {
	return t.typeName
}

// AddCoverpoint adds a coverpoint to template t.
//
func AddCoverpoint[T Value](t *Template, spec CoverpointSpec[T]) error {
	_, err := NewCoverpoint(t.proto, spec)
	return err
}

// AddCross adds a cross of the named coverpoints to the template.
//
func (t *Template) AddCross(name string, opt *CrossOption, cvps ...string) error {
	cs := make([]Crossable, len(cvps))
	for i, n := range cvps {
		c, err := t.proto.Coverpoint(n)
		if err != nil {
			return errors.Wrapf(err, "cross %s", name)
		}
		cs[i] = c
	}
	_, err := NewCross(t.proto, name, opt, cs...)
	return err
}

// Instantiate creates a new covergroup instance of the template in scope s.
// If instName is empty, a unique name is generated.
//
func (t *Template) Instantiate(s *Scope, instName string) (*Covergroup, error) {
	src := s.ctx.caller(0)
	p, err := t.proto.record()
	if err != nil {
		return nil, err
	}
	opt := p.option
	typeSrc := Source{File: s.ctx.fileID(t.file), Line: t.line}
	cg, err := s.newCovergroup(t.typeName, instName, &opt, true, src, typeSrc)
	if err != nil {
		return nil, err
	}
	g, err := cg.record()
	if err != nil {
		return nil, err
	}
	lookup := func(name string) item {
		i, ok := g.itemNames[name]
		if !ok {
			return nil
		}
		it, _ := s.ctx.item(g.items[i])
		return it
	}
	for _, h := range p.items {
		it, err := t.ctx.item(h)
		if err != nil {
			return nil, err
		}
		c, err := it.cloneFresh(g.log, lookup)
		if err != nil {
			return nil, errors.Wrapf(err, "instantiate %s", t.typeName)
		}
		g.addItem(c.Name(), s.ctx.items.New(c))
	}
	for _, e := range t.log.entries {
		g.log.WithFields(e.fields).Log(e.level, e.msg)
	}
	return cg, nil
}

func warnDisabled(cg *Covergroup, cvp string) error {
	g, err := cg.record()
	if err != nil {
		return err
	}
	if !g.enabled {
		g.log.WithField("coverpoint", cvp).Warn("binding on disabled covergroup")
	}
	return nil
}

// BindSample binds the sample expression of coverpoint cvp in cg. Binding an
// already bound expression is an error.
//
func BindSample[T Value](cg *Covergroup, cvp string, fn func() T) error {
	if err := warnDisabled(cg, cvp); err != nil {
		return err
	}
	cp, err := LookupCoverpoint[T](cg, cvp)
	if err != nil {
		return err
	}
	return cp.Bind(fn)
}

// BindCondition binds the sample condition of coverpoint cvp in cg. Binding
// an already bound condition is an error.
//
func BindCondition(cg *Covergroup, cvp string, fn func() bool) error {
	if err := warnDisabled(cg, cvp); err != nil {
		return err
	}
	it, _, err := cg.item(cvp)
	if err != nil {
		return err
	}
	b, ok := it.(binder)
	if !ok {
		return errors.Errorf("%s in %s is not a coverpoint", cvp, cg.name)
	}
	return b.bindCondition(fn)
}
