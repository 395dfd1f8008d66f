// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package ucis writes coverage models in the UCIS XML format.
//
// The output follows the layout expected by UCIS viewers: a header with the
// source file table, then one instanceCoverages element per scope holding
// the covergroup instances grouped by type. Disabled covergroup instances are
// listed as user attributes of their scope.
//
package ucis

import (
	"bufio"
	"encoding/xml"
	"io"
	"os"
	"strconv"
	"time"

	hw "github.com/db47h/hwcov"
	"github.com/pkg/errors"
)

// TimeFormat is the format of timestamps in the XML header.
//
const TimeFormat = "2006-01-02T15:04:05"

// An Option configures Write.
//
type Option func(*writer)

// WithClock sets the function returning the time written in the header.
//
func WithClock(now func() time.Time) Option {
	return func(w *writer) { w.now = now }
}

// WithUser sets the user name written in the header. It defaults to the
// value of the USER environment variable.
//
func WithUser(user string) Option {
	return func(w *writer) { w.user = user }
}

// Write writes the coverage data of ctx to w.
//
func Write(w io.Writer, ctx *hw.Context, opts ...Option) error {
	files, err := ctx.SourceFiles()
	if err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", " ")
	p := &writer{
		enc:  enc,
		now:  time.Now,
		user: os.Getenv("USER"),
		key:  1,
	}
	for _, o := range opts {
		o(p)
	}
	p.header(files)
	if err = ctx.Walk(p); err != nil {
		return err
	}
	p.end("UCIS")
	if p.err == nil {
		p.err = enc.Flush()
	}
	return errors.Wrap(p.err, "ucis")
}

// Save writes the coverage data of ctx to the named file.
//
func Save(name string, ctx *hw.Context, opts ...Option) (err error) {
	if name == "" {
		return errors.New("ucis: empty file name")
	}
	f, err := os.Create(name)
	if err != nil {
		return errors.Wrap(err, "ucis")
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "ucis")
		}
	}()
	b := bufio.NewWriter(f)
	if err = Write(b, ctx, opts...); err != nil {
		return err
	}
	return errors.Wrap(b.Flush(), "ucis")
}

// writer is a hwcov.Visitor emitting XML. The first encoding error sticks and
// turns all subsequent writes into no-ops.
type writer struct {
	enc  *xml.Encoder
	err  error
	now  func() time.Time
	user string
	key  int
}

type attrs []xml.Attr

func (a attrs) add(name, value string) attrs {
	return append(a, xml.Attr{Name: xml.Name{Local: name}, Value: value})
}

func (a attrs) int(name string, v int) attrs {
	return a.add(name, strconv.Itoa(v))
}

func (a attrs) uint(name string, v uint64) attrs {
	return a.add(name, strconv.FormatUint(v, 10))
}

func (a attrs) bool(name string, v bool) attrs {
	return a.add(name, strconv.FormatBool(v))
}

func (w *writer) token(t xml.Token) {
	if w.err == nil {
		w.err = w.enc.EncodeToken(t)
	}
}

func (w *writer) start(name string, a attrs) {
	w.token(xml.StartElement{Name: xml.Name{Local: name}, Attr: a})
}

func (w *writer) end(name string) {
	w.token(xml.EndElement{Name: xml.Name{Local: name}})
}

func (w *writer) empty(name string, a attrs) {
	w.start(name, a)
	w.end(name)
}

func (w *writer) text(name, s string) {
	w.start(name, nil)
	w.token(xml.CharData(s))
	w.end(name)
}

func (w *writer) nextKey() int {
	k := w.key
	w.key++
	return k
}

func (w *writer) source(name string, s hw.Source) {
	w.empty(name, attrs{}.int("file", s.File).int("line", s.Line).add("inlineCount", "1"))
}

func (w *writer) header(files []hw.SourceFile) {
	now := w.now().Format(TimeFormat)
	w.token(xml.ProcInst{Target: "xml", Inst: []byte(`version="1.0" encoding="UTF-8"`)})
	w.start("UCIS", attrs{}.
		add("xmlns", "UCIS").
		add("xmlns:ucis", "http://www.w3.org/2001/XMLSchema-instance").
		add("ucisVersion", "1.0").
		add("writtenBy", w.user).
		add("writtenTime", now))
	for _, f := range files {
		w.empty("sourceFiles", attrs{}.add("fileName", f.Name).int("id", f.ID))
	}
	w.empty("historyNodes", attrs{}.
		add("historyNodeId", "200").
		add("parentId", "200").
		add("logicalName", "string").
		add("physicalName", "string").
		add("testStatus", "true").
		add("date", now).
		add("userName", w.user).
		add("toolCategory", "string").
		add("ucisVersion", "1.0").
		add("vendorId", "string").
		add("vendorTool", "string").
		add("vendorToolVersion", "string"))
}

func (w *writer) VisitScope(n hw.ScopeNode) {
	a := attrs{}.
		add("name", n.Name()).
		add("moduleName", n.TypeName()).
		int("key", w.nextKey()).
		uint("instanceId", uint64(n.InstanceID()))
	if id, ok := n.ParentID(); ok {
		a = a.uint("parentInstanceId", uint64(id))
	}
	w.start("instanceCoverages", a)
	w.source("id", n.Source())

	types := n.Types()
	for _, tg := range types {
		started := false
		for _, g := range tg.Instances {
			if !g.Enabled() {
				continue
			}
			if !started {
				w.start("covergroupCoverage", attrs{}.uint("weight", uint64(tg.Option.Weight)))
				started = true
			}
			w.start("cgInstance", attrs{}.add("name", g.Name()).int("key", w.nextKey()).add("excluded", "false"))
			g.Accept(w)
			w.end("cgInstance")
		}
		if started {
			w.end("covergroupCoverage")
		}
	}
	for _, tg := range types {
		for _, g := range tg.Instances {
			if g.Enabled() {
				continue
			}
			w.start("userAttr", attrs{}.add("key", tg.Name).add("type", "str").int("len", len(tg.Name)))
			w.token(xml.CharData(tg.Name))
			w.end("userAttr")
		}
	}
	w.end("instanceCoverages")

	for _, s := range n.Scopes() {
		s.Accept(w)
	}
}

func (w *writer) VisitCovergroup(n hw.CovergroupNode) {
	o := n.Option()
	w.empty("options", attrs{}.
		uint("weight", uint64(o.Weight)).
		uint("goal", uint64(o.Goal)).
		add("comment", o.Comment).
		uint("at_least", o.AtLeast).
		uint("auto_bin_max", uint64(o.AutoBinMax)).
		bool("detect_overlap", o.DetectOverlap).
		uint("cross_num_print_missing", uint64(o.CrossNumPrintMissing)).
		bool("per_instance", o.PerInstance))
	inst, typ := n.Source()
	w.start("cgId", attrs{}.add("cgName", n.TypeName()).add("moduleName", n.ScopeTypeName()))
	w.source("cginstSourceId", inst)
	w.source("cgSourceId", typ)
	w.end("cgId")
	for _, it := range n.Items() {
		it.Accept(w)
	}
}

func (w *writer) VisitCoverpoint(n hw.CoverpointNode) {
	w.start("coverpoint", attrs{}.add("name", n.Name()).int("key", w.nextKey()).add("exprString", n.SampleExpr()))
	o := n.Option()
	w.empty("options", attrs{}.
		uint("weight", uint64(o.Weight)).
		uint("goal", uint64(o.Goal)).
		add("comment", o.Comment).
		uint("at_least", o.AtLeast).
		uint("auto_bin_max", uint64(o.AutoBinMax)).
		bool("detect_overlap", o.DetectOverlap))
	for _, b := range n.Bins() {
		b.Accept(w)
	}
	w.end("coverpoint")
}

func (w *writer) VisitBin(n hw.BinNode) {
	w.start("coverpointBin", attrs{}.add("name", n.Name()).int("key", w.nextKey()).add("type", n.Kind().String()))
	hits := n.Hits()
	for i := range n.Len() {
		lo, hi := n.Bounds(i)
		w.start("range", attrs{}.add("from", lo).add("to", hi))
		w.empty("contents", attrs{}.uint("coverageCount", hits[i]))
		w.end("range")
	}
	w.end("coverpointBin")
}

func (w *writer) VisitCross(n hw.CrossNode) {
	w.start("cross", attrs{}.add("name", n.Name()).int("key", w.nextKey()))
	o := n.Option()
	w.empty("options", attrs{}.
		uint("weight", uint64(o.Weight)).
		uint("goal", uint64(o.Goal)).
		add("comment", o.Comment).
		uint("at_least", o.AtLeast).
		uint("cross_num_print_missing", uint64(o.CrossNumPrintMissing)))
	for _, cp := range n.Coverpoints() {
		w.text("crossExpr", cp)
	}
	bins := n.Bins()
	if len(bins) == 0 {
		// never sampled
		w.start("crossBin", attrs{}.add("name", "").int("key", w.nextKey()).add("type", "ignore"))
		w.empty("contents", attrs{}.int("coverageCount", 0))
		w.end("crossBin")
	}
	for _, b := range bins {
		w.start("crossBin", attrs{}.add("name", "").int("key", w.nextKey()))
		for _, i := range b.Index {
			w.text("index", strconv.Itoa(i))
		}
		w.empty("contents", attrs{}.uint("coverageCount", b.Hits))
		w.end("crossBin")
	}
	w.end("cross")
}
