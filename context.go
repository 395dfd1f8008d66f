// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwcov

import (
	"io"
	"os"
	"runtime"

	"github.com/db47h/hwcov/internal/arena"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stephens2424/writerset"
)

// Default scope names.
//
const (
	DefaultScopeType = "default_scope"
	DefaultScopeName = "$root"
)

// Config holds the configuration of a Context.
//
type Config struct {
	// Only log illegal samples and keep sampling. By default, Covergroup.Sample
	// logs them and returns an IllegalSampleError.
	ContinueOnIllegal bool `yaml:"continue_on_illegal"`
	// Log level. The zero value, logrus.PanicLevel, selects logrus.WarnLevel.
	// Use an io.Discard Output to silence the log.
	LogLevel logrus.Level `yaml:"log_level"`
	// Initial log output. Defaults to os.Stderr. More writers can be added
	// with AddLogWriter.
	Output io.Writer `yaml:"-"`
}

// DefaultConfig returns the default configuration. It behaves like the zero
// Config.
//
func DefaultConfig() Config {
	return Config{LogLevel: logrus.WarnLevel, Output: os.Stderr}
}

// A Context owns a coverage model: scopes, covergroups, coverpoints, crosses
// and their bins. Handles to these objects are only valid until the context
// is closed.
//
// A Context is not safe for concurrent use.
//
type Context struct {
	cfg    Config
	log    *logrus.Logger
	out    *writerset.WriterSet
	closed bool

	scopes arena.Arena[scopeRecord]
	groups arena.Arena[groupRecord]
	items  arena.Arena[item]

	root     children
	defScope *Scope
	types    []*groupType
	typeIdx  map[typeKey]*groupType
	files    []SourceFile
	fileIDs  map[string]int
	key      uint
}

type typeKey struct {
	scope, group string
}

// groupType holds the data shared by the instances of a covergroup type in
// scopes of a given type.
type groupType struct {
	name      string
	scopeType string
	option    TypeOption
	insts     []arena.Handle
	src       Source
}

// New returns a new empty context. Unset fields of cfg take their default
// value.
//
func New(cfg Config) *Context {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	if cfg.LogLevel == logrus.PanicLevel {
		cfg.LogLevel = logrus.WarnLevel
	}
	ctx := &Context{
		cfg:     cfg,
		out:     writerset.New(),
		typeIdx: make(map[typeKey]*groupType),
		fileIDs: make(map[string]int),
		key:     1,
	}
	ctx.root.init()
	ctx.out.Add(cfg.Output)
	ctx.log = &logrus.Logger{
		Out:       ctx.out,
		Formatter: &logrus.TextFormatter{DisableTimestamp: true},
		Hooks:     make(logrus.LevelHooks),
		Level:     cfg.LogLevel,
		ExitFunc:  os.Exit,
	}
	return ctx
}

// Close deletes all the coverage data held by the context. Any subsequent
// call on a handle obtained from the context fails with ErrDataDeleted.
//
func (ctx *Context) Close() {
	if ctx.closed {
		return
	}
	ctx.closed = true
	ctx.items.Reset()
	ctx.groups.Reset()
	ctx.scopes.Reset()
	ctx.root.init()
	ctx.defScope = nil
	ctx.types = nil
	ctx.typeIdx = nil
}

// Config returns the context configuration.
//
func (ctx *Context) Config() Config {
	return ctx.cfg
}

// Logger returns the context logger.
//
func (ctx *Context) Logger() *logrus.Logger {
	return ctx.log
}

// AddLogWriter adds w to the set of log outputs. If a write to w fails, w is
// removed from the set and the error is sent on the returned channel.
//
func (ctx *Context) AddLogWriter(w io.Writer) <-chan error {
	return ctx.out.Add(w)
}

// RemoveLogWriter removes w from the set of log outputs. The channel returned
// by AddLogWriter for w may be closed without an error being sent.
//
func (ctx *Context) RemoveLogWriter(w io.Writer) {
	ctx.out.Remove(w)
}

func (ctx *Context) check() error {
	if ctx.closed {
		return errors.WithStack(ErrDataDeleted)
	}
	return nil
}

func (ctx *Context) item(h arena.Handle) (item, error) {
	p, err := ctx.items.Get(h)
	if err != nil {
		return nil, deleted(err)
	}
	return *p, nil
}

func (ctx *Context) group(h arena.Handle) (*groupRecord, error) {
	p, err := ctx.groups.Get(h)
	if err != nil {
		return nil, deleted(err)
	}
	return p, nil
}

func (ctx *Context) scope(h arena.Handle) (*scopeRecord, error) {
	p, err := ctx.scopes.Get(h)
	if err != nil {
		return nil, deleted(err)
	}
	return p, nil
}

func (ctx *Context) nextKey() uint {
	k := ctx.key
	ctx.key++
	return k
}

// fileID returns the id of file name in the source file table.
func (ctx *Context) fileID(name string) int {
	if id, ok := ctx.fileIDs[name]; ok {
		return id
	}
	id := int(ctx.nextKey())
	ctx.fileIDs[name] = id
	ctx.files = append(ctx.files, SourceFile{ID: id, Name: name})
	return id
}

// callerLine returns the file and line of the caller of an exported
// constructor. skip is the number of frames above the constructor.
func callerLine(skip int) (string, int) {
	_, file, line, ok := runtime.Caller(skip + 2)
	if !ok {
		return "unknown", 1
	}
	return file, line
}

// caller is like callerLine and registers the file in the source file table.
func (ctx *Context) caller(skip int) Source {
	file, line := callerLine(skip + 1)
	return Source{File: ctx.fileID(file), Line: line}
}

// SourceFiles returns the source file table, in order of registration.
//
func (ctx *Context) SourceFiles() ([]SourceFile, error) {
	if err := ctx.check(); err != nil {
		return nil, err
	}
	fs := make([]SourceFile, len(ctx.files))
	copy(fs, ctx.files)
	return fs, nil
}

// groupType returns the type record for covergroup type name in scopes of
// type scopeType, creating it if needed.
func (ctx *Context) groupType(scopeType, name string, src Source) *groupType {
	k := typeKey{scopeType, name}
	if t, ok := ctx.typeIdx[k]; ok {
		return t
	}
	t := &groupType{name: name, scopeType: scopeType, option: DefaultTypeOption(), src: src}
	ctx.typeIdx[k] = t
	ctx.types = append(ctx.types, t)
	return t
}

func (ctx *Context) lookupType(scopeType, name string) (*groupType, error) {
	if err := ctx.check(); err != nil {
		return nil, err
	}
	t, ok := ctx.typeIdx[typeKey{scopeType, name}]
	if !ok {
		return nil, errors.WithStack(&NotFoundError{Kind: "covergroup type", Name: name, Parent: scopeType})
	}
	return t, nil
}

// typeGroups returns the visitor view of the given types. If keep is not nil,
// instances it rejects are left out, along with types left empty.
func (ctx *Context) typeGroups(ts []*groupType, keep func(*groupRecord) bool) []TypeGroup {
	tgs := make([]TypeGroup, 0, len(ts))
	for _, t := range ts {
		tg := TypeGroup{Name: t.name, ScopeType: t.scopeType, Option: t.option}
		for _, h := range t.insts {
			g, err := ctx.group(h)
			if err != nil || keep != nil && !keep(g) {
				continue
			}
			tg.Instances = append(tg.Instances, &groupNode{ctx: ctx, rec: g})
		}
		if keep == nil || len(tg.Instances) > 0 {
			tgs = append(tgs, tg)
		}
	}
	return tgs
}

// Coverage returns the global coverage: the weighted average of the coverage
// of all covergroup types, weighted by type weight.
//
func (ctx *Context) Coverage() (float64, error) {
	pct, _, _, err := ctx.CoverageCounts()
	return pct, err
}

// CoverageCounts returns the global coverage along with the number of covered
// bins and the total number of bins over all enabled covergroup instances.
//
func (ctx *Context) CoverageCounts() (pct float64, covered, total int, err error) {
	if err = ctx.check(); err != nil {
		return 0, 0, 0, err
	}
	var c coverageVisitor
	pct = c.types(ctx.typeGroups(ctx.types, nil))
	return pct, c.covered, c.total, nil
}

// TypeCoverage returns the coverage of covergroup type cgType over all its
// enabled instances in scopes of type scopeType.
//
func (ctx *Context) TypeCoverage(scopeType, cgType string) (float64, error) {
	pct, _, _, err := ctx.TypeCoverageCounts(scopeType, cgType)
	return pct, err
}

// TypeCoverageCounts is like TypeCoverage and also returns covered and total
// bin counts.
//
func (ctx *Context) TypeCoverageCounts(scopeType, cgType string) (pct float64, covered, total int, err error) {
	t, err := ctx.lookupType(scopeType, cgType)
	if err != nil {
		return 0, 0, 0, err
	}
	var c coverageVisitor
	pct = c.typeGroup(ctx.typeGroups([]*groupType{t}, nil)[0])
	return pct, c.covered, c.total, nil
}

// TypeOption returns the type options of covergroup type cgType in scopes of
// type scopeType.
//
func (ctx *Context) TypeOption(scopeType, cgType string) (TypeOption, error) {
	t, err := ctx.lookupType(scopeType, cgType)
	if err != nil {
		return TypeOption{}, err
	}
	return t.option, nil
}

// SetTypeOption replaces the type options of covergroup type cgType in scopes
// of type scopeType.
//
func (ctx *Context) SetTypeOption(scopeType, cgType string, opt TypeOption) error {
	t, err := ctx.lookupType(scopeType, cgType)
	if err != nil {
		return err
	}
	t.option = opt
	return nil
}

// Walk calls s.Accept(v) for every top level scope, in creation order.
//
func (ctx *Context) Walk(v Visitor) error {
	ss, err := ctx.Scopes()
	if err != nil {
		return err
	}
	for _, s := range ss {
		r, err := s.record()
		if err != nil {
			return err
		}
		(&scopeNode{ctx: ctx, rec: r}).Accept(v)
	}
	return nil
}
