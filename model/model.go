// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package model loads coverage models described in YAML.
//
// A model lists covergroup types, a scope hierarchy and the covergroup
// instances to create in it:
//
//	config:
//	  continue_on_illegal: true
//	  log_level: warn
//	covergroups:
//	  - type: alu
//	    option: {goal: 90}
//	    coverpoints:
//	      - name: op
//	        bins:
//	          - {name: add, ranges: "0"}
//	          - {name: ops, array: {count: 3, range: "1..3"}}
//	          - {name: bad, kind: illegal, ranges: "7"}
//	      - name: a
//	        auto: "-128..127"
//	    crosses:
//	      - {name: op_x_a, coverpoints: [op, a]}
//	scopes:
//	  - name: tb
//	    scopes: [{name: agent}]
//	instances:
//	  - {scope: tb/agent, covergroup: alu, name: alu0}
//
// Coverpoints sample int64 values. Range expressions use the syntax of
// binlib.Intervals.
//
package model

import (
	"io"
	"os"
	"strings"

	hw "github.com/db47h/hwcov"
	"github.com/db47h/hwcov/binlib"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Model is a decoded YAML model.
//
type Model struct {
	Config      hw.Config       `yaml:"config"`
	Covergroups []CovergroupDef `yaml:"covergroups"`
	Scopes      []ScopeDef      `yaml:"scopes"`
	Instances   []InstanceDef   `yaml:"instances"`
}

// CovergroupDef describes a covergroup type. Missing options take their
// default values.
//
type CovergroupDef struct {
	Type        string          `yaml:"type"`
	Option      yaml.Node       `yaml:"option"`
	TypeOption  yaml.Node       `yaml:"type_option"`
	Coverpoints []CoverpointDef `yaml:"coverpoints"`
	Crosses     []CrossDef      `yaml:"crosses"`
}

// CoverpointDef describes a coverpoint. Auto is a range for which automatic
// bins are created. It is ignored if Bins is not empty.
//
type CoverpointDef struct {
	Name           string    `yaml:"name"`
	Option         yaml.Node `yaml:"option"`
	StopOnFirstHit bool      `yaml:"stop_on_first_hit"`
	Expr           string    `yaml:"expr"`
	Auto           string    `yaml:"auto"`
	Bins           []BinDef  `yaml:"bins"`
}

// BinDef describes a bin or a bin array. Kind is one of default, illegal or
// ignore, and defaults to default.
//
type BinDef struct {
	Name   string    `yaml:"name"`
	Kind   string    `yaml:"kind"`
	Ranges string    `yaml:"ranges"`
	Array  *ArrayDef `yaml:"array"`
}

// ArrayDef describes a bin array. With a non-zero Count, Range must hold a
// single interval which is split into Count bins. Otherwise one bin is
// created per interval in Range.
//
type ArrayDef struct {
	Count uint64 `yaml:"count"`
	Range string `yaml:"range"`
}

// CrossDef describes a cross of coverpoints of the same covergroup.
//
type CrossDef struct {
	Name        string    `yaml:"name"`
	Option      yaml.Node `yaml:"option"`
	Coverpoints []string  `yaml:"coverpoints"`
}

// ScopeDef describes a scope instance and its children. Type defaults to
// Name.
//
type ScopeDef struct {
	Name   string     `yaml:"name"`
	Type   string     `yaml:"type"`
	Scopes []ScopeDef `yaml:"scopes"`
}

// InstanceDef describes a covergroup instance. Scope is a slash separated
// path of scope names. An empty Scope designates the default scope.
//
type InstanceDef struct {
	Scope      string `yaml:"scope"`
	Covergroup string `yaml:"covergroup"`
	Name       string `yaml:"name"`
	Disabled   bool   `yaml:"disabled"`
}

// Load decodes a model from r. Unknown fields are rejected.
//
func Load(r io.Reader) (*Model, error) {
	m := &Model{Config: hw.DefaultConfig()}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(m); err != nil {
		if err == io.EOF {
			return nil, errors.New("model: empty input")
		}
		return nil, errors.Wrap(err, "model")
	}
	return m, nil
}

// LoadFile decodes the named model file.
//
func LoadFile(name string) (*Model, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "model")
	}
	defer f.Close()
	m, err := Load(f)
	return m, errors.Wrap(err, name)
}

// Build creates a new context holding the model scopes and covergroup
// instances. It also returns the covergroup templates by type name. Sample
// expressions of the instances are left unbound; see NewProbe.
//
func (m *Model) Build() (*hw.Context, map[string]*hw.Template, error) {
	tpls := make(map[string]*hw.Template, len(m.Covergroups))
	typeOpts := make(map[string]*hw.TypeOption, len(m.Covergroups))
	for i := range m.Covergroups {
		d := &m.Covergroups[i]
		if d.Type == "" {
			return nil, nil, errors.Errorf("model: covergroup #%d: empty type name", i)
		}
		if _, ok := tpls[d.Type]; ok {
			return nil, nil, errors.WithStack(&hw.DuplicateError{Kind: "covergroup type", Name: d.Type, Parent: "model"})
		}
		t, err := d.template()
		if err != nil {
			return nil, nil, errors.Wrapf(err, "model: covergroup %s", d.Type)
		}
		tpls[d.Type] = t
		if !d.TypeOption.IsZero() {
			opt := hw.DefaultTypeOption()
			if err = d.TypeOption.Decode(&opt); err != nil {
				return nil, nil, errors.Wrapf(err, "model: covergroup %s", d.Type)
			}
			typeOpts[d.Type] = &opt
		}
	}

	ctx := hw.New(m.Config)
	if err := m.build(ctx, tpls, typeOpts); err != nil {
		ctx.Close()
		return nil, nil, errors.Wrap(err, "model")
	}
	return ctx, tpls, nil
}

func (m *Model) build(ctx *hw.Context, tpls map[string]*hw.Template, typeOpts map[string]*hw.TypeOption) error {
	for _, d := range m.Scopes {
		s, err := ctx.NewScope(d.typeName(), d.Name)
		if err != nil {
			return err
		}
		if err = d.children(s); err != nil {
			return err
		}
	}
	for _, d := range m.Instances {
		t, ok := tpls[d.Covergroup]
		if !ok {
			return errors.WithStack(&hw.NotFoundError{Kind: "covergroup type", Name: d.Covergroup, Parent: "model"})
		}
		s, err := lookupScope(ctx, d.Scope)
		if err != nil {
			return err
		}
		cg, err := t.Instantiate(s, d.Name)
		if err != nil {
			return err
		}
		if d.Disabled {
			if err = cg.Disable(); err != nil {
				return err
			}
		}
		if opt := typeOpts[d.Covergroup]; opt != nil {
			if err = cg.SetTypeOption(*opt); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *ScopeDef) typeName() string {
	if d.Type == "" {
		return d.Name
	}
	return d.Type
}

func (d *ScopeDef) children(s *hw.Scope) error {
	for _, c := range d.Scopes {
		cs, err := s.NewScope(c.typeName(), c.Name)
		if err != nil {
			return err
		}
		if err = c.children(cs); err != nil {
			return err
		}
	}
	return nil
}

func lookupScope(ctx *hw.Context, path string) (*hw.Scope, error) {
	if path == "" {
		return ctx.DefaultScope()
	}
	elems := strings.Split(path, "/")
	s, err := ctx.Scope(elems[0])
	for _, e := range elems[1:] {
		if err != nil {
			break
		}
		s, err = s.Scope(e)
	}
	return s, err
}

// decodeOption decodes n over dst. dst is left untouched if n is empty.
func decodeOption(n *yaml.Node, dst any) error {
	if n.IsZero() {
		return nil
	}
	return n.Decode(dst)
}

func (d *CovergroupDef) template() (*hw.Template, error) {
	opt := hw.DefaultCovergroupOption()
	if err := decodeOption(&d.Option, &opt); err != nil {
		return nil, err
	}
	t := hw.NewTemplate(d.Type, &opt)
	for i := range d.Coverpoints {
		spec, err := d.Coverpoints[i].spec()
		if err != nil {
			return nil, err
		}
		if err = hw.AddCoverpoint(t, spec); err != nil {
			return nil, err
		}
	}
	for _, c := range d.Crosses {
		opt := hw.DefaultCrossOption()
		if err := decodeOption(&c.Option, &opt); err != nil {
			return nil, errors.Wrapf(err, "cross %s", c.Name)
		}
		if err := t.AddCross(c.Name, &opt, c.Coverpoints...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (d *CoverpointDef) spec() (hw.CoverpointSpec[int64], error) {
	opt := hw.DefaultCoverpointOption()
	if err := decodeOption(&d.Option, &opt); err != nil {
		return hw.CoverpointSpec[int64]{}, errors.Wrapf(err, "coverpoint %s", d.Name)
	}
	spec := hw.CoverpointSpec[int64]{
		Name:           d.Name,
		Option:         &opt,
		SampleExpr:     d.Expr,
		StopOnFirstHit: d.StopOnFirstHit,
	}
	if len(d.Bins) == 0 {
		b, err := d.auto(opt)
		if err != nil {
			return spec, errors.Wrapf(err, "coverpoint %s", d.Name)
		}
		spec.Bins = []hw.BinSpec[int64]{b}
		return spec, nil
	}
	for _, b := range d.Bins {
		bs, err := b.spec()
		if err != nil {
			return spec, errors.Wrapf(err, "coverpoint %s", d.Name)
		}
		spec.Bins = append(spec.Bins, bs)
	}
	return spec, nil
}

func (d *CoverpointDef) auto(opt hw.CoverpointOption) (hw.BinSpec[int64], error) {
	if d.Auto == "" {
		return binlib.AutoFor[int64](opt), nil
	}
	ivs, err := binlib.Intervals[int64](d.Auto)
	if err != nil {
		return hw.BinSpec[int64]{}, err
	}
	if len(ivs) != 1 {
		return hw.BinSpec[int64]{}, errors.Errorf("auto bins: %q must be a single range", d.Auto)
	}
	return binlib.Auto(opt.AutoBinMax, ivs[0]), nil
}

var kinds = map[string]hw.BinKind{
	"":        hw.Regular,
	"default": hw.Regular,
	"illegal": hw.Illegal,
	"ignore":  hw.Ignore,
}

func (d *BinDef) spec() (hw.BinSpec[int64], error) {
	kind, ok := kinds[d.Kind]
	if !ok {
		return hw.BinSpec[int64]{}, errors.Errorf("bin %s: unknown kind %q", d.Name, d.Kind)
	}
	if d.Array == nil {
		return binlib.Parse[int64](d.Name, kind, d.Ranges)
	}
	if d.Ranges != "" {
		return hw.BinSpec[int64]{}, errors.Errorf("bin %s: ranges and array are mutually exclusive", d.Name)
	}
	ivs, err := binlib.Intervals[int64](d.Array.Range)
	if err != nil {
		return hw.BinSpec[int64]{}, errors.Wrapf(err, "bin %s", d.Name)
	}
	if d.Array.Count == 0 {
		return hw.BinArrayOf(d.Name, ivs...).As(kind), nil
	}
	if len(ivs) != 1 {
		return hw.BinSpec[int64]{}, errors.Errorf("bin %s: array with a count needs a single range", d.Name)
	}
	return hw.BinArray(d.Name, d.Array.Count, ivs[0]).As(kind), nil
}
