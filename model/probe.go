// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package model

import (
	hw "github.com/db47h/hwcov"
	"github.com/pkg/errors"
)

// A Probe holds the current values of the coverpoints of a covergroup
// instance built from a model.
//
type Probe struct {
	cg   *hw.Covergroup
	vals map[string]*int64
}

// NewProbe binds the sample expression of every coverpoint in cg to a value
// held by the returned Probe. Values start at 0.
//
func NewProbe(cg *hw.Covergroup) (*Probe, error) {
	names, err := cg.Items()
	if err != nil {
		return nil, err
	}
	p := &Probe{cg: cg, vals: make(map[string]*int64, len(names))}
	for _, n := range names {
		if _, err = cg.Cross(n); err == nil {
			continue
		}
		v := new(int64)
		if err = hw.BindSample(cg, n, func() int64 { return *v }); err != nil {
			return nil, err
		}
		p.vals[n] = v
	}
	return p, nil
}

// Covergroup returns the covergroup driven by p.
//
func (p *Probe) Covergroup() *hw.Covergroup { return p.cg }

// Set sets the value of coverpoint cvp. It is sampled on the next call to
// Sample.
//
func (p *Probe) Set(cvp string, v int64) error {
	ptr, ok := p.vals[cvp]
	if !ok {
		return errors.WithStack(&hw.NotFoundError{Kind: "coverpoint", Name: cvp, Parent: p.cg.Name()})
	}
	*ptr = v
	return nil
}

// Sample samples the covergroup.
//
func (p *Probe) Sample() error {
	return p.cg.Sample()
}
