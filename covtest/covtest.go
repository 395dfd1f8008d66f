// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package covtest provides utility functions for testing coverage models.
//
package covtest

import (
	"testing"

	hw "github.com/db47h/hwcov"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pmezard/go-difflib/difflib"
)

// Tolerance is the maximum difference between two coverage percentages
// considered equal.
//
const Tolerance = 1e-9

var approx = cmpopts.EquateApprox(0, Tolerance)

// Diff returns a unified diff of want and got, or an empty string if they are
// equal.
//
func Diff(want, got string) string {
	if want == got {
		return ""
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  2,
	})
	if err != nil {
		return err.Error()
	}
	return diff
}

// AssertText reports a test error with a diff if got differs from want.
//
func AssertText(t testing.TB, want, got string) {
	t.Helper()
	if d := Diff(want, got); d != "" {
		t.Errorf("output mismatch:\n%s", d)
	}
}

// Coverer is implemented by every model object reporting its own coverage.
//
type Coverer interface {
	InstCoverage() (float64, error)
}

// Coverage returns the coverage of c, failing the test on error.
//
func Coverage(t testing.TB, c Coverer) float64 {
	t.Helper()
	pct, err := c.InstCoverage()
	if err != nil {
		t.Fatalf("%+v", err)
	}
	return pct
}

// EqualCoverage reports a test error if got is not approximately equal to
// want.
//
func EqualCoverage(t testing.TB, want, got float64, msg ...interface{}) {
	t.Helper()
	if !cmp.Equal(want, got, approx) {
		t.Errorf("coverage %v, expected %v %v", got, want, msg)
	}
}

// AssertCoverage checks the coverage of c.
//
func AssertCoverage(t testing.TB, want float64, c Coverer, msg ...interface{}) {
	t.Helper()
	EqualCoverage(t, want, Coverage(t, c), msg...)
}

// EqualCrossBins reports a test error with a diff if the hit tuples of a
// cross differ from want.
//
func EqualCrossBins(t testing.TB, want []hw.CrossBin, c *hw.Cross) {
	t.Helper()
	got, err := c.CrossBins()
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if d := cmp.Diff(want, got, cmpopts.EquateEmpty()); d != "" {
		t.Errorf("cross %s bins mismatch (-want +got):\n%s", c.Name(), d)
	}
}

// SampleValues samples each value of vs in turn, failing the test on error.
//
func SampleValues[T hw.Value](t testing.TB, cp *hw.Coverpoint[T], vs ...T) {
	t.Helper()
	for _, v := range vs {
		if err := cp.SampleValue(v); err != nil {
			t.Fatalf("sample %v: %+v", v, err)
		}
	}
}

// Sweep samples every value in r, from r.Lo to r.Hi. It stops at the first
// error.
//
func Sweep[T hw.Value](cp *hw.Coverpoint[T], r hw.Interval[T]) error {
	r = r.Normalize()
	for v := r.Lo; ; v++ {
		if err := cp.SampleValue(v); err != nil {
			return err
		}
		if v == r.Hi {
			return nil
		}
	}
}

// Drive sets each value of vs with set then samples cg, failing the test on
// error.
//
func Drive[T any](t testing.TB, cg *hw.Covergroup, set func(T), vs ...T) {
	t.Helper()
	for _, v := range vs {
		set(v)
		if err := cg.Sample(); err != nil {
			t.Fatalf("sample %v: %+v", v, err)
		}
	}
}
