package hwcov_test

import (
	"bytes"
	"testing"

	hw "github.com/db47h/hwcov"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func trace(t *testing.T, err error) {
	t.Helper()
	if err, ok := err.(interface {
		StackTrace() errors.StackTrace
	}); ok {
		for _, f := range err.StackTrace() {
			t.Logf("%+v ", f)
		}
	}
}

// check fails the test with a stack trace if err is not nil.
func check(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		trace(t, err)
		t.Fatal(err)
	}
}

// newContext returns a new context logging to the returned buffer.
func newContext(t *testing.T, abort bool) (*hw.Context, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	ctx := hw.New(hw.Config{ContinueOnIllegal: !abort, LogLevel: logrus.WarnLevel, Output: &buf})
	t.Cleanup(ctx.Close)
	return ctx, &buf
}

func newGroup(t *testing.T, ctx *hw.Context, typ string) *hw.Covergroup {
	t.Helper()
	cg, err := ctx.NewCovergroup(typ, "", nil)
	check(t, err)
	return cg
}

func newCoverpoint[T hw.Value](t *testing.T, cg *hw.Covergroup, spec hw.CoverpointSpec[T]) *hw.Coverpoint[T] {
	t.Helper()
	cp, err := hw.NewCoverpoint(cg, spec)
	check(t, err)
	return cp
}

func coverage(t *testing.T, c interface{ InstCoverage() (float64, error) }) float64 {
	t.Helper()
	pct, err := c.InstCoverage()
	check(t, err)
	return pct
}

func sample(t *testing.T, cg *hw.Covergroup) {
	t.Helper()
	check(t, cg.Sample())
}

func hits[T hw.Value](t *testing.T, cp *hw.Coverpoint[T], bin int) []uint64 {
	t.Helper()
	bs, err := cp.Bins()
	check(t, err)
	require.Less(t, bin, len(bs))
	h, err := bs[bin].Hits()
	check(t, err)
	return h
}
