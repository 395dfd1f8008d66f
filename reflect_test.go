package hwcov_test

import (
	"testing"

	hw "github.com/db47h/hwcov"
	"github.com/db47h/hwcov/covtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type packet struct {
	Kind   uint8 `cov:"kind"`
	Length int   `cov:""`
	Data   []byte
}

func TestBindFields(t *testing.T) {
	tpl := hw.NewTemplate("packet", nil)
	check(t, hw.AddCoverpoint(tpl, hw.CoverpointSpec[uint8]{
		Name: "kind",
		Bins: []hw.BinSpec[uint8]{hw.BinArrayValues[uint8]("k", 0, 1, 2)},
	}))
	check(t, hw.AddCoverpoint(tpl, hw.CoverpointSpec[int]{
		Name: "Length",
		Bins: []hw.BinSpec[int]{hw.Bin("short", hw.Range(0, 63)), hw.Bin("long", hw.Range(64, 1500))},
	}))
	ctx, _ := newContext(t, true)
	s, err := ctx.DefaultScope()
	check(t, err)
	cg, err := tpl.Instantiate(s, "")
	check(t, err)

	var p packet
	require.NoError(t, hw.BindFields(cg, &p))
	for _, v := range []packet{{0, 10, nil}, {2, 100, nil}, {1, 1000, nil}} {
		p = v
		sample(t, cg)
	}
	covtest.AssertCoverage(t, 100, cg)
	cp, err := hw.LookupCoverpoint[int](cg, "Length")
	check(t, err)
	assert.Equal(t, []uint64{2}, hits(t, cp, 1))

	assert.Error(t, hw.BindFields(cg, p))
	assert.Error(t, hw.BindFields(cg, &p), "already bound")
	bad := struct {
		Name string `cov:"kind"`
	}{}
	cg2, err := tpl.Instantiate(s, "")
	check(t, err)
	assert.Error(t, hw.BindFields(cg2, &bad))
	missing := struct {
		X int `cov:"x"`
	}{}
	assert.Error(t, hw.BindFields(cg2, &missing))
}
