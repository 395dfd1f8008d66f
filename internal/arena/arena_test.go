package arena_test

import (
	"testing"

	"github.com/db47h/hwcov/internal/arena"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArena(t *testing.T) {
	var a arena.Arena[int]
	var hs []arena.Handle
	for i := range 100 {
		hs = append(hs, a.New(i))
	}
	assert.Equal(t, 100, a.Len())
	for i, h := range hs {
		v, err := a.Get(h)
		require.NoError(t, err)
		assert.Equal(t, i, *v)
	}

	// pointers are stable across growth
	p, err := a.Get(hs[3])
	require.NoError(t, err)
	for i := range 1000 {
		a.New(i)
	}
	assert.Equal(t, 3, *p)
}

func TestArena_stale(t *testing.T) {
	var a arena.Arena[string]
	h := a.New("foo")
	require.NoError(t, a.Free(h))

	_, err := a.Get(h)
	assert.True(t, errors.Is(err, arena.ErrStale))
	assert.Error(t, a.Free(h))

	// the slot is reused with a new generation
	h2 := a.New("bar")
	_, err = a.Get(h)
	assert.True(t, errors.Is(err, arena.ErrStale))
	v, err := a.Get(h2)
	require.NoError(t, err)
	assert.Equal(t, "bar", *v)

	_, err = a.Get(arena.Handle{})
	assert.True(t, errors.Is(err, arena.ErrStale))
}

func TestArena_Reset(t *testing.T) {
	var a arena.Arena[int]
	hs := []arena.Handle{a.New(1), a.New(2), a.New(3)}
	a.Reset()
	assert.Equal(t, 0, a.Len())
	for _, h := range hs {
		_, err := a.Get(h)
		assert.Error(t, err)
	}
	h := a.New(4)
	v, err := a.Get(h)
	require.NoError(t, err)
	assert.Equal(t, 4, *v)
}
