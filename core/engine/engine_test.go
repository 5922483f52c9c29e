package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOne(t *testing.T) {
	t.Run("exactly one", func(t *testing.T) {
		e := &Stub{}
		got, err := One(&StubStream{Engines: []Engine{e}})
		require.NoError(t, err)
		require.Same(t, Engine(e), got)
	})

	t.Run("empty stream", func(t *testing.T) {
		_, err := One(&StubStream{})
		require.ErrorIs(t, err, ErrNotExactlyOne)
	})

	t.Run("surplus engines are closed", func(t *testing.T) {
		a, b := &Stub{}, &Stub{}
		_, err := One(&StubStream{Engines: []Engine{a, b}})
		require.ErrorIs(t, err, ErrNotExactlyOne)
		require.True(t, a.Closed())
		require.True(t, b.Closed())
	})
}

func TestStubStream_closeEndsIteration(t *testing.T) {
	s := &StubStream{Engines: []Engine{&Stub{}, &Stub{}}}
	_, ok := s.Next()
	require.True(t, ok)
	require.NoError(t, s.Close())
	_, ok = s.Next()
	require.False(t, ok)
}
