// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package merkle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmptyTreeRootIsZero(t *testing.T) {
	tr := New()
	require.Equal(t, Hash{}, tr.Root())
}

func TestSingleLeafRootEqualsLeafHash(t *testing.T) {
	tr := New()
	h := tr.Insert([]byte("entry-1"))
	require.Equal(t, h, tr.Root())
}

func TestRootChangesWithEachInsert(t *testing.T) {
	tr := New()
	tr.Insert([]byte("a"))
	r1 := tr.Root()
	tr.Insert([]byte("b"))
	r2 := tr.Root()
	require.NotEqual(t, r1, r2)
}

func TestRootIsOrderSensitive(t *testing.T) {
	a := New()
	a.Insert([]byte("x"))
	a.Insert([]byte("y"))

	b := New()
	b.Insert([]byte("y"))
	b.Insert([]byte("x"))

	require.NotEqual(t, a.Root(), b.Root())
}

func TestStateRoundTrip(t *testing.T) {
	tr := New()
	for _, s := range []string{"a", "b", "c", "d", "e"} {
		tr.Insert([]byte(s))
	}

	restored, err := Restore(tr.State())
	require.NoError(t, err)
	require.Equal(t, tr.Root(), restored.Root())
	require.Equal(t, tr.Len(), restored.Len())
}

func TestRestoreRejectsMalformedState(t *testing.T) {
	_, err := Restore([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrMalformedState)

	_, err = Restore([]byte{0, 0, 0, 1, 1, 2, 3})
	require.ErrorIs(t, err, ErrMalformedState)
}

func TestLeafHashIsDomainSeparatedFromNodeHash(t *testing.T) {
	tr := New()
	h1 := tr.Insert([]byte("a"))
	tr.Insert([]byte("b"))
	root := tr.Root()
	require.NotEqual(t, h1, root)
}
