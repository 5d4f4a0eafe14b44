// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package manifest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildWhiteboxStableAcrossInsertionOrder(t *testing.T) {
	a := []WhiteboxFile{
		{Path: "artifacts/b.ply", SHA256: strings.Repeat("1", 64), Bytes: 10},
		{Path: "artifacts/a.ply", SHA256: strings.Repeat("2", 64), Bytes: 20},
	}
	b := []WhiteboxFile{a[1], a[0]}

	wa, err := BuildWhitebox(validPolicyHash(), a)
	require.NoError(t, err)
	wb, err := BuildWhitebox(validPolicyHash(), b)
	require.NoError(t, err)

	require.Equal(t, wa.ArtifactHash, wb.ArtifactHash)
	require.Equal(t, wa.ArtifactID, wb.ArtifactHash[:8])
}

func TestBuildWhiteboxRejectsEmptyFiles(t *testing.T) {
	_, err := BuildWhitebox(validPolicyHash(), nil)
	require.Error(t, err)
}

func TestBuildWhiteboxArtifactIDIsHashPrefix(t *testing.T) {
	w, err := BuildWhitebox(validPolicyHash(), []WhiteboxFile{{Path: "artifacts/a.ply", SHA256: strings.Repeat("3", 64), Bytes: 1}})
	require.NoError(t, err)
	require.Equal(t, w.ArtifactHash[:8], w.ArtifactID)
	require.Len(t, w.ArtifactID, 8)
}
