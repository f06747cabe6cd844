// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package migrate

import (
	"testing"

	"github.com/sourcegraph/go-diff/diff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreview(t *testing.T) {
	res := &Result{
		Path:     "src/a.ts",
		Status:   StatusRewritten,
		Original: "one\ntwo\nthree\nfour\nfive\nsix\nseven\neight\nnine\nten\n",
		Output:   "one\nTWO\nthree\nfour\nfive\nsix\nseven\neight\nnine\nten\neleven\n",
	}

	out, err := Preview(res)
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, "--- a/src/a.ts\n")
	assert.Contains(t, text, "+++ b/src/a.ts\n")
	assert.Contains(t, text, "-two\n+TWO\n")
	assert.Contains(t, text, "+eleven\n")

	// The printed diff parses back into two hunks.
	fd, err := diff.ParseFileDiff(out)
	require.NoError(t, err)
	require.Len(t, fd.Hunks, 2)
	assert.Equal(t, int32(1), fd.Hunks[0].OrigStartLine)
	assert.Equal(t, int32(5), fd.Hunks[0].OrigLines)
	assert.Equal(t, int32(8), fd.Hunks[1].OrigStartLine)
	assert.Equal(t, int32(3), fd.Hunks[1].OrigLines)
	assert.Equal(t, int32(4), fd.Hunks[1].NewLines)
}

func TestPreview_Unchanged(t *testing.T) {
	out, err := Preview(&Result{Path: "a.ts", Original: "x\n", Output: "x\n"})
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Nil(t, FileDiff(nil))
}

func TestPreview_Converted(t *testing.T) {
	res := &Result{Path: "b.ts", Original: buttonComponent, Output: buttonComponentConverted}
	fd := FileDiff(res)
	require.NotNil(t, fd)
	require.Len(t, fd.Hunks, 1)

	body := string(fd.Hunks[0].Body)
	assert.NotContains(t, body, "-import")
	assert.Contains(t, body, "+    'class.active': 'this.isActive',\n")
	assert.Contains(t, body, "-  @HostBinding('class.active') isActive = true;\n")
}

func TestPreviewAll(t *testing.T) {
	s := &Summary{Files: []FileReport{
		{Path: "a.ts", Result: &Result{Path: "a.ts", Original: "a\n", Output: "b\n"}},
		{Path: "b.ts", Result: &Result{Path: "b.ts", Original: "a\n", Output: "a\n"}},
		{Path: "c.ts", Err: ErrParse},
	}}
	out, err := PreviewAll(s)
	require.NoError(t, err)

	fds, err := diff.ParseMultiFileDiff(out)
	require.NoError(t, err)
	require.Len(t, fds, 1)
	assert.Equal(t, "a/a.ts", fds[0].OrigName)

	out, err = PreviewAll(&Summary{})
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestSplitLines(t *testing.T) {
	assert.Empty(t, splitLines(""))
	assert.Equal(t, []string{"a\n", "b"}, splitLines("a\nb"))
	assert.Equal(t, []string{"a\n", "b\n"}, splitLines("a\nb\n"))
}
