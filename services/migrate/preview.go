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
	"bytes"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sourcegraph/go-diff/diff"
)

// PreviewContext is the number of unchanged lines around each hunk.
const PreviewContext = 3

// Preview renders the change of one Result as a unified diff.
//
// Description:
//
//	Line matching uses difflib's sequence matcher; each group of nearby
//	changes becomes one diff.Hunk with PreviewContext lines of context.
//	The diff is printed by go-diff so it can be piped into `patch -p1` or
//	`git apply`. An unchanged result yields nil.
//
// Outputs:
//   - []byte: The unified diff, or nil when nothing changed.
//   - error: Non-nil if the diff cannot be printed.
func Preview(res *Result) ([]byte, error) {
	fd := FileDiff(res)
	if fd == nil {
		return nil, nil
	}
	out, err := diff.PrintFileDiff(fd)
	if err != nil {
		return nil, fmt.Errorf("printing diff for %s: %w", res.Path, err)
	}
	return out, nil
}

// PreviewAll concatenates the diffs of every changed result in s.
func PreviewAll(s *Summary) ([]byte, error) {
	var fds []*diff.FileDiff
	for _, fr := range s.Files {
		if fr.Result == nil {
			continue
		}
		if fd := FileDiff(fr.Result); fd != nil {
			fds = append(fds, fd)
		}
	}
	if len(fds) == 0 {
		return nil, nil
	}
	return diff.PrintMultiFileDiff(fds)
}

// FileDiff builds the go-diff representation of a Result's change.
// Returns nil when the result did not change the file.
func FileDiff(res *Result) *diff.FileDiff {
	if res == nil || res.Original == res.Output {
		return nil
	}
	a, b := splitLines(res.Original), splitLines(res.Output)

	fd := &diff.FileDiff{
		OrigName: "a/" + strings.TrimPrefix(res.Path, "/"),
		NewName:  "b/" + strings.TrimPrefix(res.Path, "/"),
	}
	matcher := difflib.NewMatcher(a, b)
	for _, group := range matcher.GetGroupedOpCodes(PreviewContext) {
		fd.Hunks = append(fd.Hunks, hunk(a, b, group))
	}
	return fd
}

// hunk converts one group of opcodes into a diff.Hunk.
func hunk(a, b []string, group []difflib.OpCode) *diff.Hunk {
	first, last := group[0], group[len(group)-1]
	h := &diff.Hunk{
		OrigStartLine: int32(first.I1) + 1,
		OrigLines:     int32(last.I2 - first.I1),
		NewStartLine:  int32(first.J1) + 1,
		NewLines:      int32(last.J2 - first.J1),
	}
	// Unified diff convention: an empty range starts at the line before it.
	if h.OrigLines == 0 {
		h.OrigStartLine--
	}
	if h.NewLines == 0 {
		h.NewStartLine--
	}

	var body bytes.Buffer
	write := func(prefix byte, lines []string) {
		for _, l := range lines {
			body.WriteByte(prefix)
			body.WriteString(l)
			if !strings.HasSuffix(l, "\n") {
				body.WriteString("\n\\ No newline at end of file\n")
			}
		}
	}
	for _, op := range group {
		switch op.Tag {
		case 'e':
			write(' ', a[op.I1:op.I2])
		case 'd':
			write('-', a[op.I1:op.I2])
		case 'i':
			write('+', b[op.J1:op.J2])
		case 'r':
			write('-', a[op.I1:op.I2])
			write('+', b[op.J1:op.J2])
		}
	}
	h.Body = body.Bytes()
	return h
}

// splitLines splits s into lines, each keeping its line terminator.
func splitLines(s string) []string {
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
