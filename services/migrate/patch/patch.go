// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package patch records byte-range edits against an immutable source and
// applies them in one pass.
//
// Edits never see each other: every offset refers to the original source, so
// removing several decorators from the same class body cannot invalidate the
// offsets of the remaining ones.
package patch

import (
	"errors"
	"fmt"
	"sort"
)

// ErrOverlap is returned by Apply when two edits touch the same bytes.
var ErrOverlap = errors.New("overlapping edits")

// Edit replaces Source[Start:End] with Text. Start == End is an insertion.
type Edit struct {
	Start int
	End   int
	Text  string
}

// IsInsert reports whether the edit only inserts text.
func (e Edit) IsInsert() bool {
	return e.Start == e.End
}

// Set is an ordered collection of edits.
//
// Insertions at the same offset are applied in the order they were added.
// The zero value is ready to use.
type Set struct {
	edits []Edit
}

// Insert adds text at offset.
func (s *Set) Insert(offset int, text string) {
	s.edits = append(s.edits, Edit{Start: offset, End: offset, Text: text})
}

// Delete removes [start, end).
func (s *Set) Delete(start, end int) {
	s.edits = append(s.edits, Edit{Start: start, End: end})
}

// Replace substitutes text for [start, end).
func (s *Set) Replace(start, end int, text string) {
	s.edits = append(s.edits, Edit{Start: start, End: end, Text: text})
}

// Append adds all edits of other after the edits already in s.
func (s *Set) Append(other *Set) {
	if other == nil {
		return
	}
	s.edits = append(s.edits, other.edits...)
}

// Len returns the number of edits.
func (s *Set) Len() int {
	return len(s.edits)
}

// Edits returns a copy of the edits in insertion order.
func (s *Set) Edits() []Edit {
	return append([]Edit(nil), s.edits...)
}

// Apply applies edits to src and returns the new content.
//
// Description:
//
//	Edits are ordered by start offset; at equal offsets insertions come
//	before replacements and otherwise keep the order they were added in.
//	Bytes outside every edit are copied verbatim. An edit that starts inside
//	the range of a previous replacement is rejected with ErrOverlap.
//
// Outputs:
//   - []byte: A new slice; src is never modified.
//   - error: ErrOverlap or an out-of-range error.
func Apply(src []byte, edits []Edit) ([]byte, error) {
	if len(edits) == 0 {
		return append([]byte(nil), src...), nil
	}

	ordered := append([]Edit(nil), edits...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Start != ordered[j].Start {
			return ordered[i].Start < ordered[j].Start
		}
		return ordered[i].IsInsert() && !ordered[j].IsInsert()
	})

	est := len(src)
	for _, e := range ordered {
		est += len(e.Text) - (e.End - e.Start)
	}
	if est < 0 {
		est = 0
	}
	out := make([]byte, 0, est)

	last := 0
	for _, e := range ordered {
		if e.Start < 0 || e.End > len(src) || e.Start > e.End {
			return nil, fmt.Errorf("edit [%d,%d) out of range for %d bytes", e.Start, e.End, len(src))
		}
		if e.Start < last {
			return nil, fmt.Errorf("%w: edit at %d starts before previous edit ends at %d", ErrOverlap, e.Start, last)
		}
		out = append(out, src[last:e.Start]...)
		out = append(out, e.Text...)
		last = e.End
	}
	out = append(out, src[last:]...)
	return out, nil
}

// Print applies the edits of s to src.
func Print(src []byte, s *Set) ([]byte, error) {
	if s == nil {
		return Apply(src, nil)
	}
	return Apply(src, s.edits)
}
