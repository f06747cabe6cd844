// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package hostbinding

import (
	"strings"

	"github.com/AleutianAI/ngmigrate/services/migrate/ast"
	"github.com/AleutianAI/ngmigrate/services/migrate/patch"
	sitter "github.com/smacker/go-tree-sitter"
)

// renderFunc produces entry texts for an object whose entries sit at
// indent, with unit as the file's indentation step.
type renderFunc func(indent, unit string) []string

// Rewriter turns a merged host map into edits against the original source.
//
// Thread Safety: Rewriter is immutable and safe for concurrent use.
type Rewriter struct {
	opts Options
}

// NewRewriter creates a Rewriter.
func NewRewriter(opts Options) *Rewriter {
	return &Rewriter{opts: opts}
}

// Rewrite emits the edits for one class.
//
// Description:
//
//	Host edits are computed first; if they fail the class contributes no
//	edits at all. Then every consumed decorator is deleted. Members are
//	never touched.
//
//	Pre-existing host objects are edited in place: overridden values are
//	replaced and new entries are inserted after the last entry using the
//	object's own indentation and trailing-comma style. Missing host
//	objects are synthesized (see renderObject).
//
// Outputs:
//   - *patch.Set: Edits for this class only.
//   - error: *InsertionError when no valid host position exists.
func (r *Rewriter) Rewrite(unit *ast.SourceUnit, ext *Extraction, merged *MergedResult) (*patch.Set, error) {
	if ext.Target == nil {
		return nil, insertionErrorf("no %v decorator found", r.opts.HostDecorators)
	}

	set := &patch.Set{}
	r.hostEdits(unit, ext.Target, merged, set)

	for _, b := range ext.Bindings {
		start, end := removalSpan(unit.Source, b.Site.Decorator)
		set.Delete(start, end)
	}
	return set, nil
}

func (r *Rewriter) hostEdits(unit *ast.SourceUnit, t *HostTarget, merged *MergedResult, set *patch.Set) {
	src := unit.Source
	q := r.opts.quote()

	if t.HostObject != nil {
		for _, e := range merged.Overridden() {
			set.Replace(e.ValueSpan.Start, e.ValueSpan.End, e.Value)
		}
		appended := entryTexts(merged.Appended(), q)
		if len(appended) == 0 {
			return
		}
		render := func(string, string) []string { return appended }
		if len(ast.NamedChildrenNoComments(t.HostObject)) == 0 {
			replaceEmptyObject(set, src, t.HostObject, render)
			return
		}
		appendEntries(set, src, t.HostObject, render)
		return
	}

	all := entryTexts(merged.Entries, q)
	hostProperty := func(indent, step string) []string {
		return []string{propertyName(r.opts.HostKey, q) + ": " + renderObject(all, indent, step)}
	}

	switch {
	case t.Config != nil:
		if len(ast.NamedChildrenNoComments(t.Config)) == 0 {
			replaceEmptyObject(set, src, t.Config, hostProperty)
			return
		}
		appendEntries(set, src, t.Config, hostProperty)
	case t.Args != nil:
		// @Component()
		base := ast.LineIndent(src, int(t.Decorator.StartByte()))
		step := detectIndentUnit(src)
		set.Insert(int(t.Args.StartByte())+1, renderObject(hostProperty(base+step, step), base, step))
	default:
		// @Component
		base := ast.LineIndent(src, int(t.Decorator.StartByte()))
		step := detectIndentUnit(src)
		set.Insert(int(t.Decorator.EndByte()), "("+renderObject(hostProperty(base+step, step), base, step)+")")
	}
}

func entryTexts(entries []Entry, q byte) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryText(e, q))
	}
	return out
}

// appendEntries inserts entries after the last entry of a non-empty object.
func appendEntries(set *patch.Set, src []byte, object *sitter.Node, render renderFunc) {
	entries := ast.NamedChildrenNoComments(object)
	first, last := entries[0], entries[len(entries)-1]

	objectIndent := ast.LineIndent(src, int(object.StartByte()))
	multiline := first.StartPoint().Row != object.StartPoint().Row
	var indent, step string
	if multiline {
		indent = ast.LineIndent(src, int(first.StartByte()))
		step = indentStep(objectIndent, indent)
		if step == "" {
			step = detectIndentUnit(src)
		}
	} else {
		// Inline object: synthesized values indent from the enclosing line.
		step = detectIndentUnit(src)
		indent = objectIndent
	}
	texts := render(indent, step)

	anchor := int(last.EndByte())
	commaNeeded, trailing := true, false
	next := last.NextSibling()
	if next != nil && next.Type() == ast.TokenComma {
		anchor = int(next.EndByte())
		commaNeeded, trailing = false, true
		next = next.NextSibling()
	}
	if next != nil && next.Type() == ast.NodeComment && next.StartPoint().Row == last.EndPoint().Row {
		// Keep a same-line comment attached to the entry it annotates.
		if commaNeeded {
			set.Insert(int(last.EndByte()), ",")
			commaNeeded = false
		}
		anchor = int(next.EndByte())
	}

	var b strings.Builder
	if multiline {
		if commaNeeded {
			b.WriteString(",")
		}
		for i, t := range texts {
			b.WriteString("\n")
			b.WriteString(indent)
			b.WriteString(t)
			if i < len(texts)-1 || trailing {
				b.WriteString(",")
			}
		}
	} else {
		for i, t := range texts {
			if i > 0 || commaNeeded {
				b.WriteString(",")
			}
			b.WriteString(" ")
			b.WriteString(t)
		}
		if trailing {
			b.WriteString(",")
		}
	}
	set.Insert(anchor, b.String())
}

// replaceEmptyObject replaces `{}` with a synthesized multi-line object.
func replaceEmptyObject(set *patch.Set, src []byte, object *sitter.Node, render renderFunc) {
	base := ast.LineIndent(src, int(object.StartByte()))
	step := detectIndentUnit(src)
	set.Replace(int(object.StartByte()), int(object.EndByte()), renderObject(render(base+step, step), base, step))
}

// removalSpan returns the bytes to delete for a node: the node and its
// trailing blanks, or its whole line when nothing else is on it.
func removalSpan(src []byte, node *sitter.Node) (int, int) {
	start, end := int(node.StartByte()), int(node.EndByte())
	for end < len(src) && (src[end] == ' ' || src[end] == '\t') {
		end++
	}
	if ast.OnlySpaceBefore(src, start) {
		switch {
		case end < len(src) && src[end] == '\n':
			return ast.LineStart(src, start), end + 1
		case end+1 < len(src) && src[end] == '\r' && src[end+1] == '\n':
			return ast.LineStart(src, start), end + 2
		}
	}
	return start, end
}
