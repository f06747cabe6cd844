// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package hostbinding folds member-level binding annotations into the
// class-level host configuration object.
//
// Pipeline per file:
//
//	Locator   → ClassSite with its AnnotationSites
//	Extractor → Bindings + baseline host map entries + host target
//	Merge     → MergedResult (ordered, last write wins)
//	Rewriter  → patch.Set (decorator deletions, host object edits)
//
// Every stage reads the immutable SourceUnit; edits are collected in a patch
// set and applied by the printer once all classes have been processed.
package hostbinding

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// MemberKind is the kind of class member an annotation is attached to.
type MemberKind int

const (
	// MemberField is a property declaration: `@HostBinding('x') foo = 1;`.
	MemberField MemberKind = iota + 1

	// MemberGetter is a `get` accessor.
	MemberGetter

	// MemberMethod is an ordinary method.
	MemberMethod
)

// String returns the lowercase kind name.
func (k MemberKind) String() string {
	switch k {
	case MemberField:
		return "field"
	case MemberGetter:
		return "getter"
	case MemberMethod:
		return "method"
	default:
		return fmt.Sprintf("MemberKind(%d)", int(k))
	}
}

// AnnotationSite is one qualifying decorator found on a class member.
type AnnotationSite struct {
	// Decorator is the decorator node, including the leading '@'.
	Decorator *sitter.Node

	// Member is the annotated method_definition or public_field_definition.
	Member *sitter.Node
}

// ClassSite is a class with at least one qualifying annotation.
type ClassSite struct {
	// Name is the class name, empty for anonymous class expressions.
	Name string

	// Node is the class declaration or expression node.
	Node *sitter.Node

	// Decorators are the class-level decorators, in source order. Includes
	// decorators written before `export`.
	Decorators []*sitter.Node

	// Sites are the annotation sites on the class's own members, in source order.
	Sites []*AnnotationSite
}

// Binding is the semantic triple extracted from one AnnotationSite.
type Binding struct {
	// Key is the external binding key, e.g. "class.active".
	Key string

	// Member is the annotated member's name.
	Member string

	// Kind selects the reference expression shape.
	Kind MemberKind

	// Site is the site the binding came from.
	Site *AnnotationSite
}

// Reference returns the expression that reads the member:
// `this.member` for fields and getters, `this.member()` for methods.
func (b Binding) Reference() string {
	if b.Kind == MemberMethod {
		return "this." + b.Member + "()"
	}
	return "this." + b.Member
}

// Span is a half-open byte range in the original source.
type Span struct {
	Start int
	End   int
}

// EntryOrigin records where a merged host entry came from.
type EntryOrigin int

const (
	// OriginBaseline is an untouched entry of the pre-existing host object.
	OriginBaseline EntryOrigin = iota

	// OriginOverridden is a pre-existing entry whose value an annotation replaced.
	OriginOverridden

	// OriginAppended is a new entry added after the pre-existing ones.
	OriginAppended
)

// Entry is one key/value of a host map.
type Entry struct {
	// Key is the canonical key (unquoted string value or identifier text).
	Key string

	// Value is the value expression source text. For baseline entries it is
	// the original text, copied verbatim.
	Value string

	// Origin tells the rewriter how to emit the entry.
	Origin EntryOrigin

	// ValueSpan locates the original value; zero for appended entries.
	ValueSpan Span
}

// WarningKind classifies non-fatal problems.
type WarningKind int

const (
	// ExtractionWarning means an annotation site was skipped and left in place.
	ExtractionWarning WarningKind = iota + 1

	// InsertionFailure means a whole class was left unmodified.
	InsertionFailure
)

// String returns the warning kind name.
func (k WarningKind) String() string {
	switch k {
	case ExtractionWarning:
		return "extraction"
	case InsertionFailure:
		return "insertion"
	default:
		return fmt.Sprintf("WarningKind(%d)", int(k))
	}
}

// Warning is a non-fatal problem found while transforming a file.
type Warning struct {
	Kind    WarningKind
	Class   string
	Member  string
	Line    int
	Message string
}

// String formats the warning for reports and logs.
func (w Warning) String() string {
	where := w.Class
	if where == "" {
		where = "<anonymous class>"
	}
	if w.Member != "" {
		where += "." + w.Member
	}
	return fmt.Sprintf("line %d: %s: %s (%s)", w.Line, where, w.Message, w.Kind)
}
