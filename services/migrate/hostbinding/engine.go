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
	"errors"
	"log/slog"

	"github.com/AleutianAI/ngmigrate/services/migrate/ast"
	"github.com/AleutianAI/ngmigrate/services/migrate/patch"
	sitter "github.com/smacker/go-tree-sitter"
)

// Outcome is the result of transforming one SourceUnit.
type Outcome struct {
	// Edits are the edits for the whole file, ready for the printer.
	Edits *patch.Set

	// Warnings are the per-site and per-class problems, in source order.
	Warnings []Warning

	// Classes is the number of classes rewritten.
	Classes int

	// Sites is the number of annotation sites consumed.
	Sites int

	// ImportRemoved is true when the marker import was dropped.
	ImportRemoved bool
}

// Engine runs locate → extract → merge → rewrite over a SourceUnit.
//
// Thread Safety: Engine holds no per-file state; one Engine may transform
// many files concurrently.
type Engine struct {
	opts      Options
	locator   *Locator
	extractor *Extractor
	rewriter  *Rewriter
}

// New creates an Engine for opts.
func New(opts Options) *Engine {
	return &Engine{
		opts:      opts,
		locator:   NewLocator(opts),
		extractor: NewExtractor(opts),
		rewriter:  NewRewriter(opts),
	}
}

// Options returns the engine's options.
func (e *Engine) Options() Options {
	return e.opts
}

// Transform computes the edits for unit without modifying it.
//
// Description:
//
//	Each ClassSite is processed independently. A site is deleted if and only
//	if its binding is part of its class's merged host map: sites that fail
//	extraction stay in place, and classes that cannot host the map keep all
//	of their sites. Once every located site is consumed, the marker import
//	is removed when nothing else references it.
//
// Outputs:
//   - *Outcome: Never nil. Edits is empty when nothing qualifies, in which
//     case printing reproduces the input byte for byte.
func (e *Engine) Transform(unit *ast.SourceUnit) *Outcome {
	out := &Outcome{Edits: &patch.Set{}}
	var consumed []*sitter.Node
	skipped := 0

	for class := range e.locator.Classes(unit) {
		ext, warnings, err := e.extractor.Extract(unit, class)
		out.Warnings = append(out.Warnings, warnings...)
		skipped += len(warnings)
		if err == nil && len(ext.Bindings) == 0 {
			continue
		}

		var edits *patch.Set
		if err == nil {
			merged := Merge(ext.Baseline, ext.Bindings, MergeOptions{
				BracketKeys: e.opts.BracketKeys,
				Quote:       e.opts.quote(),
			})
			edits, err = e.rewriter.Rewrite(unit, ext, merged)
		}
		if err != nil {
			var insErr *InsertionError
			if !errors.As(err, &insErr) {
				insErr = &InsertionError{Reason: err.Error()}
			}
			out.Warnings = append(out.Warnings, Warning{
				Kind:    InsertionFailure,
				Class:   class.Name,
				Line:    unit.Line(class.Node),
				Message: insErr.Reason,
			})
			skipped += len(ext.Bindings)
			continue
		}

		out.Edits.Append(edits)
		out.Classes++
		out.Sites += len(ext.Bindings)
		for _, b := range ext.Bindings {
			consumed = append(consumed, b.Site.Decorator)
		}
		slog.Debug("class rewritten",
			slog.String("file", unit.Path),
			slog.String("class", class.Name),
			slog.Int("bindings", len(ext.Bindings)),
			slog.Int("baseline_entries", len(ext.Baseline)))
	}

	if e.opts.RemoveUnusedImport && out.Sites > 0 && skipped == 0 {
		if cleanup := importCleanup(unit, e.opts, consumed); cleanup != nil {
			out.Edits.Append(cleanup)
			out.ImportRemoved = true
		}
	}
	return out
}
