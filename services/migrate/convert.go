// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package migrate converts member host-binding annotations into the host
// map of the class's component or directive configuration.
//
// A Converter handles one file: read, parse, transform, print, write. The
// Runner fans a Converter out over many files, Preview renders a dry run
// as a unified diff and Watcher re-converts files as they change.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AleutianAI/ngmigrate/services/migrate/ast"
	"github.com/AleutianAI/ngmigrate/services/migrate/hostbinding"
	"github.com/AleutianAI/ngmigrate/services/migrate/patch"
	"github.com/AleutianAI/ngmigrate/services/migrate/workspace"
)

// ErrParse indicates the file could not be parsed. Nothing is written.
var ErrParse = errors.New("parse failed")

// Status is the per-file outcome.
type Status string

const (
	// StatusRewritten means the file content changed.
	StatusRewritten Status = "rewritten"

	// StatusUnchanged means no edit applied; Result.Reason says why.
	StatusUnchanged Status = "unchanged"

	// StatusFailed means a fatal error stopped the file.
	StatusFailed Status = "failed"
)

// Unchanged reasons.
const (
	ReasonNoAnnotations = "no qualifying annotations"
	ReasonAllSkipped    = "all annotation sites skipped"
)

// Result is the report for one file.
type Result struct {
	// Path is the converted file.
	Path string

	// Status is StatusRewritten or StatusUnchanged.
	Status Status

	// Reason explains StatusUnchanged.
	Reason string

	// Warnings are the non-fatal problems, in source order.
	Warnings []hostbinding.Warning

	// Classes is the number of classes rewritten.
	Classes int

	// Sites is the number of annotation sites consumed.
	Sites int

	// ImportRemoved is true when the marker import was dropped.
	ImportRemoved bool

	// Original is the input text.
	Original string

	// Output is the printed text. Equal to Original when unchanged.
	Output string
}

// Changed reports whether the output differs from the input.
func (r *Result) Changed() bool {
	return r.Status == StatusRewritten
}

// ConverterOption configures a Converter.
type ConverterOption func(*Converter)

// WithParseOptions sets the parser options, e.g. the file size limit.
func WithParseOptions(opts ...ast.ParseOption) ConverterOption {
	return func(c *Converter) {
		c.parseOpts = append(c.parseOpts, opts...)
	}
}

// WithDryRun makes Convert compute results without writing files.
func WithDryRun(dryRun bool) ConverterOption {
	return func(c *Converter) {
		c.dryRun = dryRun
	}
}

// Converter converts single files.
//
// Thread Safety: Safe for concurrent use on distinct paths. Every call
// parses its own SourceUnit; the engine is stateless.
type Converter struct {
	store     workspace.FileStore
	engine    *hostbinding.Engine
	parseOpts []ast.ParseOption
	dryRun    bool
}

// NewConverter creates a Converter reading and writing through store.
func NewConverter(store workspace.FileStore, opts hostbinding.Options, options ...ConverterOption) *Converter {
	c := &Converter{
		store:  store,
		engine: hostbinding.New(opts),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// DryRun reports whether the converter skips writes.
func (c *Converter) DryRun() bool {
	return c.dryRun
}

// Convert rewrites the file at path.
//
// Description:
//
//	Reads path, transforms it and writes the result back atomically when
//	the content changed and the converter is not in dry-run mode. Fatal
//	errors leave the file untouched.
//
// Inputs:
//   - ctx: Context for cancellation and tracing.
//   - path: The file to convert.
//
// Outputs:
//   - *Result: The per-file report. Nil when err is non-nil.
//   - error: Wraps workspace.ErrNotFound, ErrParse or an IO error.
func (c *Converter) Convert(ctx context.Context, path string) (res *Result, err error) {
	ctx, span := startConvertSpan(ctx, path, c.dryRun)
	start := time.Now()
	defer func() { endConvertSpan(span, start, res, err) }()

	text, err := c.store.ReadText(ctx, path)
	if err != nil {
		return nil, err
	}

	res, err = c.ConvertText(ctx, path, text)
	if err != nil {
		return nil, err
	}

	if res.Changed() && !c.dryRun {
		if err := c.store.WriteText(ctx, path, res.Output); err != nil {
			return nil, fmt.Errorf("writing %s: %w", path, err)
		}
	}

	for _, w := range res.Warnings {
		slog.Warn("annotation not converted",
			slog.String("file", path),
			slog.String("kind", w.Kind.String()),
			slog.String("class", w.Class),
			slog.String("member", w.Member),
			slog.Int("line", w.Line),
			slog.String("reason", w.Message))
	}
	slog.Info("file converted",
		slog.String("file", path),
		slog.String("status", string(res.Status)),
		slog.String("reason", res.Reason),
		slog.Int("classes", res.Classes),
		slog.Int("sites", res.Sites),
		slog.Int("warnings", len(res.Warnings)),
		slog.Bool("dry_run", c.dryRun))
	return res, nil
}

// ConvertText transforms text as if it were the content of path.
//
// Outputs:
//   - *Result: Output holds the transformed text.
//   - error: Wraps ErrParse (and the ast sentinel) when text cannot be parsed.
func (c *Converter) ConvertText(ctx context.Context, path, text string) (*Result, error) {
	unit, err := ast.Parse(ctx, []byte(text), path, c.parseOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	defer unit.Close()

	out := c.engine.Transform(unit)
	res := &Result{
		Path:          path,
		Warnings:      out.Warnings,
		Classes:       out.Classes,
		Sites:         out.Sites,
		ImportRemoved: out.ImportRemoved,
		Original:      text,
		Output:        text,
	}

	if out.Edits.Len() == 0 {
		res.Status = StatusUnchanged
		res.Reason = ReasonNoAnnotations
		if len(out.Warnings) > 0 {
			res.Reason = ReasonAllSkipped
		}
		return res, nil
	}

	printed, err := patch.Print(unit.Source, out.Edits)
	if err != nil {
		return nil, fmt.Errorf("printing %s: %w", path, err)
	}
	res.Output = string(printed)
	res.Status = StatusRewritten
	if res.Output == text {
		res.Status = StatusUnchanged
		res.Reason = ReasonNoAnnotations
	}
	return res, nil
}
