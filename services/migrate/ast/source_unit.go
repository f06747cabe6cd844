// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// ParseOption configures a Parse call.
type ParseOption func(*parseConfig)

type parseConfig struct {
	maxFileSize int64
}

// WithMaxFileSize sets the maximum file size Parse will accept.
//
// Parameters:
//   - bytes: Maximum file size in bytes. Non-positive values are ignored.
//
// Example:
//
//	unit, err := ast.Parse(ctx, src, "a.ts", ast.WithMaxFileSize(5*1024*1024))
func WithMaxFileSize(bytes int64) ParseOption {
	return func(c *parseConfig) {
		if bytes > 0 {
			c.maxFileSize = bytes
		}
	}
}

// SourceUnit is one parsed TypeScript file.
//
// Description:
//
//	Holds the source bytes, the tree-sitter tree and the import symbol table
//	built from the file's own import statements. A SourceUnit is owned by a
//	single transformation run and must be closed when printing is done.
//
// Thread Safety:
//
//	Not safe for concurrent use. Each run parses its own SourceUnit.
type SourceUnit struct {
	// Path is the file path the source was read from.
	Path string

	// Source is the raw file content. Never modified.
	Source []byte

	// Language is "typescript" or "tsx".
	Language string

	// Imports maps local identifiers to the module exports they refer to.
	Imports *ImportTable

	tree *sitter.Tree
}

// Parse parses TypeScript source into a SourceUnit.
//
// Description:
//
//	Selects the TSX grammar for .tsx files and the TypeScript grammar
//	otherwise, parses the content, rejects trees containing syntax errors
//	and builds the import table.
//
// Inputs:
//   - ctx: Context for cancellation. Checked before and after parsing.
//   - content: Raw source bytes. Must be valid UTF-8.
//   - filePath: Path of the file, used for grammar selection and errors.
//   - opts: Optional settings (WithMaxFileSize).
//
// Outputs:
//   - *SourceUnit: The parsed unit. Caller must call Close.
//   - error: Non-nil when the file cannot be transformed:
//   - ErrFileTooLarge: Content exceeds the size limit
//   - ErrInvalidContent: Content is not valid UTF-8
//   - ErrSyntax: The tree contains ERROR or MISSING nodes
//   - Context errors: Context was canceled
//
// Limitations:
//   - Tree-sitter parsing is synchronous and cannot be interrupted mid-parse.
func Parse(ctx context.Context, content []byte, filePath string, opts ...ParseOption) (unit *SourceUnit, err error) {
	cfg := parseConfig{maxFileSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	language := "typescript"
	lang := typescript.GetLanguage()
	if strings.HasSuffix(filePath, ".tsx") {
		language = "tsx"
		lang = tsx.GetLanguage()
	}

	ctx, span := startParseSpan(ctx, language, filePath, len(content))
	start := time.Now()
	defer func() { endParseSpan(span, language, start, err) }()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse canceled before start: %w", err)
	}

	if int64(len(content)) > cfg.maxFileSize {
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), cfg.maxFileSize)
	}

	if len(content) > WarnFileSize {
		slog.Warn("parsing large file",
			slog.String("file", filePath),
			slog.Int("size_bytes", len(content)))
	}

	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent)
	}

	// New parser per call; tree-sitter parsers are not goroutine safe.
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}

	root := tree.RootNode()
	if root == nil {
		tree.Close()
		return nil, fmt.Errorf("%w: tree-sitter returned nil root node", ErrSyntax)
	}
	if root.HasError() {
		pos := firstErrorPosition(root)
		tree.Close()
		return nil, fmt.Errorf("%w: %s:%d:%d", ErrSyntax, filePath, pos.Row+1, pos.Column+1)
	}

	unit = &SourceUnit{
		Path:     filePath,
		Source:   content,
		Language: language,
		tree:     tree,
	}
	unit.Imports = buildImportTable(unit)
	return unit, nil
}

// Root returns the program node.
func (u *SourceUnit) Root() *sitter.Node {
	return u.tree.RootNode()
}

// Close releases the tree-sitter tree. Safe to call more than once.
func (u *SourceUnit) Close() {
	if u.tree != nil {
		u.tree.Close()
		u.tree = nil
	}
}

// Text returns the source text spanned by node.
func (u *SourceUnit) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if int(end) > len(u.Source) || start > end {
		return ""
	}
	return string(u.Source[start:end])
}

// Line returns the 1-based line of node.
func (u *SourceUnit) Line(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}

// firstErrorPosition finds the first ERROR or MISSING node in document order.
func firstErrorPosition(node *sitter.Node) sitter.Point {
	if node.Type() == NodeError || node.IsMissing() {
		return node.StartPoint()
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child != nil && (child.HasError() || child.IsMissing()) {
			return firstErrorPosition(child)
		}
	}
	return node.StartPoint()
}
