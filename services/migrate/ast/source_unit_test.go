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
	"errors"
	"strings"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src, path string) *SourceUnit {
	t.Helper()
	unit, err := Parse(context.Background(), []byte(src), path)
	require.NoError(t, err)
	t.Cleanup(unit.Close)
	return unit
}

// collect returns all nodes of the given type in document order.
func collect(node *sitter.Node, nodeType string) []*sitter.Node {
	var out []*sitter.Node
	if node.Type() == nodeType {
		out = append(out, node)
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		out = append(out, collect(node.NamedChild(i), nodeType)...)
	}
	return out
}

func TestParse(t *testing.T) {
	t.Run("typescript", func(t *testing.T) {
		unit := mustParse(t, "export class A { x = 1; }\n", "a.ts")
		assert.Equal(t, "typescript", unit.Language)
		assert.Equal(t, NodeProgram, unit.Root().Type())
		assert.Equal(t, "a.ts", unit.Path)
	})

	t.Run("tsx", func(t *testing.T) {
		unit := mustParse(t, "export const A = () => <div>hi</div>;\n", "a.tsx")
		assert.Equal(t, "tsx", unit.Language)
	})

	t.Run("syntax error", func(t *testing.T) {
		_, err := Parse(context.Background(), []byte("class A {\n  x = ;\n"), "bad.ts")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrSyntax))
		assert.Contains(t, err.Error(), "bad.ts:")
	})

	t.Run("invalid utf-8", func(t *testing.T) {
		_, err := Parse(context.Background(), []byte{'a', 0xff, 0xfe}, "a.ts")
		assert.ErrorIs(t, err, ErrInvalidContent)
	})

	t.Run("too large", func(t *testing.T) {
		_, err := Parse(context.Background(), []byte(strings.Repeat("a;", 64)), "a.ts", WithMaxFileSize(16))
		assert.ErrorIs(t, err, ErrFileTooLarge)
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Parse(ctx, []byte("let a = 1;"), "a.ts")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSourceUnit_CloseTwice(t *testing.T) {
	unit, err := Parse(context.Background(), []byte("let a = 1;"), "a.ts")
	require.NoError(t, err)
	unit.Close()
	unit.Close()
}

func TestImportTable(t *testing.T) {
	unit := mustParse(t, `import { Component, HostBinding as HB } from '@angular/core';
import * as ng from "@angular/core";
import type { Input } from '@angular/core';
import { type Output, Directive } from '@angular/core';
import Default, { Other } from './local';
import './side-effect';
`, "a.ts")

	b, ok := unit.Imports.Named("HB")
	require.True(t, ok)
	assert.Equal(t, "@angular/core", b.Module)
	assert.Equal(t, "HostBinding", b.Imported)
	assert.Equal(t, "HB", b.Local)
	assert.Equal(t, NodeImportStatement, b.Statement.Type())

	_, ok = unit.Imports.Named("HostBinding")
	assert.False(t, ok, "aliased import is keyed by its local name")

	_, ok = unit.Imports.Named("Input")
	assert.False(t, ok, "type-only statement")
	_, ok = unit.Imports.Named("Output")
	assert.False(t, ok, "type-only specifier")

	d, ok := unit.Imports.Named("Directive")
	require.True(t, ok)
	assert.Equal(t, "@angular/core", d.Module)

	o, ok := unit.Imports.Named("Other")
	require.True(t, ok)
	assert.Equal(t, "./local", o.Module)

	module, ok := unit.Imports.Namespace("ng")
	require.True(t, ok)
	assert.Equal(t, "@angular/core", module)

	l, ok := unit.Imports.Lookup("@angular/core", "HostBinding")
	require.True(t, ok)
	assert.Equal(t, "HB", l.Local)
	_, ok = unit.Imports.Lookup("./local", "HostBinding")
	assert.False(t, ok)
}

func TestImportTable_Resolve(t *testing.T) {
	unit := mustParse(t, `import { HostBinding as HB, Component } from '@angular/core';
import * as ng from '@angular/core';
import { Bind } from './bind';

class A {
  @HB('a') a = 1;
  @ng.HostBinding('b') b = 1;
  @Bind('c') c = 1;
  @Unknown('d') d = 1;
  @other.HostBinding('e') e = 1;
}
`, "a.ts")

	type resolved struct {
		module, name string
		ok           bool
	}
	var got []resolved
	for _, d := range collect(unit.Root(), NodeDecorator) {
		callee, _, _ := DecoratorParts(d)
		module, name, ok := unit.Imports.Resolve(unit, callee)
		got = append(got, resolved{module, name, ok})
	}

	assert.Equal(t, []resolved{
		{"@angular/core", "HostBinding", true},
		{"@angular/core", "HostBinding", true},
		{"./bind", "Bind", true},
		{"", "", false},
		{"", "", false},
	}, got)
}

func TestDecoratorParts(t *testing.T) {
	unit := mustParse(t, `@A
@B()
@ns.C('x', 1)
class K {}
`, "a.ts")

	decorators := collect(unit.Root(), NodeDecorator)
	require.Len(t, decorators, 3)

	callee, call, args := DecoratorParts(decorators[0])
	assert.Equal(t, "A", unit.Text(callee))
	assert.Nil(t, call)
	assert.Nil(t, args)

	callee, call, args = DecoratorParts(decorators[1])
	assert.Equal(t, "B", unit.Text(callee))
	assert.NotNil(t, call)
	assert.Equal(t, "()", unit.Text(args))

	callee, _, args = DecoratorParts(decorators[2])
	assert.Equal(t, "ns.C", unit.Text(callee))
	assert.Len(t, NamedChildrenNoComments(args), 2)
}

func TestStringValue(t *testing.T) {
	tests := []struct {
		name   string
		expr   string
		want   string
		wantOK bool
	}{
		{name: "single quoted", expr: `'class.active'`, want: "class.active", wantOK: true},
		{name: "double quoted", expr: `"attr.role"`, want: "attr.role", wantOK: true},
		{name: "escapes", expr: `'it\'s\n'`, want: "it's\n", wantOK: true},
		{name: "unicode escape", expr: `'attr.\u0041'`, want: "attr.A", wantOK: true},
		{name: "code point escape", expr: `'\u{1F600}x'`, want: "\U0001F600x", wantOK: true},
		{name: "surrogate pair", expr: `'\uD83D\uDE00'`, want: "\U0001F600", wantOK: true},
		{name: "hex escape", expr: `"attr.\x41b"`, want: "attr.Ab", wantOK: true},
		{name: "identity escapes", expr: `'\a\\\"'`, want: `a\"`, wantOK: true},
		{name: "line continuation", expr: "'a\\\nb'", want: "ab", wantOK: true},
		{name: "null", expr: `'\0'`, want: "\x00", wantOK: true},
		{name: "template escape", expr: "`class.\\u0062`", want: "class.b", wantOK: true},
		{name: "legacy octal", expr: `'\101'`, wantOK: false},
		{name: "lone surrogate", expr: `'\uD83D'`, wantOK: false},
		{name: "empty", expr: `''`, want: "", wantOK: true},
		{name: "template", expr: "`style.width.px`", want: "style.width.px", wantOK: true},
		{name: "template substitution", expr: "`a${b}`", wantOK: false},
		{name: "identifier", expr: "KEY", wantOK: false},
		{name: "concatenation", expr: "'a' + 'b'", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit := mustParse(t, "f("+tt.expr+");\n", "a.ts")
			args := collect(unit.Root(), NodeArguments)
			require.Len(t, args, 1)
			arg := NamedChildrenNoComments(args[0])[0]

			got, ok := StringValue(unit, arg)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestLineHelpers(t *testing.T) {
	src := []byte("a\n\t  b c\n")
	assert.Equal(t, 0, LineStart(src, 0))
	assert.Equal(t, 2, LineStart(src, 5))
	assert.Equal(t, "\t  ", LineIndent(src, 7))
	assert.True(t, OnlySpaceBefore(src, 5))
	assert.False(t, OnlySpaceBefore(src, 7))
}

func TestIsIdentifierName(t *testing.T) {
	assert.True(t, IsIdentifierName("host"))
	assert.True(t, IsIdentifierName("_$a1"))
	assert.False(t, IsIdentifierName(""))
	assert.False(t, IsIdentifierName("1a"))
	assert.False(t, IsIdentifierName("class.active"))
	assert.False(t, IsIdentifierName("[a]"))
}
