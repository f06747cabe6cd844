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
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
)

// StringValue returns the decoded value of a static string literal.
//
// Description:
//
//	Accepts `string` nodes and `template_string` nodes without
//	substitutions. Escape sequences are decoded the way JavaScript cooks
//	them: single-character escapes, `\xHH`, `\uXXXX` (including surrogate
//	pairs), `\u{...}` and line continuations. Legacy octal escapes and
//	lone surrogates have no Go string value and are rejected.
//
// Outputs:
//   - string: The literal's value.
//   - bool: False when node is not a static string literal or an escape
//     cannot be decoded.
func StringValue(unit *SourceUnit, node *sitter.Node) (string, bool) {
	if node == nil {
		return "", false
	}
	switch node.Type() {
	case NodeString:
		raw := unit.Text(node)
		if len(raw) < 2 || raw[0] != raw[len(raw)-1] {
			return "", false
		}
		return decodeEscapes(raw[1 : len(raw)-1])
	case NodeTemplateString:
		for i := 0; i < int(node.ChildCount()); i++ {
			if node.Child(i).Type() == NodeTemplateSubstitute {
				return "", false
			}
		}
		raw := unit.Text(node)
		if len(raw) < 2 {
			return "", false
		}
		// Template literals normalize raw line terminators to LF.
		inner := strings.ReplaceAll(raw[1:len(raw)-1], "\r\n", "\n")
		return decodeEscapes(strings.ReplaceAll(inner, "\r", "\n"))
	}
	return "", false
}

// lineContinuation marks an escape that contributes no character.
const lineContinuation rune = -1

// decodeEscape decodes the escape sequence at the start of seq and reports
// the number of bytes consumed.
func decodeEscape(seq string) (rune, int, bool) {
	if len(seq) < 2 || seq[0] != '\\' {
		return 0, 0, false
	}
	switch c := seq[1]; c {
	case 'n':
		return '\n', 2, true
	case 't':
		return '\t', 2, true
	case 'r':
		return '\r', 2, true
	case 'b':
		return '\b', 2, true
	case 'f':
		return '\f', 2, true
	case 'v':
		return '\v', 2, true
	case '0':
		if len(seq) > 2 && seq[2] >= '0' && seq[2] <= '9' {
			return 0, 0, false
		}
		return 0, 2, true
	case '1', '2', '3', '4', '5', '6', '7':
		return 0, 0, false
	case 'x':
		if len(seq) < 4 {
			return 0, 0, false
		}
		v, err := strconv.ParseUint(seq[2:4], 16, 8)
		if err != nil {
			return 0, 0, false
		}
		return rune(v), 4, true
	case 'u':
		if len(seq) > 2 && seq[2] == '{' {
			end := strings.IndexByte(seq, '}')
			if end < 4 {
				return 0, 0, false
			}
			v, err := strconv.ParseUint(seq[3:end], 16, 32)
			if err != nil || v > unicode.MaxRune {
				return 0, 0, false
			}
			return rune(v), end + 1, true
		}
		if len(seq) < 6 {
			return 0, 0, false
		}
		v, err := strconv.ParseUint(seq[2:6], 16, 16)
		if err != nil {
			return 0, 0, false
		}
		return rune(v), 6, true
	case '\r':
		if len(seq) > 2 && seq[2] == '\n' {
			return lineContinuation, 3, true
		}
		return lineContinuation, 2, true
	case '\n':
		return lineContinuation, 2, true
	}
	r, size := utf8.DecodeRuneInString(seq[1:])
	if r == '\u2028' || r == '\u2029' {
		return lineContinuation, 1 + size, true
	}
	return r, 1 + size, true
}

func decodeEscapes(s string) (string, bool) {
	if !strings.Contains(s, `\`) {
		return s, true
	}
	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] != '\\' {
			b.WriteByte(s[i])
			i++
			continue
		}
		r, n, ok := decodeEscape(s[i:])
		if !ok {
			return "", false
		}
		i += n
		if r == lineContinuation {
			continue
		}
		if utf16.IsSurrogate(r) {
			if r >= 0xDC00 {
				return "", false
			}
			lo, m, ok := decodeEscape(s[i:])
			if !ok || lo < 0xDC00 || lo > 0xDFFF {
				return "", false
			}
			r = utf16.DecodeRune(r, lo)
			i += m
		}
		b.WriteRune(r)
	}
	return b.String(), true
}

// PropertyKey returns the canonical text of an object or member key.
//
// Description:
//
//	Identifiers return their text, string literals their decoded value and
//	numbers their literal text. Computed keys (`[expr]`) are dynamic and do
//	not produce a key.
func PropertyKey(unit *SourceUnit, node *sitter.Node) (string, bool) {
	if node == nil {
		return "", false
	}
	switch node.Type() {
	case NodePropertyIdentifier, NodeIdentifier, NodeNumber, NodePrivatePropertyIdentifier:
		return unit.Text(node), true
	case NodeString:
		return StringValue(unit, node)
	}
	return "", false
}

// DecoratorParts splits a decorator into its callee and argument list.
//
// Description:
//
//	`@Foo` yields (Foo, nil), `@Foo(a)` yields (Foo, (a)) and `@ns.Foo()`
//	yields (ns.Foo, ()). The call node is returned so callers can tell the
//	bare form from the call form.
func DecoratorParts(decorator *sitter.Node) (callee, call, args *sitter.Node) {
	for i := 0; i < int(decorator.NamedChildCount()); i++ {
		child := decorator.NamedChild(i)
		switch child.Type() {
		case NodeIdentifier, NodeMemberExpression:
			return child, nil, nil
		case NodeCallExpression:
			fn := child.ChildByFieldName("function")
			arguments := child.ChildByFieldName("arguments")
			if arguments == nil {
				for j := 0; j < int(child.NamedChildCount()); j++ {
					if gc := child.NamedChild(j); gc.Type() == NodeArguments {
						arguments = gc
					}
				}
			}
			return fn, child, arguments
		}
	}
	return nil, nil, nil
}

// NamedChildrenNoComments returns the named children of node except comments.
func NamedChildrenNoComments(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, node.NamedChildCount())
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != NodeComment {
			out = append(out, child)
		}
	}
	return out
}

// Contains reports whether inner lies within outer's byte range.
func Contains(outer, inner *sitter.Node) bool {
	return inner.StartByte() >= outer.StartByte() && inner.EndByte() <= outer.EndByte()
}

// LineStart returns the offset of the first byte of the line holding offset.
func LineStart(src []byte, offset int) int {
	for offset > 0 && src[offset-1] != '\n' {
		offset--
	}
	return offset
}

// LineIndent returns the leading whitespace of the line holding offset.
func LineIndent(src []byte, offset int) string {
	start := LineStart(src, offset)
	end := start
	for end < len(src) && (src[end] == ' ' || src[end] == '\t') {
		end++
	}
	return string(src[start:end])
}

// OnlySpaceBefore reports whether the line holding offset has only
// whitespace before it.
func OnlySpaceBefore(src []byte, offset int) bool {
	for i := LineStart(src, offset); i < offset; i++ {
		if src[i] != ' ' && src[i] != '\t' {
			return false
		}
	}
	return true
}

// IsIdentifierName reports whether s can be written as a bare property name.
func IsIdentifierName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
