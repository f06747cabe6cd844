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
)

// defaultIndentUnit is used when neither the surrounding object nor the file
// shows an indentation step.
const defaultIndentUnit = "  "

// QuoteString renders s as a string literal using quote q.
func QuoteString(s string, q byte) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(q)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case q:
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte(q)
	return b.String()
}

// BindingKey returns the host map key for an annotation argument.
//
// With bracket set, plain keys become property bindings: "class.active"
// becomes "[class.active]". Keys already written as a binding ("[x]") or an
// event ("(x)") are kept as they are.
func BindingKey(key string, bracket bool) string {
	if !bracket {
		return key
	}
	if strings.HasPrefix(key, "[") && strings.HasSuffix(key, "]") {
		return key
	}
	if strings.HasPrefix(key, "(") && strings.HasSuffix(key, ")") {
		return key
	}
	return "[" + key + "]"
}

// propertyName renders an object key: bare when it is an identifier,
// quoted otherwise.
func propertyName(key string, q byte) string {
	if ast.IsIdentifierName(key) {
		return key
	}
	return QuoteString(key, q)
}

// entryText renders one host map entry. Keys are always quoted so that
// binding keys and plain names look the same.
func entryText(e Entry, q byte) string {
	return QuoteString(e.Key, q) + ": " + e.Value
}

// renderObject renders a multi-line object literal whose closing brace sits
// at indent and whose entries sit at indent+unit.
func renderObject(entries []string, indent, unit string) string {
	var b strings.Builder
	b.WriteString("{\n")
	for _, e := range entries {
		b.WriteString(indent)
		b.WriteString(unit)
		b.WriteString(e)
		b.WriteString(",\n")
	}
	b.WriteString(indent)
	b.WriteString("}")
	return b.String()
}

// indentStep returns the extra indentation inner has over outer, or "" when
// inner does not extend outer.
func indentStep(outer, inner string) string {
	if len(inner) > len(outer) && strings.HasPrefix(inner, outer) {
		return inner[len(outer):]
	}
	return ""
}

// detectIndentUnit guesses the file's indentation step: a tab when most
// indented lines start with a tab, otherwise the smallest run of leading
// spaces (at least two).
func detectIndentUnit(src []byte) string {
	tabs, spaces := 0, 0
	smallest := 0
	for _, line := range strings.Split(string(src), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		switch line[0] {
		case '\t':
			tabs++
		case ' ':
			spaces++
			n := len(line) - len(strings.TrimLeft(line, " "))
			if n >= 2 && (smallest == 0 || n < smallest) {
				smallest = n
			}
		}
	}
	if tabs > spaces {
		return "\t"
	}
	if smallest == 0 {
		return defaultIndentUnit
	}
	if smallest > 8 {
		smallest = 8
	}
	return strings.Repeat(" ", smallest)
}
