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
	"github.com/AleutianAI/ngmigrate/services/migrate/ast"
	"github.com/AleutianAI/ngmigrate/services/migrate/patch"
	sitter "github.com/smacker/go-tree-sitter"
)

// importCleanup removes the marker's named import once every reference to
// it has been consumed.
//
// Description:
//
//	References are identifiers equal to the marker's local name outside the
//	import statement itself and outside the consumed decorators. Namespace
//	imports are never touched. When the marker is the statement's only
//	binding the whole statement is removed.
//
// Outputs:
//   - *patch.Set: The removal edits, nil when the import must stay.
func importCleanup(unit *ast.SourceUnit, opts Options, consumed []*sitter.Node) *patch.Set {
	b, ok := unit.Imports.Lookup(opts.MarkerModule, opts.MarkerName)
	if !ok {
		return nil
	}
	if hasReference(unit, unit.Root(), b, consumed) {
		return nil
	}

	named := b.Specifier.Parent()
	if named == nil || named.Type() != ast.NodeNamedImports {
		return nil
	}
	var specs []*sitter.Node
	index := -1
	for i := 0; i < int(named.NamedChildCount()); i++ {
		c := named.NamedChild(i)
		if c.Type() != ast.NodeImportSpecifier {
			continue
		}
		if c.StartByte() == b.Specifier.StartByte() {
			index = len(specs)
		}
		specs = append(specs, c)
	}
	if index < 0 {
		return nil
	}

	set := &patch.Set{}
	switch {
	case len(specs) > 1 && index < len(specs)-1:
		set.Delete(int(specs[index].StartByte()), int(specs[index+1].StartByte()))
	case len(specs) > 1:
		set.Delete(int(specs[index-1].EndByte()), int(specs[index].EndByte()))
	default:
		clause := named.Parent()
		if clause != nil && clause.NamedChildCount() > 1 {
			// import Default, { Marker } from '...'
			prev := named.PrevSibling()
			if prev == nil || prev.Type() != ast.TokenComma {
				return nil
			}
			set.Delete(int(prev.StartByte()), int(named.EndByte()))
			return set
		}
		start, end := removalSpan(unit.Source, b.Statement)
		set.Delete(start, end)
	}
	return set
}

func hasReference(unit *ast.SourceUnit, node *sitter.Node, b *ast.ImportBinding, consumed []*sitter.Node) bool {
	if ast.Contains(b.Statement, node) {
		return false
	}
	for _, d := range consumed {
		if ast.Contains(d, node) {
			return false
		}
	}
	switch node.Type() {
	case ast.NodeIdentifier, ast.NodeTypeIdentifier, ast.NodeShorthandProperty:
		if unit.Text(node) == b.Local {
			return true
		}
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if hasReference(unit, node.NamedChild(i), b, consumed) {
			return true
		}
	}
	return false
}
