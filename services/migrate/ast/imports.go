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
	sitter "github.com/smacker/go-tree-sitter"
)

// ImportBinding is one named import: `import { Imported as Local } from 'Module'`.
type ImportBinding struct {
	// Module is the import source, e.g. "@angular/core".
	Module string

	// Imported is the exported name in Module.
	Imported string

	// Local is the identifier the file uses.
	Local string

	// Specifier is the import_specifier node.
	Specifier *sitter.Node

	// Statement is the enclosing import_statement node.
	Statement *sitter.Node
}

// ImportTable is the symbol table of a file's ES module imports.
//
// Description:
//
//	Maps local identifiers to their declared origins so decorators are
//	matched by what they refer to rather than by their bare name. Type-only
//	imports (`import type { X }`, `import { type X }`) are not recorded since
//	they cannot be used as decorators.
type ImportTable struct {
	named      map[string]*ImportBinding
	namespaces map[string]string
}

// buildImportTable walks the top-level import statements of unit.
func buildImportTable(unit *SourceUnit) *ImportTable {
	table := &ImportTable{
		named:      make(map[string]*ImportBinding),
		namespaces: make(map[string]string),
	}

	root := unit.Root()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		if stmt.Type() != NodeImportStatement {
			continue
		}
		table.addStatement(unit, stmt)
	}
	return table
}

func (t *ImportTable) addStatement(unit *SourceUnit, stmt *sitter.Node) {
	var clause *sitter.Node
	var module string
	for i := 0; i < int(stmt.ChildCount()); i++ {
		child := stmt.Child(i)
		switch child.Type() {
		case TokenType:
			// import type { ... }
			return
		case NodeImportClause:
			clause = child
		case NodeString:
			module, _ = StringValue(unit, child)
		}
	}
	if clause == nil || module == "" {
		return
	}

	for i := 0; i < int(clause.NamedChildCount()); i++ {
		child := clause.NamedChild(i)
		switch child.Type() {
		case NodeNamespaceImport:
			for j := 0; j < int(child.NamedChildCount()); j++ {
				if id := child.NamedChild(j); id.Type() == NodeIdentifier {
					t.namespaces[unit.Text(id)] = module
				}
			}
		case NodeNamedImports:
			for j := 0; j < int(child.NamedChildCount()); j++ {
				spec := child.NamedChild(j)
				if spec.Type() != NodeImportSpecifier {
					continue
				}
				if b := specifierBinding(unit, spec); b != nil {
					b.Module = module
					b.Statement = stmt
					t.named[b.Local] = b
				}
			}
		}
	}
}

// specifierBinding reads `Name` or `Name as Alias` from an import_specifier.
func specifierBinding(unit *SourceUnit, spec *sitter.Node) *ImportBinding {
	var ids []string
	for i := 0; i < int(spec.ChildCount()); i++ {
		child := spec.Child(i)
		switch child.Type() {
		case TokenType:
			// import { type X } from '...'
			return nil
		case NodeIdentifier, NodeString:
			if child.Type() == NodeString {
				v, _ := StringValue(unit, child)
				ids = append(ids, v)
			} else {
				ids = append(ids, unit.Text(child))
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}
	b := &ImportBinding{Imported: ids[0], Local: ids[0], Specifier: spec}
	if len(ids) > 1 {
		b.Local = ids[1]
	}
	return b
}

// Named returns the named binding for a local identifier.
func (t *ImportTable) Named(local string) (*ImportBinding, bool) {
	b, ok := t.named[local]
	return b, ok
}

// Namespace returns the module bound to a namespace import identifier.
func (t *ImportTable) Namespace(local string) (string, bool) {
	m, ok := t.namespaces[local]
	return m, ok
}

// Lookup returns the named binding that imports name from module, if any.
func (t *ImportTable) Lookup(module, name string) (*ImportBinding, bool) {
	for _, b := range t.named {
		if b.Module == module && b.Imported == name {
			return b, true
		}
	}
	return nil, false
}

// Resolve reports which module export a callee expression refers to.
//
// Description:
//
//	Accepts an identifier bound by a named import, or a member expression
//	`ns.Name` whose object is a namespace import. Any other expression, or
//	an identifier that is not imported, does not resolve.
//
// Outputs:
//   - module: The import source.
//   - name: The exported name.
//   - ok: False when the callee cannot be traced to an import.
func (t *ImportTable) Resolve(unit *SourceUnit, callee *sitter.Node) (module, name string, ok bool) {
	if callee == nil {
		return "", "", false
	}
	switch callee.Type() {
	case NodeIdentifier:
		b, found := t.named[unit.Text(callee)]
		if !found {
			return "", "", false
		}
		return b.Module, b.Imported, true
	case NodeMemberExpression:
		object := callee.ChildByFieldName("object")
		property := callee.ChildByFieldName("property")
		if object == nil || property == nil || object.Type() != NodeIdentifier {
			return "", "", false
		}
		m, found := t.namespaces[unit.Text(object)]
		if !found {
			return "", "", false
		}
		return m, unit.Text(property), true
	}
	return "", "", false
}
