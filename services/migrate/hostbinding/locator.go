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
	"iter"

	"github.com/AleutianAI/ngmigrate/services/migrate/ast"
	sitter "github.com/smacker/go-tree-sitter"
)

// Locator finds classes carrying qualifying member annotations.
//
// Thread Safety: Locator is immutable and safe for concurrent use.
type Locator struct {
	opts Options
}

// NewLocator creates a Locator for the marker described by opts.
func NewLocator(opts Options) *Locator {
	return &Locator{opts: opts}
}

// Classes returns the ClassSites of unit in source order.
//
// Description:
//
//	Walks the whole tree so nested classes and class expressions inside
//	functions are found, each as its own ClassSite. A site belongs only to
//	the class whose class_body directly contains the annotated member.
//	Classes without qualifying annotations are not yielded.
//
//	The sequence is lazy: walking stops as soon as the consumer stops.
func (l *Locator) Classes(unit *ast.SourceUnit) iter.Seq[*ClassSite] {
	return func(yield func(*ClassSite) bool) {
		l.walk(unit, unit.Root(), yield)
	}
}

func (l *Locator) walk(unit *ast.SourceUnit, node *sitter.Node, yield func(*ClassSite) bool) bool {
	switch node.Type() {
	case ast.NodeClassDeclaration, ast.NodeAbstractClassDeclaration, ast.NodeClassExpression:
		if site := l.classSite(unit, node); site != nil {
			if !yield(site) {
				return false
			}
		}
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if !l.walk(unit, node.NamedChild(i), yield) {
			return false
		}
	}
	return true
}

// classSite collects the annotation sites on the class's own members.
func (l *Locator) classSite(unit *ast.SourceUnit, class *sitter.Node) *ClassSite {
	body := class.ChildByFieldName("body")
	if body == nil {
		for i := 0; i < int(class.NamedChildCount()); i++ {
			if c := class.NamedChild(i); c.Type() == ast.NodeClassBody {
				body = c
			}
		}
	}
	if body == nil {
		return nil
	}

	var sites []*AnnotationSite
	var pending []*sitter.Node
	for i := 0; i < int(body.ChildCount()); i++ {
		child := body.Child(i)
		switch child.Type() {
		case ast.NodeDecorator:
			// Method decorators are siblings that precede the method_definition.
			pending = append(pending, child)
		case ast.NodeComment:
		case ast.NodeMethodDefinition, ast.NodePublicFieldDefinition:
			decorators := append(pending, ownDecorators(child)...)
			pending = nil
			for _, d := range decorators {
				if l.isMarker(unit, d) {
					sites = append(sites, &AnnotationSite{Decorator: d, Member: child})
				}
			}
		default:
			pending = nil
		}
	}
	if len(sites) == 0 {
		return nil
	}

	site := &ClassSite{
		Node:       class,
		Decorators: classDecorators(class),
		Sites:      sites,
	}
	if name := class.ChildByFieldName("name"); name != nil {
		site.Name = unit.Text(name)
	}
	return site
}

func (l *Locator) isMarker(unit *ast.SourceUnit, decorator *sitter.Node) bool {
	callee, _, _ := ast.DecoratorParts(decorator)
	module, name, ok := unit.Imports.Resolve(unit, callee)
	return ok && module == l.opts.MarkerModule && name == l.opts.MarkerName
}

// ownDecorators returns decorator children of a member node.
func ownDecorators(member *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(member.ChildCount()); i++ {
		if c := member.Child(i); c.Type() == ast.NodeDecorator {
			out = append(out, c)
		}
	}
	return out
}

// classDecorators returns the decorators of a class, including those
// written before `export` when the class is exported.
func classDecorators(class *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	if parent := class.Parent(); parent != nil && parent.Type() == ast.NodeExportStatement {
		out = append(out, ownDecorators(parent)...)
	}
	return append(out, ownDecorators(class)...)
}
