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
	"fmt"

	"github.com/AleutianAI/ngmigrate/services/migrate/ast"
	sitter "github.com/smacker/go-tree-sitter"
)

// InsertionError reports that a class has no statically valid place to
// host the merged bindings. The class is left unmodified.
type InsertionError struct {
	Reason string
}

// Error implements error.
func (e *InsertionError) Error() string {
	return "cannot host bindings: " + e.Reason
}

func insertionErrorf(format string, args ...any) *InsertionError {
	return &InsertionError{Reason: fmt.Sprintf(format, args...)}
}

// HostTarget is where the host map lives or will be inserted.
type HostTarget struct {
	// Decorator is the class decorator hosting the configuration.
	Decorator *sitter.Node

	// Call is the decorator's call expression; nil for `@Component`.
	Call *sitter.Node

	// Args is the argument list; nil for `@Component`.
	Args *sitter.Node

	// Config is the configuration object literal; nil when the call has no
	// arguments.
	Config *sitter.Node

	// HostPair is the `host: {...}` pair inside Config, if present.
	HostPair *sitter.Node

	// HostObject is HostPair's object literal value.
	HostObject *sitter.Node
}

// Extraction is everything the merge and rewrite stages need for a class.
type Extraction struct {
	// Bindings are the successfully extracted sites, in source order.
	Bindings []Binding

	// Baseline are the entries of the pre-existing host object, in order.
	Baseline []Entry

	// Target locates the host map.
	Target *HostTarget
}

// Extractor derives bindings and the baseline host map from a ClassSite.
//
// Thread Safety: Extractor is immutable and safe for concurrent use.
type Extractor struct {
	opts Options
}

// NewExtractor creates an Extractor.
func NewExtractor(opts Options) *Extractor {
	return &Extractor{opts: opts}
}

// Extract reads the bindings and the host target of class.
//
// Description:
//
//	Sites whose shape cannot be determined statically produce an
//	ExtractionWarning and are left out of Bindings. The host target is only
//	resolved when at least one binding was extracted.
//
// Outputs:
//   - *Extraction: Bindings, baseline entries and target.
//   - []Warning: One ExtractionWarning per skipped site.
//   - error: *InsertionError when the class cannot host the bindings.
func (e *Extractor) Extract(unit *ast.SourceUnit, class *ClassSite) (*Extraction, []Warning, error) {
	ext := &Extraction{}
	var warnings []Warning

	for _, site := range class.Sites {
		b, err := e.binding(unit, site)
		if err != nil {
			warnings = append(warnings, Warning{
				Kind:    ExtractionWarning,
				Class:   class.Name,
				Member:  memberName(unit, site.Member),
				Line:    unit.Line(site.Decorator),
				Message: err.Error(),
			})
			continue
		}
		ext.Bindings = append(ext.Bindings, b)
	}
	if len(ext.Bindings) == 0 {
		return ext, warnings, nil
	}

	target, err := e.target(unit, class)
	if err != nil {
		return ext, warnings, err
	}
	ext.Target = target

	if target.HostObject != nil {
		baseline, err := e.baseline(unit, target.HostObject)
		if err != nil {
			return ext, warnings, err
		}
		ext.Baseline = baseline
	}
	return ext, warnings, nil
}

// binding extracts {key, member, kind} from one site.
func (e *Extractor) binding(unit *ast.SourceUnit, site *AnnotationSite) (Binding, error) {
	_, call, args := ast.DecoratorParts(site.Decorator)
	if call == nil || args == nil {
		return Binding{}, fmt.Errorf("@%s is used without arguments", e.opts.MarkerName)
	}
	argNodes := ast.NamedChildrenNoComments(args)
	if len(argNodes) != 1 {
		return Binding{}, fmt.Errorf("@%s expects exactly one argument, got %d", e.opts.MarkerName, len(argNodes))
	}
	key, ok := ast.StringValue(unit, argNodes[0])
	if !ok {
		return Binding{}, fmt.Errorf("@%s argument %s is not a static string literal", e.opts.MarkerName, unit.Text(argNodes[0]))
	}
	if key == "" {
		return Binding{}, fmt.Errorf("@%s argument is an empty string", e.opts.MarkerName)
	}

	kind, err := memberKind(site.Member)
	if err != nil {
		return Binding{}, err
	}

	nameNode := memberNameNode(site.Member)
	if nameNode == nil {
		return Binding{}, fmt.Errorf("annotated member has no name")
	}
	switch nameNode.Type() {
	case ast.NodePropertyIdentifier, ast.NodePrivatePropertyIdentifier:
	default:
		return Binding{}, fmt.Errorf("member name %s is not a plain identifier", unit.Text(nameNode))
	}

	return Binding{
		Key:    key,
		Member: unit.Text(nameNode),
		Kind:   kind,
		Site:   site,
	}, nil
}

// memberKind classifies a member: field, getter or method. Setters are
// rejected since they cannot be read.
func memberKind(member *sitter.Node) (MemberKind, error) {
	if member.Type() == ast.NodePublicFieldDefinition {
		return MemberField, nil
	}
	for i := 0; i < int(member.ChildCount()); i++ {
		c := member.Child(i)
		if c.IsNamed() {
			continue
		}
		switch c.Type() {
		case ast.TokenGet:
			return MemberGetter, nil
		case ast.TokenSet:
			return 0, fmt.Errorf("annotation on a setter is not supported")
		}
	}
	return MemberMethod, nil
}

func memberNameNode(member *sitter.Node) *sitter.Node {
	if n := member.ChildByFieldName("name"); n != nil {
		return n
	}
	for i := 0; i < int(member.NamedChildCount()); i++ {
		c := member.NamedChild(i)
		switch c.Type() {
		case ast.NodePropertyIdentifier, ast.NodePrivatePropertyIdentifier, ast.NodeComputedPropertyName, ast.NodeString, ast.NodeNumber:
			return c
		}
	}
	return nil
}

func memberName(unit *ast.SourceUnit, member *sitter.Node) string {
	return unit.Text(memberNameNode(member))
}

// target finds the class decorator that hosts the configuration object.
func (e *Extractor) target(unit *ast.SourceUnit, class *ClassSite) (*HostTarget, error) {
	var t *HostTarget
	for _, d := range class.Decorators {
		callee, call, args := ast.DecoratorParts(d)
		module, name, ok := unit.Imports.Resolve(unit, callee)
		if ok && e.opts.isHostDecorator(module, name) {
			t = &HostTarget{Decorator: d, Call: call, Args: args}
			break
		}
	}
	if t == nil {
		return nil, insertionErrorf("class has no %v decorator from %s", e.opts.HostDecorators, e.opts.HostModule)
	}
	if t.Args == nil {
		return t, nil
	}

	argNodes := ast.NamedChildrenNoComments(t.Args)
	if len(argNodes) == 0 {
		return t, nil
	}
	config := argNodes[0]
	if config.Type() != ast.NodeObject {
		return nil, insertionErrorf("configuration argument %s is not an object literal", unit.Text(config))
	}
	t.Config = config

	for _, prop := range ast.NamedChildrenNoComments(config) {
		switch prop.Type() {
		case ast.NodePair:
			key, ok := ast.PropertyKey(unit, prop.ChildByFieldName("key"))
			if !ok || key != e.opts.HostKey {
				continue
			}
			if t.HostPair != nil {
				return nil, insertionErrorf("configuration declares %q more than once", e.opts.HostKey)
			}
			value := prop.ChildByFieldName("value")
			if value == nil || value.Type() != ast.NodeObject {
				return nil, insertionErrorf("%s property is not an object literal", e.opts.HostKey)
			}
			t.HostPair = prop
			t.HostObject = value
		case ast.NodeSpreadElement:
			return nil, insertionErrorf("configuration object contains a spread element")
		case ast.NodeShorthandProperty:
			if unit.Text(prop) == e.opts.HostKey {
				return nil, insertionErrorf("%s is a shorthand property", e.opts.HostKey)
			}
		}
	}
	return t, nil
}

// baseline reads the entries of an existing host object.
func (e *Extractor) baseline(unit *ast.SourceUnit, object *sitter.Node) ([]Entry, error) {
	var entries []Entry
	seen := make(map[string]bool)
	for _, prop := range ast.NamedChildrenNoComments(object) {
		if prop.Type() != ast.NodePair {
			return nil, insertionErrorf("%s object contains %s %s", e.opts.HostKey, prop.Type(), unit.Text(prop))
		}
		key, ok := ast.PropertyKey(unit, prop.ChildByFieldName("key"))
		if !ok {
			return nil, insertionErrorf("%s object has a computed key %s", e.opts.HostKey, unit.Text(prop.ChildByFieldName("key")))
		}
		if seen[key] {
			return nil, insertionErrorf("%s object declares key %q more than once", e.opts.HostKey, key)
		}
		seen[key] = true
		value := prop.ChildByFieldName("value")
		if value == nil {
			return nil, insertionErrorf("%s entry %q has no value", e.opts.HostKey, key)
		}
		entries = append(entries, Entry{
			Key:       key,
			Value:     unit.Text(value),
			Origin:    OriginBaseline,
			ValueSpan: Span{Start: int(value.StartByte()), End: int(value.EndByte())},
		})
	}
	return entries, nil
}
