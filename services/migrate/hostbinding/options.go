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

// Options selects which annotations are folded and how entries are rendered.
type Options struct {
	// MarkerModule is the module exporting the member annotation.
	MarkerModule string

	// MarkerName is the exported name of the member annotation.
	MarkerName string

	// HostModule is the module exporting the class decorators.
	HostModule string

	// HostDecorators are the class decorators whose first argument hosts
	// the configuration object, e.g. Component and Directive.
	HostDecorators []string

	// HostKey is the configuration property holding the host map.
	HostKey string

	// BracketKeys renders new keys as property bindings: `[class.active]`.
	BracketKeys bool

	// Quote is the quote character for synthesized strings: '\'' or '"'.
	Quote byte

	// RemoveUnusedImport drops the marker import once nothing references it.
	RemoveUnusedImport bool
}

// DefaultOptions returns the options for Angular's @HostBinding.
func DefaultOptions() Options {
	return Options{
		MarkerModule:       "@angular/core",
		MarkerName:         "HostBinding",
		HostModule:         "@angular/core",
		HostDecorators:     []string{"Component", "Directive"},
		HostKey:            "host",
		Quote:              '\'',
		RemoveUnusedImport: false,
	}
}

func (o Options) isHostDecorator(module, name string) bool {
	if module != o.HostModule {
		return false
	}
	for _, d := range o.HostDecorators {
		if d == name {
			return true
		}
	}
	return false
}

func (o Options) quote() byte {
	if o.Quote == '"' {
		return '"'
	}
	return '\''
}
