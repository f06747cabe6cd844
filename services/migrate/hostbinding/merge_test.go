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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestMerge(t *testing.T) {
	baseline := []Entry{
		{Key: "[class.active]", Value: "'isActive'", Origin: OriginBaseline, ValueSpan: Span{Start: 10, End: 20}},
		{Key: "role", Value: "'button'", Origin: OriginBaseline, ValueSpan: Span{Start: 30, End: 38}},
	}

	tests := []struct {
		name     string
		bindings []Binding
		opts     MergeOptions
		want     []Entry
	}{
		{
			name: "no bindings keeps baseline",
			want: baseline,
		},
		{
			name: "appends in source order",
			bindings: []Binding{
				{Key: "attr.aria-disabled", Member: "isDisabled", Kind: MemberGetter},
				{Key: "tabIndex", Member: "getTabIndex", Kind: MemberMethod},
			},
			want: []Entry{
				baseline[0],
				baseline[1],
				{Key: "attr.aria-disabled", Value: "'this.isDisabled'", Origin: OriginAppended},
				{Key: "tabIndex", Value: "'this.getTabIndex()'", Origin: OriginAppended},
			},
		},
		{
			name: "override keeps slot",
			bindings: []Binding{
				{Key: "role", Member: "role", Kind: MemberField},
			},
			want: []Entry{
				baseline[0],
				{Key: "role", Value: "'this.role'", Origin: OriginOverridden, ValueSpan: Span{Start: 30, End: 38}},
			},
		},
		{
			name: "last write wins first slot stays",
			bindings: []Binding{
				{Key: "class.a", Member: "a", Kind: MemberField},
				{Key: "class.b", Member: "b", Kind: MemberField},
				{Key: "class.a", Member: "c", Kind: MemberMethod},
			},
			want: []Entry{
				baseline[0],
				baseline[1],
				{Key: "class.a", Value: "'this.c()'", Origin: OriginAppended},
				{Key: "class.b", Value: "'this.b'", Origin: OriginAppended},
			},
		},
		{
			name: "bracket keys collide with binding syntax",
			bindings: []Binding{
				{Key: "class.active", Member: "active", Kind: MemberField},
			},
			opts: MergeOptions{BracketKeys: true, Quote: '"'},
			want: []Entry{
				{Key: "[class.active]", Value: `"this.active"`, Origin: OriginOverridden, ValueSpan: Span{Start: 10, End: 20}},
				baseline[1],
			},
		},
		{
			name: "plain keys do not collide with binding syntax",
			bindings: []Binding{
				{Key: "class.active", Member: "active", Kind: MemberField},
			},
			want: []Entry{
				baseline[0],
				baseline[1],
				{Key: "class.active", Value: "'this.active'", Origin: OriginAppended},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(baseline, tt.bindings, tt.opts)
			if diff := cmp.Diff(tt.want, got.Entries); diff != "" {
				t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMerge_DoesNotModifyBaseline(t *testing.T) {
	baseline := []Entry{{Key: "a", Value: "'x'", Origin: OriginBaseline}}
	Merge(baseline, []Binding{{Key: "a", Member: "y", Kind: MemberField}}, MergeOptions{})

	assert.Equal(t, "'x'", baseline[0].Value)
	assert.Equal(t, OriginBaseline, baseline[0].Origin)
}

func TestMergedResult_Views(t *testing.T) {
	got := Merge(
		[]Entry{{Key: "a", Value: "'x'"}, {Key: "b", Value: "'y'"}},
		[]Binding{{Key: "b", Member: "b"}, {Key: "c", Member: "c"}},
		MergeOptions{},
	)

	assert.Len(t, got.Overridden(), 1)
	assert.Equal(t, "b", got.Overridden()[0].Key)
	assert.Len(t, got.Appended(), 1)
	assert.Equal(t, "c", got.Appended()[0].Key)

	e, ok := got.Lookup("b")
	assert.True(t, ok)
	assert.Equal(t, "'this.b'", e.Value)
	_, ok = got.Lookup("missing")
	assert.False(t, ok)
}
