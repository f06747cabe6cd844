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

// MergeOptions controls how annotation bindings are rendered as entries.
type MergeOptions struct {
	// BracketKeys wraps plain keys as property bindings: [key].
	BracketKeys bool

	// Quote is the quote character used for rendered values.
	Quote byte
}

// MergedResult is the final ordered host map of one class.
type MergedResult struct {
	Entries []Entry
}

// Appended returns the entries that are new to the host object.
func (m *MergedResult) Appended() []Entry {
	var out []Entry
	for _, e := range m.Entries {
		if e.Origin == OriginAppended {
			out = append(out, e)
		}
	}
	return out
}

// Overridden returns the pre-existing entries whose value was replaced.
func (m *MergedResult) Overridden() []Entry {
	var out []Entry
	for _, e := range m.Entries {
		if e.Origin == OriginOverridden {
			out = append(out, e)
		}
	}
	return out
}

// Lookup returns the entry for key.
func (m *MergedResult) Lookup(key string) (Entry, bool) {
	for _, e := range m.Entries {
		if e.Key == key {
			return e, true
		}
	}
	return Entry{}, false
}

// Merge combines the baseline host entries with annotation bindings.
//
// Description:
//
//	Starts from the baseline entries in their original order with their
//	original value text. Each binding, in source order, is rendered as a
//	string literal holding its reference expression and upserted: an
//	existing key keeps its slot and takes the new value, a new key is
//	appended. The last writer in source order therefore wins on value
//	while first occurrence decides position.
//
// Inputs:
//   - baseline: Entries of the pre-existing host object, keys unique.
//     The extractor rejects objects that repeat a key. Not modified.
//   - bindings: Extracted bindings in source order.
//   - opts: Key and value rendering.
//
// Outputs:
//   - *MergedResult: Keys are unique. Never nil.
func Merge(baseline []Entry, bindings []Binding, opts MergeOptions) *MergedResult {
	q := opts.Quote
	if q != '"' {
		q = '\''
	}

	result := &MergedResult{Entries: make([]Entry, 0, len(baseline)+len(bindings))}
	index := make(map[string]int, len(baseline)+len(bindings))
	for _, e := range baseline {
		index[e.Key] = len(result.Entries)
		result.Entries = append(result.Entries, e)
	}

	for _, b := range bindings {
		key := BindingKey(b.Key, opts.BracketKeys)
		value := QuoteString(b.Reference(), q)
		if i, ok := index[key]; ok {
			entry := &result.Entries[i]
			entry.Value = value
			if entry.Origin == OriginBaseline {
				entry.Origin = OriginOverridden
			}
			continue
		}
		index[key] = len(result.Entries)
		result.Entries = append(result.Entries, Entry{
			Key:    key,
			Value:  value,
			Origin: OriginAppended,
		})
	}
	return result
}
