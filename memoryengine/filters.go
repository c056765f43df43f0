// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package memoryengine

import "github.com/AleutianAI/AleutianMemory/datatypes"

// MemoryFilter is a tag predicate the engine applies to a search.
// All name/value pairs inside one filter must match (AND); a list of
// filters matches when any of them does (OR).
type MemoryFilter map[string][]string

// OrFilters builds one single-tag filter per input tag. A document
// matches when it carries at least one of the tags. Duplicate tags are
// preserved. Returns nil for an empty input.
func OrFilters(tags []datatypes.Tag) []MemoryFilter {
	if len(tags) == 0 {
		return nil
	}
	filters := make([]MemoryFilter, 0, len(tags))
	for _, t := range tags {
		filters = append(filters, MemoryFilter{t.Name: []string{t.Value}})
	}
	return filters
}

// AndFilter builds a single compound filter requiring every input tag.
// Values for a repeated tag name accumulate under that name. Returns
// nil for an empty input.
func AndFilter(tags []datatypes.Tag) MemoryFilter {
	if len(tags) == 0 {
		return nil
	}
	filter := make(MemoryFilter, len(tags))
	for _, t := range tags {
		filter[t.Name] = append(filter[t.Name], t.Value)
	}
	return filter
}
