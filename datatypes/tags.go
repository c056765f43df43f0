// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes defines the wire types for the memory service HTTP API
// and the validation rules applied to them.
//
// Request types follow the Validate()/EnsureDefaults() convention: handlers
// bind the JSON body, call EnsureDefaults to fill generated fields, then
// Validate before any external call is made.
package datatypes

import (
	"fmt"
	"strings"
)

// Tag is a name/value predicate attached to documents and queries.
//
// # Description
//
// Tags carry no semantics beyond equality matching. On queries they become
// memory-engine filters (OR across tags by default); on uploads they are
// stored with the document. Both fields must be non-empty.
//
// # String Form
//
// The query-string and form representation is "name:value" with exactly one
// ':' separator. Anything else is a validation error, never silently
// truncated.
type Tag struct {
	Name  string `json:"name" validate:"required,notblank"`
	Value string `json:"value" validate:"required,notblank"`
}

// String returns the canonical "name:value" form.
func (t Tag) String() string {
	return t.Name + ":" + t.Value
}

// ParseTag parses a single "name:value" string into a Tag.
//
// # Description
//
// The input must contain exactly one ':' separator. Both sides are trimmed
// of surrounding whitespace and must be non-empty afterwards. Malformed
// input is rejected with an error describing the offending string; it is
// never coerced into a partial tag.
//
// # Examples
//
//	ParseTag("userId:42")     // Tag{Name: "userId", Value: "42"}
//	ParseTag(" city : Taggia") // Tag{Name: "city", Value: "Taggia"}
//	ParseTag("justavalue")    // error: missing separator
//	ParseTag("a:b:c")         // error: more than one separator
func ParseTag(s string) (Tag, error) {
	if strings.Count(s, ":") != 1 {
		return Tag{}, fmt.Errorf("invalid tag %q: expected exactly one ':' separator", s)
	}

	name, value, _ := strings.Cut(s, ":")
	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)
	if name == "" || value == "" {
		return Tag{}, fmt.Errorf("invalid tag %q: name and value must be non-empty", s)
	}

	return Tag{Name: name, Value: value}, nil
}

// ParseTags parses a list of "name:value" strings, failing on the first
// malformed entry. A nil or empty input yields a nil slice. Duplicates are
// preserved in order; the engine decides what duplicate predicates mean.
func ParseTags(values []string) ([]Tag, error) {
	if len(values) == 0 {
		return nil, nil
	}

	tags := make([]Tag, 0, len(values))
	for _, v := range values {
		tag, err := ParseTag(v)
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}
