// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultIndex is the memory-engine index used when a request does not name
// one.
const DefaultIndex = "default"

// =============================================================================
// Shared Validator Instance
// =============================================================================

// memoryValidate is the validator instance for memory-service datatypes.
// Initialized in init() with custom validators.
var memoryValidate *validator.Validate

func init() {
	memoryValidate = validator.New()

	// "required" alone accepts strings of pure whitespace; notblank does not.
	_ = memoryValidate.RegisterValidation("notblank", validateNotBlank)
}

// validateNotBlank rejects strings that are empty after trimming whitespace.
func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// =============================================================================
// Ask Types
// =============================================================================

// Question is the body of POST /api/ask.
//
// # Description
//
// ConversationID is an opaque caller-supplied token (typically a UUID)
// identifying the conversation whose transcript grounds the reformulation.
// Text is the raw, possibly context-dependent question. Tags become OR
// filters on the retrieval call.
//
// # Validation
//
//   - ConversationID: required, non-blank
//   - Text: required, non-blank
//   - Tags: optional; each tag needs a non-blank name and value
type Question struct {
	ConversationID string `json:"conversationId" validate:"required,notblank"`
	Text           string `json:"text" validate:"required,notblank"`
	Tags           []Tag  `json:"tags" validate:"omitempty,dive"`
}

// Validate validates the Question fields after JSON binding.
func (q *Question) Validate() error {
	return memoryValidate.Struct(q)
}

// AskOptions are the query-string knobs of POST /api/ask.
//
// Reformulate defaults to true: the question is rewritten against the
// conversation transcript before retrieval. MinimumRelevance is the engine's
// similarity floor (engine-defined scale, default 0). Index defaults to
// DefaultIndex.
type AskOptions struct {
	Reformulate      bool
	MinimumRelevance float64
	Index            string
}

// DefaultAskOptions returns the documented defaults for ask.
func DefaultAskOptions() AskOptions {
	return AskOptions{
		Reformulate:      true,
		MinimumRelevance: 0,
		Index:            DefaultIndex,
	}
}

// MemoryResponse is the successful answer of POST /api/ask.
//
// Question echoes the question the engine actually answered (the
// reformulated one when reformulation ran). A no-result ask never produces
// a MemoryResponse; it surfaces as 404.
type MemoryResponse struct {
	Question  string     `json:"question"`
	Answer    string     `json:"answer"`
	Citations []Citation `json:"citations"`
}

// =============================================================================
// Search Types
// =============================================================================

// Search is the body of POST /api/search.
//
// Search is stateless: no conversation, no reformulation, no history
// mutation. Tags become OR filters exactly as on ask.
type Search struct {
	Text string `json:"text" validate:"required,notblank"`
	Tags []Tag  `json:"tags" validate:"omitempty,dive"`
}

// Validate validates the Search fields after JSON binding.
func (s *Search) Validate() error {
	return memoryValidate.Struct(s)
}

// SearchOptions are the query-string knobs of POST /api/search.
type SearchOptions struct {
	MinimumRelevance float64
	Index            string
}

// DefaultSearchOptions returns the documented defaults for search.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		MinimumRelevance: 0,
		Index:            DefaultIndex,
	}
}

// SearchResult is the engine's match list, returned to the caller verbatim.
// An empty Results slice is a normal 200, not an error.
type SearchResult struct {
	Query   string     `json:"query"`
	Results []Citation `json:"results"`
}

// =============================================================================
// Citations
// =============================================================================

// Citation references a source document contributing to an answer or a
// search match.
type Citation struct {
	Link       string      `json:"link,omitempty"`
	Index      string      `json:"index,omitempty"`
	DocumentID string      `json:"documentId"`
	FileName   string      `json:"fileName,omitempty"`
	Partitions []Partition `json:"partitions,omitempty"`
}

// Partition is a scored passage within a cited document.
type Partition struct {
	Text      string              `json:"text"`
	Relevance float64             `json:"relevance"`
	Tags      map[string][]string `json:"tags,omitempty"`
}
