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

import "time"

// UploadDocumentResponse is the 202 body of POST /api/documents. The
// documentId is either the caller-supplied one or a freshly minted UUID.
type UploadDocumentResponse struct {
	DocumentID string `json:"documentId"`
}

// PipelineStatus reports how far the ingestion pipeline has taken a
// document. The pipeline itself (extraction, partitioning, embedding,
// storage) belongs to the memory engine; this service only relays its
// status.
type PipelineStatus struct {
	DocumentID     string              `json:"document_id"`
	Index          string              `json:"index,omitempty"`
	Completed      bool                `json:"completed"`
	Failed         bool                `json:"failed"`
	Empty          bool                `json:"empty,omitempty"`
	Tags           map[string][]string `json:"tags,omitempty"`
	Creation       time.Time           `json:"creation,omitempty"`
	LastUpdate     time.Time           `json:"last_update,omitempty"`
	Steps          []string            `json:"steps,omitempty"`
	RemainingSteps []string            `json:"remaining_steps,omitempty"`
	CompletedSteps []string            `json:"completed_steps,omitempty"`
}

// Message is a single chat turn sent to an LLM backend.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
