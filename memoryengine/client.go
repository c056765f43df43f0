// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package memoryengine is the HTTP client for the memory engine service,
// which owns document ingestion, embeddings, and retrieval.
//
// # Description
//
// The engine exposes a small JSON API:
//   - POST /ask            grounded question answering
//   - POST /search         partition search without generation
//   - POST /upload         multipart document ingestion
//   - GET  /upload-status  ingestion pipeline status
//   - DELETE /documents    document removal
//
// Client methods translate engine failures into *EngineError so callers
// can branch on the upstream status code.
package memoryengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianMemory/datatypes"
	"github.com/AleutianAI/AleutianMemory/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var engineTracer = otel.Tracer("aleutian.memory.engine")

// =============================================================================
// Errors
// =============================================================================

// EngineError reports a non-success response from the memory engine.
type EngineError struct {
	StatusCode int
	Message    string
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("memory engine returned status %d: %s", e.StatusCode, e.Message)
}

// =============================================================================
// Request / Response Types
// =============================================================================

// AskRequest is the payload for POST /ask.
type AskRequest struct {
	Question     string         `json:"question"`
	Index        string         `json:"index,omitempty"`
	Filters      []MemoryFilter `json:"filters,omitempty"`
	MinRelevance float64        `json:"minRelevance,omitempty"`
}

// AskResult is the engine's answer to an ask request.
//
// NoResult true means the engine found no grounded answer; Text and
// RelevantSources are empty in that case.
type AskResult struct {
	Question        string               `json:"question"`
	NoResult        bool                 `json:"noResult"`
	Text            string               `json:"text"`
	RelevantSources []datatypes.Citation `json:"relevantSources"`
}

// SearchRequest is the payload for POST /search.
type SearchRequest struct {
	Query        string         `json:"query"`
	Index        string         `json:"index,omitempty"`
	Filters      []MemoryFilter `json:"filters,omitempty"`
	MinRelevance float64        `json:"minRelevance,omitempty"`
	Limit        int            `json:"limit,omitempty"`
}

// SearchResponse is the engine's result set for a search request.
type SearchResponse struct {
	Query    string               `json:"query"`
	NoResult bool                 `json:"noResult"`
	Results  []datatypes.Citation `json:"results"`
}

// ImportRequest describes a document to ingest.
type ImportRequest struct {
	// Content streams the file body. Required.
	Content io.Reader
	// FileName is the original file name, used by the engine for
	// content-type detection and citations.
	FileName string
	// DocumentID identifies the document. Required; the caller mints
	// one when the user did not supply it.
	DocumentID string
	// Index is the target index. Empty selects the engine default.
	Index string
	// Tags are attached to every partition of the document.
	Tags []datatypes.Tag
}

// =============================================================================
// Client
// =============================================================================

// Client talks to the memory engine over HTTP.
//
// # Thread Safety
//
// Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient builds a Client from the MEMORY_ENGINE_URL environment
// variable, defaulting to the compose-network address.
func NewClient() *Client {
	baseURL := os.Getenv("MEMORY_ENGINE_URL")
	if baseURL == "" {
		baseURL = "http://aleutian-memory-engine:9001"
		slog.Warn("MEMORY_ENGINE_URL not set, using default", "url", baseURL)
	}
	return NewClientWithURL(baseURL)
}

// NewClientWithURL builds a Client against an explicit base URL.
func NewClientWithURL(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

// Ask runs grounded question answering against the engine.
func (c *Client) Ask(ctx context.Context, req AskRequest) (*AskResult, error) {
	ctx, span := engineTracer.Start(ctx, "Client.Ask")
	defer span.End()
	span.SetAttributes(
		attribute.String("engine.index", req.Index),
		attribute.Int("engine.filters", len(req.Filters)),
	)

	var result AskResult
	err := c.postJSON(ctx, "/ask", req, &result)
	observability.RecordEngineCall("ask", err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ask failed")
		return nil, err
	}
	span.SetAttributes(attribute.Bool("engine.no_result", result.NoResult))
	return &result, nil
}

// Search returns matching partitions without generation.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	ctx, span := engineTracer.Start(ctx, "Client.Search")
	defer span.End()
	span.SetAttributes(
		attribute.String("engine.index", req.Index),
		attribute.Int("engine.limit", req.Limit),
	)

	var result SearchResponse
	err := c.postJSON(ctx, "/search", req, &result)
	observability.RecordEngineCall("search", err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("engine.results", len(result.Results)))
	return &result, nil
}

// Import streams a document into the engine's ingestion pipeline.
//
// # Description
//
// Sends a multipart form with the file body plus documentId, index, and
// one "name:value" field per tag. The engine accepts the upload and
// processes it asynchronously; use Status to follow progress.
func (c *Client) Import(ctx context.Context, req ImportRequest) error {
	ctx, span := engineTracer.Start(ctx, "Client.Import")
	defer span.End()
	span.SetAttributes(
		attribute.String("engine.document_id", req.DocumentID),
		attribute.String("engine.file_name", req.FileName),
	)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", req.FileName)
	if err != nil {
		return fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := io.Copy(part, req.Content); err != nil {
		return fmt.Errorf("failed to read upload content: %w", err)
	}
	if err := writer.WriteField("documentId", req.DocumentID); err != nil {
		return fmt.Errorf("failed to build upload form: %w", err)
	}
	if req.Index != "" {
		if err := writer.WriteField("index", req.Index); err != nil {
			return fmt.Errorf("failed to build upload form: %w", err)
		}
	}
	for _, tag := range req.Tags {
		if err := writer.WriteField("tags", tag.String()); err != nil {
			return fmt.Errorf("failed to build upload form: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to build upload form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/upload", &body)
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(httpReq)
	observability.RecordEngineCall("import", err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload failed")
		return fmt.Errorf("engine upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		respBody, _ := io.ReadAll(resp.Body)
		span.SetAttributes(attribute.Int("engine.status_code", resp.StatusCode))
		span.SetStatus(codes.Error, "upload rejected")
		return &EngineError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	return nil
}

// Status fetches the ingestion pipeline state for a document.
//
// An engine 404 comes back as *EngineError with StatusCode 404.
func (c *Client) Status(ctx context.Context, index, documentID string) (*datatypes.PipelineStatus, error) {
	ctx, span := engineTracer.Start(ctx, "Client.Status")
	defer span.End()
	span.SetAttributes(attribute.String("engine.document_id", documentID))

	statusURL := fmt.Sprintf("%s/upload-status?%s", c.baseURL, statusQuery(index, documentID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create status request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	observability.RecordEngineCall("status", err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "status failed")
		return nil, fmt.Errorf("engine status failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read status response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		span.SetAttributes(attribute.Int("engine.status_code", resp.StatusCode))
		return nil, &EngineError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	var status datatypes.PipelineStatus
	if err := json.Unmarshal(respBody, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status response: %w", err)
	}
	return &status, nil
}

// Delete removes a document and its partitions from the engine.
//
// Deleting an unknown document is not an error; the engine's 404 is
// swallowed so the operation stays idempotent.
func (c *Client) Delete(ctx context.Context, index, documentID string) error {
	ctx, span := engineTracer.Start(ctx, "Client.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("engine.document_id", documentID))

	deleteURL := fmt.Sprintf("%s/documents?%s", c.baseURL, statusQuery(index, documentID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, deleteURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create delete request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	observability.RecordEngineCall("delete", err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return fmt.Errorf("engine delete failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		respBody, _ := io.ReadAll(resp.Body)
		span.SetAttributes(attribute.Int("engine.status_code", resp.StatusCode))
		return &EngineError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	return nil
}

// postJSON sends a JSON payload and decodes a JSON response into out.
func (c *Client) postJSON(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal engine request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create engine request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("engine request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read engine response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &EngineError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse engine response: %w", err)
	}
	return nil
}

func statusQuery(index, documentID string) string {
	q := url.Values{}
	if index != "" {
		q.Set("index", index)
	}
	q.Set("documentId", documentID)
	return q.Encode()
}
