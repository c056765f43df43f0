// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package services contains the business logic of the memory service.
//
// # Description
//
// MemoryService sits between the HTTP handlers and the memory engine.
// It owns conversation-aware question answering (reformulation, filter
// construction, history bookkeeping), stateless search, and ingestion
// pass-through. Handlers stay thin: they bind, validate, call one
// service method, and map sentinel errors to status codes.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/AleutianAI/AleutianMemory/conversation"
	"github.com/AleutianAI/AleutianMemory/datatypes"
	"github.com/AleutianAI/AleutianMemory/memoryengine"
	"github.com/AleutianAI/AleutianMemory/observability"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var memoryTracer = otel.Tracer("aleutian.memory.services")

// searchResultLimit caps the partitions returned by a search call.
const searchResultLimit = 50

// Sentinel errors callers can branch on with errors.Is.
var (
	// ErrNoAnswer means the engine found no grounded answer.
	ErrNoAnswer = errors.New("no grounded answer for question")

	// ErrDocumentNotFound means the engine has no pipeline for the
	// requested document.
	ErrDocumentNotFound = errors.New("document not found")
)

// =============================================================================
// MemoryService
// =============================================================================

// MemoryService orchestrates conversational retrieval and ingestion.
//
// # Thread Safety
//
// Safe for concurrent use. All state lives in the injected store and
// the engine.
type MemoryService struct {
	engine       *memoryengine.Client
	store        conversation.Store
	reformulator *conversation.Reformulator
}

// NewMemoryService wires a MemoryService from its dependencies.
func NewMemoryService(
	engine *memoryengine.Client,
	store conversation.Store,
	reformulator *conversation.Reformulator,
) *MemoryService {
	return &MemoryService{
		engine:       engine,
		store:        store,
		reformulator: reformulator,
	}
}

// AskQuestion answers a question grounded in the document memory.
//
// # Description
//
// The flow is:
//  1. Optionally rewrite the question against the conversation
//     transcript. A failed rewrite fails the request.
//  2. Normalize the query (trailing spaces and question marks confuse
//     embeddings search).
//  3. Build one OR filter per tag and ask the engine.
//  4. On a grounded answer, record the question/answer pair in the
//     conversation and return the response. On no result, leave the
//     conversation untouched and return ErrNoAnswer.
//
// # Outputs
//
//   - *datatypes.MemoryResponse: The grounded answer with citations.
//   - error: ErrNoAnswer when the engine has nothing, otherwise a
//     wrapped dependency error.
func (s *MemoryService) AskQuestion(ctx context.Context, q *datatypes.Question,
	opts datatypes.AskOptions) (*datatypes.MemoryResponse, error) {

	ctx, span := memoryTracer.Start(ctx, "MemoryService.AskQuestion")
	defer span.End()
	span.SetAttributes(
		attribute.String("conversation.id", q.ConversationID),
		attribute.Bool("ask.reformulate", opts.Reformulate),
		attribute.String("ask.index", opts.Index),
	)

	query := q.Text
	if opts.Reformulate {
		reformulated, err := s.reformulator.Reformulate(ctx, q.ConversationID, q.Text)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "reformulation failed")
			return nil, fmt.Errorf("reformulate question: %w", err)
		}
		query = reformulated
	}
	query = normalizeQuery(query)

	result, err := s.engine.Ask(ctx, memoryengine.AskRequest{
		Question:     query,
		Index:        opts.Index,
		Filters:      memoryengine.OrFilters(q.Tags),
		MinRelevance: opts.MinimumRelevance,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "engine ask failed")
		return nil, fmt.Errorf("engine ask failed: %w", err)
	}

	if result.NoResult {
		observability.NoResultTotal.Inc()
		span.SetAttributes(attribute.Bool("ask.no_result", true))
		return nil, ErrNoAnswer
	}

	err = s.store.Append(ctx, q.ConversationID,
		conversation.Turn{Role: conversation.RoleUser, Text: query},
		conversation.Turn{Role: conversation.RoleAssistant, Text: result.Text},
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "history write failed")
		return nil, fmt.Errorf("record interaction: %w", err)
	}

	answered := result.Question
	if strings.TrimSpace(answered) == "" {
		answered = query
	}
	return &datatypes.MemoryResponse{
		Question:  answered,
		Answer:    result.Text,
		Citations: result.RelevantSources,
	}, nil
}

// SearchDocuments runs a stateless partition search.
//
// No reformulation, no history. An empty match list is a normal result.
func (s *MemoryService) SearchDocuments(ctx context.Context, req *datatypes.Search,
	opts datatypes.SearchOptions) (*datatypes.SearchResult, error) {

	ctx, span := memoryTracer.Start(ctx, "MemoryService.SearchDocuments")
	defer span.End()
	span.SetAttributes(attribute.String("search.index", opts.Index))

	query := normalizeQuery(req.Text)
	resp, err := s.engine.Search(ctx, memoryengine.SearchRequest{
		Query:        query,
		Index:        opts.Index,
		Filters:      memoryengine.OrFilters(req.Tags),
		MinRelevance: opts.MinimumRelevance,
		Limit:        searchResultLimit,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "engine search failed")
		return nil, fmt.Errorf("engine search failed: %w", err)
	}

	results := resp.Results
	if results == nil {
		results = []datatypes.Citation{}
	}
	span.SetAttributes(attribute.Int("search.results", len(results)))
	return &datatypes.SearchResult{Query: query, Results: results}, nil
}

// ImportDocument hands a document to the engine's ingestion pipeline.
//
// # Description
//
// Mints a document ID when the caller did not supply one and streams
// the file to the engine. Ingestion is asynchronous; the returned ID is
// the handle for status polling and deletion.
func (s *MemoryService) ImportDocument(ctx context.Context, content io.Reader,
	fileName, documentID, index string, tags []datatypes.Tag) (string, error) {

	ctx, span := memoryTracer.Start(ctx, "MemoryService.ImportDocument")
	defer span.End()

	if documentID == "" {
		documentID = uuid.NewString()
	}
	span.SetAttributes(
		attribute.String("document.id", documentID),
		attribute.String("document.file_name", fileName),
	)

	err := s.engine.Import(ctx, memoryengine.ImportRequest{
		Content:    content,
		FileName:   fileName,
		DocumentID: documentID,
		Index:      index,
		Tags:       tags,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "engine import failed")
		return "", fmt.Errorf("engine import failed: %w", err)
	}

	slog.Info("Document queued for ingestion",
		"documentId", documentID, "fileName", fileName, "index", index)
	return documentID, nil
}

// DocumentStatus reports ingestion progress for a document.
func (s *MemoryService) DocumentStatus(ctx context.Context, index, documentID string) (*datatypes.PipelineStatus, error) {
	ctx, span := memoryTracer.Start(ctx, "MemoryService.DocumentStatus")
	defer span.End()
	span.SetAttributes(attribute.String("document.id", documentID))

	status, err := s.engine.Status(ctx, index, documentID)
	if err != nil {
		var engineErr *memoryengine.EngineError
		if errors.As(err, &engineErr) && engineErr.StatusCode == http.StatusNotFound {
			return nil, ErrDocumentNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "engine status failed")
		return nil, fmt.Errorf("engine status failed: %w", err)
	}
	return status, nil
}

// DeleteDocument removes a document from the engine. Deleting an
// unknown document succeeds.
func (s *MemoryService) DeleteDocument(ctx context.Context, index, documentID string) error {
	ctx, span := memoryTracer.Start(ctx, "MemoryService.DeleteDocument")
	defer span.End()
	span.SetAttributes(attribute.String("document.id", documentID))

	if err := s.engine.Delete(ctx, index, documentID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "engine delete failed")
		return fmt.Errorf("engine delete failed: %w", err)
	}
	return nil
}

// normalizeQuery strips trailing spaces and question marks, which add
// noise to embeddings search.
func normalizeQuery(q string) string {
	return strings.TrimRight(q, " ?")
}
