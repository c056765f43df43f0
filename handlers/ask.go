// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers contains the Gin handlers for the memory service API.
//
// Handlers bind and validate the request, delegate to the service
// layer, and map sentinel errors to HTTP status codes. No business
// logic lives here.
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/AleutianAI/AleutianMemory/datatypes"
	"github.com/AleutianAI/AleutianMemory/observability"
	"github.com/AleutianAI/AleutianMemory/services"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var handlerTracer = otel.Tracer("aleutian.memory.handlers")

// HandleAsk answers a conversational question against document memory.
//
// # Description
//
// POST /api/ask. Query parameters:
//   - reformulate: rewrite the question using conversation history
//     (default true)
//   - minimumRelevance: similarity floor passed to the engine
//   - index: target index (default "default")
//
// Responds 200 with the grounded answer, 404 when the engine has no
// answer, 400 on a malformed request, 502 on dependency failure.
func HandleAsk(svc *services.MemoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "HandleAsk")
		defer span.End()
		start := time.Now()

		var question datatypes.Question
		if err := c.BindJSON(&question); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			observability.RequestsTotal.WithLabelValues("ask", "client_error").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := question.Validate(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "validation failed")
			observability.RequestsTotal.WithLabelValues("ask", "client_error").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		opts, err := askOptionsFromQuery(c)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "validation failed")
			observability.RequestsTotal.WithLabelValues("ask", "client_error").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		resp, err := svc.AskQuestion(ctx, &question, opts)
		observability.RequestDurationSeconds.WithLabelValues("ask").
			Observe(time.Since(start).Seconds())
		if err != nil {
			if errors.Is(err, services.ErrNoAnswer) {
				observability.RequestsTotal.WithLabelValues("ask", "no_result").Inc()
				c.JSON(http.StatusNotFound, gin.H{"error": "no answer found for the question"})
				return
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Ask failed", "conversationId", question.ConversationID, "error", err)
			observability.RequestsTotal.WithLabelValues("ask", "dependency_error").Inc()
			c.JSON(http.StatusBadGateway, gin.H{"error": "memory engine unavailable"})
			return
		}

		observability.RequestsTotal.WithLabelValues("ask", "ok").Inc()
		c.JSON(http.StatusOK, resp)
	}
}

// askOptionsFromQuery reads the ask query-string knobs, applying the
// documented defaults for absent values. Malformed values are a
// client error.
func askOptionsFromQuery(c *gin.Context) (datatypes.AskOptions, error) {
	opts := datatypes.DefaultAskOptions()
	if raw := c.Query("reformulate"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, fmt.Errorf("invalid reformulate value %q", raw)
		}
		opts.Reformulate = v
	}
	relevance, err := minimumRelevanceFromQuery(c)
	if err != nil {
		return opts, err
	}
	opts.MinimumRelevance = relevance
	if index := c.Query("index"); index != "" {
		opts.Index = index
	}
	return opts, nil
}

// minimumRelevanceFromQuery parses the shared minimumRelevance knob.
// It must be a number in [0, 1]; absent means 0 (no floor).
func minimumRelevanceFromQuery(c *gin.Context) (float64, error) {
	raw := c.Query("minimumRelevance")
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || v > 1 {
		return 0, fmt.Errorf("invalid minimumRelevance value %q", raw)
	}
	return v, nil
}
