// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/AleutianAI/AleutianMemory/datatypes"
	"github.com/AleutianAI/AleutianMemory/observability"
	"github.com/AleutianAI/AleutianMemory/services"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
)

// HandleSearch returns raw partition matches without generation.
//
// POST /api/search. An empty match list is a normal 200; search never
// produces a 404.
func HandleSearch(svc *services.MemoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "HandleSearch")
		defer span.End()
		start := time.Now()

		var search datatypes.Search
		if err := c.BindJSON(&search); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			observability.RequestsTotal.WithLabelValues("search", "client_error").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := search.Validate(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "validation failed")
			observability.RequestsTotal.WithLabelValues("search", "client_error").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		opts := datatypes.DefaultSearchOptions()
		relevance, err := minimumRelevanceFromQuery(c)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "validation failed")
			observability.RequestsTotal.WithLabelValues("search", "client_error").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		opts.MinimumRelevance = relevance
		if index := c.Query("index"); index != "" {
			opts.Index = index
		}

		result, err := svc.SearchDocuments(ctx, &search, opts)
		observability.RequestDurationSeconds.WithLabelValues("search").
			Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Search failed", "error", err)
			observability.RequestsTotal.WithLabelValues("search", "dependency_error").Inc()
			c.JSON(http.StatusBadGateway, gin.H{"error": "memory engine unavailable"})
			return
		}

		observability.RequestsTotal.WithLabelValues("search", "ok").Inc()
		c.JSON(http.StatusOK, result)
	}
}
