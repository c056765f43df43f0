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
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/AleutianAI/AleutianMemory/datatypes"
	"github.com/AleutianAI/AleutianMemory/observability"
	"github.com/AleutianAI/AleutianMemory/services"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
)

// HandleUploadDocument accepts a file for asynchronous ingestion.
//
// # Description
//
// POST /api/documents, multipart form:
//   - file: the document body (required)
//   - documentId: optional; one is minted when absent
//   - index: optional target index
//   - tag: repeatable "name:value" pairs attached to the document
//
// Responds 202 with {"documentId": ...} and a Location header pointing
// at the status endpoint. A malformed tag is a 400; the upload is not
// forwarded.
func HandleUploadDocument(svc *services.MemoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "HandleUploadDocument")
		defer span.End()
		start := time.Now()

		fileHeader, err := c.FormFile("file")
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "missing file")
			observability.RequestsTotal.WithLabelValues("upload", "client_error").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing file part"})
			return
		}

		tags, err := datatypes.ParseTags(c.PostFormArray("tag"))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "invalid tag")
			observability.RequestsTotal.WithLabelValues("upload", "client_error").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "unreadable file")
			observability.RequestsTotal.WithLabelValues("upload", "client_error").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file part"})
			return
		}
		defer file.Close()

		documentID := c.PostForm("documentId")
		index := c.PostForm("index")

		documentID, err = svc.ImportDocument(ctx, file, fileHeader.Filename, documentID, index, tags)
		observability.RequestDurationSeconds.WithLabelValues("upload").
			Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Document upload failed", "fileName", fileHeader.Filename, "error", err)
			observability.RequestsTotal.WithLabelValues("upload", "dependency_error").Inc()
			c.JSON(http.StatusBadGateway, gin.H{"error": "memory engine unavailable"})
			return
		}

		observability.RequestsTotal.WithLabelValues("upload", "ok").Inc()
		c.Header("Location", fmt.Sprintf("/api/documents/%s/status", documentID))
		c.JSON(http.StatusAccepted, datatypes.UploadDocumentResponse{DocumentID: documentID})
	}
}

// HandleDocumentStatus reports ingestion progress for a document.
//
// GET /api/documents/:documentId/status. 404 when the engine has no
// pipeline for the document.
func HandleDocumentStatus(svc *services.MemoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "HandleDocumentStatus")
		defer span.End()

		documentID := c.Param("documentId")
		status, err := svc.DocumentStatus(ctx, c.Query("index"), documentID)
		if err != nil {
			if errors.Is(err, services.ErrDocumentNotFound) {
				observability.RequestsTotal.WithLabelValues("status", "no_result").Inc()
				c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
				return
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Document status failed", "documentId", documentID, "error", err)
			observability.RequestsTotal.WithLabelValues("status", "dependency_error").Inc()
			c.JSON(http.StatusBadGateway, gin.H{"error": "memory engine unavailable"})
			return
		}

		observability.RequestsTotal.WithLabelValues("status", "ok").Inc()
		c.JSON(http.StatusOK, status)
	}
}

// HandleDeleteDocument removes a document from memory.
//
// DELETE /api/documents/:documentId. Idempotent; deleting an unknown
// document still answers 204.
func HandleDeleteDocument(svc *services.MemoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "HandleDeleteDocument")
		defer span.End()

		documentID := c.Param("documentId")
		if err := svc.DeleteDocument(ctx, c.Query("index"), documentID); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Document delete failed", "documentId", documentID, "error", err)
			observability.RequestsTotal.WithLabelValues("delete", "dependency_error").Inc()
			c.JSON(http.StatusBadGateway, gin.H{"error": "memory engine unavailable"})
			return
		}

		observability.RequestsTotal.WithLabelValues("delete", "ok").Inc()
		c.Status(http.StatusNoContent)
	}
}
