// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/AleutianAI/AleutianMemory/handlers"
	"github.com/AleutianAI/AleutianMemory/middleware"
	"github.com/AleutianAI/AleutianMemory/services"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes registers the memory service API on the router.
//
// /health and /metrics are open; everything under /api sits behind
// bearer-token auth when apiKey is non-empty.
func SetupRoutes(router *gin.Engine, svc *services.MemoryService, apiKey string) {
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.Use(middleware.Auth(apiKey))
	{
		api.POST("/ask", handlers.HandleAsk(svc))
		api.POST("/search", handlers.HandleSearch(svc))

		documents := api.Group("/documents")
		{
			documents.POST("", handlers.HandleUploadDocument(svc))
			documents.GET("/:documentId/status", handlers.HandleDocumentStatus(svc))
			documents.DELETE("/:documentId", handlers.HandleDeleteDocument(svc))
		}
	}
}
