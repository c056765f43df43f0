// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// Shared fixtures for handler tests

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AleutianAI/AleutianMemory/conversation"
	"github.com/AleutianAI/AleutianMemory/datatypes"
	"github.com/AleutianAI/AleutianMemory/llm"
	"github.com/AleutianAI/AleutianMemory/memoryengine"
	"github.com/AleutianAI/AleutianMemory/services"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubLLM answers every chat with a fixed rewrite.
type stubLLM struct {
	reply string
}

func (s *stubLLM) Chat(_ context.Context, _ []datatypes.Message,
	_ llm.GenerationParams) (string, error) {
	return s.reply, nil
}

// newTestRouter builds a router whose service talks to the given fake
// engine handler.
func newTestRouter(t *testing.T, engineHandler http.HandlerFunc) *gin.Engine {
	t.Helper()

	server := httptest.NewServer(engineHandler)
	t.Cleanup(server.Close)

	store := conversation.NewMemoryStore(conversation.Config{
		MaxTurns: 20,
		TTL:      time.Hour,
	})
	t.Cleanup(func() { _ = store.Close() })

	engine := memoryengine.NewClientWithURL(server.URL)
	reformulator := conversation.NewReformulator(store, &stubLLM{reply: "rewritten question"})
	svc := services.NewMemoryService(engine, store, reformulator)

	router := gin.New()
	router.GET("/health", HealthCheck)
	api := router.Group("/api")
	{
		api.POST("/ask", HandleAsk(svc))
		api.POST("/search", HandleSearch(svc))
		api.POST("/documents", HandleUploadDocument(svc))
		api.GET("/documents/:documentId/status", HandleDocumentStatus(svc))
		api.DELETE("/documents/:documentId", HandleDeleteDocument(svc))
	}
	return router
}
