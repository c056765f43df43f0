// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

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

// ============================================================================
// Test Setup
// ============================================================================

func init() {
	// Set Gin to test mode to reduce noise in test output
	gin.SetMode(gin.TestMode)
}

type mockLLMClient struct{}

func (m *mockLLMClient) Chat(_ context.Context, _ []datatypes.Message,
	_ llm.GenerationParams) (string, error) {
	return "mock chat response", nil
}

func newTestService(t *testing.T) *services.MemoryService {
	t.Helper()
	store := conversation.NewMemoryStore(conversation.Config{MaxTurns: 20, TTL: time.Hour})
	t.Cleanup(func() { _ = store.Close() })
	engine := memoryengine.NewClientWithURL("http://localhost:9")
	return services.NewMemoryService(engine, store,
		conversation.NewReformulator(store, &mockLLMClient{}))
}

// ============================================================================
// SetupRoutes Tests
// ============================================================================

func TestSetupRoutes_RegistersAPIRoutes(t *testing.T) {
	router := gin.New()
	SetupRoutes(router, newTestService(t), "")

	expected := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"GET", "/metrics"},
		{"POST", "/api/ask"},
		{"POST", "/api/search"},
		{"POST", "/api/documents"},
		{"GET", "/api/documents/:documentId/status"},
		{"DELETE", "/api/documents/:documentId"},
	}

	routes := router.Routes()
	for _, want := range expected {
		found := false
		for _, r := range routes {
			if r.Method == want.method && r.Path == want.path {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected route %s %s not found", want.method, want.path)
		}
	}
}

func TestSetupRoutes_HealthIsOpen(t *testing.T) {
	router := gin.New()
	SetupRoutes(router, newTestService(t), "secret")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("GET /health = %d, want 200", w.Code)
	}
}

func TestSetupRoutes_APIGroupRequiresToken(t *testing.T) {
	router := gin.New()
	SetupRoutes(router, newTestService(t), "secret")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/api/documents/doc-1", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated DELETE = %d, want 401", w.Code)
	}
}

func TestSetupRoutes_MetricsEndpoint(t *testing.T) {
	router := gin.New()
	SetupRoutes(router, newTestService(t), "")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/metrics", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("GET /metrics = %d, want 200", w.Code)
	}
}
