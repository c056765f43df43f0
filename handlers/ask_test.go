// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// Tests for the ask and search handlers

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AleutianAI/AleutianMemory/datatypes"
	"github.com/AleutianAI/AleutianMemory/memoryengine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Ask Tests
// =============================================================================

func TestHandleAsk_ReturnsAnswer(t *testing.T) {
	router := newTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		var req memoryengine.AskRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(memoryengine.AskResult{
			Question: req.Question,
			Text:     "Mario Conio is the mayor.",
			RelevantSources: []datatypes.Citation{
				{DocumentID: "doc-1"},
			},
		})
	})

	body := `{"conversationId":"c1","text":"Who is the mayor of Taggia?"}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/ask?reformulate=false", strings.NewReader(body))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp datatypes.MemoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Mario Conio is the mayor.", resp.Answer)
	assert.Equal(t, "Who is the mayor of Taggia", resp.Question)
	require.Len(t, resp.Citations, 1)
}

func TestHandleAsk_NoAnswerIs404(t *testing.T) {
	router := newTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(memoryengine.AskResult{NoResult: true})
	})

	body := `{"conversationId":"c1","text":"unknowable"}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/ask?reformulate=false", strings.NewReader(body))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "no answer")
}

func TestHandleAsk_InvalidBody(t *testing.T) {
	router := newTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("engine must not be called for an invalid request")
	})

	tests := []struct {
		name string
		body string
	}{
		{"not json", "{{{"},
		{"missing conversation", `{"text":"hello"}`},
		{"blank text", `{"conversationId":"c1","text":"  "}`},
		{"blank tag value", `{"conversationId":"c1","text":"x","tags":[{"name":"a","value":" "}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("POST", "/api/ask", strings.NewReader(tt.body))
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestHandleAsk_InvalidQueryParams(t *testing.T) {
	router := newTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("engine must not be called for an invalid request")
	})

	tests := []struct {
		name  string
		query string
	}{
		{"bad reformulate", "reformulate=maybe"},
		{"non-numeric relevance", "reformulate=false&minimumRelevance=high"},
		{"negative relevance", "reformulate=false&minimumRelevance=-0.5"},
		{"relevance above one", "reformulate=false&minimumRelevance=1.5"},
	}

	body := `{"conversationId":"c1","text":"hello"}`
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("POST", "/api/ask?"+tt.query, strings.NewReader(body))
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "invalid")
		})
	}
}

func TestHandleAsk_EngineFailureIs502(t *testing.T) {
	router := newTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	})

	body := `{"conversationId":"c1","text":"anything"}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/ask?reformulate=false", strings.NewReader(body))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

// =============================================================================
// Search Tests
// =============================================================================

func TestHandleSearch_ReturnsMatches(t *testing.T) {
	router := newTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		var req memoryengine.SearchRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(memoryengine.SearchResponse{
			Query:   req.Query,
			Results: []datatypes.Citation{{DocumentID: "doc-1"}},
		})
	})

	body := `{"text":"mayors of Liguria"}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/search", strings.NewReader(body))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var result datatypes.SearchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Len(t, result.Results, 1)
	assert.Equal(t, "doc-1", result.Results[0].DocumentID)
}

func TestHandleSearch_EmptyMatchesIs200(t *testing.T) {
	router := newTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(memoryengine.SearchResponse{NoResult: true})
	})

	body := `{"text":"nothing matches"}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/search", strings.NewReader(body))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"results":[]`)
}

func TestHandleSearch_InvalidBody(t *testing.T) {
	router := newTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("engine must not be called for an invalid request")
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/search", strings.NewReader(`{"text":""}`))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleSearch_InvalidMinimumRelevance(t *testing.T) {
	router := newTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("engine must not be called for an invalid request")
	})

	for _, raw := range []string{"high", "-1", "2"} {
		t.Run(raw, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("POST", "/api/search?minimumRelevance="+raw,
				strings.NewReader(`{"text":"mayors"}`))
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "invalid minimumRelevance")
		})
	}
}
