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

	"github.com/campus-kb/portal/services/answer"
	"github.com/campus-kb/portal/services/llm"
	"github.com/campus-kb/portal/services/orchestrator/observability"
	"github.com/campus-kb/portal/services/search"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

// ============================================================================
// Test Setup
// ============================================================================

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAnswerer struct{}

func (stubAnswerer) Answer(context.Context, llm.QueryRequest) (answer.Result, error) {
	return answer.Result{Text: "stub", Provider: answer.ProviderPrimary}, nil
}

type stubSearcher struct{}

func (stubSearcher) Search(_ context.Context, q string) search.SearchResult {
	return search.SearchResult{Query: q, Results: []search.ScoredResult{}, Counts: search.CountByCategory(nil)}
}

func hasRoute(router *gin.Engine, method, path string) bool {
	for _, r := range router.Routes() {
		if r.Method == method && r.Path == path {
			return true
		}
	}
	return false
}

// ============================================================================
// SetupRoutes Tests
// ============================================================================

func TestSetupRoutes_RegistersCoreRoutes(t *testing.T) {
	reg := prometheus.NewRegistry()
	router := gin.New()
	SetupRoutes(router, Deps{
		Answerer: stubAnswerer{},
		Searcher: stubSearcher{},
		Metrics:  observability.NewHTTPMetrics(reg),
		Gatherer: reg,
	})

	expected := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"GET", "/metrics"},
		{"POST", "/v1/answer"},
		{"GET", "/v1/search"},
	}
	for _, e := range expected {
		assert.True(t, hasRoute(router, e.method, e.path), "route %s %s should be registered", e.method, e.path)
	}
}

func TestSetupRoutes_NoMetricsWithoutGatherer(t *testing.T) {
	router := gin.New()
	SetupRoutes(router, Deps{Answerer: stubAnswerer{}, Searcher: stubSearcher{}})

	assert.False(t, hasRoute(router, "GET", "/metrics"))
	assert.True(t, hasRoute(router, "POST", "/v1/answer"))
}

func TestSetupRoutes_MetricsEndpointServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewHTTPMetrics(reg)
	router := gin.New()
	router.Use(m.Middleware())
	SetupRoutes(router, Deps{Answerer: stubAnswerer{}, Searcher: stubSearcher{}, Metrics: m, Gatherer: reg})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/metrics", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "portal_http_requests_total")
}
