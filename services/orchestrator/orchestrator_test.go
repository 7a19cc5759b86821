// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/campus-kb/portal/services/orchestrator/datatypes"
	"github.com/campus-kb/portal/services/orchestrator/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Setup
// =============================================================================

func init() {
	gin.SetMode(gin.TestMode)
}

func mapEnv(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

// clearCredentials makes sure no provider key from the host leaks into a test.
func clearCredentials(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvGeminiKeys, EnvGeminiKey, EnvOpenAIKeys, EnvOpenAIKey} {
		t.Setenv(k, "")
	}
}

// =============================================================================
// Config Tests
// =============================================================================

func TestApplyConfigDefaults_AllDefaults(t *testing.T) {
	result := applyConfigDefaults(Config{})

	assert.Equal(t, 12210, result.Port)
	assert.Equal(t, "release", result.GinMode)
	assert.Equal(t, "gemini-2.5-flash", result.GeminiModel)
	assert.Equal(t, "gpt-4o-mini", result.OpenAIModel)
	assert.Equal(t, "https://api.openai.com/v1", result.OpenAIBaseURL)
	assert.Equal(t, 3, result.FetchRetryAttempts)
	assert.Equal(t, 2*time.Second, result.FetchRetryDelay)
	assert.Equal(t, 3, result.SearchFloor)
	assert.Empty(t, result.OTelEndpoint, "trace export is off by default")
	assert.NoError(t, result.Validate())
}

func TestApplyConfigDefaults_PreservesCustomValues(t *testing.T) {
	cfg := Config{Port: 8080, GinMode: "debug", FetchRetryAttempts: 5, FetchRetryDelay: time.Second, SearchFloor: 6}

	result := applyConfigDefaults(cfg)

	assert.Equal(t, 8080, result.Port)
	assert.Equal(t, "debug", result.GinMode)
	assert.Equal(t, 5, result.FetchRetryAttempts)
	assert.Equal(t, time.Second, result.FetchRetryDelay)
	assert.Equal(t, 6, result.SearchFloor)
}

func TestLoadConfig_ReadsEnvironment(t *testing.T) {
	cfg, err := LoadConfig(mapEnv(map[string]string{
		EnvPort:               " 9000 ",
		EnvGinMode:            "debug",
		EnvOTelEndpoint:       "collector:4317",
		EnvGeminiModel:        "gemini-2.0-flash",
		EnvOpenAIBaseURL:      "https://llm.internal/v1",
		EnvLegacyAPIURL:       "https://legacy.campus.edu",
		EnvManagedStoreURL:    "https://store.campus.edu",
		EnvManagedStoreKey:    "anon-key",
		EnvFetchRetryAttempts: "4",
		EnvFetchRetryDelay:    "500ms",
		EnvSearchFloor:        "5",
	}))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "debug", cfg.GinMode)
	assert.Equal(t, "collector:4317", cfg.OTelEndpoint)
	assert.Equal(t, "gemini-2.0-flash", cfg.GeminiModel)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, "https://llm.internal/v1", cfg.OpenAIBaseURL)
	assert.Equal(t, 4, cfg.FetchRetryAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.FetchRetryDelay)
	assert.Equal(t, 5, cfg.SearchFloor)
	assert.Equal(t, 4, cfg.retryPolicy().Attempts)
}

func TestLoadConfig_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"non-numeric port", map[string]string{EnvPort: "http"}},
		{"port out of range", map[string]string{EnvPort: "70000"}},
		{"unknown gin mode", map[string]string{EnvGinMode: "verbose"}},
		{"malformed legacy url", map[string]string{EnvLegacyAPIURL: "not a url"}},
		{"managed url without key", map[string]string{EnvManagedStoreURL: "https://store.campus.edu"}},
		{"too many attempts", map[string]string{EnvFetchRetryAttempts: "50"}},
		{"bad delay", map[string]string{EnvFetchRetryDelay: "soon"}},
		{"delay too long", map[string]string{EnvFetchRetryDelay: "10m"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(mapEnv(tt.env))
			assert.Error(t, err)
		})
	}
}

// =============================================================================
// Service Tests
// =============================================================================

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(Config{Port: -1})
	assert.Error(t, err)
}

func newTestService(t *testing.T, cfg Config) Service {
	t.Helper()
	clearCredentials(t)
	cfg.GinMode = "test"
	svc, err := New(cfg)
	require.NoError(t, err)
	return svc
}

func serve(router *gin.Engine, method, path string, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestService_AnswerFromKnowledgeBase(t *testing.T) {
	router := newTestService(t, Config{}).Router()

	w := serve(router, http.MethodPost, "/v1/answer", `{"query": "laplace"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var body datatypes.AnswerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "knowledge-base", body.Provider)
	assert.True(t, strings.HasPrefix(body.Answer, "## Laplace Transform"))
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))
}

func TestService_NoCredentialsIsExhausted(t *testing.T) {
	router := newTestService(t, Config{}).Router()

	w := serve(router, http.MethodPost, "/v1/answer", `{"query": "explain quantum chromodynamics"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var body datatypes.AnswerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, datatypes.ErrorCodeExhausted, body.Error)
	assert.Empty(t, body.Provider)
	assert.Equal(t, []string{}, body.Sources)
}

func TestService_InvalidAnswerBody(t *testing.T) {
	router := newTestService(t, Config{}).Router()

	w := serve(router, http.MethodPost, "/v1/answer", `{"query": 12}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), datatypes.ErrorCodeInvalidRequest)
}

func TestService_SearchUsesLegacySourceAndPads(t *testing.T) {
	legacy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id": 1, "name": "Operating Systems", "materials": [
			{"id": 7, "title": "Paging Notes", "type": "notes", "description": "paging and segmentation"}
		]}]`))
	}))
	defer legacy.Close()

	router := newTestService(t, Config{LegacyAPIURL: legacy.URL, FetchRetryAttempts: 1}).Router()

	w := serve(router, http.MethodGet, "/v1/search?q=paging", "")

	require.Equal(t, http.StatusOK, w.Code)
	var body datatypes.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Results, 3)
	assert.Equal(t, "legacy-7", body.Results[0].ID)
	assert.Equal(t, "static", string(body.Results[1].Source))
	assert.Equal(t, 3, body.Counts["all"])
	assert.False(t, body.Degraded)
}

func TestService_HealthAndMetrics(t *testing.T) {
	router := newTestService(t, Config{}).Router()

	w := serve(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	serve(router, http.MethodPost, "/v1/answer", `{"query": "dbms"}`)

	w = serve(router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	metrics := w.Body.String()
	assert.Contains(t, metrics, `portal_answer_answers_total{provider="knowledge-base"} 1`)
	assert.Contains(t, metrics, "portal_http_requests_total")
	assert.Contains(t, metrics, "go_goroutines")
}

func TestService_RecoveredPanicIsCounted(t *testing.T) {
	svc := newTestService(t, Config{})
	router := svc.Router()
	router.GET("/v1/boom", func(c *gin.Context) { panic("boom") })

	w := serve(router, http.MethodGet, "/v1/boom", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), datatypes.ErrorCodeInternal)
	requests := svc.(*service).components.HTTPMetrics.RequestsTotal
	assert.Equal(t, 1.0, testutil.ToFloat64(requests.WithLabelValues("/v1/boom", "GET", "500")))
}

func TestService_RunStopsOnContextCancel(t *testing.T) {
	clearCredentials(t)
	svc, err := New(Config{Port: 18911, GinMode: "test"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
