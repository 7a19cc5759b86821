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
	"context"
	"log/slog"
	"net/http"

	"github.com/campus-kb/portal/services/llm"
	"github.com/campus-kb/portal/services/orchestrator/datatypes"
	"github.com/campus-kb/portal/services/orchestrator/middleware"
	"github.com/campus-kb/portal/services/orchestrator/observability"
	"github.com/campus-kb/portal/services/search"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Searcher aggregates study materials from every configured source.
type Searcher interface {
	Search(ctx context.Context, query string) search.SearchResult
}

const invalidSearchQuery = `query parameter "q" is required; "type" must be one of all, notes, pyq, syllabus, video, other`

// HandleSearch serves GET /v1/search.
//
// # Description
//
// Runs the aggregator and, when explain=true, the answer router at the same
// time. The type filter is applied after ranking, so Counts always reflect
// the full list.
//
// # Inputs
//
//   - s: Aggregator. Must not be nil.
//   - a: Answer router for explanations. May be nil, which disables explain.
//   - m: HTTP metrics. May be nil.
func HandleSearch(s Searcher, a Answerer, m *observability.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "HandleSearch")
		defer span.End()
		route := c.FullPath()
		requestID := middleware.GetRequestID(c)

		var req datatypes.SearchRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			m.RecordError(route, datatypes.ErrorCodeInvalidRequest)
			c.JSON(http.StatusBadRequest, datatypes.NewInvalidRequest(invalidSearchQuery))
			return
		}
		if err := req.Validate(); err != nil {
			m.RecordError(route, datatypes.ErrorCodeInvalidRequest)
			c.JSON(http.StatusBadRequest, datatypes.NewInvalidRequest(invalidSearchQuery))
			return
		}

		var (
			result      search.SearchResult
			explanation *datatypes.Explanation
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			result = s.Search(gctx, req.Query)
			return nil
		})
		if req.Explain && a != nil {
			g.Go(func() error {
				res, err := a.Answer(gctx, llm.QueryRequest{Text: req.Query})
				if err != nil {
					return err
				}
				explanation = &datatypes.Explanation{
					Text:      res.Text,
					Provider:  string(res.Provider),
					Exhausted: res.IsTerminalFailure,
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			span.RecordError(err)
			slog.Error("Search explanation failed",
				slog.String("request_id", requestID),
				slog.String("error", llm.SafeLogString(err.Error())))
			m.RecordError(route, datatypes.ErrorCodeInternal)
			c.JSON(http.StatusInternalServerError, datatypes.NewInternalError("search failed"))
			return
		}

		category := req.Type
		if category == "" {
			category = search.CategoryAll
		}
		filtered := search.FilterByType(result.Results, category)
		span.SetAttributes(
			attribute.Int("search.results", len(result.Results)),
			attribute.Int("search.filtered", len(filtered)),
			attribute.Bool("search.degraded", result.Degraded()))

		if explanation != nil && explanation.Exhausted {
			m.RecordError(route, datatypes.ErrorCodeExhausted)
		}

		slog.Info("Search completed",
			slog.String("request_id", requestID),
			slog.Int("results", len(result.Results)),
			slog.String("type", category),
			slog.Bool("degraded", result.Degraded()))
		c.JSON(http.StatusOK, datatypes.SearchResponse{
			Query:       result.Query,
			Type:        category,
			Results:     filtered,
			Counts:      result.Counts,
			Sources:     result.Sources,
			Degraded:    result.Degraded(),
			Explanation: explanation,
		})
	}
}
