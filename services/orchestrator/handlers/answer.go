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
	"errors"
	"log/slog"
	"net/http"

	"github.com/campus-kb/portal/services/answer"
	"github.com/campus-kb/portal/services/llm"
	"github.com/campus-kb/portal/services/orchestrator/datatypes"
	"github.com/campus-kb/portal/services/orchestrator/middleware"
	"github.com/campus-kb/portal/services/orchestrator/observability"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var handlerTracer = otel.Tracer("portal.orchestrator.handlers")

// Answerer resolves a question through the tiered answer router.
type Answerer interface {
	Answer(ctx context.Context, req llm.QueryRequest) (answer.Result, error)
}

const invalidAnswerBody = `request body must be a JSON object with a non-empty string "query"`

// HandleAnswer serves POST /v1/answer.
//
// # Description
//
// Binds and validates the body, then runs the answer router. Exhaustion of
// every tier is reported with a 200 and error ALL_PROVIDERS_EXHAUSTED so the
// client can still render the fallback text. Only an unexpected router error
// produces a 500.
//
// # Inputs
//
//   - a: Answer router. Must not be nil.
//   - m: HTTP metrics. May be nil.
func HandleAnswer(a Answerer, m *observability.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "HandleAnswer")
		defer span.End()
		route := c.FullPath()
		requestID := middleware.GetRequestID(c)

		var req datatypes.AnswerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			span.RecordError(err)
			slog.Warn("Rejected answer request: malformed body",
				slog.String("request_id", requestID),
				slog.String("error", err.Error()))
			m.RecordError(route, datatypes.ErrorCodeInvalidRequest)
			c.JSON(http.StatusBadRequest, datatypes.NewInvalidRequest(invalidAnswerBody))
			return
		}
		if err := req.Validate(); err != nil {
			slog.Warn("Rejected answer request: validation failed",
				slog.String("request_id", requestID),
				slog.String("error", err.Error()))
			m.RecordError(route, datatypes.ErrorCodeInvalidRequest)
			c.JSON(http.StatusBadRequest, datatypes.NewInvalidRequest(invalidAnswerBody))
			return
		}

		res, err := a.Answer(ctx, req.ToQuery())
		if err != nil {
			span.RecordError(err)
			if errors.Is(err, answer.ErrInvalidQuery) {
				m.RecordError(route, datatypes.ErrorCodeInvalidRequest)
				c.JSON(http.StatusBadRequest, datatypes.NewInvalidRequest(invalidAnswerBody))
				return
			}
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Answer router failed",
				slog.String("request_id", requestID),
				slog.String("error", llm.SafeLogString(err.Error())))
			m.RecordError(route, datatypes.ErrorCodeInternal)
			c.JSON(http.StatusInternalServerError, datatypes.NewInternalError("failed to produce an answer"))
			return
		}

		span.SetAttributes(
			attribute.String("answer.provider", string(res.Provider)),
			attribute.Int("answer.attempts", res.Attempts))

		body := datatypes.AnswerResponse{Answer: res.Text, Sources: []string{}}
		if res.IsTerminalFailure {
			body.Error = datatypes.ErrorCodeExhausted
			m.RecordError(route, datatypes.ErrorCodeExhausted)
		} else {
			body.Provider = string(res.Provider)
		}
		slog.Info("Answered question",
			slog.String("request_id", requestID),
			slog.String("provider", string(res.Provider)),
			slog.Int("attempts", res.Attempts))
		c.JSON(http.StatusOK, body)
	}
}
