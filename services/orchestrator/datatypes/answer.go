// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides the wire types of the portal HTTP API.
//
// This file contains the answer endpoint types. For search types, see
// search.go.
package datatypes

import (
	"strings"

	"github.com/campus-kb/portal/services/llm"
	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Constants
// =============================================================================

// Error codes returned in the "error" field of a response body.
const (
	ErrorCodeInvalidRequest = "INVALID_REQUEST"
	ErrorCodeExhausted      = "ALL_PROVIDERS_EXHAUSTED"
	ErrorCodeInternal       = "INTERNAL_ERROR"
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

var apiValidate *validator.Validate

func init() {
	apiValidate = validator.New()

	_ = apiValidate.RegisterValidation("nonblank", validateNonBlank)
}

// validateNonBlank rejects strings made only of whitespace.
func validateNonBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// =============================================================================
// Request Types
// =============================================================================

// AnswerRequest is the body of POST /v1/answer.
//
// # Fields
//
//   - Query: Required. The question. A pointer so a missing field is
//     distinguishable from an empty one; a non-string value fails JSON
//     binding before validation runs.
//   - Context: Optional. Grounding text. When present the answer is
//     restricted to it.
//   - History: Optional. Prior conversation turns in any of the accepted
//     entry shapes (text, content, parts). Entries of any other shape are
//     dropped during decoding and never fail the request.
//
// # Validation
//
//   - Query: required, not blank
//
// Context and History carry no size limit.
type AnswerRequest struct {
	Query   *string     `json:"query" validate:"required,nonblank"`
	Context string      `json:"context,omitempty"`
	History llm.History `json:"history,omitempty"`
}

// Validate checks the request against its struct tags.
func (r *AnswerRequest) Validate() error {
	return apiValidate.Struct(r)
}

// ToQuery converts the validated request into the provider-neutral form.
func (r *AnswerRequest) ToQuery() llm.QueryRequest {
	q := llm.QueryRequest{Context: strings.TrimSpace(r.Context)}
	if r.Query != nil {
		q.Text = strings.TrimSpace(*r.Query)
	}
	q.History = llm.NormalizeHistory(r.History)
	return q
}

// =============================================================================
// Response Types
// =============================================================================

// AnswerResponse is the 200 body of POST /v1/answer.
//
// Exactly one of Provider and Error is set. Sources is always an empty list.
type AnswerResponse struct {
	Answer   string   `json:"answer"`
	Sources  []string `json:"sources"`
	Provider string   `json:"provider,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// ErrorResponse is the body of every 4xx and 5xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewInvalidRequest builds a 400 body.
func NewInvalidRequest(message string) ErrorResponse {
	return ErrorResponse{Error: ErrorCodeInvalidRequest, Message: message}
}

// NewInternalError builds a 500 body.
func NewInternalError(message string) ErrorResponse {
	return ErrorResponse{Error: ErrorCodeInternal, Message: message}
}
