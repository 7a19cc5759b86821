// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// RateLimitMarkers are the substrings that mark a free-text provider error as
// a rate-limit or quota rejection. Matching is case-insensitive.
//
// Note that "rate" also matches words such as "generate", so those messages
// rotate to the next key as well.
var RateLimitMarkers = []string{"429", "quota", "rate"}

// IsRateLimitText reports whether raw error text carries a rate-limit marker.
//
// Thread Safety: Pure function. Safe for concurrent use.
func IsRateLimitText(raw string) bool {
	lower := strings.ToLower(raw)
	for _, marker := range RateLimitMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// IsRateLimitStatus reports whether an HTTP status code is a rate-limit rejection.
func IsRateLimitStatus(code int) bool {
	return code == http.StatusTooManyRequests
}

// ProviderError is a classified failure from a single provider attempt.
//
// # Fields
//
//   - Provider: Provider tag ("gemini", "openai").
//   - StatusCode: HTTP status when known, 0 otherwise.
//   - Message: Provider error text. May contain provider detail; pass it
//     through SafeLogString before logging.
//   - RateLimited: True when the attempt may succeed with another credential.
//   - Err: Underlying error, if any.
type ProviderError struct {
	Provider    string
	StatusCode  int
	Message     string
	RateLimited bool
	Err         error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsRateLimitError reports whether err is a ProviderError marked rate-limited.
func IsRateLimitError(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.RateLimited
	}
	return false
}
