// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/campus-kb/portal/services/llm"
)

// RetryPolicy bounds the cold-start retry applied to network sources.
type RetryPolicy struct {
	// Attempts is the total number of tries, including the first.
	Attempts int
	// Delay is the fixed wait between tries.
	Delay time.Duration
}

// DefaultRetryPolicy is three tries two seconds apart.
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, Delay: 2 * time.Second}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.Attempts <= 0 {
		p.Attempts = DefaultRetryPolicy.Attempts
	}
	if p.Delay < 0 {
		p.Delay = 0
	}
	return p
}

// WithColdStartRetry calls fn until it succeeds or the policy's attempts run out.
//
// # Description
//
// A backend that has been idle may need a few seconds to wake up, so a
// failure is retried after a fixed delay. There is no backoff growth. The
// wait is abandoned if ctx is done.
//
// # Outputs
//
//   - T: fn's result from the first successful attempt.
//   - int: Number of attempts made.
//   - error: The last attempt's error, or ctx's error.
func WithColdStartRetry[T any](ctx context.Context, source SourceTag, policy RetryPolicy, fn func(context.Context) (T, error)) (T, int, error) {
	policy = policy.normalized()

	var zero T
	var lastErr error
	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, attempt, nil
		}
		lastErr = err
		if attempt == policy.Attempts {
			break
		}

		slog.Warn("Source fetch failed, retrying",
			slog.String("source", string(source)),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", policy.Attempts),
			slog.Duration("delay", policy.Delay),
			slog.String("error", llm.SafeLogString(err.Error())))

		timer := time.NewTimer(policy.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, attempt, fmt.Errorf("search: %s retry aborted: %w", source, ctx.Err())
		case <-timer.C:
		}
	}
	return zero, policy.Attempts, fmt.Errorf("search: %s failed after %d attempts: %w", source, policy.Attempts, lastErr)
}
