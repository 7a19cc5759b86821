// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package answer resolves a free-text question to an answer by trying the
// local knowledge base, then the primary provider, then the secondary one.
package answer

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/campus-kb/portal/services/llm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var routerTracer = otel.Tracer("portal.answer")

// ErrInvalidQuery is returned for a blank question. No tier is contacted.
var ErrInvalidQuery = errors.New("answer: query text is required")

// ExhaustedMessage is returned to the caller when no tier could answer.
const ExhaustedMessage = "All answer providers are currently unavailable or over their usage limits. " +
	"Please try again in a few minutes."

// ProviderUsed names the tier that produced an answer.
type ProviderUsed string

const (
	ProviderKnowledgeBase ProviderUsed = "knowledge-base"
	ProviderPrimary       ProviderUsed = "primary"
	ProviderSecondary     ProviderUsed = "secondary"
	ProviderNone          ProviderUsed = "none"
)

// Result is the outcome of one Answer call.
//
// # Fields
//
//   - Text: Answer text, or ExhaustedMessage on terminal failure.
//   - Provider: Tier that answered, ProviderNone when exhausted.
//   - IsTerminalFailure: True only when every tier was exhausted or unavailable.
//   - Attempts: Provider calls made. Zero for knowledge-base answers.
type Result struct {
	Text              string
	Provider          ProviderUsed
	IsTerminalFailure bool
	Attempts          int
}

// KnowledgeBase answers a query locally when it recognizes the topic.
type KnowledgeBase interface {
	Answer(query string) (string, bool)
}

// Tier is one provider with its credential pool. A tier with a nil client or
// an empty pool is unavailable and skipped.
type Tier struct {
	Client llm.ProviderClient
	Pool   *llm.KeyPool
}

func (t Tier) available() bool {
	return t.Client != nil && t.Pool.Size() > 0
}

// Option configures a Router.
type Option func(*Router)

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

// Router walks the tiers KB_CHECK, PRIMARY_TRY, SECONDARY_TRY, EXHAUSTED.
//
// # Description
//
// The knowledge base is always checked first and a match returns with no
// network call. Each provider tier then draws credentials from its pool, at
// most Pool.Size() times per request. A rate-limited attempt moves on to the
// next credential. Any other failure, including an empty answer, abandons
// the tier at once. Attempts are strictly sequential.
//
// # Thread Safety
//
// Safe for concurrent use. Concurrent requests share the pools' rotation
// cursors.
//
// # Limitations
//
//   - The router does not retry after EXHAUSTED; the caller decides.
type Router struct {
	kb        KnowledgeBase
	primary   Tier
	secondary Tier
	metrics   *Metrics
}

// NewRouter builds a router. kb may be nil to disable the short-circuit.
func NewRouter(kb KnowledgeBase, primary, secondary Tier, opts ...Option) *Router {
	r := &Router{kb: kb, primary: primary, secondary: secondary}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Answer resolves req.
//
// # Outputs
//
//   - Result: Always populated when err is nil. Exhaustion is a normal
//     result with IsTerminalFailure set, not an error.
//   - error: ErrInvalidQuery when req.Text is blank.
func (r *Router) Answer(ctx context.Context, req llm.QueryRequest) (Result, error) {
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		return Result{}, ErrInvalidQuery
	}

	ctx, span := routerTracer.Start(ctx, "Router.Answer")
	defer span.End()

	// KB_CHECK
	if r.kb != nil {
		if text, ok := r.kb.Answer(req.Text); ok {
			return r.finish(span, Result{Text: text, Provider: ProviderKnowledgeBase}), nil
		}
	}

	attempts := 0

	// PRIMARY_TRY
	text, n, ok := r.tryTier(ctx, ProviderPrimary, r.primary, req)
	attempts += n
	if ok {
		return r.finish(span, Result{Text: text, Provider: ProviderPrimary, Attempts: attempts}), nil
	}

	// SECONDARY_TRY
	text, n, ok = r.tryTier(ctx, ProviderSecondary, r.secondary, req)
	attempts += n
	if ok {
		return r.finish(span, Result{Text: text, Provider: ProviderSecondary, Attempts: attempts}), nil
	}

	// EXHAUSTED
	span.SetStatus(codes.Error, "all providers exhausted")
	slog.Warn("All answer tiers exhausted", slog.Int("attempts", attempts))
	return r.finish(span, Result{
		Text:              ExhaustedMessage,
		Provider:          ProviderNone,
		IsTerminalFailure: true,
		Attempts:          attempts,
	}), nil
}

func (r *Router) finish(span trace.Span, res Result) Result {
	span.SetAttributes(
		attribute.String("answer.provider", string(res.Provider)),
		attribute.Int("answer.attempts", res.Attempts),
		attribute.Bool("answer.terminal_failure", res.IsTerminalFailure))
	r.metrics.recordAnswer(res.Provider)
	return res
}

// tryTier runs the credential loop for one tier.
//
// # Outputs
//
//   - string: Answer text when ok.
//   - int: Attempts made.
//   - bool: True on a non-empty answer.
func (r *Router) tryTier(ctx context.Context, label ProviderUsed, tier Tier, req llm.QueryRequest) (string, int, bool) {
	if !tier.available() {
		slog.Debug("Provider tier unavailable, skipping", slog.String("tier", string(label)))
		return "", 0, false
	}

	size := tier.Pool.Size()
	name := tier.Client.Name()
	attempts := 0
	for attempts < size {
		if ctx.Err() != nil {
			slog.Warn("Request cancelled during provider rotation",
				slog.String("tier", string(label)),
				slog.Int("attempts", attempts))
			return "", attempts, false
		}

		cred, err := tier.Pool.Next()
		if err != nil {
			return "", attempts, false
		}
		attempts++

		text, err := r.attempt(ctx, tier.Client, cred, req)
		if err == nil {
			return text, attempts, true
		}
		if llm.IsRateLimitError(err) {
			slog.Warn("Provider rate-limited, rotating key",
				slog.String("provider", name),
				slog.Int("key_index", cred.Index()),
				slog.Int("attempt", attempts),
				slog.Int("pool_size", size))
			continue
		}
		slog.Warn("Provider failed, abandoning tier",
			slog.String("provider", name),
			slog.Int("key_index", cred.Index()),
			slog.String("error", llm.SafeLogString(err.Error())))
		return "", attempts, false
	}
	slog.Warn("Provider key pool exhausted", slog.String("provider", name), slog.Int("pool_size", size))
	return "", attempts, false
}

func (r *Router) attempt(ctx context.Context, client llm.ProviderClient, cred llm.Credential, req llm.QueryRequest) (string, error) {
	ctx, span := routerTracer.Start(ctx, "Provider.Complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("provider.name", client.Name()),
		attribute.Int("provider.key_index", cred.Index()))

	start := time.Now()
	text, err := client.Complete(ctx, cred, req)
	if err == nil && strings.TrimSpace(text) == "" {
		err = &llm.ProviderError{Provider: client.Name(), Message: llm.ErrEmptyAnswer.Error(), Err: llm.ErrEmptyAnswer}
	}
	elapsed := time.Since(start).Seconds()

	switch {
	case err == nil:
		r.metrics.recordAttempt(client.Name(), OutcomeSuccess, elapsed)
	case llm.IsRateLimitError(err):
		r.metrics.recordAttempt(client.Name(), OutcomeRateLimited, elapsed)
		span.SetAttributes(attribute.Bool("provider.rate_limited", true))
	default:
		r.metrics.recordAttempt(client.Name(), OutcomeFailed, elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, llm.SafeLogString(err.Error()))
	}
	return text, err
}
