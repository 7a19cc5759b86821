// Package llm holds the provider side of answer resolution: credential pools,
// history normalization, prompt construction, rate-limit classification and
// the primary and secondary provider clients.
package llm

import (
	"context"
	"errors"
)

// ErrEmptyAnswer is returned when a provider call succeeds but yields no text.
var ErrEmptyAnswer = errors.New("llm: provider returned an empty answer")

// GenerationParams are the fixed sampling bounds applied to provider calls.
type GenerationParams struct {
	Temperature     float32
	MaxOutputTokens int32
}

// DefaultGenerationParams bound every provider call.
var DefaultGenerationParams = GenerationParams{
	Temperature:     0.7,
	MaxOutputTokens: 2048,
}

// QueryRequest is a question with optional grounding context and history.
type QueryRequest struct {
	Text    string
	Context string
	History []HistoryMessage
}

// ProviderClient performs one network call against one provider with one
// credential. Failures are returned as *ProviderError so callers can tell a
// rate-limited attempt from a non-recoverable one.
type ProviderClient interface {
	Name() string
	Complete(ctx context.Context, cred Credential, req QueryRequest) (string, error)
}
