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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// ProviderGemini is the primary provider tag.
const ProviderGemini = "gemini"

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiConfig configures the primary provider client.
type GeminiConfig struct {
	// Model name, e.g. "gemini-2.5-flash".
	Model string
	// BaseURL overrides the API endpoint. Empty uses the SDK default.
	BaseURL string
	// HTTPClient is optional; the SDK default is used when nil.
	HTTPClient *http.Client
	Params     GenerationParams
}

// GeminiClient calls the Gemini generative API through the genai SDK.
//
// # Description
//
// A genai.Client is built per attempt because each attempt may carry a
// different credential from the pool. With history the call goes through a
// stateful chat session seeded with the normalized turns; without history a
// single GenerateContent call is made with the same prompt.
//
// # Thread Safety
//
// Safe for concurrent use. Holds no per-request state.
type GeminiClient struct {
	config GeminiConfig
}

// NewGeminiClient returns a client with defaults applied.
func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.Params == (GenerationParams{}) {
		cfg.Params = DefaultGenerationParams
	}
	return &GeminiClient{config: cfg}
}

// Name returns the provider tag.
func (g *GeminiClient) Name() string { return ProviderGemini }

// Complete sends one request with the given credential.
//
// # Outputs
//
//   - string: Answer text, never empty on success.
//   - error: *ProviderError. RateLimited is set for status 429 or when the
//     message carries a rate-limit marker.
func (g *GeminiClient) Complete(ctx context.Context, cred Credential, req QueryRequest) (string, error) {
	key, err := cred.Reveal()
	if err != nil {
		return "", &ProviderError{Provider: ProviderGemini, Message: err.Error(), Err: err}
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     key,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: g.config.HTTPClient,
	}
	if g.config.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: g.config.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return "", &ProviderError{Provider: ProviderGemini, Message: fmt.Sprintf("create client: %v", err), Err: err}
	}

	prompt := BuildPrompt(req)
	genCfg := g.generateConfig()
	history := geminiHistory(req.History)

	var resp *genai.GenerateContentResponse
	if len(history) > 0 {
		chat, cerr := client.Chats.Create(ctx, g.config.Model, genCfg, history)
		if cerr != nil {
			return "", classifyGeminiError(cerr)
		}
		resp, err = chat.SendMessage(ctx, genai.Part{Text: prompt})
	} else {
		resp, err = client.Models.GenerateContent(ctx, g.config.Model, genai.Text(prompt), genCfg)
	}
	if err != nil {
		return "", classifyGeminiError(err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", &ProviderError{Provider: ProviderGemini, Message: ErrEmptyAnswer.Error(), Err: ErrEmptyAnswer}
	}
	slog.Debug("Gemini answer received",
		slog.String("model", g.config.Model),
		slog.Int("history_turns", len(history)))
	return text, nil
}

func (g *GeminiClient) generateConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](g.config.Params.Temperature),
		MaxOutputTokens: g.config.Params.MaxOutputTokens,
		SafetySettings:  geminiSafetySettings(),
	}
}

// geminiSafetySettings blocks only high-severity content in every category.
func geminiSafetySettings() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}
	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, c := range categories {
		settings = append(settings, &genai.SafetySetting{
			Category:  c,
			Threshold: genai.HarmBlockThresholdBlockOnlyHigh,
		})
	}
	return settings
}

// geminiHistory maps normalized turns onto user/model contents. Leading model
// turns are dropped because a chat session must open with a user turn.
func geminiHistory(msgs []HistoryMessage) []*genai.Content {
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := GeminiRole(m.Role)
		if len(out) == 0 && role == RoleModel {
			continue
		}
		out = append(out, genai.NewContentFromText(m.Text, genai.Role(role)))
	}
	return out
}

func classifyGeminiError(err error) *ProviderError {
	pe := &ProviderError{Provider: ProviderGemini, Message: err.Error(), Err: err}

	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		pe.StatusCode = apiErr.Code
		pe.Message = apiErr.Message
	case errors.As(err, &apiErrPtr):
		pe.StatusCode = apiErrPtr.Code
		pe.Message = apiErrPtr.Message
	}
	if pe.Message == "" {
		pe.Message = err.Error()
	}
	pe.RateLimited = IsRateLimitStatus(pe.StatusCode) || IsRateLimitText(pe.Message)
	return pe
}
