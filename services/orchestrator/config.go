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
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/campus-kb/portal/services/llm"
	"github.com/campus-kb/portal/services/search"
	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Configuration
// =============================================================================

// Environment variable names read by LoadConfig.
const (
	EnvPort               = "PORT"
	EnvGinMode            = "GIN_MODE"
	EnvOTelEndpoint       = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvGeminiModel        = "GEMINI_MODEL"
	EnvGeminiBaseURL      = "GEMINI_BASE_URL"
	EnvOpenAIModel        = "OPENAI_MODEL"
	EnvOpenAIBaseURL      = "OPENAI_BASE_URL"
	EnvLegacyAPIURL       = "LEGACY_API_URL"
	EnvManagedStoreURL    = "MANAGED_STORE_URL"
	EnvManagedStoreKey    = "MANAGED_STORE_KEY"
	EnvFetchRetryAttempts = "FETCH_RETRY_ATTEMPTS"
	EnvFetchRetryDelay    = "FETCH_RETRY_DELAY"
	EnvSearchFloor        = "SEARCH_RESULT_FLOOR"

	// Credential pools are read straight into sealed memory by
	// llm.LoadKeyPool and never pass through Config.
	EnvGeminiKeys = "GEMINI_API_KEYS"
	EnvGeminiKey  = "GEMINI_API_KEY"
	EnvOpenAIKeys = "OPENAI_API_KEYS"
	EnvOpenAIKey  = "OPENAI_API_KEY"
)

const (
	defaultPort    = 12210
	defaultGinMode = "release"
)

// Config holds portal service configuration.
//
// # Description
//
// Config centralizes everything the service needs except provider
// credentials. Zero values are replaced by defaults in applyConfigDefaults;
// the result is then checked by Validate.
//
// # Optional Fields
//
// All fields are optional. An empty LegacyAPIURL or ManagedStoreURL disables
// that source; an empty OTelEndpoint disables trace export.
//
// # Examples
//
//	cfg, err := LoadConfig(os.Getenv)
//	if err != nil {
//	    log.Fatal(err)
//	}
type Config struct {
	// Port is the HTTP server port. Default: 12210
	Port int `validate:"min=1,max=65535"`

	// GinMode is the gin framework mode: debug, release or test.
	// Default: release
	GinMode string `validate:"oneof=debug release test"`

	// OTelEndpoint is the OTLP gRPC collector address.
	// Example: "otel-collector:4317"
	OTelEndpoint string

	// GeminiModel is the primary provider model. Default: gemini-2.5-flash
	GeminiModel string `validate:"required"`

	// GeminiBaseURL overrides the primary provider endpoint.
	GeminiBaseURL string `validate:"omitempty,url"`

	// OpenAIModel is the secondary provider model. Default: gpt-4o-mini
	OpenAIModel string `validate:"required"`

	// OpenAIBaseURL is the secondary chat-completions base URL.
	// Default: https://api.openai.com/v1
	OpenAIBaseURL string `validate:"required,url"`

	// LegacyAPIURL is the base URL of the legacy subjects API.
	LegacyAPIURL string `validate:"omitempty,url"`

	// ManagedStoreURL is the base URL of the managed materials store.
	ManagedStoreURL string `validate:"omitempty,url"`

	// ManagedStoreKey is the store's API key. Required with ManagedStoreURL.
	ManagedStoreKey string `validate:"required_with=ManagedStoreURL"`

	// FetchRetryAttempts is the cold-start retry budget per source.
	// Default: 3
	FetchRetryAttempts int `validate:"min=1,max=10"`

	// FetchRetryDelay is the fixed pause between attempts. Default: 2s
	FetchRetryDelay time.Duration `validate:"gte=0,lte=1m"`

	// SearchFloor is the minimum number of search results guaranteed by
	// static padding. Default: 3
	SearchFloor int `validate:"min=1,max=20"`
}

var configValidate = validator.New()

// Validate checks cfg against its struct tags.
func (c Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("orchestrator: invalid config: %w", err)
	}
	return nil
}

// LoadConfig reads Config from the environment.
//
// # Inputs
//
//   - getenv: Lookup function, normally os.Getenv. Injected for tests.
//
// # Outputs
//
//   - Config: Populated, defaulted and validated configuration
//   - error: Non-nil on an unparseable number or duration, or a failed
//     validation rule
func LoadConfig(getenv func(string) string) (Config, error) {
	env := func(key string) string { return strings.TrimSpace(getenv(key)) }

	cfg := Config{
		GinMode:         env(EnvGinMode),
		OTelEndpoint:    env(EnvOTelEndpoint),
		GeminiModel:     env(EnvGeminiModel),
		GeminiBaseURL:   env(EnvGeminiBaseURL),
		OpenAIModel:     env(EnvOpenAIModel),
		OpenAIBaseURL:   env(EnvOpenAIBaseURL),
		LegacyAPIURL:    env(EnvLegacyAPIURL),
		ManagedStoreURL: env(EnvManagedStoreURL),
		ManagedStoreKey: env(EnvManagedStoreKey),
	}

	var err error
	if cfg.Port, err = envInt(env, EnvPort); err != nil {
		return Config{}, err
	}
	if cfg.FetchRetryAttempts, err = envInt(env, EnvFetchRetryAttempts); err != nil {
		return Config{}, err
	}
	if cfg.SearchFloor, err = envInt(env, EnvSearchFloor); err != nil {
		return Config{}, err
	}
	if raw := env(EnvFetchRetryDelay); raw != "" {
		if cfg.FetchRetryDelay, err = time.ParseDuration(raw); err != nil {
			return Config{}, fmt.Errorf("orchestrator: invalid %s %q: %w", EnvFetchRetryDelay, raw, err)
		}
	}

	cfg = applyConfigDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envInt(env func(string) string, key string) (int, error) {
	raw := env(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("orchestrator: invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}

// applyConfigDefaults fills in missing configuration values.
//
// # Description
//
// Zero-valued fields get defaults, so FetchRetryDelay=0 also means the
// default 2s. Use a tiny positive delay to effectively disable spacing.
func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.GinMode == "" {
		cfg.GinMode = defaultGinMode
	}
	if cfg.GeminiModel == "" {
		cfg.GeminiModel = llm.DefaultGeminiModel
	}
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = llm.DefaultOpenAIModel
	}
	if cfg.OpenAIBaseURL == "" {
		cfg.OpenAIBaseURL = llm.DefaultOpenAIBaseURL
	}
	if cfg.FetchRetryAttempts == 0 {
		cfg.FetchRetryAttempts = search.DefaultRetryPolicy.Attempts
	}
	if cfg.FetchRetryDelay == 0 {
		cfg.FetchRetryDelay = search.DefaultRetryPolicy.Delay
	}
	if cfg.SearchFloor == 0 {
		cfg.SearchFloor = search.DefaultFloor
	}
	return cfg
}

// retryPolicy is the fetcher retry policy derived from cfg.
func (c Config) retryPolicy() search.RetryPolicy {
	return search.RetryPolicy{Attempts: c.FetchRetryAttempts, Delay: c.FetchRetryDelay}
}
