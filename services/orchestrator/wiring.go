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
	"log/slog"

	"github.com/campus-kb/portal/services/answer"
	"github.com/campus-kb/portal/services/knowledge"
	"github.com/campus-kb/portal/services/llm"
	"github.com/campus-kb/portal/services/orchestrator/observability"
	"github.com/campus-kb/portal/services/search"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Components is the fully wired domain layer shared by the HTTP service and
// the CLI.
//
// # Fields
//
//   - Registry: Prometheus registry holding every metric below plus the Go
//     and process collectors
//   - Answer: Tiered answer router
//   - Search: Multi-source aggregator
//   - HTTPMetrics: Request metrics for the gin engine
type Components struct {
	Registry    *prometheus.Registry
	Answer      *answer.Router
	Search      *search.Aggregator
	HTTPMetrics *observability.HTTPMetrics
}

// NewComponents builds the domain layer from cfg.
//
// # Description
//
// Credential pools are read from GEMINI_API_KEYS / GEMINI_API_KEY and
// OPENAI_API_KEYS / OPENAI_API_KEY. An empty pool leaves its tier
// unavailable, which the router skips. Live sources are enabled only when
// their URL is configured; the static fallback set is always present.
//
// # Outputs
//
//   - *Components: Ready to serve
//   - error: Non-nil if the embedded topic table cannot be loaded
func NewComponents(cfg Config) (*Components, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	kb, err := knowledge.DefaultMatcher()
	if err != nil {
		return nil, fmt.Errorf("orchestrator: load knowledge base: %w", err)
	}

	primary := answer.Tier{
		Client: llm.NewGeminiClient(llm.GeminiConfig{Model: cfg.GeminiModel, BaseURL: cfg.GeminiBaseURL}),
		Pool:   llm.LoadKeyPool(llm.ProviderGemini, EnvGeminiKeys, EnvGeminiKey),
	}
	secondary := answer.Tier{
		Client: llm.NewOpenAIClient(llm.OpenAIConfig{Model: cfg.OpenAIModel, BaseURL: cfg.OpenAIBaseURL}),
		Pool:   llm.LoadKeyPool(llm.ProviderOpenAI, EnvOpenAIKeys, EnvOpenAIKey),
	}
	if primary.Pool.Size()+secondary.Pool.Size() == 0 {
		slog.Warn("No provider credentials configured; only knowledge-base answers are available")
	}

	router := answer.NewRouter(kb, primary, secondary, answer.WithMetrics(answer.NewMetrics(reg)))
	aggregator := search.NewAggregator(buildFetchers(cfg),
		search.WithFloor(cfg.SearchFloor),
		search.WithMetrics(search.NewMetrics(reg)))

	return &Components{
		Registry:    reg,
		Answer:      router,
		Search:      aggregator,
		HTTPMetrics: observability.NewHTTPMetrics(reg),
	}, nil
}

// buildFetchers returns the configured sources in priority order: legacy,
// managed, static.
func buildFetchers(cfg Config) []search.SourceFetcher {
	retry := cfg.retryPolicy()
	var fetchers []search.SourceFetcher
	if cfg.LegacyAPIURL != "" {
		fetchers = append(fetchers, search.NewLegacyFetcher(cfg.LegacyAPIURL, nil, retry))
		slog.Info("Legacy source enabled", slog.String("url", cfg.LegacyAPIURL))
	}
	if cfg.ManagedStoreURL != "" {
		fetchers = append(fetchers, search.NewManagedFetcher(cfg.ManagedStoreURL, cfg.ManagedStoreKey, nil, retry))
		slog.Info("Managed source enabled", slog.String("url", cfg.ManagedStoreURL))
	}
	return append(fetchers, search.DefaultStaticFetcher())
}
