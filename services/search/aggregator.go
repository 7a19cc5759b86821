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
	"sort"
	"strings"
	"time"

	"github.com/campus-kb/portal/services/llm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

var searchTracer = otel.Tracer("portal.search")

// DefaultFloor is the minimum result count guaranteed by static padding.
const DefaultFloor = 3

// SourceReport describes one fetcher's contribution to a search.
type SourceReport struct {
	Source   SourceTag     `json:"source"`
	Records  int           `json:"records"`
	Duration time.Duration `json:"duration_ns"`
	Error    string        `json:"error,omitempty"`
}

// SearchResult is the ranked list plus per-category counts.
type SearchResult struct {
	Query   string         `json:"query"`
	Results []ScoredResult `json:"results"`
	Counts  map[string]int `json:"counts"`
	Sources []SourceReport `json:"sources"`
}

// Degraded reports whether any source failed during the search.
func (r SearchResult) Degraded() bool {
	for _, s := range r.Sources {
		if s.Error != "" {
			return true
		}
	}
	return false
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithFloor overrides the padding floor.
func WithFloor(n int) Option {
	return func(a *Aggregator) {
		if n >= 0 {
			a.floor = n
		}
	}
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(a *Aggregator) { a.metrics = m }
}

// Aggregator merges the output of several SourceFetchers.
//
// # Description
//
// For each query the aggregator:
//  1. Runs every fetcher concurrently and waits for all of them. A failing
//     fetcher contributes nothing.
//  2. Scores live records with their source's weight table and drops zeros.
//  3. Pads with static records up to the floor when live results are sparse.
//  4. Keeps the first record of each normalized title, live before static.
//  5. Sorts by score, descending, keeping the prior order on ties.
//
// # Thread Safety
//
// Immutable after construction. Safe for concurrent use.
type Aggregator struct {
	fetchers []SourceFetcher
	floor    int
	metrics  *Metrics
}

// NewAggregator builds an aggregator. Fetcher order is the source priority
// used to break title collisions among live sources.
func NewAggregator(fetchers []SourceFetcher, opts ...Option) *Aggregator {
	a := &Aggregator{fetchers: fetchers, floor: DefaultFloor}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type fetchOutcome struct {
	records []CandidateRecord
	report  SourceReport
}

// Search runs all fetchers and returns the ranked list for query.
// A blank query returns an empty result without contacting any source.
func (a *Aggregator) Search(ctx context.Context, query string) SearchResult {
	query = strings.TrimSpace(query)
	result := SearchResult{Query: query, Results: []ScoredResult{}, Counts: CountByCategory(nil)}
	if query == "" {
		return result
	}

	ctx, span := searchTracer.Start(ctx, "Aggregator.Search")
	defer span.End()
	span.SetAttributes(attribute.Int("search.sources", len(a.fetchers)))

	outcomes := a.fetchAll(ctx, query)

	var live, static []CandidateRecord
	for _, o := range outcomes {
		result.Sources = append(result.Sources, o.report)
		for _, rec := range o.records {
			if rec.Source == SourceStatic {
				static = append(static, rec)
			} else {
				live = append(live, rec)
			}
		}
	}

	scored := scoreLive(live, query)
	padding := selectPadding(scored, static, a.floor)
	ordered := append(scored, padding...)
	ranked := Rank(Dedup(ordered))

	result.Results = ranked
	result.Counts = CountByCategory(ranked)
	a.metrics.recordSearch(len(ranked), len(padding))

	span.SetAttributes(
		attribute.Int("search.results", len(ranked)),
		attribute.Int("search.padded", len(padding)))
	if result.Degraded() {
		span.SetStatus(codes.Error, "one or more sources failed")
	}
	slog.Debug("Search aggregated",
		slog.String("query", query),
		slog.Int("live", len(scored)),
		slog.Int("padded", len(padding)),
		slog.Int("results", len(ranked)))
	return result
}

// fetchAll runs every fetcher concurrently. Goroutines never return an
// error to the group, so one source cannot cancel or fail another.
func (a *Aggregator) fetchAll(ctx context.Context, query string) []fetchOutcome {
	outcomes := make([]fetchOutcome, len(a.fetchers))

	var g errgroup.Group
	for i, f := range a.fetchers {
		g.Go(func() error {
			outcomes[i] = a.fetchOne(ctx, f, query)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (a *Aggregator) fetchOne(ctx context.Context, f SourceFetcher, query string) (out fetchOutcome) {
	source := f.Source()
	ctx, span := searchTracer.Start(ctx, "SourceFetcher.Fetch")
	span.SetAttributes(attribute.String("search.source", string(source)))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			out = fetchOutcome{report: SourceReport{Source: source, Error: fmt.Sprintf("panic: %v", r)}}
		}
		out.report.Duration = time.Since(start)
		if out.report.Error != "" {
			span.SetStatus(codes.Error, out.report.Error)
			slog.Warn("Source contributed no candidates",
				slog.String("source", string(source)),
				slog.String("error", out.report.Error))
		}
		span.End()
	}()

	records, err := f.Fetch(ctx, query)
	var fetchErr error
	if err != nil {
		fetchErr = err
		out = fetchOutcome{report: SourceReport{Source: source, Error: llm.SafeLogString(err.Error())}}
	} else {
		out = fetchOutcome{records: records, report: SourceReport{Source: source, Records: len(records)}}
	}
	a.metrics.recordFetch(source, time.Since(start), fetchErr)
	return out
}

func scoreLive(records []CandidateRecord, query string) []ScoredResult {
	out := make([]ScoredResult, 0, len(records))
	for _, rec := range records {
		score := ScoreFor(rec, query)
		if score <= 0 {
			continue
		}
		out = append(out, newScored(rec, score))
	}
	return out
}

func newScored(rec CandidateRecord, score int) ScoredResult {
	return ScoredResult{CandidateRecord: rec, Score: score, Category: CategoryOf(rec.Type)}
}

// selectPadding picks static records to lift the distinct live count to
// floor. Statics whose title matches a live result, or an already chosen
// static, are skipped since dedup would discard them. Padding never goes
// past the floor.
func selectPadding(live []ScoredResult, static []CandidateRecord, floor int) []ScoredResult {
	seen := make(map[string]struct{}, len(live)+len(static))
	for _, r := range live {
		seen[NormalizedTitle(r.Title)] = struct{}{}
	}
	need := floor - len(seen)
	if need <= 0 {
		return nil
	}

	padding := make([]ScoredResult, 0, need)
	for _, rec := range static {
		if len(padding) == need {
			break
		}
		key := NormalizedTitle(rec.Title)
		if _, dup := seen[key]; dup {
			continue
		}
		score := ScoreFor(rec, "")
		if score <= 0 {
			continue
		}
		seen[key] = struct{}{}
		padding = append(padding, newScored(rec, score))
	}
	return padding
}

// Dedup keeps the first result for each normalized title.
func Dedup(results []ScoredResult) []ScoredResult {
	seen := make(map[string]struct{}, len(results))
	out := make([]ScoredResult, 0, len(results))
	for _, r := range results {
		key := NormalizedTitle(r.Title)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Rank sorts results by score, descending. Ties keep their input order.
func Rank(results []ScoredResult) []ScoredResult {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// CountByCategory counts results per filter category. Every category is
// present in the map, "all" holding the total.
func CountByCategory(results []ScoredResult) map[string]int {
	counts := make(map[string]int, len(Categories))
	for _, c := range Categories {
		counts[c] = 0
	}
	counts[CategoryAll] = len(results)
	for _, r := range results {
		counts[r.Category]++
	}
	return counts
}

// FilterByType returns the results in category. "all" or an empty category
// returns the input unchanged.
func FilterByType(results []ScoredResult, category string) []ScoredResult {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" || category == CategoryAll {
		return results
	}
	out := make([]ScoredResult, 0, len(results))
	for _, r := range results {
		if r.Category == category {
			out = append(out, r)
		}
	}
	return out
}
