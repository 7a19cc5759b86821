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
	_ "embed"
	"fmt"
	"log/slog"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed static_fallback.yaml
var defaultStaticYAML []byte

var (
	cachedStatic []CandidateRecord
	staticOnce   sync.Once
	staticErr    error
)

// LoadStaticFallback parses and caches the embedded fallback set.
//
// # Outputs
//
//   - []CandidateRecord: Records tagged SourceStatic with their prescores.
//   - error: Non-nil if the embedded YAML is malformed.
//
// # Thread Safety
//
// Safe for concurrent use (sync.Once).
func LoadStaticFallback() ([]CandidateRecord, error) {
	staticOnce.Do(func() {
		var records []CandidateRecord
		if err := yaml.Unmarshal(defaultStaticYAML, &records); err != nil {
			staticErr = fmt.Errorf("search: parsing static_fallback.yaml: %w", err)
			return
		}
		for i := range records {
			records[i].Source = SourceStatic
		}
		cachedStatic = records
		slog.Info("Static fallback set loaded", slog.Int("record_count", len(records)))
	})
	return cachedStatic, staticErr
}

// StaticFetcher returns a fixed candidate set. It never fails.
type StaticFetcher struct {
	records []CandidateRecord
}

// NewStaticFetcher serves records as given. Source is forced to static.
func NewStaticFetcher(records []CandidateRecord) *StaticFetcher {
	out := make([]CandidateRecord, len(records))
	copy(out, records)
	for i := range out {
		out[i].Source = SourceStatic
	}
	return &StaticFetcher{records: out}
}

// DefaultStaticFetcher serves the embedded fallback set. A malformed
// embedded file degrades to an empty set.
func DefaultStaticFetcher() *StaticFetcher {
	records, err := LoadStaticFallback()
	if err != nil {
		slog.Warn("Static fallback set unavailable, continuing without padding",
			slog.String("error", err.Error()))
	}
	return NewStaticFetcher(records)
}

func (f *StaticFetcher) Source() SourceTag { return SourceStatic }

// Fetch returns a copy of the fixed set. The query is ignored.
func (f *StaticFetcher) Fetch(_ context.Context, _ string) ([]CandidateRecord, error) {
	out := make([]CandidateRecord, len(f.records))
	copy(out, f.records)
	return out, nil
}
