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
	"net/http"
	"strings"
)

// legacySubject is the legacy API's subject with its embedded materials.
type legacySubject struct {
	ID        flexID           `json:"id"`
	Name      string           `json:"name"`
	Code      string           `json:"code"`
	Materials []legacyMaterial `json:"materials"`
}

type legacyMaterial struct {
	ID          flexID `json:"id"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Content     string `json:"content"`
	FilePath    string `json:"file_path"`
}

// LegacyFetcher reads subjects and their materials from the legacy REST API.
type LegacyFetcher struct {
	baseURL string
	client  *http.Client
	retry   RetryPolicy
}

// NewLegacyFetcher returns a fetcher for GET {baseURL}/api/subjects.
// A nil client uses a default with a bounded timeout.
func NewLegacyFetcher(baseURL string, client *http.Client, retry RetryPolicy) *LegacyFetcher {
	if client == nil {
		client = defaultHTTPClient()
	}
	return &LegacyFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		retry:   retry,
	}
}

func (f *LegacyFetcher) Source() SourceTag { return SourceLegacy }

// Fetch returns every material of every subject. Relevance filtering is
// left to scoring.
func (f *LegacyFetcher) Fetch(ctx context.Context, _ string) ([]CandidateRecord, error) {
	subjects, _, err := WithColdStartRetry(ctx, SourceLegacy, f.retry, func(ctx context.Context) ([]legacySubject, error) {
		var out []legacySubject
		err := getJSON(ctx, f.client, SourceLegacy, f.baseURL+"/api/subjects", nil, &out)
		return out, err
	})
	if err != nil {
		return nil, err
	}

	var records []CandidateRecord
	for _, s := range subjects {
		for _, m := range s.Materials {
			records = append(records, CandidateRecord{
				ID:          "legacy-" + string(m.ID),
				Title:       m.Title,
				Source:      SourceLegacy,
				SubjectName: s.Name,
				Type:        m.Type,
				Description: m.Description,
				Content:     m.Content,
				Path:        m.FilePath,
			})
		}
	}
	return records, nil
}
