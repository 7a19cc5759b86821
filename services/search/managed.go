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

// managedMaterialsPath is the PostgREST route of the materials table.
const managedMaterialsPath = "/rest/v1/materials?select=*"

type managedMaterial struct {
	ID          flexID   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Subject     string   `json:"subject"`
	Type        string   `json:"type"`
	Tags        []string `json:"tags"`
	FileURL     string   `json:"file_url"`
}

// ManagedFetcher reads uploaded materials from the managed database's REST
// interface. The service key is sent both as the apikey header and as a
// bearer token.
type ManagedFetcher struct {
	baseURL string
	apiKey  string
	client  *http.Client
	retry   RetryPolicy
}

func NewManagedFetcher(baseURL, apiKey string, client *http.Client, retry RetryPolicy) *ManagedFetcher {
	if client == nil {
		client = defaultHTTPClient()
	}
	return &ManagedFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
		retry:   retry,
	}
}

func (f *ManagedFetcher) Source() SourceTag { return SourceManaged }

func (f *ManagedFetcher) Fetch(ctx context.Context, _ string) ([]CandidateRecord, error) {
	headers := map[string]string{
		"apikey":        f.apiKey,
		"Authorization": "Bearer " + f.apiKey,
	}
	rows, _, err := WithColdStartRetry(ctx, SourceManaged, f.retry, func(ctx context.Context) ([]managedMaterial, error) {
		var out []managedMaterial
		err := getJSON(ctx, f.client, SourceManaged, f.baseURL+managedMaterialsPath, headers, &out)
		return out, err
	})
	if err != nil {
		return nil, err
	}

	records := make([]CandidateRecord, 0, len(rows))
	for _, m := range rows {
		records = append(records, CandidateRecord{
			ID:          "managed-" + string(m.ID),
			Title:       m.Title,
			Source:      SourceManaged,
			SubjectName: m.Subject,
			Type:        m.Type,
			Description: m.Description,
			Tags:        m.Tags,
			Path:        m.FileURL,
		})
	}
	return records, nil
}
