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
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SourceFetcher retrieves candidate records for a query from one backend.
//
// # Description
//
// Implementations must be independent: an error from one fetcher never
// affects another. The Aggregator treats an error as an empty contribution.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type SourceFetcher interface {
	Source() SourceTag
	Fetch(ctx context.Context, query string) ([]CandidateRecord, error)
}

// maxErrorBody caps how much of a failed response is kept as error text.
const maxErrorBody = 512

// defaultHTTPTimeout applies when a fetcher is built without an HTTP client.
const defaultHTTPTimeout = 15 * time.Second

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultHTTPTimeout}
}

// StatusError is a non-2xx response from a source backend.
type StatusError struct {
	Source     SourceTag
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("search: %s returned status %d: %s", e.Source, e.StatusCode, e.Body)
}

// getJSON performs a GET and decodes a 2xx JSON body into out.
func getJSON(ctx context.Context, client *http.Client, source SourceTag, url string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("search: %s: build request: %w", source, err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("search: %s: request failed: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Source: source, StatusCode: resp.StatusCode, Body: string(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("search: %s: decode response: %w", source, err)
	}
	return nil
}

// flexID accepts an id sent as either a JSON string or a JSON number.
type flexID string

func (id *flexID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("search: id must be a string or number: %w", err)
	}
	*id = flexID(n.String())
	return nil
}
