// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"strings"

	"github.com/campus-kb/portal/services/search"
)

// SearchRequest is the query string of GET /v1/search.
//
// # Fields
//
//   - Query: Required. Free text, bound from "q".
//   - Type: Optional. One of the fixed filter categories; empty means all.
//   - Explain: Optional. When true an answer for the query is produced
//     alongside the ranked list.
type SearchRequest struct {
	Query   string `form:"q" validate:"nonblank"`
	Type    string `form:"type" validate:"omitempty,oneof=all notes pyq syllabus video other"`
	Explain bool   `form:"explain"`
}

// Validate normalizes Type and checks the request against its struct tags.
func (r *SearchRequest) Validate() error {
	r.Type = strings.ToLower(strings.TrimSpace(r.Type))
	return apiValidate.Struct(r)
}

// Explanation is the synthesized answer attached to a search response.
type Explanation struct {
	Text      string `json:"text"`
	Provider  string `json:"provider"`
	Exhausted bool   `json:"exhausted,omitempty"`
}

// SearchResponse is the 200 body of GET /v1/search.
//
// Results is the filtered view; Counts always describe the unfiltered list
// so a client can render every category tab from one response.
type SearchResponse struct {
	Query       string                `json:"query"`
	Type        string                `json:"type"`
	Results     []search.ScoredResult `json:"results"`
	Counts      map[string]int        `json:"counts"`
	Sources     []search.SourceReport `json:"sources"`
	Degraded    bool                  `json:"degraded"`
	Explanation *Explanation          `json:"explanation,omitempty"`
}
