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
	"strings"
	"unicode/utf8"
)

// MaxScore and MinScore bound every relevance score.
const (
	MinScore = 0
	MaxScore = 100
)

// minTokenLen drops one-letter query words from per-token scoring.
const minTokenLen = 2

// FieldWeight is one row of a weight table.
//
// Phrase is awarded when the field contains the whole query. Token is
// awarded once for every query token the field contains.
type FieldWeight struct {
	Field  string
	Phrase int
	Token  int
}

// WeightTable is the ordered set of scored fields for one source shape.
type WeightTable []FieldWeight

// LegacyWeights scores legacy-backend records: description > content >
// subject > path.
var LegacyWeights = WeightTable{
	{Field: FieldDescription, Phrase: 40, Token: 10},
	{Field: FieldContent, Phrase: 30, Token: 8},
	{Field: FieldSubject, Phrase: 20, Token: 5},
	{Field: FieldPath, Phrase: 10, Token: 3},
}

// ManagedWeights scores managed-store records: title > description >
// subject > tags.
var ManagedWeights = WeightTable{
	{Field: FieldTitle, Phrase: 40, Token: 10},
	{Field: FieldDescription, Phrase: 30, Token: 8},
	{Field: FieldSubject, Phrase: 20, Token: 5},
	{Field: FieldTags, Phrase: 15, Token: 4},
}

// QueryTokens lower-cases the query and splits it on whitespace, keeping
// tokens of at least two characters (runes, not bytes).
func QueryTokens(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	tokens := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= minTokenLen {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// Score computes the relevance of record to query under table.
//
// # Description
//
//	Both sides are lower-cased. For each field in the table the phrase
//	weight is added when the field contains the full query, and the token
//	weight is added for each query token the field contains. The sum is
//	clamped to [MinScore, MaxScore].
//
// # Outputs
//
//   - int: Score in [0, 100]. A blank query scores 0.
//
// # Thread Safety
//
// Pure function.
func Score(record CandidateRecord, query string, table WeightTable) int {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return MinScore
	}
	tokens := QueryTokens(q)

	total := 0
	for _, w := range table {
		field := strings.ToLower(record.Field(w.Field))
		if field == "" {
			continue
		}
		if strings.Contains(field, q) {
			total += w.Phrase
		}
		for _, tok := range tokens {
			if strings.Contains(field, tok) {
				total += w.Token
			}
		}
	}
	return clamp(total)
}

// TableFor returns the weight table for a source. Static records carry a
// prescore and have no table.
func TableFor(source SourceTag) (WeightTable, bool) {
	switch source {
	case SourceLegacy:
		return LegacyWeights, true
	case SourceManaged:
		return ManagedWeights, true
	}
	return nil, false
}

// ScoreFor scores a record with its source's table. Static records return
// their clamped prescore.
func ScoreFor(record CandidateRecord, query string) int {
	table, ok := TableFor(record.Source)
	if !ok {
		return clamp(record.Prescore)
	}
	return Score(record, query, table)
}

func clamp(n int) int {
	if n < MinScore {
		return MinScore
	}
	if n > MaxScore {
		return MaxScore
	}
	return n
}
