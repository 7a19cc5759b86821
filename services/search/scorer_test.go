// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryTokens(t *testing.T) {
	assert.Equal(t, []string{"os", "paging"}, QueryTokens("  OS  a paging "))
	assert.Empty(t, QueryTokens("a b c"))
	assert.Empty(t, QueryTokens(""))
}

func TestQueryTokens_CountsRunes(t *testing.T) {
	assert.Empty(t, QueryTokens("é ü"))
	assert.Equal(t, []string{"日本", "ćw"}, QueryTokens("日本 ćw 语"))
}

func TestScore_PhraseAndTokenPoints(t *testing.T) {
	rec := CandidateRecord{
		Source:      SourceLegacy,
		Description: "Unit 3 notes on Operating System paging",
		Content:     "paging and segmentation",
		SubjectName: "Operating Systems",
		Path:        "/os/unit3.pdf",
	}

	// description: phrase 40, tokens 10+10
	// content: nothing
	// subject: "operating systems" holds the phrase, 20, tokens 5+5
	// path: nothing
	got := Score(rec, "operating system", LegacyWeights)
	assert.Equal(t, 40+10+10+20+5+5, got)
}

func TestScore_ClampedToMax(t *testing.T) {
	rec := CandidateRecord{
		Title:       "data structures",
		Description: "data structures",
		SubjectName: "data structures",
		Tags:        []string{"data", "structures"},
	}
	assert.Equal(t, MaxScore, Score(rec, "data structures", ManagedWeights))
}

func TestScore_NoMatchAndBlankQuery(t *testing.T) {
	rec := CandidateRecord{Title: "Thermodynamics", Description: "heat and work"}
	assert.Equal(t, 0, Score(rec, "linked list", ManagedWeights))
	assert.Equal(t, 0, Score(rec, "   ", ManagedWeights))
}

func TestScore_SingleLetterTokensIgnored(t *testing.T) {
	rec := CandidateRecord{Title: "a"}
	assert.Equal(t, 0, Score(rec, "x a", ManagedWeights))
}

func TestScore_FullPhraseBeatsSingleToken(t *testing.T) {
	full := CandidateRecord{Source: SourceLegacy, Description: "an intro to binary search trees"}
	partial := CandidateRecord{Source: SourceLegacy, Description: "an intro to binary arithmetic"}

	assert.Greater(t, ScoreFor(full, "binary search"), ScoreFor(partial, "binary search"))
}

func TestScore_TablesDifferBySource(t *testing.T) {
	rec := CandidateRecord{Title: "fourier series", Description: "signals"}

	rec.Source = SourceManaged
	assert.Equal(t, 40+10+10, ScoreFor(rec, "fourier series"))

	// Legacy records never score the title.
	rec.Source = SourceLegacy
	assert.Equal(t, 0, ScoreFor(rec, "fourier series"))
}

func TestScoreFor_StaticUsesPrescore(t *testing.T) {
	assert.Equal(t, 12, ScoreFor(CandidateRecord{Source: SourceStatic, Prescore: 12}, "anything"))
	assert.Equal(t, 100, ScoreFor(CandidateRecord{Source: SourceStatic, Prescore: 250}, ""))
	assert.Equal(t, 0, ScoreFor(CandidateRecord{Source: SourceStatic, Prescore: -5}, ""))
}

func TestWeightTables_Ordering(t *testing.T) {
	assert.Equal(t, []string{FieldDescription, FieldContent, FieldSubject, FieldPath}, fieldNames(LegacyWeights))
	assert.Equal(t, []string{FieldTitle, FieldDescription, FieldSubject, FieldTags}, fieldNames(ManagedWeights))

	for _, table := range []WeightTable{LegacyWeights, ManagedWeights} {
		for i := 1; i < len(table); i++ {
			assert.Greater(t, table[i-1].Phrase, table[i].Phrase)
			assert.Greater(t, table[i-1].Token, table[i].Token)
		}
	}
}

func fieldNames(table WeightTable) []string {
	out := make([]string, 0, len(table))
	for _, w := range table {
		out = append(out, w.Field)
	}
	return out
}

func TestCategoryOf(t *testing.T) {
	for in, want := range map[string]string{
		"Notes":               CategoryNotes,
		"lecture notes":       CategoryNotes,
		"PYQ":                 CategoryPYQ,
		"question paper":      CategoryPYQ,
		"syllabus":            CategorySyllabus,
		"Video":               CategoryVideo,
		"recorded lecture":    CategoryVideo,
		"lab manual":          CategoryOther,
		"":                    CategoryOther,
	} {
		assert.Equal(t, want, CategoryOf(in), "type %q", in)
	}
}

func TestCandidateRecord_Field(t *testing.T) {
	rec := CandidateRecord{Tags: []string{"dbms", "sql"}, Path: "/x"}
	assert.Equal(t, "dbms sql", rec.Field(FieldTags))
	assert.Equal(t, "/x", rec.Field(FieldPath))
	assert.Equal(t, "", rec.Field("unknown"))
}
