// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package knowledge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultMatcher(t *testing.T) *Matcher {
	t.Helper()
	m, err := DefaultMatcher()
	require.NoError(t, err)
	require.Equal(t, 7, m.Len())
	return m
}

func TestLoadTopics_OrderAndKeys(t *testing.T) {
	entries, err := LoadTopics()
	require.NoError(t, err)

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	assert.Equal(t, []string{
		"laplace", "fourier", "machine learning", "data structures",
		"thermodynamics", "operating system", "dbms",
	}, keys)
}

func TestMatch_LaplaceTransformEndToEnd(t *testing.T) {
	answer, ok := defaultMatcher(t).Answer("laplace transform")
	require.True(t, ok)

	assert.True(t, strings.HasPrefix(answer, "## Laplace Transform"))
	assert.Contains(t, answer, "- Converts time-domain signals to frequency-domain representation")
}

func TestMatch_Rules(t *testing.T) {
	m := defaultMatcher(t)

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"exact key", "dbms", "dbms"},
		{"exact key case-insensitive", "  ThermoDynamics ", "thermodynamics"},
		{"query contains key", "explain machine learning please", "machine learning"},
		{"key contains query", "structures", "data structures"},
		{"title contains query", "management system", "dbms"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.Match(tt.query)
			require.True(t, ok)
			assert.Equal(t, tt.want, got.Key)
		})
	}
}

func TestMatch_ExactPassBeatsEarlierSubstring(t *testing.T) {
	m := NewMatcher([]TopicEntry{
		{Key: "graph theory", Title: "Graph Theory"},
		{Key: "graph", Title: "Graphs"},
	})

	got, ok := m.Match("graph")
	require.True(t, ok)
	assert.Equal(t, "graph", got.Key)
}

func TestMatch_FirstSubstringMatchWinsInInsertionOrder(t *testing.T) {
	m := NewMatcher([]TopicEntry{
		{Key: "sorting", Title: "Sorting"},
		{Key: "merge sort", Title: "Merge Sort"},
	})

	got, ok := m.Match("merge sorting algorithm")
	require.True(t, ok)
	assert.Equal(t, "sorting", got.Key)
}

func TestMatch_NoMatch(t *testing.T) {
	m := defaultMatcher(t)
	for _, q := range []string{"", "   ", "quantum chromodynamics"} {
		_, ok := m.Match(q)
		assert.False(t, ok, "query %q", q)
	}
}

func TestFormat_Deterministic(t *testing.T) {
	entry := TopicEntry{
		Key:           "stack",
		Title:         "Stack",
		Definition:    "A LIFO collection.",
		KeyPoints:     []string{"push", "pop"},
		Examples:      []string{"undo history"},
		RelatedTopics: []string{"Queue", "Deque"},
	}

	want := "## Stack\n\n" +
		"**Definition:** A LIFO collection.\n\n" +
		"### Key Points\n- push\n- pop\n\n" +
		"### Examples\n- undo history\n\n" +
		"**Related Topics:** Queue, Deque"

	assert.Equal(t, want, Format(entry))
	assert.Equal(t, Format(entry), Format(entry))
}

func TestParseTopics_RejectsMissingKey(t *testing.T) {
	_, err := parseTopics([]byte("- title: Orphan\n"))
	assert.Error(t, err)

	_, err = parseTopics([]byte("not: [valid"))
	assert.Error(t, err)
}
