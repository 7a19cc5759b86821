// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/campus-kb/portal/services/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestAnswerRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     AnswerRequest
		wantErr bool
	}{
		{"valid", AnswerRequest{Query: strPtr("what is paging?")}, false},
		{"missing query", AnswerRequest{}, true},
		{"empty query", AnswerRequest{Query: strPtr("")}, true},
		{"blank query", AnswerRequest{Query: strPtr(" \t\n")}, true},
		{"long query", AnswerRequest{Query: strPtr(strings.Repeat("a", 5000))}, false},
		{"large context", AnswerRequest{Query: strPtr("q"), Context: strings.Repeat("c", 70*1024)}, false},
		{"long history", AnswerRequest{Query: strPtr("q"), History: make(llm.History, 51)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAnswerRequest_NonStringQueryFailsDecode(t *testing.T) {
	var req AnswerRequest
	err := json.Unmarshal([]byte(`{"query": 42}`), &req)
	assert.Error(t, err)
}

func TestAnswerRequest_MalformedHistoryDecodes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []llm.HistoryMessage
	}{
		{"parts as string", `{"query":"hi","history":[{"role":"ai","parts":"hello"}]}`,
			[]llm.HistoryMessage{{Role: "ai", Text: "hello"}}},
		{"numeric role", `{"query":"hi","history":[{"role":1,"text":"hello"}]}`,
			[]llm.HistoryMessage{{Role: "", Text: "hello"}}},
		{"bare string entry", `{"query":"hi","history":["hello"]}`,
			[]llm.HistoryMessage{}},
		{"history not a list", `{"query":"hi","history":"hello"}`,
			[]llm.HistoryMessage{}},
		{"mixed entries", `{"query":"hi","history":[42,{"role":"user","content":"ok"},{"parts":[{"text":7},"tail"]}]}`,
			[]llm.HistoryMessage{{Role: "user", Text: "ok"}, {Role: "", Text: "tail"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req AnswerRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			require.NoError(t, req.Validate())
			assert.Equal(t, tt.want, req.ToQuery().History)
		})
	}
}

func TestAnswerRequest_ToQuery(t *testing.T) {
	var req AnswerRequest
	require.NoError(t, json.Unmarshal([]byte(`{
		"query": "  explain paging  ",
		"context": " page tables map virtual to physical ",
		"history": [
			{"role": "user", "text": "hi"},
			{"role": "bot", "parts": [{"text": "hello"}]},
			{"role": "user"}
		]
	}`), &req))
	require.NoError(t, req.Validate())

	q := req.ToQuery()
	assert.Equal(t, "explain paging", q.Text)
	assert.Equal(t, "page tables map virtual to physical", q.Context)
	assert.Equal(t, []llm.HistoryMessage{
		{Role: "user", Text: "hi"},
		{Role: "bot", Text: "hello"},
	}, q.History)
}

func TestSearchRequest_Validate(t *testing.T) {
	ok := SearchRequest{Query: "dbms", Type: " PYQ "}
	require.NoError(t, ok.Validate())
	assert.Equal(t, "pyq", ok.Type)

	assert.NoError(t, (&SearchRequest{Query: "dbms"}).Validate())
	assert.Error(t, (&SearchRequest{Query: "  "}).Validate())
	assert.Error(t, (&SearchRequest{Query: "dbms", Type: "podcast"}).Validate())
}

func TestAnswerResponse_EmptySourcesSerializeAsList(t *testing.T) {
	b, err := json.Marshal(AnswerResponse{Answer: "a", Sources: []string{}, Provider: "primary"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"answer":"a","sources":[],"provider":"primary"}`, string(b))
}
