// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiRole(t *testing.T) {
	for raw, want := range map[string]string{
		"user": "user", "human": "user", "system": "user", "": "user", "wizard": "user",
		"ai": "model", "model": "model", "Assistant": "model", "bot": "model",
	} {
		assert.Equal(t, want, GeminiRole(raw), "role %q", raw)
	}
}

func TestChatRole(t *testing.T) {
	for raw, want := range map[string]string{
		"user": "user", "human": "user", "": "user", "wizard": "user",
		"system": "system", "SYSTEM": "system",
		"ai": "assistant", "model": "assistant", "assistant": "assistant", "bot": "assistant",
	} {
		assert.Equal(t, want, ChatRole(raw), "role %q", raw)
	}
}

func TestNormalizeHistory_ContentVariants(t *testing.T) {
	entries := []HistoryEntry{
		{Role: "user", Text: "what is a heap?"},
		{Role: "ai", Content: "a tree-based structure"},
		{Role: "model", Parts: []HistoryPart{{Text: "first"}, {Text: ""}, {Text: "second"}}},
		{Role: "user"},
		{Role: "user", Text: "   ", Content: "fallback content"},
	}

	got := NormalizeHistory(entries)
	require.Len(t, got, 4)
	assert.Equal(t, HistoryMessage{Role: "user", Text: "what is a heap?"}, got[0])
	assert.Equal(t, HistoryMessage{Role: "ai", Text: "a tree-based structure"}, got[1])
	assert.Equal(t, HistoryMessage{Role: "model", Text: "first\nsecond"}, got[2])
	assert.Equal(t, "fallback content", got[3].Text)
}

func TestGeminiHistory_DropsLeadingModelTurns(t *testing.T) {
	msgs := []HistoryMessage{
		{Role: "assistant", Text: "Hi! Ask me anything."},
		{Role: "user", Text: "explain stacks"},
		{Role: "bot", Text: "LIFO"},
		{Role: "wizard", Text: "and queues?"},
	}

	contents := geminiHistory(msgs)
	require.Len(t, contents, 3)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, "user", contents[2].Role)
	assert.Equal(t, "LIFO", contents[1].Parts[0].Text)
}

func TestChatMessages_Shape(t *testing.T) {
	req := QueryRequest{
		Text: "what is paging?",
		History: []HistoryMessage{
			{Role: "human", Text: "hello"},
			{Role: "ai", Text: "hi"},
		},
	}

	msgs := chatMessages(req)
	require.Len(t, msgs, 4)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "user", msgs[1].Role)
	assert.Equal(t, "assistant", msgs[2].Role)
	assert.Equal(t, "user", msgs[3].Role)
	assert.True(t, strings.HasSuffix(msgs[3].Content, "Question: what is paging?"))
}

func TestHistory_UnmarshalNeverFails(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []HistoryMessage
	}{
		{"well formed", `[{"role":"user","text":"hi"},{"role":"bot","parts":[{"text":"a"},{"text":"b"}]}]`,
			[]HistoryMessage{{Role: "user", Text: "hi"}, {Role: "bot", Text: "a\nb"}}},
		{"parts string", `[{"role":"ai","parts":"hello"}]`, []HistoryMessage{{Role: "ai", Text: "hello"}}},
		{"numeric role", `[{"role":1,"content":"hello"}]`, []HistoryMessage{{Role: "", Text: "hello"}}},
		{"scalar entries", `["hello", 3, null]`, []HistoryMessage{}},
		{"not a list", `{"role":"user","text":"hi"}`, []HistoryMessage{}},
		{"null", `null`, []HistoryMessage{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h History
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &h))
			assert.Equal(t, tt.want, NormalizeHistory(h))
		})
	}
}
