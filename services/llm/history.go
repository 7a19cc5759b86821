// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"encoding/json"
	"strings"
)

// Role values understood by the providers.
const (
	RoleUser      = "user"
	RoleModel     = "model"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// HistoryPart is one text fragment of a multi-part history entry.
type HistoryPart struct {
	Text string `json:"text"`
}

// HistoryEntry is an inbound conversation turn as callers send it.
//
// Callers use any of three shapes for the content: a "text" field, a
// "content" field, or a "parts" list. ToMessage picks the first non-empty one.
type HistoryEntry struct {
	Role    string        `json:"role"`
	Text    string        `json:"text,omitempty"`
	Content string        `json:"content,omitempty"`
	Parts   []HistoryPart `json:"parts,omitempty"`
}

// UnmarshalJSON decodes one entry without ever failing.
//
// # Description
//
// Each field is read independently. A field of the wrong JSON type is left
// empty, and a non-object entry decodes to the zero entry, which
// NormalizeHistory then drops. A "parts" string is taken as a single part.
func (e *HistoryEntry) UnmarshalJSON(b []byte) error {
	*e = HistoryEntry{}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil
	}
	e.Role = rawString(fields["role"])
	e.Text = rawString(fields["text"])
	e.Content = rawString(fields["content"])

	raw, ok := fields["parts"]
	if !ok {
		return nil
	}
	if s := rawString(raw); s != "" {
		e.Parts = []HistoryPart{{Text: s}}
		return nil
	}
	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return nil
	}
	for _, p := range parts {
		text := rawString(p)
		if text == "" {
			var obj map[string]json.RawMessage
			if json.Unmarshal(p, &obj) == nil {
				text = rawString(obj["text"])
			}
		}
		if text != "" {
			e.Parts = append(e.Parts, HistoryPart{Text: text})
		}
	}
	return nil
}

// rawString returns raw as a string, or "" when it is not a JSON string.
func rawString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// History is an inbound history list. Anything other than a JSON array
// decodes to an empty list.
type History []HistoryEntry

// UnmarshalJSON decodes the list element by element.
func (h *History) UnmarshalJSON(b []byte) error {
	*h = nil
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		return nil
	}
	out := make(History, 0, len(items))
	for _, item := range items {
		var e HistoryEntry
		_ = e.UnmarshalJSON(item)
		out = append(out, e)
	}
	*h = out
	return nil
}

// HistoryMessage is a normalized turn: a caller role and its text.
type HistoryMessage struct {
	Role string
	Text string
}

// ToMessage resolves the entry's content variant.
//
// # Outputs
//
//   - HistoryMessage: Role is carried over untouched; per-provider mapping
//     happens in GeminiRole and ChatRole.
//   - bool: false when no variant holds any text.
func (e HistoryEntry) ToMessage() (HistoryMessage, bool) {
	text := strings.TrimSpace(e.Text)
	if text == "" {
		text = strings.TrimSpace(e.Content)
	}
	if text == "" && len(e.Parts) > 0 {
		var sb strings.Builder
		for _, p := range e.Parts {
			if p.Text == "" {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(p.Text)
		}
		text = strings.TrimSpace(sb.String())
	}
	if text == "" {
		return HistoryMessage{}, false
	}
	return HistoryMessage{Role: e.Role, Text: text}, true
}

// NormalizeHistory converts inbound entries, dropping those without text.
func NormalizeHistory(entries []HistoryEntry) []HistoryMessage {
	out := make([]HistoryMessage, 0, len(entries))
	for _, e := range entries {
		if m, ok := e.ToMessage(); ok {
			out = append(out, m)
		}
	}
	return out
}

func isAssistantRole(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "ai", "model", "assistant", "bot":
		return true
	}
	return false
}

// GeminiRole maps a caller role onto the primary provider's two roles.
// Anything not recognized as the assistant side becomes "user".
func GeminiRole(raw string) string {
	if isAssistantRole(raw) {
		return RoleModel
	}
	return RoleUser
}

// ChatRole maps a caller role onto the chat-completion roles.
// Unrecognized roles default to "user".
func ChatRole(raw string) string {
	if isAssistantRole(raw) {
		return RoleAssistant
	}
	if strings.EqualFold(strings.TrimSpace(raw), RoleSystem) {
		return RoleSystem
	}
	return RoleUser
}
