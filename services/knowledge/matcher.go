// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package knowledge answers well-known study topics from a local table so
// common questions never reach a network provider.
package knowledge

import (
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Embedded Topic Table
// =============================================================================

//go:embed topics.yaml
var defaultTopicsYAML []byte

// TopicEntry is one knowledge-base topic.
type TopicEntry struct {
	Key           string   `yaml:"key"`
	Title         string   `yaml:"title"`
	Definition    string   `yaml:"definition"`
	KeyPoints     []string `yaml:"key_points"`
	Applications  []string `yaml:"applications"`
	Examples      []string `yaml:"examples"`
	RelatedTopics []string `yaml:"related_topics"`
}

var (
	cachedTopics []TopicEntry
	topicsOnce   sync.Once
	topicsErr    error
)

// LoadTopics parses and caches the embedded topic table.
//
// # Description
//
//	The YAML file is a sequence, so the returned order is the file order.
//	Keys are lower-cased on load. Entries without a key are rejected.
//
// # Outputs
//
//   - []TopicEntry: The cached entries. Callers must not modify them.
//   - error: Non-nil if the YAML is malformed.
//
// # Thread Safety
//
// Safe for concurrent use (sync.Once).
func LoadTopics() ([]TopicEntry, error) {
	topicsOnce.Do(func() {
		cachedTopics, topicsErr = parseTopics(defaultTopicsYAML)
		if topicsErr == nil {
			slog.Info("Knowledge base topics loaded", slog.Int("topic_count", len(cachedTopics)))
		}
	})
	return cachedTopics, topicsErr
}

func parseTopics(raw []byte) ([]TopicEntry, error) {
	var entries []TopicEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("knowledge: parsing topics.yaml: %w", err)
	}
	for i := range entries {
		entries[i].Key = strings.ToLower(strings.TrimSpace(entries[i].Key))
		if entries[i].Key == "" {
			return nil, fmt.Errorf("knowledge: topic %d (%q) has no key", i, entries[i].Title)
		}
	}
	return entries, nil
}

// =============================================================================
// Matcher
// =============================================================================

// Matcher finds the topic a query is about.
//
// # Thread Safety
//
// Immutable after construction. Safe for concurrent use.
type Matcher struct {
	entries []TopicEntry
}

// NewMatcher builds a matcher over entries in the given order.
func NewMatcher(entries []TopicEntry) *Matcher {
	return &Matcher{entries: entries}
}

// DefaultMatcher builds a matcher over the embedded topic table.
func DefaultMatcher() (*Matcher, error) {
	entries, err := LoadTopics()
	if err != nil {
		return nil, err
	}
	return NewMatcher(entries), nil
}

// Len returns the number of topics.
func (m *Matcher) Len() int { return len(m.entries) }

// Match returns the first topic the query matches.
//
// # Description
//
//	The query is trimmed and lower-cased. A first pass looks for a topic key
//	equal to the query. A second pass walks the entries in order and accepts
//	the first where the query contains the key, the key contains the query,
//	or the lower-cased title contains the query.
//
// # Outputs
//
//   - TopicEntry: The matched topic.
//   - bool: false for an empty query or no match.
func (m *Matcher) Match(query string) (TopicEntry, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return TopicEntry{}, false
	}
	for _, e := range m.entries {
		if e.Key == q {
			return e, true
		}
	}
	for _, e := range m.entries {
		if strings.Contains(q, e.Key) ||
			strings.Contains(e.Key, q) ||
			strings.Contains(strings.ToLower(e.Title), q) {
			return e, true
		}
	}
	return TopicEntry{}, false
}

// Answer matches the query and renders the topic.
func (m *Matcher) Answer(query string) (string, bool) {
	entry, ok := m.Match(query)
	if !ok {
		return "", false
	}
	return Format(entry), true
}
