// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package search merges study-material candidates from several independent
// backends into one ranked, de-duplicated list.
//
// # Description
//
// Each SourceFetcher contributes candidate records for a query. The
// Aggregator runs every fetcher concurrently, scores records with the weight
// table of their source, pads sparse results with a static fallback set,
// removes duplicate titles, and sorts by score.
//
// # Thread Safety
//
// Fetchers and the Aggregator are safe for concurrent use. Records and
// results are owned by the request that produced them.
package search

import (
	"strings"
)

// SourceTag identifies the backend a record came from.
type SourceTag string

const (
	SourceLegacy  SourceTag = "legacy"
	SourceManaged SourceTag = "managed"
	SourceStatic  SourceTag = "static"
)

// Filter categories exposed to callers for post-hoc filtering.
const (
	CategoryAll      = "all"
	CategoryNotes    = "notes"
	CategoryPYQ      = "pyq"
	CategorySyllabus = "syllabus"
	CategoryVideo    = "video"
	CategoryOther    = "other"
)

// Categories lists the filter categories in display order.
var Categories = []string{
	CategoryAll, CategoryNotes, CategoryPYQ, CategorySyllabus, CategoryVideo, CategoryOther,
}

// Scored field names. A weight table refers to fields by these names.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldContent     = "content"
	FieldSubject     = "subject"
	FieldTags        = "tags"
	FieldPath        = "path"
)

// CandidateRecord is one study material returned by a source.
type CandidateRecord struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Source      SourceTag `json:"source" yaml:"source"`
	SubjectName string    `json:"subject_name,omitempty" yaml:"subject"`
	Type        string    `json:"type,omitempty" yaml:"type"`
	Description string    `json:"description,omitempty" yaml:"description"`
	Content     string    `json:"-" yaml:"content"`
	Tags        []string  `json:"tags,omitempty" yaml:"tags"`
	Path        string    `json:"path,omitempty" yaml:"path"`

	// Prescore is the fixed score of a static fallback record. Unused for
	// records from live sources.
	Prescore int `json:"-" yaml:"score"`
}

// Field returns the named scoring field. Tags are joined with spaces.
func (r CandidateRecord) Field(name string) string {
	switch name {
	case FieldTitle:
		return r.Title
	case FieldDescription:
		return r.Description
	case FieldContent:
		return r.Content
	case FieldSubject:
		return r.SubjectName
	case FieldTags:
		return strings.Join(r.Tags, " ")
	case FieldPath:
		return r.Path
	}
	return ""
}

// ScoredResult is a record with its relevance score and filter category.
type ScoredResult struct {
	CandidateRecord
	Score    int    `json:"score"`
	Category string `json:"category"`
}

// NormalizedTitle is the duplicate-detection key.
func NormalizedTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// CategoryOf maps a source type label onto a filter category.
func CategoryOf(typeTag string) string {
	t := strings.ToLower(strings.TrimSpace(typeTag))
	switch {
	case t == "":
		return CategoryOther
	case strings.Contains(t, "pyq"),
		strings.Contains(t, "question"),
		strings.Contains(t, "previous year"),
		strings.Contains(t, "exam"):
		return CategoryPYQ
	case strings.Contains(t, "syllabus"):
		return CategorySyllabus
	case strings.Contains(t, "note"):
		return CategoryNotes
	case strings.Contains(t, "video"),
		strings.Contains(t, "lecture"):
		return CategoryVideo
	}
	return CategoryOther
}
