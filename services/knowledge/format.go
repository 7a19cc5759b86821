// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package knowledge

import "strings"

// Format renders a topic as a markdown block. Output depends only on the
// entry, so the same topic always yields the same text. Empty sections are
// left out.
func Format(e TopicEntry) string {
	var sb strings.Builder

	sb.WriteString("## ")
	sb.WriteString(e.Title)
	sb.WriteString("\n\n")

	if e.Definition != "" {
		sb.WriteString("**Definition:** ")
		sb.WriteString(e.Definition)
		sb.WriteString("\n\n")
	}

	writeBullets(&sb, "Key Points", e.KeyPoints)
	writeBullets(&sb, "Applications", e.Applications)
	writeBullets(&sb, "Examples", e.Examples)

	if len(e.RelatedTopics) > 0 {
		sb.WriteString("**Related Topics:** ")
		sb.WriteString(strings.Join(e.RelatedTopics, ", "))
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}

func writeBullets(sb *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString("### ")
	sb.WriteString(heading)
	sb.WriteString("\n")
	for _, item := range items {
		sb.WriteString("- ")
		sb.WriteString(item)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}
