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

import "regexp"

type redactionPattern struct {
	pattern     *regexp.Regexp
	replacement string
}

// Ordered most specific first. The bearer and query-key rules also cover
// managed-store service keys echoed back in source fetch errors.
var redactionPatterns = []redactionPattern{
	{regexp.MustCompile(`sk-proj-[A-Za-z0-9_-]{20,}`), "[REDACTED:openai_key]"},
	{regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`), "[REDACTED:openai_key]"},
	{regexp.MustCompile(`AIza[A-Za-z0-9_-]{30,}`), "[REDACTED:gemini_key]"},
	{regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`), "[REDACTED:jwt]"},
	{regexp.MustCompile(`Bearer\s+[A-Za-z0-9._-]{10,}`), "[REDACTED:bearer_token]"},
	{regexp.MustCompile(`key=[A-Za-z0-9._-]{10,}`), "key=[REDACTED]"},
}

// SafeLogString redacts known secret formats from s before it is logged.
//
// Description:
//
//	Provider and source errors sometimes echo request URLs or headers. Each
//	match is replaced with a labeled placeholder so the reader knows what
//	class of secret was present.
//
// Limitations:
//   - Pattern-based only. Keys in unknown formats pass through.
//
// Thread Safety: Safe for concurrent use.
func SafeLogString(s string) string {
	if s == "" {
		return s
	}
	for _, p := range redactionPatterns {
		s = p.pattern.ReplaceAllString(s, p.replacement)
	}
	return s
}
