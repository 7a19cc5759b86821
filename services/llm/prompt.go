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
	"fmt"
	"strings"
)

const groundedInstruction = `You are a campus study assistant. Answer strictly and exclusively from the provided context.
Do not use outside knowledge and do not make claims the context does not support.
If the context does not contain the information needed, say that you cannot answer from the provided material.`

const generalInstruction = `You are a campus study assistant. Give a general, well-structured answer.
Use short headings, list the key points, and include at least one concrete example.`

// SystemInstruction returns the behavioral instruction for a request:
// grounded when a context is supplied, general otherwise.
func SystemInstruction(req QueryRequest) string {
	if strings.TrimSpace(req.Context) != "" {
		return groundedInstruction
	}
	return generalInstruction
}

// BuildPrompt renders the user-turn text sent to a provider.
//
// With context, the material is delimited and followed by the question so
// the model can only draw on what sits between the markers.
func BuildPrompt(req QueryRequest) string {
	question := strings.TrimSpace(req.Text)
	material := strings.TrimSpace(req.Context)
	if material == "" {
		return fmt.Sprintf("%s\n\nQuestion: %s", generalInstruction, question)
	}
	return fmt.Sprintf("%s\n\n--- CONTEXT START ---\n%s\n--- CONTEXT END ---\n\nQuestion: %s",
		groundedInstruction, material, question)
}
