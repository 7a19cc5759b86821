// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	searchType    string
	searchExplain bool
	askContext    string
	plainOutput   bool

	rootCmd = &cobra.Command{
		Use:          "portal",
		Short:        "Campus knowledge portal: tiered answers and study-material search",
		SilenceUsage: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the portal HTTP service",
		Args:  cobra.NoArgs,
		RunE:  runServe, // Defined in cmd_serve.go
	}

	askCmd = &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a question through the knowledge base and provider tiers",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAsk, // Defined in cmd_query.go
	}

	searchCmd = &cobra.Command{
		Use:   "search [query]",
		Short: "Search study materials across all configured sources",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSearch, // Defined in cmd_query.go
	}
)
