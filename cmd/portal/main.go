// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command portal runs the campus knowledge portal.
//
// # Usage
//
//	portal serve                       # HTTP service on $PORT (default 12210)
//	portal ask "what is a laplace transform"
//	portal search --type notes paging
//
// All subcommands read the same environment as the HTTP service; see
// orchestrator.LoadConfig. LOG_LEVEL and LOG_FORMAT control logging.
package main

import (
	"log/slog"
	"os"

	"github.com/campus-kb/portal/pkg/logging"
)

func main() {
	slog.SetDefault(logging.New(logging.FromEnv(os.Getenv, "portal")))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	searchCmd.Flags().StringVarP(&searchType, "type", "t", "all",
		"Category filter: all, notes, pyq, syllabus, video, other")
	searchCmd.Flags().BoolVar(&searchExplain, "explain", false,
		"Also ask the answer router to explain the query")
	askCmd.Flags().StringVar(&askContext, "context", "",
		"Grounding text passed to the provider with the question")
	rootCmd.PersistentFlags().BoolVar(&plainOutput, "plain", false,
		"Force tab-separated output even on a terminal")

	rootCmd.AddCommand(serveCmd, askCmd, searchCmd)
}
