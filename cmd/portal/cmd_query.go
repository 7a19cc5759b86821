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
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/campus-kb/portal/pkg/ux"
	"github.com/campus-kb/portal/services/answer"
	"github.com/campus-kb/portal/services/llm"
	"github.com/campus-kb/portal/services/orchestrator"
	"github.com/campus-kb/portal/services/search"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// runAsk resolves one question in-process, without the HTTP service.
func runAsk(cmd *cobra.Command, args []string) error {
	components, err := loadComponents()
	if err != nil {
		return err
	}
	p := newPrinter(cmd.OutOrStdout())

	req := llm.QueryRequest{Text: strings.Join(args, " "), Context: askContext}
	res, err := components.Answer.Answer(contextOf(cmd), req)
	if err != nil {
		if errors.Is(err, answer.ErrInvalidQuery) {
			p.Error("question text is required")
		}
		return err
	}

	p.Answer(res.Text, string(res.Provider), res.IsTerminalFailure)
	return nil
}

// runSearch aggregates every configured source and prints the filtered list.
// With --explain the answer router runs concurrently with the search.
func runSearch(cmd *cobra.Command, args []string) error {
	category := strings.ToLower(strings.TrimSpace(searchType))
	if category == "" {
		category = search.CategoryAll
	}
	if !slices.Contains(search.Categories, category) {
		return fmt.Errorf("unknown type %q (want one of %s)", searchType, strings.Join(search.Categories, ", "))
	}

	components, err := loadComponents()
	if err != nil {
		return err
	}
	p := newPrinter(cmd.OutOrStdout())
	query := strings.Join(args, " ")

	var (
		found       search.SearchResult
		explanation answer.Result
	)
	g, ctx := errgroup.WithContext(contextOf(cmd))
	g.Go(func() error {
		found = components.Search.Search(ctx, query)
		return nil
	})
	if searchExplain {
		g.Go(func() error {
			var err error
			explanation, err = components.Answer.Answer(ctx, llm.QueryRequest{Text: query})
			return err
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	p.Results(found, search.FilterByType(found.Results, category))
	if searchExplain {
		p.Answer(explanation.Text, string(explanation.Provider), explanation.IsTerminalFailure)
	}
	return nil
}

// loadComponents builds the domain layer from the process environment.
func loadComponents() (*orchestrator.Components, error) {
	cfg, err := orchestrator.LoadConfig(os.Getenv)
	if err != nil {
		return nil, err
	}
	return orchestrator.NewComponents(cfg)
}

// newPrinter styles output only for an interactive terminal.
func newPrinter(w io.Writer) *ux.Printer {
	if plainOutput {
		return ux.NewPrinter(w, false)
	}
	f, ok := w.(*os.File)
	if !ok {
		return ux.NewPrinter(w, false)
	}
	return ux.NewPrinter(w, isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
