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
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/campus-kb/portal/services/orchestrator"
	"github.com/spf13/cobra"
)

// runServe starts the HTTP service and blocks until SIGINT or SIGTERM.
func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := orchestrator.LoadConfig(os.Getenv)
	if err != nil {
		return err
	}

	slog.Info("Starting portal",
		slog.Int("port", cfg.Port),
		slog.String("gin_mode", cfg.GinMode),
		slog.Bool("legacy_source", cfg.LegacyAPIURL != ""),
		slog.Bool("managed_source", cfg.ManagedStoreURL != ""),
		slog.Bool("tracing", cfg.OTelEndpoint != ""))

	svc, err := orchestrator.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return svc.Run(ctx)
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
