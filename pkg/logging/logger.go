// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging provides structured logging for portal components.
//
// The logging system is built on Go's standard library slog package. Every
// binary calls New once at startup and installs the result with
// slog.SetDefault; packages then log through the slog top-level functions.
//
// # Basic Usage
//
//	logger := logging.New(logging.Config{Level: logging.LevelInfo, Service: "portal"})
//	slog.SetDefault(logger)
//
// # Environment
//
//	cfg := logging.FromEnv(os.Getenv, "portal")  // LOG_LEVEL, LOG_FORMAT
//
// # Log Levels
//
//   - Debug: Per-attempt detail (key rotation, per-source timings)
//   - Info: Lifecycle (startup, shutdown, answered request)
//   - Warn: Recoverable issues (rate-limited attempt, source fetch failure)
//   - Error: Internal errors
//
// # Security Considerations
//
// This package does NOT redact. Provider error text must go through
// llm.SafeLogString before it is logged.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// =============================================================================
// Log Levels
// =============================================================================

// Level represents log severity levels, ordered Debug < Info < Warn < Error.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns "DEBUG", "INFO", "WARN", "ERROR", or "UNKNOWN".
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) toSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel maps a case-insensitive name to a Level.
//
// # Outputs
//
//   - Level: Parsed level, LevelInfo when unrecognized
//   - bool: false when raw was not a known level name
func ParseLevel(raw string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return LevelDebug, true
	case "info", "":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	}
	return LevelInfo, false
}

// =============================================================================
// Configuration
// =============================================================================

// Config configures the logger. A zero Config writes Info+ text to stderr.
type Config struct {
	// Level sets the minimum log level. Default: LevelInfo
	Level Level

	// Service is attached to every entry as the "service" attribute.
	// Default: "" (no attribute)
	Service string

	// JSON selects the JSON handler instead of text.
	JSON bool

	// Output is the destination. Default: os.Stderr
	Output io.Writer
}

// FromEnv builds a Config from LOG_LEVEL and LOG_FORMAT.
//
// # Description
//
// LOG_FORMAT=json selects JSON output; anything else is text. An
// unrecognized LOG_LEVEL falls back to info.
func FromEnv(getenv func(string) string, service string) Config {
	level, _ := ParseLevel(getenv("LOG_LEVEL"))
	return Config{
		Level:   level,
		Service: service,
		JSON:    strings.EqualFold(strings.TrimSpace(getenv("LOG_FORMAT")), "json"),
	}
}

// =============================================================================
// Constructor
// =============================================================================

// New creates a slog.Logger from cfg.
//
// # Thread Safety
//
// The returned logger is safe for concurrent use.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level.toSlogLevel()}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	logger := slog.New(handler)
	if cfg.Service != "" {
		logger = logger.With(slog.String("service", cfg.Service))
	}
	return logger
}
