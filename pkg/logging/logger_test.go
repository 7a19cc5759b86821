// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw   string
		want  Level
		known bool
	}{
		{"debug", LevelDebug, true},
		{"INFO", LevelInfo, true},
		{"", LevelInfo, true},
		{" warning ", LevelWarn, true},
		{"error", LevelError, true},
		{"loud", LevelInfo, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseLevel(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.known, ok)
		})
	}
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
}

func TestNew_JSONWithServiceAttribute(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Service: "portal", JSON: true, Output: &buf})

	logger.Debug("hidden")
	logger.Info("visible", "attempt", 2)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "visible", entry["msg"])
	assert.Equal(t, "portal", entry["service"])
	assert.Equal(t, float64(2), entry["attempt"])
}

func TestNew_TextRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelWarn, Output: &buf})

	logger.Info("quiet")
	logger.Warn("rotating key")

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "rotating key")
}

func TestFromEnv(t *testing.T) {
	env := map[string]string{"LOG_LEVEL": "debug", "LOG_FORMAT": "JSON"}
	cfg := FromEnv(func(k string) string { return env[k] }, "portal")

	assert.Equal(t, LevelDebug, cfg.Level)
	assert.True(t, cfg.JSON)
	assert.Equal(t, "portal", cfg.Service)

	cfg = FromEnv(func(string) string { return "" }, "cli")
	assert.Equal(t, LevelInfo, cfg.Level)
	assert.False(t, cfg.JSON)
}
