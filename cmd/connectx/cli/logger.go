// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// logLevel is shared by every command logger, so the level read from
// config applies to loggers made before the config was loaded.
var logLevel slog.LevelVar

// NewCommandLogger returns the logger for command runs: a text handler
// when stderr is a terminal, JSON otherwise.
func NewCommandLogger() *slog.Logger {
	options := &slog.HandlerOptions{Level: &logLevel}
	var handler slog.Handler
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}

// SetLevel applies a config level name: debug, info, warn or error.
// Anything else means info.
func SetLevel(level string) {
	logLevel.Set(ParseLevel(level))
}

// ParseLevel maps a config level name to a slog level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
