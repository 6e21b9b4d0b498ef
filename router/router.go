// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

// Package router tracks the client's current location and performs
// redirects. Navigating to the location already current is a no-op, so
// repeated redirects to the same target (a burst of 401s, a guard
// re-evaluating) produce one transition.
package router

import (
	"log/slog"
	"sync"
)

// Well-known paths.
const (
	Home           = "/"
	Login          = "/login"
	Signup         = "/signup"
	Verify         = "/verify"
	College        = "/college"
	Admin          = "/admin"
	AdminDashboard = "/admin/dashboard"
)

const historyCapacity = 64

// IsPublic reports whether path is an unauthenticated auth page.
func IsPublic(path string) bool { return path == Login || path == Signup }

// Navigator holds the current location. Safe for concurrent use.
type Navigator struct {
	mu      sync.Mutex
	current string
	history []string
	logger  *slog.Logger
}

// New returns a Navigator at initial. A nil logger uses slog.Default().
func New(initial string, logger *slog.Logger) *Navigator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Navigator{current: initial, logger: logger}
}

// Current returns the current location.
func (n *Navigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Navigate moves to path and reports whether the location changed.
func (n *Navigator) Navigate(path string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == path {
		return false
	}
	n.logger.Debug("navigate", "from", n.current, "to", path)
	n.history = append(n.history, n.current)
	if len(n.history) > historyCapacity {
		n.history = n.history[len(n.history)-historyCapacity:]
	}
	n.current = path
	return true
}

// History returns previous locations, oldest first.
func (n *Navigator) History() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.history...)
}
