// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"log/slog"

	"github.com/connectx-campus/connectx/router"
	"github.com/connectx-campus/connectx/session"
)

// ForcedLogout implements api.UnauthorizedHandler. Outside the public
// auth pages a 401 clears the session and redirects to /login. Once on
// /login further 401s are ignored, so a burst of failing requests
// redirects once.
type ForcedLogout struct {
	Store     *session.Store
	Navigator *router.Navigator
	Logger    *slog.Logger
}

func (f *ForcedLogout) HandleUnauthorized(method, path string) {
	if router.IsPublic(f.Navigator.Current()) {
		return
	}
	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if err := f.Store.Clear(); err != nil {
		logger.Error("clearing session after 401", "error", err)
	}
	if f.Navigator.Navigate(router.Login) {
		logger.Info("session rejected by server, redirecting to login", "method", method, "path", path)
	}
}
