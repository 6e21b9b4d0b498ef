// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

// Package tui holds the pieces shared by ConnectX's interactive
// screens: the color theme, status badges, ANSI-aware truncation, the
// change-highlight tracker and the scrollbar. Screens themselves live
// in lib/verifyui and lib/reviewui.
package tui
