// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command framework of the connectx binary: the
// [Command] tree with help and typo suggestions, struct-tag flag
// binding ([BindFlags]), [JSONOutput] for --json, categorized
// [ToolError]s, [ExitError], the command logger, terminal prompts and
// the [Connection] that opens an [App] from config and the stored
// session.
package cli
