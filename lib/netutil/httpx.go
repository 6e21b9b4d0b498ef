// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil bounds HTTP response reads. Every JSON body from the
// ConnectX API is read through ReadResponse so a misbehaving server
// cannot make the client allocate without limit.
package netutil

import (
	"io"
	"strings"
)

// MaxResponseSize caps a single JSON response body at 64 MB, far above
// any feed page or pending-review list.
const MaxResponseSize int64 = 64 << 20

// ReadResponse reads body up to MaxResponseSize bytes.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// Snippet shortens a body for inclusion in error messages and logs.
func Snippet(body []byte) string {
	const limit = 256
	text := strings.TrimSpace(string(body))
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
