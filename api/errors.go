// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"errors"
	"fmt"
)

// UnreachableMessage is shown when no HTTP response arrived at all.
const UnreachableMessage = "Cannot connect to server. Please check your connection."

var (
	// ErrUnreachable wraps transport failures: DNS, refused
	// connections, timeouts, TLS errors, truncated bodies.
	ErrUnreachable = errors.New("cannot connect to server")

	// ErrMalformed marks a 2xx response whose body or data member is
	// absent or does not decode.
	ErrMalformed = errors.New("malformed response")
)

// Error is a response the server answered with an error status, or a
// 2xx envelope with success false. Message is the server's own text,
// taken from the envelope's error member, then message.
//
//	var apiErr *api.Error
//	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict { ... }
type Error struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("api: %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// IsStatus reports whether err is an *Error with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// Message returns the text to show a user for err: the server's message
// when it sent one, UnreachableMessage for transport failures, and
// fallback otherwise.
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, ErrUnreachable) {
		return UnreachableMessage
	}
	return fallback
}
