// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds channel helpers shared by ConnectX tests. The
// timeouts are wall-clock hang guards only; test logic runs on
// clock.Fake.
package testutil

import (
	"fmt"
	"time"
)

// TB is the part of testing.TB the helpers need.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
}

// RequireReceive returns the next value from channel, failing the test
// if none arrives within timeout or the channel is closed.
func RequireReceive[T any](t TB, channel <-chan T, timeout time.Duration, context ...any) T {
	t.Helper()
	select {
	case value, ok := <-channel:
		if !ok {
			t.Fatalf("channel closed: %s", describe(context))
		}
		return value
	case <-time.After(timeout):
		t.Fatalf("nothing received after %v: %s", timeout, describe(context))
	}
	panic("unreachable")
}

// RequireNoReceive fails the test if channel yields a value within
// wait.
func RequireNoReceive[T any](t TB, channel <-chan T, wait time.Duration, context ...any) {
	t.Helper()
	select {
	case value := <-channel:
		t.Fatalf("unexpected value %v: %s", value, describe(context))
	case <-time.After(wait):
	}
}

// RequireClosed waits for channel to be closed.
func RequireClosed(t TB, channel <-chan struct{}, timeout time.Duration, context ...any) {
	t.Helper()
	select {
	case <-channel:
	case <-time.After(timeout):
		t.Fatalf("not closed after %v: %s", timeout, describe(context))
	}
}

func describe(context []any) string {
	switch {
	case len(context) == 0:
		return "(no context)"
	case len(context) == 1:
		return fmt.Sprint(context[0])
	}
	if format, ok := context[0].(string); ok {
		return fmt.Sprintf(format, context[1:]...)
	}
	return fmt.Sprint(context...)
}
