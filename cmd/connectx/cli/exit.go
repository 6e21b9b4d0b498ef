// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ExitError ends the process with Code and no further message. The
// command has already written its own output; "verify status" uses it
// to exit 1 for a rejected verification.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode is checked by main to tell a handled exit from an error to
// print.
func (e *ExitError) ExitCode() int {
	return e.Code
}
