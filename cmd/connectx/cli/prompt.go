// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/connectx-campus/connectx/lib/secret"
)

// Stdin is where prompts read answers. Tests replace it.
var Stdin io.Reader = os.Stdin

// ReadPassword returns the password from path when set ("-" for the
// first line of stdin), otherwise prompts without echo on the terminal.
func ReadPassword(path, prompt string) (*secret.Buffer, error) {
	if path != "" {
		return secret.ReadFile(path)
	}
	file, ok := Stdin.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return nil, Validation("no terminal to prompt for the password").
			WithHint("Pass --password-file PATH, or --password-file - to read it from stdin.")
	}
	fmt.Fprint(Stderr, prompt)
	data, err := term.ReadPassword(int(file.Fd()))
	fmt.Fprintln(Stderr)
	if err != nil {
		return nil, Internal("reading password: %w", err)
	}
	if len(data) == 0 {
		return nil, Validation("password is required")
	}
	return secret.NewFromBytes(data)
}

// Confirm asks a yes/no question on Stderr and reads the answer from
// Stdin. assumeYes answers without asking. A missing or unreadable
// answer is no.
func Confirm(prompt string, assumeYes bool) bool {
	if assumeYes {
		return true
	}
	fmt.Fprintf(Stderr, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(Stdin).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// IsTerminal reports whether stdout is a terminal, which decides
// between the interactive screens and plain polling output.
func IsTerminal() bool {
	file, ok := Stdout.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}
