// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func withStdin(t *testing.T, input string) {
	t.Helper()
	previous := Stdin
	Stdin = strings.NewReader(input)
	t.Cleanup(func() { Stdin = previous })
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"sure\n", false},
	}
	for _, test := range tests {
		_, stderr := captureOutput(t)
		withStdin(t, test.input)
		if got := Confirm("Reject verification?", false); got != test.want {
			t.Errorf("Confirm with %q = %v, want %v", test.input, got, test.want)
		}
		if !strings.Contains(stderr.String(), "Reject verification? [y/N]") {
			t.Errorf("prompt = %q", stderr.String())
		}
	}
}

func TestConfirmAssumeYesDoesNotRead(t *testing.T) {
	_, stderr := captureOutput(t)
	withStdin(t, "n\n")
	if !Confirm("Bypass?", true) {
		t.Error("Confirm(assumeYes) = false")
	}
	if stderr.Len() != 0 {
		t.Errorf("prompted despite assumeYes: %q", stderr.String())
	}
}

func TestReadPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "password")
	if err := os.WriteFile(path, []byte("hunter22\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	password, err := ReadPassword(path, "Password: ")
	if err != nil {
		t.Fatalf("ReadPassword: %v", err)
	}
	defer password.Close()
	if password.String() != "hunter22" {
		t.Errorf("password = %q", password.String())
	}
}

func TestReadPasswordWithoutTerminal(t *testing.T) {
	withStdin(t, "")
	_, err := ReadPassword("", "Password: ")
	var toolErr *ToolError
	if !errors.As(err, &toolErr) || toolErr.Category != CategoryValidation {
		t.Fatalf("error = %v, want validation", err)
	}
	if !strings.Contains(toolErr.Hint, "--password-file") {
		t.Errorf("hint = %q", toolErr.Hint)
	}
}

func TestParseLevel(t *testing.T) {
	for input, want := range map[string]string{"debug": "DEBUG", "WARN": "WARN", "error": "ERROR", "": "INFO", "loud": "INFO"} {
		if got := ParseLevel(input).String(); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", input, got, want)
		}
	}
}
