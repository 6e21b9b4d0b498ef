// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// captureOutput points Stdout and Stderr at buffers for the test.
func captureOutput(t *testing.T) (stdout, stderr *bytes.Buffer) {
	t.Helper()
	stdout, stderr = &bytes.Buffer{}, &bytes.Buffer{}
	previousOut, previousErr := Stdout, Stderr
	Stdout, Stderr = stdout, stderr
	t.Cleanup(func() { Stdout, Stderr = previousOut, previousErr })
	return stdout, stderr
}

func TestExecuteDispatchesToSubcommand(t *testing.T) {
	var called string
	root := &Command{
		Name: "connectx",
		Subcommands: []*Command{
			{Name: "login", Run: func(context.Context, []string, *slog.Logger) error { called = "login"; return nil }},
			{Name: "logout", Run: func(context.Context, []string, *slog.Logger) error { called = "logout"; return nil }},
		},
	}
	if err := root.Execute(context.Background(), []string{"logout"}, quietLogger()); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "logout" {
		t.Errorf("dispatched to %q, want logout", called)
	}
}

func TestExecuteNestedSubcommandsPassArgs(t *testing.T) {
	var received []string
	root := &Command{
		Name: "connectx",
		Subcommands: []*Command{{
			Name: "verify",
			Subcommands: []*Command{{
				Name: "upload-id",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					received = args
					return nil
				},
			}},
		}},
	}
	if err := root.Execute(context.Background(), []string{"verify", "upload-id", "card.jpg"}, quietLogger()); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if len(received) != 1 || received[0] != "card.jpg" {
		t.Errorf("args = %v, want [card.jpg]", received)
	}
}

type watchParams struct {
	JSONOutput
	Interval time.Duration `json:"interval" flag:"interval" default:"5s" desc:"poll period"`
	Plain    bool          `json:"plain" flag:"plain,p" desc:"plain output"`
	Limit    int           `json:"limit" flag:"limit" default:"10" desc:"page size"`
}

func TestExecuteBindsParams(t *testing.T) {
	var params watchParams
	var ran bool
	command := &Command{
		Name:   "watch",
		Params: func() any { return &params },
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			ran = true
			if len(args) != 1 || args[0] != "extra" {
				t.Errorf("args = %v, want [extra]", args)
			}
			return nil
		},
	}
	err := command.Execute(context.Background(), []string{"--interval", "2s", "-p", "--json", "extra"}, quietLogger())
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !ran {
		t.Fatal("Run was not called")
	}
	if params.Interval != 2*time.Second || !params.Plain || !params.OutputJSON {
		t.Errorf("params = %+v", params)
	}
	if params.Limit != 10 {
		t.Errorf("Limit = %d, want default 10", params.Limit)
	}
}

func TestExecuteUnknownCommandSuggests(t *testing.T) {
	captureOutput(t)
	root := &Command{
		Name: "connectx",
		Subcommands: []*Command{
			{Name: "verify", Run: func(context.Context, []string, *slog.Logger) error { return nil }},
			{Name: "review", Run: func(context.Context, []string, *slog.Logger) error { return nil }},
		},
	}
	err := root.Execute(context.Background(), []string{"verfy"}, quietLogger())
	var toolErr *ToolError
	if !errors.As(err, &toolErr) || toolErr.Category != CategoryValidation {
		t.Fatalf("error = %v, want a validation ToolError", err)
	}
	if !strings.Contains(err.Error(), `did you mean "verify"`) {
		t.Errorf("error %q lacks the suggestion", err)
	}
	if !strings.Contains(err.Error(), "connectx --help") {
		t.Errorf("error %q lacks the help hint", err)
	}
}

func TestExecuteUnknownFlagSuggests(t *testing.T) {
	var params watchParams
	command := &Command{
		Name:   "watch",
		Params: func() any { return &params },
		Run:    func(context.Context, []string, *slog.Logger) error { return nil },
	}
	err := command.Execute(context.Background(), []string{"--intervl", "1s"}, quietLogger())
	if err == nil || !strings.Contains(err.Error(), "did you mean --interval?") {
		t.Fatalf("error = %v, want a --interval suggestion", err)
	}
}

func TestExecuteGroupWithoutSubcommand(t *testing.T) {
	_, stderr := captureOutput(t)
	group := &Command{
		Name:        "review",
		Subcommands: []*Command{{Name: "list", Summary: "List pending verifications"}},
	}
	err := group.Execute(context.Background(), nil, quietLogger())
	if err == nil || !strings.Contains(err.Error(), "subcommand required") {
		t.Fatalf("error = %v, want subcommand required", err)
	}
	if !strings.Contains(stderr.String(), "List pending verifications") {
		t.Errorf("help not printed: %q", stderr.String())
	}
}

func TestExecuteHelpFlag(t *testing.T) {
	_, stderr := captureOutput(t)
	var params watchParams
	command := &Command{
		Name:     "watch",
		Summary:  "Follow the verification",
		Params:   func() any { return &params },
		Examples: []Example{{Description: "Plain output", Command: "connectx verify watch --plain"}},
		Run: func(context.Context, []string, *slog.Logger) error {
			t.Error("Run called for --help")
			return nil
		},
	}
	if err := command.Execute(context.Background(), []string{"--help"}, quietLogger()); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	help := stderr.String()
	for _, want := range []string{"Follow the verification", "--interval", "--plain", "# Plain output"} {
		if !strings.Contains(help, want) {
			t.Errorf("help lacks %q:\n%s", want, help)
		}
	}
}

func TestRunLoggerCarriesCommandName(t *testing.T) {
	var buffer bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buffer, nil))
	root := &Command{
		Name: "connectx",
		Subcommands: []*Command{{
			Name: "version",
			Run: func(_ context.Context, _ []string, logger *slog.Logger) error {
				logger.Info("hello")
				return nil
			},
		}},
	}
	if err := root.Execute(context.Background(), []string{"version"}, logger); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !strings.Contains(buffer.String(), `command="connectx version"`) {
		t.Errorf("log line %q lacks the command attribute", buffer.String())
	}
}

func TestEmitJSON(t *testing.T) {
	stdout, _ := captureOutput(t)
	output := JSONOutput{OutputJSON: true}
	var entries []string
	done, err := output.EmitJSON(entries)
	if !done || err != nil {
		t.Fatalf("EmitJSON = %v, %v", done, err)
	}
	if strings.TrimSpace(stdout.String()) != "[]" {
		t.Errorf("nil slice written as %q, want []", stdout.String())
	}

	stdout.Reset()
	if done, _ := (&JSONOutput{}).EmitJSON(entries); done || stdout.Len() != 0 {
		t.Error("EmitJSON wrote without --json")
	}
}

func TestExitErrorCode(t *testing.T) {
	var err error = &ExitError{Code: 1}
	var exit *ExitError
	if !errors.As(err, &exit) || exit.ExitCode() != 1 {
		t.Errorf("ExitCode() = %v", err)
	}
}
