// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/connectx-campus/connectx/cmd/connectx/cli"
)

// walkCommands visits every command in the tree with its path.
func walkCommands(command *cli.Command, path []string, visit func(*cli.Command, []string)) {
	current := append(append([]string(nil), path...), command.Name)
	visit(command, current)
	for _, sub := range command.Subcommands {
		walkCommands(sub, current, visit)
	}
}

func TestCommandTree(t *testing.T) {
	walkCommands(Root(), nil, func(command *cli.Command, path []string) {
		name := strings.Join(path, " ")
		if len(path) > 1 && command.Summary == "" {
			t.Errorf("%s: missing Summary", name)
		}
		if command.Run == nil && len(command.Subcommands) == 0 {
			t.Errorf("%s: neither Run nor subcommands", name)
		}
		if command.Params != nil && command.Flags != nil {
			t.Errorf("%s: both Params and Flags", name)
		}
		seen := make(map[string]bool)
		for _, sub := range command.Subcommands {
			if seen[sub.Name] {
				t.Errorf("%s: duplicate subcommand %q", name, sub.Name)
			}
			seen[sub.Name] = true
		}
	})
}

func TestEveryCommandPrintsHelp(t *testing.T) {
	walkCommands(Root(), nil, func(command *cli.Command, path []string) {
		var buffer bytes.Buffer
		// Binding the params panics on an unsupported field type.
		command.PrintHelp(&buffer)
		if buffer.Len() == 0 {
			t.Errorf("%s: empty help", strings.Join(path, " "))
		}
	})
}

func TestTopLevelCommands(t *testing.T) {
	names := make(map[string]bool)
	for _, command := range Root().Subcommands {
		names[command.Name] = true
	}
	for _, want := range []string{
		"login", "signup", "logout", "whoami", "otp", "colleges",
		"verify", "review", "route",
		"feed", "coins", "rewards", "premium", "coupons", "version",
	} {
		if !names[want] {
			t.Errorf("missing command %q", want)
		}
	}
}

func TestVersion(t *testing.T) {
	var stdout bytes.Buffer
	previous := cli.Stdout
	cli.Stdout = &stdout
	t.Cleanup(func() { cli.Stdout = previous })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := Root().Execute(context.Background(), []string{"version"}, logger); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(stdout.String(), "connectx ") {
		t.Errorf("output = %q", stdout.String())
	}
}
