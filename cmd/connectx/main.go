// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

// Command connectx is the ConnectX campus client.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/connectx-campus/connectx/cmd/connectx/cli"
	"github.com/connectx-campus/connectx/cmd/connectx/commands"
)

func main() {
	if err := run(); err != nil {
		// Commands that print their own output (like "verify status")
		// carry the exit code; don't add an "error:" line for those.
		var exit *cli.ExitError
		if errors.As(err, &exit) {
			os.Exit(exit.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return commands.Root().Execute(ctx, os.Args[1:], cli.NewCommandLogger())
}
