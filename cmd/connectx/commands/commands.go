// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete connectx command tree.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/connectx-campus/connectx/cmd/connectx/account"
	"github.com/connectx-campus/connectx/cmd/connectx/campus"
	"github.com/connectx-campus/connectx/cmd/connectx/cli"
	reviewcmd "github.com/connectx-campus/connectx/cmd/connectx/review"
	routecmd "github.com/connectx-campus/connectx/cmd/connectx/route"
	verifycmd "github.com/connectx-campus/connectx/cmd/connectx/verify"
	"github.com/connectx-campus/connectx/lib/version"
)

// Root builds and returns the connectx command tree.
func Root() *cli.Command {
	root := &cli.Command{
		Name: "connectx",
		Description: `connectx: command-line client for the ConnectX campus network.

Sign in, complete identity verification as a student, review pending
verifications as an admin, and use the feed, coins, rewards, premium
and coupons.`,
		Examples: []cli.Example{
			{
				Description: "Sign in (saves the session locally)",
				Command:     "connectx login asha@campus.edu",
			},
			{
				Description: "Verify your student identity in one go",
				Command:     "connectx verify submit id-card.jpg selfie.jpg",
			},
			{
				Description: "Follow your verification until it is decided",
				Command:     "connectx verify watch",
			},
			{
				Description: "Work the review queue as an admin",
				Command:     "connectx review watch",
			},
			{
				Description: "See where the guard sends you",
				Command:     "connectx route check /home",
			},
		},
	}

	root.Subcommands = append(root.Subcommands, account.Commands()...)
	root.Subcommands = append(root.Subcommands,
		verifycmd.Command(),
		reviewcmd.Command(),
		routecmd.Command(),
	)
	root.Subcommands = append(root.Subcommands, campus.Commands()...)
	root.Subcommands = append(root.Subcommands, &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			fmt.Fprintln(cli.Stdout, version.Full())
			return nil
		},
	})
	return root
}
