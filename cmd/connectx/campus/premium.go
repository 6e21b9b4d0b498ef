// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package campus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/connectx-campus/connectx/api"
	"github.com/connectx-campus/connectx/cmd/connectx/cli"
)

func premiumCommand() *cli.Command {
	return &cli.Command{
		Name:    "premium",
		Summary: "Premium subscription",
		Subcommands: []*cli.Command{
			premiumStatusCommand(),
			cancelCommand(),
		},
	}
}

func premiumStatusCommand() *cli.Command {
	var params listParams

	return &cli.Command{
		Name:    "status",
		Summary: "Show your subscription",
		Params:  func() any { return &params },
		Output:  func() any { return &api.PremiumStatus{} },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			app, err := open(&params.Connection, false, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			status, fetchErr := app.Client.PremiumStatus(ctx)
			if done, err := params.EmitJSON(status); done {
				return err
			}
			if !status.IsPremium {
				fmt.Fprintln(cli.Stdout, "Not premium")
				if fetchErr != nil {
					unavailable("Subscription status", fetchErr)
				}
				return nil
			}
			fmt.Fprintf(cli.Stdout, "Premium (%s)\n", orDefault(status.PlanType, "plan unknown"))
			if status.PremiumBadge != "" {
				fmt.Fprintf(cli.Stdout, "  badge:   %s\n", status.PremiumBadge)
			}
			if !status.CurrentPeriodEnd.IsZero() {
				fmt.Fprintf(cli.Stdout, "  renews:  %s\n", humanize.Time(status.CurrentPeriodEnd.Time))
			}
			if !status.PremiumExpiry.IsZero() {
				fmt.Fprintf(cli.Stdout, "  expires: %s\n", status.PremiumExpiry.Format("2006-01-02"))
			}
			return nil
		},
	}
}

type cancelParams struct {
	cli.Connection
	Yes bool `json:"yes" flag:"yes,y" desc:"cancel without asking"`
}

func cancelCommand() *cli.Command {
	var params cancelParams

	return &cli.Command{
		Name:    "cancel",
		Summary: "Cancel at the end of the current period",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if !cli.Confirm("Cancel your premium subscription?", params.Yes) {
				fmt.Fprintln(cli.Stdout, "Kept")
				return nil
			}
			app, err := open(&params.Connection, false, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			message, err := app.Client.CancelPremium(ctx)
			if err != nil {
				return cli.Classify(err)
			}
			fmt.Fprintln(cli.Stdout, orDefault(message, "Subscription cancelled"))
			return nil
		},
	}
}
