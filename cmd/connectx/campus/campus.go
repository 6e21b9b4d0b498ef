// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

// Package campus implements the social commands: feed, coins, rewards,
// premium and coupons.
package campus

import (
	"fmt"
	"log/slog"

	"github.com/connectx-campus/connectx/auth"
	"github.com/connectx-campus/connectx/cmd/connectx/cli"
	"github.com/connectx-campus/connectx/guard"
	"github.com/connectx-campus/connectx/router"
)

// Commands returns the campus command groups, mounted at the root.
func Commands() []*cli.Command {
	return []*cli.Command{
		feedCommand(),
		coinsCommand(),
		rewardsCommand(),
		premiumCommand(),
		couponsCommand(),
	}
}

// open returns an app for a signed-in user. With gated set the stored
// user must pass the guard for the home route, which keeps unverified
// students out of the student endpoints.
func open(connection *cli.Connection, gated bool, logger *slog.Logger) (*cli.App, error) {
	app, err := connection.Open(router.Home, logger)
	if err != nil {
		return nil, err
	}
	user, err := app.RequireUser()
	if err != nil {
		app.Close()
		return nil, err
	}
	if !gated {
		return app, nil
	}

	decision := guard.Check(router.Home, guard.Input{
		Auth:                 auth.State{Authenticated: true, User: user},
		VerificationResolved: true,
	})
	if decision.Kind == guard.KindRedirect {
		app.Close()
		hint := fmt.Sprintf("Open %s instead.", decision.Location)
		if decision.Location == router.Verify {
			hint = "Run 'connectx verify status' to check or refresh your verification."
		}
		return nil, cli.Forbidden("%s", decision.Reason).WithHint(hint)
	}
	return app, nil
}
