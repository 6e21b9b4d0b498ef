// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package campus

import (
	"context"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/connectx-campus/connectx/api"
	"github.com/connectx-campus/connectx/cmd/connectx/cli"
)

func rewardsCommand() *cli.Command {
	return &cli.Command{
		Name:    "rewards",
		Summary: "Rewards redeemable with points",
		Subcommands: []*cli.Command{
			rewardListCommand(),
			rewardShowCommand(),
			rewardRedeemCommand(),
		},
	}
}

func rewardListCommand() *cli.Command {
	var params listParams

	return &cli.Command{
		Name:    "list",
		Summary: "List rewards on offer",
		Params:  func() any { return &params },
		Output:  func() any { return &[]api.Reward{} },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			app, err := open(&params.Connection, true, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			rewards, err := app.Client.Rewards(ctx)
			if err != nil {
				return cli.Classify(err)
			}
			if done, err := params.EmitJSON(rewards); done {
				return err
			}
			if len(rewards) == 0 {
				fmt.Fprintln(cli.Stdout, "No rewards on offer.")
				return nil
			}
			writer := tabwriter.NewWriter(cli.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintf(writer, "ID\tREWARD\tPOINTS\n")
			for _, reward := range rewards {
				fmt.Fprintf(writer, "%s\t%s\t%s\n", reward.ID, reward.Title, humanize.Comma(int64(reward.PointsRequired)))
			}
			return writer.Flush()
		},
	}
}

type rewardShowParams struct {
	cli.Connection
	cli.JSONOutput
}

func rewardShowCommand() *cli.Command {
	var params rewardShowParams

	return &cli.Command{
		Name:    "show",
		Summary: "Show one reward",
		Usage:   "connectx rewards show <reward-id>",
		Params:  func() any { return &params },
		Output:  func() any { return &api.Reward{} },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("usage: connectx rewards show <reward-id>")
			}
			app, err := open(&params.Connection, true, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			reward, err := app.Client.Reward(ctx, args[0])
			if err != nil {
				return cli.Classify(err)
			}
			if done, err := params.EmitJSON(reward); done {
				return err
			}
			fmt.Fprintf(cli.Stdout, "%s\n", reward.Title)
			fmt.Fprintf(cli.Stdout, "  points: %s\n", humanize.Comma(int64(reward.PointsRequired)))
			if reward.Image != "" {
				fmt.Fprintf(cli.Stdout, "  image:  %s\n", reward.Image)
			}
			if !reward.CreatedAt.IsZero() {
				fmt.Fprintf(cli.Stdout, "  added:  %s\n", ago(reward.CreatedAt, app.Clock.Now()))
			}
			return nil
		},
	}
}

type rewardRedeemParams struct {
	cli.Connection
	Yes bool `json:"yes" flag:"yes,y" desc:"redeem without asking"`
}

func rewardRedeemCommand() *cli.Command {
	var params rewardRedeemParams

	return &cli.Command{
		Name:    "redeem",
		Summary: "Spend points on a reward",
		Usage:   "connectx rewards redeem <reward-id> [--yes]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("usage: connectx rewards redeem <reward-id>")
			}
			if !cli.Confirm(fmt.Sprintf("Redeem reward %s?", args[0]), params.Yes) {
				fmt.Fprintln(cli.Stdout, "Cancelled")
				return nil
			}
			app, err := open(&params.Connection, true, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			message, err := app.Client.RedeemReward(ctx, args[0])
			if err != nil {
				return cli.Classify(err)
			}
			fmt.Fprintln(cli.Stdout, orDefault(message, "Reward redeemed"))
			return nil
		},
	}
}
