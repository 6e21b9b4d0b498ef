// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package campus

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/connectx-campus/connectx/api"
	"github.com/connectx-campus/connectx/cmd/connectx/cli"
)

func coinsCommand() *cli.Command {
	return &cli.Command{
		Name:    "coins",
		Summary: "Coin bundles, ledger and gifts",
		Subcommands: []*cli.Command{
			bundlesCommand(),
			historyCommand(),
			giftCommand(),
		},
	}
}

type listParams struct {
	cli.Connection
	cli.JSONOutput
}

func bundlesCommand() *cli.Command {
	var params listParams

	return &cli.Command{
		Name:    "bundles",
		Summary: "List purchasable coin bundles",
		Params:  func() any { return &params },
		Output:  func() any { return &[]api.CoinBundle{} },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			app, err := open(&params.Connection, false, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			bundles, fetchErr := app.Client.CoinBundles(ctx)
			if done, err := params.EmitJSON(bundles); done {
				return err
			}
			if fetchErr != nil {
				unavailable("Coin bundles", fetchErr)
				return nil
			}
			if len(bundles) == 0 {
				fmt.Fprintln(cli.Stdout, "No bundles on offer.")
				return nil
			}
			writer := tabwriter.NewWriter(cli.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintf(writer, "ID\tCOINS\tPRICE\n")
			for _, bundle := range bundles {
				fmt.Fprintf(writer, "%d\t%s\t₹%s\n", bundle.ID, humanize.Comma(int64(bundle.Coins)), humanize.Comma(int64(bundle.AmountINR)))
			}
			return writer.Flush()
		},
	}
}

func historyCommand() *cli.Command {
	var params listParams

	return &cli.Command{
		Name:    "history",
		Summary: "Show your coin ledger",
		Params:  func() any { return &params },
		Output:  func() any { return &[]api.CoinTransaction{} },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			app, err := open(&params.Connection, false, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			history, fetchErr := app.Client.CoinHistory(ctx)
			if done, err := params.EmitJSON(history); done {
				return err
			}
			if fetchErr != nil {
				unavailable("Coin history", fetchErr)
				return nil
			}
			if len(history) == 0 {
				fmt.Fprintln(cli.Stdout, "No coin activity yet.")
				return nil
			}
			now := app.Clock.Now()
			writer := tabwriter.NewWriter(cli.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintf(writer, "WHEN\tTYPE\tCOINS\tFROM\tTO\n")
			for _, entry := range history {
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n",
					ago(entry.CreatedAt, now), entry.Type, humanize.Comma(int64(entry.Coins)),
					party(entry.Sender, entry.FromUser), party(entry.Receiver, entry.ToUser))
			}
			return writer.Flush()
		},
	}
}

// unavailable reports a read that fell back to its empty default, so
// an unreachable server does not look like an empty ledger.
func unavailable(what string, err error) {
	fmt.Fprintf(cli.Stdout, "%s unavailable: %s\n", what, api.Message(err, "the server did not answer"))
}

// party names one side of a transaction, falling back to the raw id.
func party(person *api.Person, id string) string {
	switch {
	case person != nil && person.Name != "":
		return person.Name
	case id != "":
		return id
	}
	return "-"
}

type giftParams struct {
	cli.Connection
	Yes bool `json:"yes" flag:"yes,y" desc:"send without asking"`
}

func giftCommand() *cli.Command {
	var params giftParams

	return &cli.Command{
		Name:    "gift",
		Summary: "Gift coins to another user",
		Usage:   "connectx coins gift <user-id> <coins> [--yes]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 2 {
				return cli.Validation("usage: connectx coins gift <user-id> <coins>")
			}
			coins, err := strconv.Atoi(args[1])
			if err != nil || coins <= 0 {
				return cli.Validation("coins must be a positive whole number, got %q", args[1])
			}
			prompt := fmt.Sprintf("Send %s to %s?", plural(coins, "coin"), args[0])
			if !cli.Confirm(prompt, params.Yes) {
				fmt.Fprintln(cli.Stdout, "Cancelled")
				return nil
			}

			app, err := open(&params.Connection, false, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			message, err := app.Client.GiftCoins(ctx, args[0], coins)
			if err != nil {
				return cli.Classify(err)
			}
			fmt.Fprintln(cli.Stdout, orDefault(message, "Coins sent"))
			return nil
		},
	}
}
