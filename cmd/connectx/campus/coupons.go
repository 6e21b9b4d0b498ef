// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package campus

import (
	"context"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/connectx-campus/connectx/api"
	"github.com/connectx-campus/connectx/cmd/connectx/cli"
)

func couponsCommand() *cli.Command {
	return &cli.Command{
		Name:    "coupons",
		Summary: "Vendor coupons",
		Subcommands: []*cli.Command{
			couponListCommand(),
			redeemCommand(),
		},
	}
}

func couponListCommand() *cli.Command {
	var params listParams

	return &cli.Command{
		Name:    "list",
		Summary: "List coupons available to you",
		Params:  func() any { return &params },
		Output:  func() any { return &[]api.Coupon{} },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			app, err := open(&params.Connection, true, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			coupons, err := app.Client.Coupons(ctx)
			if err != nil {
				return cli.Classify(err)
			}
			if done, err := params.EmitJSON(coupons); done {
				return err
			}
			if len(coupons) == 0 {
				fmt.Fprintln(cli.Stdout, "No coupons right now.")
				return nil
			}
			writer := tabwriter.NewWriter(cli.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintf(writer, "ID\tVENDOR\tVALUE\tEXPIRES\tSTATE\n")
			for _, coupon := range coupons {
				expires := "-"
				if !coupon.Expiry.IsZero() {
					expires = coupon.Expiry.Format("2006-01-02")
				}
				state := "available"
				if coupon.UsedBy != "" || !coupon.UsedAt.IsZero() {
					state = "redeemed"
				}
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n", coupon.ID, coupon.Vendor, coupon.Value, expires, state)
			}
			return writer.Flush()
		},
	}
}

func redeemCommand() *cli.Command {
	var params postParams

	return &cli.Command{
		Name:    "redeem",
		Summary: "Redeem a coupon",
		Usage:   "connectx coupons redeem <coupon-id>",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("usage: connectx coupons redeem <coupon-id>")
			}
			app, err := open(&params.Connection, true, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			message, err := app.Client.RedeemCoupon(ctx, args[0])
			if err != nil {
				return cli.Classify(err)
			}
			fmt.Fprintln(cli.Stdout, orDefault(message, "Coupon redeemed"))
			return nil
		},
	}
}
