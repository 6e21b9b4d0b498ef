// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/connectx-campus/connectx/api"
	"github.com/connectx-campus/connectx/cmd/connectx/cli"
)

type otpParams struct {
	cli.Connection
	Email string `json:"email" flag:"email" desc:"email address to confirm"`
	Phone string `json:"phone" flag:"phone" desc:"phone number to confirm"`
}

// otpTarget returns the channel and address, requiring exactly one.
func otpTarget(email, phone string) (api.OTPChannel, string, error) {
	switch {
	case email != "" && phone != "":
		return "", "", cli.Validation("pass either --email or --phone, not both")
	case email != "":
		return api.OTPEmail, email, nil
	case phone != "":
		return api.OTPPhone, phone, nil
	}
	return "", "", cli.Validation("--email or --phone is required")
}

func otpCommand() *cli.Command {
	return &cli.Command{
		Name:    "otp",
		Summary: "Confirm an email address or phone number",
		Description: `Request and enter one-time codes. Both the email address and the phone
number must be confirmed before identity verification counts.`,
		Subcommands: []*cli.Command{
			otpSendCommand(),
			otpVerifyCommand(),
		},
	}
}

func otpSendCommand() *cli.Command {
	var params otpParams

	return &cli.Command{
		Name:    "send",
		Summary: "Send a one-time code",
		Usage:   "connectx otp send --email EMAIL | --phone PHONE",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			channel, address, err := otpTarget(params.Email, params.Phone)
			if err != nil {
				return err
			}
			app, err := params.Open("", logger)
			if err != nil {
				return err
			}
			defer app.Close()

			message, err := app.Client.SendOTP(ctx, channel, address)
			if err != nil {
				return cli.Classify(err)
			}
			fmt.Fprintln(cli.Stdout, orDefault(message, "Code sent to "+address))
			return nil
		},
	}
}

type otpVerifyParams struct {
	cli.Connection
	Email string `json:"email" flag:"email" desc:"email address to confirm"`
	Phone string `json:"phone" flag:"phone" desc:"phone number to confirm"`
	Code  string `json:"code" flag:"code" desc:"the code that was delivered"`
}

func otpVerifyCommand() *cli.Command {
	var params otpVerifyParams

	return &cli.Command{
		Name:    "verify",
		Summary: "Enter a delivered code",
		Usage:   "connectx otp verify --email EMAIL | --phone PHONE --code CODE",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			channel, address, err := otpTarget(params.Email, params.Phone)
			if err != nil {
				return err
			}
			if params.Code == "" {
				return cli.Validation("--code is required")
			}
			app, err := params.Open("", logger)
			if err != nil {
				return err
			}
			defer app.Close()

			message, err := app.Client.VerifyOTP(ctx, channel, address, params.Code)
			if err != nil {
				return cli.Classify(err)
			}
			// The confirmed flags live on the user record.
			if me, err := app.Client.Me(ctx); err == nil {
				app.Resolver.Refresh(*me)
			} else {
				logger.Warn("refreshing user after confirmation", "error", err)
			}
			fmt.Fprintln(cli.Stdout, orDefault(message, "Confirmed "+address))
			return nil
		},
	}
}

func orDefault(message, fallback string) string {
	if message == "" {
		return fallback
	}
	return message
}
