// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

// Package account implements the session commands: login, signup,
// logout, whoami and otp, plus the public college list signup needs.
package account

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/connectx-campus/connectx/api"
	"github.com/connectx-campus/connectx/auth"
	"github.com/connectx-campus/connectx/cmd/connectx/cli"
	"github.com/connectx-campus/connectx/guard"
	"github.com/connectx-campus/connectx/router"
)

// Commands returns the account commands, mounted at the root.
func Commands() []*cli.Command {
	return []*cli.Command{
		loginCommand(),
		signupCommand(),
		collegesCommand(),
		logoutCommand(),
		whoamiCommand(),
		otpCommand(),
	}
}

// --- login ---

type loginParams struct {
	cli.Connection
	cli.JSONOutput
	PasswordFile string `json:"-" flag:"password-file" desc:"read the password from a file (- for stdin)"`
}

type sessionOutput struct {
	User    api.User `json:"user"`
	Landing string   `json:"landing"`
}

func loginCommand() *cli.Command {
	var params loginParams

	return &cli.Command{
		Name:    "login",
		Summary: "Sign in and save the session",
		Description: `Sign in with an email and password. The session is saved to
session.path (sealed with age when session.identity_file is set) and
used by every other command until "connectx logout".`,
		Usage: "connectx login <email> [flags]",
		Examples: []cli.Example{
			{
				Description: "Sign in interactively",
				Command:     "connectx login asha@campus.edu",
			},
			{
				Description: "Sign in from a script",
				Command:     "printf '%s\\n' \"$PASSWORD\" | connectx login asha@campus.edu --password-file -",
			},
		},
		Params: func() any { return &params },
		Output: func() any { return &sessionOutput{} },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("usage: connectx login <email>")
			}
			password, err := cli.ReadPassword(params.PasswordFile, "Password: ")
			if err != nil {
				return err
			}
			defer password.Close()

			app, err := params.Open(router.Login, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			user, err := app.Resolver.Login(ctx, args[0], password)
			if err != nil {
				return cli.Classify(err)
			}
			app.DropSnapshot()
			return printSession(&params.JSONOutput, user, "Signed in")
		},
	}
}

func printSession(output *cli.JSONOutput, user *api.User, verb string) error {
	result := sessionOutput{User: *user, Landing: guard.Landing(user)}
	if done, err := output.EmitJSON(result); done {
		return err
	}
	fmt.Fprintf(cli.Stdout, "%s as %s <%s>\n", verb, user.Name, user.Email)
	fmt.Fprintf(cli.Stdout, "Role:    %s\n", user.Role)
	fmt.Fprintf(cli.Stdout, "Landing: %s\n", result.Landing)
	return nil
}

// --- signup ---

type signupParams struct {
	cli.Connection
	cli.JSONOutput
	Name         string `json:"name"      flag:"name"          desc:"full name"`
	Username     string `json:"username"  flag:"username"      desc:"username (letters and digits)"`
	Email        string `json:"email"     flag:"email"         desc:"email address"`
	Phone        string `json:"phone"     flag:"phone"         desc:"phone number in E.164 form, e.g. +919876543210"`
	College      string `json:"collegeId" flag:"college"       desc:"college ID or slug (see connectx colleges)"`
	Batch        string `json:"batch"     flag:"batch"         desc:"graduation year, e.g. 2027"`
	PasswordFile string `json:"-"         flag:"password-file" desc:"read the password from a file (- for stdin)"`
}

func signupCommand() *cli.Command {
	var params signupParams

	return &cli.Command{
		Name:    "signup",
		Summary: "Create a student account",
		Description: `Create a student account and sign in. The form is checked locally
before anything is sent; every problem is reported at once.`,
		Usage: "connectx signup --name NAME --username USER --email EMAIL --phone PHONE --college ID --batch YEAR",
		Examples: []cli.Example{
			{
				Command: "connectx signup --name 'Asha Rao' --username asha --email asha@campus.edu --phone +919876543210 --college clg-1 --batch 2027",
			},
		},
		Params: func() any { return &params },
		Output: func() any { return &sessionOutput{} },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			password, err := cli.ReadPassword(params.PasswordFile, "Choose a password: ")
			if err != nil {
				return err
			}
			defer password.Close()

			app, err := params.Open(router.Signup, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			request := api.SignupRequest{
				Name:      params.Name,
				Username:  params.Username,
				Email:     params.Email,
				Phone:     params.Phone,
				CollegeID: params.College,
				Batch:     params.Batch,
				Role:      api.RoleStudent,
			}
			if err := auth.ValidateSignup(request, password); err != nil {
				return cli.Classify(err)
			}
			request.CollegeID = resolveCollege(ctx, app.Client, params.College, logger)
			user, err := app.Resolver.Signup(ctx, request, password)
			if err != nil {
				return cli.Classify(err)
			}
			app.DropSnapshot()
			return printSession(&params.JSONOutput, user, "Account created, signed in")
		},
	}
}

// resolveCollege maps a college slug to its ID. An ID, an unknown value
// or an unavailable list passes through unchanged; the server has the
// last word.
func resolveCollege(ctx context.Context, client *api.Client, value string, logger *slog.Logger) string {
	if value == "" {
		return value
	}
	colleges, err := client.Colleges(ctx)
	if err != nil {
		logger.Debug("college list unavailable, sending --college as given", "error", err)
		return value
	}
	for _, college := range colleges {
		if college.ID == value {
			return value
		}
	}
	for _, college := range colleges {
		if strings.EqualFold(college.Slug, value) {
			logger.Debug("college slug resolved", "slug", value, "college_id", college.ID)
			return college.ID
		}
	}
	return value
}

// --- colleges ---

type collegesParams struct {
	cli.Connection
	cli.JSONOutput
}

func collegesCommand() *cli.Command {
	var params collegesParams

	return &cli.Command{
		Name:    "colleges",
		Summary: "List the colleges open for signup",
		Description: `List the colleges a student can sign up under. No session is
needed. Pass the ID or the slug to "connectx signup --college".`,
		Params: func() any { return &params },
		Output: func() any { return &[]api.College{} },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			app, err := params.Open(router.Signup, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			colleges, err := app.Client.Colleges(ctx)
			if err != nil {
				return cli.Classify(err)
			}
			if done, err := params.EmitJSON(colleges); done {
				return err
			}
			if len(colleges) == 0 {
				fmt.Fprintln(cli.Stdout, "No colleges open for signup.")
				return nil
			}
			writer := tabwriter.NewWriter(cli.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintf(writer, "ID\tSLUG\tNAME\n")
			for _, college := range colleges {
				fmt.Fprintf(writer, "%s\t%s\t%s\n", college.ID, college.Slug, college.Name)
			}
			return writer.Flush()
		},
	}
}

// --- logout ---

type logoutParams struct {
	cli.Connection
}

func logoutCommand() *cli.Command {
	var params logoutParams

	return &cli.Command{
		Name:    "logout",
		Summary: "Forget the saved session",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			app, err := params.Open("", logger)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Resolver.Logout(); err != nil {
				return cli.Internal("clearing session: %w", err)
			}
			app.DropSnapshot()
			fmt.Fprintln(cli.Stdout, "Signed out")
			return nil
		},
	}
}

// --- whoami ---

type whoamiParams struct {
	cli.Connection
	cli.JSONOutput
	Verify bool `json:"verify" flag:"verify" desc:"check the session with the server"`
}

type whoamiOutput struct {
	User        api.User  `json:"user"`
	Landing     string    `json:"landing"`
	Verified    bool      `json:"verified"`
	TokenExpiry time.Time `json:"tokenExpiry,omitzero"`
	Status      string    `json:"status,omitempty"`
}

func whoamiCommand() *cli.Command {
	var params whoamiParams

	return &cli.Command{
		Name:    "whoami",
		Summary: "Show the signed-in account",
		Description: `Show the account saved in the session. With --verify the token is
checked against the server first; a rejected token clears the session.
A warning is logged when the check runs past guard.stall_timeout.`,
		Params: func() any { return &params },
		Output: func() any { return &whoamiOutput{} },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			app, err := params.Open("", logger)
			if err != nil {
				return err
			}
			defer app.Close()

			status := ""
			if params.Verify {
				if state := app.Resolver.Resolve(ctx); !state.Authenticated {
					return cli.Forbidden("session expired or revoked").WithHint("Run 'connectx login <email>' to sign in again.")
				}
				status = "valid"
			}

			user, err := app.RequireUser()
			if err != nil {
				return err
			}
			output := whoamiOutput{
				User:     *user,
				Landing:  guard.Landing(user),
				Verified: guard.Verified(user),
				Status:   status,
			}
			if expiry, ok := app.Store.TokenExpiry(); ok {
				output.TokenExpiry = expiry
			}
			if done, err := params.EmitJSON(output); done {
				return err
			}

			fmt.Fprintf(cli.Stdout, "Name:      %s (@%s)\n", user.Name, user.Username)
			fmt.Fprintf(cli.Stdout, "Email:     %s\n", user.Email)
			fmt.Fprintf(cli.Stdout, "Role:      %s\n", user.Role)
			fmt.Fprintf(cli.Stdout, "Landing:   %s\n", output.Landing)
			fmt.Fprintf(cli.Stdout, "Verified:  %s\n", verifiedText(user))
			if !output.TokenExpiry.IsZero() {
				fmt.Fprintf(cli.Stdout, "Token:     expires %s\n", humanize.Time(output.TokenExpiry))
			}
			if status != "" {
				fmt.Fprintf(cli.Stdout, "Status:    %s\n", status)
			}
			return nil
		},
	}
}

func verifiedText(user *api.User) string {
	switch {
	case guard.Verified(user) && user.BypassVerified:
		return "yes (bypassed by an admin)"
	case guard.Verified(user):
		return "yes"
	case !user.EmailVerified || !user.PhoneVerified:
		return fmt.Sprintf("no (email confirmed: %t, phone confirmed: %t)", user.EmailVerified, user.PhoneVerified)
	case user.VerifiedStatus == "":
		return "no (" + string(api.StatusPending) + ")"
	default:
		return "no (" + string(user.VerifiedStatus) + ")"
	}
}
