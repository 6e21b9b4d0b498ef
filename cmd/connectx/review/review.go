// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

// Package review implements "connectx review", the admin review queue.
// The scope follows the signed-in role: college admins see their own
// college, super admins see everything.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/connectx-campus/connectx/api"
	"github.com/connectx-campus/connectx/cmd/connectx/cli"
	"github.com/connectx-campus/connectx/lib/reviewui"
	"github.com/connectx-campus/connectx/lib/tui"
	"github.com/connectx-campus/connectx/review"
)

// Command returns the "review" command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "review",
		Summary: "Review pending student verifications",
		Description: `Work the verification queue as a college admin or super admin.

Rejecting, bypassing and deleting ask for confirmation; --yes answers
it. Bypassing marks the student verified without a review.`,
		Subcommands: []*cli.Command{
			listCommand(),
			approveCommand(),
			rejectCommand(),
			bypassCommand(),
			usersCommand(),
			deleteUserCommand(),
			watchCommand(),
		},
	}
}

type actionParams struct {
	cli.Connection
	Yes bool `json:"yes" flag:"yes,y" desc:"confirm without asking"`
}

// openPanel builds the panel for the signed-in admin.
func openPanel(connection *cli.Connection, confirm review.Confirmer, logger *slog.Logger) (*cli.App, *review.Panel, error) {
	app, err := connection.Open("", logger)
	if err != nil {
		return nil, nil, err
	}
	panel, err := app.Panel(confirm)
	if err != nil {
		app.Close()
		return nil, nil, err
	}
	return app, panel, nil
}

func confirmer(assumeYes bool) review.Confirmer {
	return review.ConfirmFunc(func(prompt string) bool { return cli.Confirm(prompt, assumeYes) })
}

// finish prints the toast of a completed action. A declined prompt is
// not an error.
func finish(toast string, err error) error {
	var failure *review.Failure
	switch {
	case errors.Is(err, review.ErrDeclined):
		fmt.Fprintln(cli.Stdout, "Cancelled")
		return nil
	case errors.As(err, &failure):
		classified := cli.Classify(failure.Err)
		return &cli.ToolError{Category: classified.Category, Err: errors.New(failure.Toast), Hint: classified.Hint}
	case err != nil:
		return cli.Classify(err)
	}
	fmt.Fprintln(cli.Stdout, toast)
	return nil
}

// --- list ---

type listParams struct {
	cli.Connection
	cli.JSONOutput
}

func listCommand() *cli.Command {
	var params listParams

	return &cli.Command{
		Name:    "list",
		Summary: "List pending verifications",
		Params:  func() any { return &params },
		Output:  func() any { return &[]api.PendingVerification{} },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			app, panel, err := openPanel(&params.Connection, nil, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			pending, err := panel.Refresh(ctx)
			if err != nil {
				return cli.Classify(err)
			}
			if done, err := params.EmitJSON(pending); done {
				return err
			}
			if len(pending) == 0 {
				logger.Info("no pending verifications", "scope", panel.Scope())
				return nil
			}

			now := app.Clock.Now()
			writer := tabwriter.NewWriter(cli.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintf(writer, "ID\tSTUDENT\tEMAIL\tCOLLEGE\tFACE\tMATCH\tSUBMITTED\n")
			for _, entry := range pending {
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					entry.ID,
					entry.User.Name,
					entry.User.Email,
					orDash(entry.User.CollegeName()),
					tui.Score(entry.FaceMatchScore),
					tui.Score(entry.MatchScore),
					submitted(entry.CreatedAt, now),
				)
			}
			return writer.Flush()
		},
	}
}

func submitted(at api.Timestamp, now time.Time) string {
	if at.IsZero() {
		return "-"
	}
	return humanize.RelTime(at.Time, now, "ago", "from now")
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

// --- approve / reject / bypass ---

func approveCommand() *cli.Command {
	var params actionParams

	return &cli.Command{
		Name:    "approve",
		Summary: "Approve a verification",
		Usage:   "connectx review approve <verification-id>",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("usage: connectx review approve <verification-id>")
			}
			app, panel, err := openPanel(&params.Connection, confirmer(params.Yes), logger)
			if err != nil {
				return err
			}
			defer app.Close()
			return finish(panel.Approve(ctx, args[0]))
		},
	}
}

func rejectCommand() *cli.Command {
	var params actionParams

	return &cli.Command{
		Name:    "reject",
		Summary: "Reject a verification",
		Usage:   "connectx review reject <verification-id> [--yes]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("usage: connectx review reject <verification-id>")
			}
			app, panel, err := openPanel(&params.Connection, confirmer(params.Yes), logger)
			if err != nil {
				return err
			}
			defer app.Close()
			return finish(panel.Reject(ctx, args[0]))
		},
	}
}

func bypassCommand() *cli.Command {
	var params actionParams

	return &cli.Command{
		Name:    "bypass",
		Summary: "Mark a student verified without review",
		Usage:   "connectx review bypass <user-id> [--yes]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("usage: connectx review bypass <user-id>")
			}
			app, panel, err := openPanel(&params.Connection, confirmer(params.Yes), logger)
			if err != nil {
				return err
			}
			defer app.Close()
			return finish(panel.Bypass(ctx, args[0]))
		},
	}
}

// --- users / delete-user ---

type usersParams struct {
	cli.Connection
	cli.JSONOutput
}

func usersCommand() *cli.Command {
	var params usersParams

	return &cli.Command{
		Name:    "users",
		Summary: "List students (college) or all users (super admin)",
		Params:  func() any { return &params },
		Output:  func() any { return &[]api.User{} },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			app, panel, err := openPanel(&params.Connection, nil, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			users, err := panel.Users(ctx)
			if err != nil {
				return cli.Classify(err)
			}
			if done, err := params.EmitJSON(users); done {
				return err
			}
			if len(users) == 0 {
				logger.Info("no users", "scope", panel.Scope())
				return nil
			}
			writer := tabwriter.NewWriter(cli.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintf(writer, "ID\tNAME\tEMAIL\tROLE\tBATCH\tVERIFICATION\n")
			for _, user := range users {
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\n",
					user.ID, user.Name, user.Email, user.Role, orDash(user.Batch), verificationText(user))
			}
			return writer.Flush()
		},
	}
}

func verificationText(user api.User) string {
	if user.BypassVerified {
		return "bypassed"
	}
	if user.VerifiedStatus == "" {
		return string(api.StatusPending)
	}
	return string(user.VerifiedStatus)
}

func deleteUserCommand() *cli.Command {
	var params actionParams

	return &cli.Command{
		Name:    "delete-user",
		Summary: "Delete an account (super admin)",
		Usage:   "connectx review delete-user <user-id> [--yes]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("usage: connectx review delete-user <user-id>")
			}
			app, panel, err := openPanel(&params.Connection, confirmer(params.Yes), logger)
			if err != nil {
				return err
			}
			defer app.Close()
			// Load the list so the prompt can name the user.
			if _, err := panel.Users(ctx); err != nil {
				logger.Debug("user list unavailable for prompt", "error", err)
			}
			return finish(panel.DeleteUser(ctx, args[0]))
		},
	}
}

// --- watch ---

type watchParams struct {
	cli.Connection
	Interval time.Duration `json:"interval" flag:"interval" desc:"refresh period (default review.poll_interval)"`
	Plain    bool          `json:"plain"    flag:"plain"    desc:"print arrivals as lines even on a terminal"`
}

func watchCommand() *cli.Command {
	var params watchParams

	return &cli.Command{
		Name:    "watch",
		Summary: "Keep the queue on screen and act on it",
		Description: `Refresh the pending queue periodically. On a terminal this is an
interactive list: new arrivals are highlighted, a approves, x rejects
and b bypasses. Elsewhere each new entry is printed as it arrives.`,
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if cli.IsTerminal() && !params.Plain {
				return runQueue(ctx, &params, logger)
			}
			app, panel, err := openPanel(&params.Connection, nil, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			seen := make(map[string]bool)
			err = panel.Watch(ctx, interval(params.Interval, app), func(pending []api.PendingVerification) {
				for _, entry := range pending {
					if seen[entry.ID] {
						continue
					}
					seen[entry.ID] = true
					fmt.Fprintf(cli.Stdout, "%s  %s <%s> face %s\n",
						entry.ID, entry.User.Name, entry.User.Email, tui.Score(entry.FaceMatchScore))
				}
			})
			if err != nil && ctx.Err() == nil {
				return cli.Classify(err)
			}
			return nil
		},
	}
}

func interval(flag time.Duration, app *cli.App) time.Duration {
	if flag > 0 {
		return flag
	}
	return app.Config.Review.PollInterval.Std()
}

func runQueue(ctx context.Context, params *watchParams, logger *slog.Logger) error {
	prompter := reviewui.NewPrompter()
	app, panel, err := openPanel(&params.Connection, prompter, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	model := reviewui.New(reviewui.Config{
		Context:  ctx,
		Panel:    panel,
		Interval: interval(params.Interval, app),
		Now:      app.Clock.Now,
	})
	program := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())
	prompter.Attach(program)
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return cli.Internal("review screen: %w", err)
	}
	return nil
}
