// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

// Package route implements "connectx route": the route table and the
// guard's decision for the signed-in user.
package route

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/connectx-campus/connectx/api"
	"github.com/connectx-campus/connectx/cmd/connectx/cli"
	"github.com/connectx-campus/connectx/guard"
)

// Command returns the "route" command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "route",
		Summary: "Inspect the route table and guard decisions",
		Subcommands: []*cli.Command{
			checkCommand(),
			listCommand(),
		},
	}
}

type checkParams struct {
	cli.Connection
	cli.JSONOutput
}

type decisionOutput struct {
	Path     string     `json:"path"`
	Kind     guard.Kind `json:"kind"`
	Location string     `json:"location,omitempty"`
	Reason   string     `json:"reason,omitempty"`
}

func checkCommand() *cli.Command {
	var params checkParams

	return &cli.Command{
		Name:    "check",
		Summary: "Show what the guard does with a path",
		Description: `Confirm the stored session with the server and evaluate the guard
for <path> as the signed-in user. For a student the verification
status is fetched first, so a gated route answers with a redirect
rather than loading.`,
		Usage: "connectx route check <path>",
		Examples: []cli.Example{
			{
				Description: "Where does an unverified student land on /home",
				Command:     "connectx route check /home",
			},
		},
		Params: func() any { return &params },
		Output: func() any { return &decisionOutput{} },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("usage: connectx route check <path>")
			}
			path := args[0]
			if !strings.HasPrefix(path, "/") {
				path = "/" + path
			}

			app, err := params.Open(path, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			state := app.Resolver.Resolve(ctx)
			input := guard.Input{Auth: state}
			if state.Authenticated && state.User.Role == api.RoleStudent {
				if _, err := app.Flow(nil).Refresh(ctx); err != nil {
					logger.Warn("verification status unavailable", "error", err)
				} else {
					input = guard.Input{Auth: app.Resolver.State(), VerificationResolved: true}
				}
			}

			decision := guard.Check(path, input)
			logger.Debug("guard decision", "path", path, "kind", decision.Kind, "reason", decision.Reason)
			output := decisionOutput{Path: path, Kind: decision.Kind, Location: decision.Location, Reason: decision.Reason}
			if done, err := params.EmitJSON(output); done {
				return err
			}
			switch decision.Kind {
			case guard.KindRedirect:
				fmt.Fprintf(cli.Stdout, "%s -> %s (%s)\n", path, decision.Location, decision.Reason)
			case guard.KindLoadingStalled:
				fmt.Fprintf(cli.Stdout, "%s: %s (%s)\n", path, decision.Reason, guard.ReloadHint)
			case guard.KindRender:
				fmt.Fprintf(cli.Stdout, "%s: render\n", path)
			default:
				fmt.Fprintf(cli.Stdout, "%s: %s (%s)\n", path, decision.Kind, decision.Reason)
			}
			return nil
		},
	}
}

type listParams struct {
	cli.JSONOutput
}

type routeOutput struct {
	Path                string     `json:"path"`
	Public              bool       `json:"public"`
	Roles               []api.Role `json:"roles"`
	RequireVerification bool       `json:"requireVerification"`
}

func listCommand() *cli.Command {
	var params listParams

	return &cli.Command{
		Name:    "list",
		Summary: "Print the route table",
		Params:  func() any { return &params },
		Output:  func() any { return &[]routeOutput{} },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			var output []routeOutput
			for _, route := range guard.Routes() {
				output = append(output, routeOutput{
					Path:                route.Path,
					Public:              route.Public,
					Roles:               route.Roles,
					RequireVerification: route.RequireVerification,
				})
			}
			if done, err := params.EmitJSON(output); done {
				return err
			}

			writer := tabwriter.NewWriter(cli.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintf(writer, "PATH\tACCESS\tVERIFIED\n")
			for _, route := range output {
				access := "signed in"
				switch {
				case route.Public:
					access = "public"
				case len(route.Roles) > 0:
					names := make([]string, len(route.Roles))
					for i, role := range route.Roles {
						names[i] = string(role)
					}
					access = strings.Join(names, ",")
				}
				verified := ""
				if route.RequireVerification {
					verified = "students"
				}
				fmt.Fprintf(writer, "%s\t%s\t%s\n", route.Path, access, verified)
			}
			return writer.Flush()
		},
	}
}
