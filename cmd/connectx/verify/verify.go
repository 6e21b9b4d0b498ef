// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

// Package verify implements "connectx verify": the student's identity
// verification from the command line.
package verify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/connectx-campus/connectx/api"
	"github.com/connectx-campus/connectx/cmd/connectx/cli"
	"github.com/connectx-campus/connectx/lib/tui"
	"github.com/connectx-campus/connectx/router"
	"github.com/connectx-campus/connectx/verification"
)

// Command returns the "verify" command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "verify",
		Summary: "Verify your student identity",
		Description: `Upload your college ID card and a face photo, then follow the review.

Upload the ID card first, then the face photo. The server analyses the
face photo at once; most attempts are decided automatically, the rest
wait for an admin. After a rejection a new attempt is possible once the
cooldown has passed; pass --retry to the next upload to start it.`,
		Subcommands: []*cli.Command{
			statusCommand(),
			uploadIDCommand(),
			uploadFaceCommand(),
			submitCommand(),
			retryCommand(),
			watchCommand(),
		},
	}
}

// session is an open app with a loaded flow.
type session struct {
	app  *cli.App
	flow *verification.Flow
}

func (s *session) Close() {
	s.flow.Close()
	s.app.Close()
}

// open signs in from the stored session, checks the role and loads the
// status.
func open(ctx context.Context, connection *cli.Connection, logger *slog.Logger) (*session, error) {
	app, err := connection.Open(router.Verify, logger)
	if err != nil {
		return nil, err
	}
	user, err := app.RequireUser()
	if err != nil {
		app.Close()
		return nil, err
	}
	if user.Role != api.RoleStudent {
		app.Close()
		return nil, cli.Forbidden("verification is for students; you are signed in as %s", user.Role)
	}
	flow := app.Flow(nil)
	if _, err := flow.Refresh(ctx); err != nil {
		flow.Close()
		app.Close()
		return nil, cli.Classify(err)
	}
	return &session{app: app, flow: flow}, nil
}

// startRetry begins a new attempt when asked to. Without --retry a
// rejected attempt is reported with the way forward.
func (s *session) startRetry(requested bool) error {
	screen := s.flow.Screen()
	if screen.Kind != verification.ScreenRejected {
		return nil
	}
	if !requested {
		return cli.Conflict("the last attempt was rejected").
			WithHint("Pass --retry to start a new attempt" + cooldownSuffix(screen) + ".")
	}
	if _, err := s.flow.RequestRetry(); err != nil {
		return cli.Classify(err)
	}
	return nil
}

func cooldownSuffix(screen verification.Screen) string {
	if screen.RetryEnabled || screen.CooldownText == "" {
		return ""
	}
	return " in " + screen.CooldownText
}

// awaitRefetch waits for the status fetch that follows a face upload.
func (s *session) awaitRefetch(ctx context.Context, fetched <-chan struct{}) {
	limit := s.app.Config.Verification.RefetchDelay.Std() + s.app.Config.API.Timeout.Std()
	select {
	case <-fetched:
	case <-ctx.Done():
	case <-s.app.Clock.After(limit):
		s.app.Logger.Warn("status refetch did not finish", "waited", limit)
	}
}

// signalFetches returns a channel that receives after each status
// fetch settles.
func (s *session) signalFetches() <-chan struct{} {
	fetched := make(chan struct{}, 1)
	s.app.Cache.Subscribe(verification.StatusKey, func(any) {
		select {
		case fetched <- struct{}{}:
		default:
		}
	})
	return fetched
}

type screenOutput struct {
	verification.Screen
	Toast string `json:"toast,omitempty"`
}

func printScreen(output *cli.JSONOutput, screen verification.Screen, toast string) error {
	if done, err := output.EmitJSON(screenOutput{Screen: screen, Toast: toast}); done {
		return err
	}
	if toast != "" {
		fmt.Fprintln(cli.Stdout, toast)
	}
	fmt.Fprintln(cli.Stdout, screen.Title)
	if screen.Body != "" {
		fmt.Fprintln(cli.Stdout, screen.Body)
	}
	if len(screen.Stages) > 0 {
		fmt.Fprintf(cli.Stdout, "Progress: %s\n", stages(screen.Stages))
	}
	printAnalysis(screen)
	if next := nextAction(screen); next != "" {
		fmt.Fprintf(cli.Stdout, "Next:     %s\n", next)
	}
	return nil
}

func stages(list []verification.Stage) string {
	parts := make([]string, len(list))
	for index, stage := range list {
		marker := "[ ]"
		switch {
		case stage.Done:
			marker = "[x]"
		case stage.Current:
			marker = "[>]"
		}
		parts[index] = marker + " " + stage.Label
	}
	return strings.Join(parts, "  ")
}

func printAnalysis(screen verification.Screen) {
	analysis := screen.Analysis
	if analysis.FaceMatchScore != nil {
		fmt.Fprintf(cli.Stdout, "Face match:    %s\n", tui.Score(analysis.FaceMatchScore))
	}
	if analysis.MatchScore != nil {
		fmt.Fprintf(cli.Stdout, "Overall match: %s\n", tui.Score(analysis.MatchScore))
	}
	if analysis.CollegeMatch != nil {
		fmt.Fprintf(cli.Stdout, "College match: %t\n", *analysis.CollegeMatch)
	}
	if analysis.Remarks != "" {
		fmt.Fprintf(cli.Stdout, "Remarks:       %s\n", analysis.Remarks)
	}
	if screen.AutoApproved {
		fmt.Fprintln(cli.Stdout, "Approved automatically")
	}
}

func nextAction(screen verification.Screen) string {
	switch {
	case screen.Step == verification.NeedsID:
		return "connectx verify upload-id <file>"
	case screen.Step == verification.NeedsFace:
		return "connectx verify upload-face <file>"
	case screen.Kind == verification.ScreenPending:
		return "connectx verify watch"
	case screen.Kind == verification.ScreenRejected && screen.RetryEnabled:
		return "connectx verify upload-id --retry <file>"
	}
	return ""
}

// --- status ---

type statusParams struct {
	cli.Connection
	cli.JSONOutput
}

func statusCommand() *cli.Command {
	var params statusParams

	return &cli.Command{
		Name:    "status",
		Summary: "Show the verification status",
		Description: `Fetch the status once and show the current screen. Exits 1 when the
last attempt was rejected.`,
		Params: func() any { return &params },
		Output: func() any { return &screenOutput{} },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			s, err := open(ctx, &params.Connection, logger)
			if err != nil {
				return err
			}
			defer s.Close()

			screen := s.flow.Screen()
			if err := printScreen(&params.JSONOutput, screen, ""); err != nil {
				return err
			}
			if screen.Kind == verification.ScreenRejected {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}

// --- upload-id ---

type uploadParams struct {
	cli.Connection
	cli.JSONOutput
	Retry bool `json:"retry" flag:"retry" desc:"start a new attempt after a rejection"`
}

func uploadIDCommand() *cli.Command {
	var params uploadParams

	return &cli.Command{
		Name:    "upload-id",
		Summary: "Upload your college ID card",
		Description: `Upload a photo of your college ID card. The file must be an image;
its type is detected from the content, not the name. A card that was
already uploaded can be replaced until the face photo is in.`,
		Usage: "connectx verify upload-id <file> [flags]",
		Examples: []cli.Example{
			{Command: "connectx verify upload-id ~/Pictures/id-card.jpg"},
			{
				Description: "Start over after a rejection",
				Command:     "connectx verify upload-id --retry ~/Pictures/id-card.jpg",
			},
		},
		Params: func() any { return &params },
		Output: func() any { return &screenOutput{} },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("usage: connectx verify upload-id <file>")
			}
			image, err := verification.ReadImage(args[0])
			if err != nil {
				return cli.Classify(err)
			}
			s, err := open(ctx, &params.Connection, logger)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.startRetry(params.Retry); err != nil {
				return err
			}
			message, err := s.flow.SubmitIDCard(ctx, image)
			if err != nil {
				return cli.Classify(err)
			}
			return printScreen(&params.JSONOutput, s.flow.Screen(), orDefault(message, "ID card uploaded"))
		},
	}
}

// --- upload-face ---

type uploadFaceParams struct {
	cli.Connection
	cli.JSONOutput
}

func uploadFaceCommand() *cli.Command {
	var params uploadFaceParams

	return &cli.Command{
		Name:    "upload-face",
		Summary: "Upload a face photo for matching",
		Description: `Upload a clear photo of your face. The server compares it with the ID
card and answers with its analysis; the status is fetched again after
verification.refetch_delay and shown.`,
		Usage:  "connectx verify upload-face <file> [flags]",
		Params: func() any { return &params },
		Output: func() any { return &screenOutput{} },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("usage: connectx verify upload-face <file>")
			}
			image, err := verification.ReadImage(args[0])
			if err != nil {
				return cli.Classify(err)
			}
			s, err := open(ctx, &params.Connection, logger)
			if err != nil {
				return err
			}
			defer s.Close()

			fetched := s.signalFetches()
			result, err := s.flow.SubmitFaceImage(ctx, image)
			if err != nil {
				return cli.Classify(err)
			}
			s.awaitRefetch(ctx, fetched)
			return printScreen(&params.JSONOutput, s.flow.Screen(), orDefault(result.Message, uploadToast(result)))
		},
	}
}

func uploadToast(result *api.FaceUploadResult) string {
	switch {
	case result.AutoApproved():
		return "Face verified and approved automatically"
	case result.Status == api.StatusRejected:
		return "Face verification failed"
	}
	return "Face image uploaded"
}

// --- submit ---

func submitCommand() *cli.Command {
	var params uploadParams

	return &cli.Command{
		Name:    "submit",
		Summary: "Upload both images in one request",
		Description: `Upload the ID card and the face photo together. Use this with servers
that take a single verification submission.`,
		Usage:  "connectx verify submit <id-card-file> <face-file> [flags]",
		Params: func() any { return &params },
		Output: func() any { return &screenOutput{} },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 2 {
				return cli.Validation("usage: connectx verify submit <id-card-file> <face-file>")
			}
			idCard, err := verification.ReadImage(args[0])
			if err != nil {
				return cli.Classify(err)
			}
			face, err := verification.ReadImage(args[1])
			if err != nil {
				return cli.Classify(err)
			}
			s, err := open(ctx, &params.Connection, logger)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.startRetry(params.Retry); err != nil {
				return err
			}
			fetched := s.signalFetches()
			message, err := s.flow.SubmitBoth(ctx, idCard, face)
			if err != nil {
				return cli.Classify(err)
			}
			s.awaitRefetch(ctx, fetched)
			return printScreen(&params.JSONOutput, s.flow.Screen(), orDefault(message, "Verification submitted"))
		},
	}
}

// --- retry ---

type retryParams struct {
	cli.Connection
	cli.JSONOutput
}

func retryCommand() *cli.Command {
	var params retryParams

	return &cli.Command{
		Name:    "retry",
		Summary: "Check whether a new attempt may start",
		Description: `After a rejection, report whether the cooldown has passed. When it has,
the form is shown; upload with --retry to begin the new attempt.`,
		Params: func() any { return &params },
		Output: func() any { return &screenOutput{} },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			s, err := open(ctx, &params.Connection, logger)
			if err != nil {
				return err
			}
			defer s.Close()

			screen, err := s.flow.RequestRetry()
			if err != nil {
				return cli.Classify(err)
			}
			if err := printScreen(&params.JSONOutput, screen, "You can try again"); err != nil {
				return err
			}
			if !params.OutputJSON {
				fmt.Fprintln(cli.Stdout, "Start with: connectx verify upload-id --retry <file>")
			}
			return nil
		},
	}
}

// --- watch ---

type watchParams struct {
	cli.Connection
	Interval time.Duration `json:"interval" flag:"interval" desc:"poll period (default verification.poll_interval)"`
	Plain    bool          `json:"plain"    flag:"plain"    desc:"print changes as lines even on a terminal"`
}

func watchCommand() *cli.Command {
	var params watchParams

	return &cli.Command{
		Name:    "watch",
		Summary: "Follow the verification until it is decided",
		Description: `Poll the status and show each change. On a terminal this is an
interactive screen that can also upload images and start a retry.
Elsewhere each change is printed and the command returns once the
verification is approved, or rejected with a retry available.`,
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			s, err := open(ctx, &params.Connection, logger)
			if err != nil {
				return err
			}
			defer s.Close()

			interval := params.Interval
			if interval <= 0 {
				interval = s.app.Config.Verification.PollInterval.Std()
			}
			if cli.IsTerminal() && !params.Plain {
				return runScreen(ctx, s.flow, interval)
			}

			poller := verification.Poller{Flow: s.flow, Interval: interval, Clock: s.app.Clock, Logger: logger}
			_, err = poller.Run(ctx, func(screen verification.Screen) {
				fmt.Fprintf(cli.Stdout, "%s  %s: %s\n", s.app.Clock.Now().Format(time.TimeOnly), screen.Title, screen.Body)
			})
			if err != nil && ctx.Err() == nil {
				return cli.Classify(err)
			}
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
