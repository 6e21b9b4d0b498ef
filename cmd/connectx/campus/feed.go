// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package campus

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/connectx-campus/connectx/api"
	"github.com/connectx-campus/connectx/cmd/connectx/cli"
	"github.com/connectx-campus/connectx/lib/tui"
	"github.com/connectx-campus/connectx/verification"
)

type feedParams struct {
	cli.Connection
	cli.JSONOutput
	Limit  int    `json:"limit"  flag:"limit"  default:"10" desc:"posts per page"`
	Cursor string `json:"cursor" flag:"cursor" desc:"continue after this cursor"`
}

func feedCommand() *cli.Command {
	var params feedParams

	return &cli.Command{
		Name:    "feed",
		Summary: "Read the home feed",
		Description: `Print one page of the home feed, newest first. When more posts
exist the next cursor is printed; pass it back with --cursor.`,
		Usage: "connectx feed [--limit N] [--cursor C]",
		Examples: []cli.Example{
			{Description: "The next page", Command: "connectx feed --cursor p-41"},
		},
		Params:      func() any { return &params },
		Output:      func() any { return &api.FeedPage{} },
		Subcommands: []*cli.Command{newPostCommand(), likeCommand(true), likeCommand(false), commentCommand()},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument %q", args[0]).
					WithHint("Run 'connectx feed --help' for usage.")
			}
			app, err := open(&params.Connection, true, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			page, err := app.Client.Feed(ctx, params.Limit, params.Cursor)
			if err != nil {
				return cli.Classify(err)
			}
			if done, err := params.EmitJSON(page); done {
				return err
			}
			if len(page.Posts) == 0 {
				fmt.Fprintln(cli.Stdout, "Nothing new in your feed.")
				return nil
			}

			now := app.Clock.Now()
			for _, post := range page.Posts {
				fmt.Fprintf(cli.Stdout, "%s  %s · %s\n", post.ID, author(post.User), ago(post.CreatedAt, now))
				if post.Caption != "" {
					fmt.Fprintf(cli.Stdout, "  %s\n", tui.Truncate(strings.ReplaceAll(post.Caption, "\n", " "), 72))
				}
				fmt.Fprintf(cli.Stdout, "  %s · %s\n\n",
					plural(post.Count.Likes, "like"), plural(post.Count.Comments, "comment"))
			}
			if page.HasMore && page.NextCursor != "" {
				fmt.Fprintf(cli.Stdout, "More: connectx feed --cursor %s\n", page.NextCursor)
			}
			return nil
		},
	}
}

func author(person api.Person) string {
	if person.Username != "" {
		return person.Name + " @" + person.Username
	}
	return person.Name
}

func ago(at api.Timestamp, now time.Time) string {
	if at.IsZero() {
		return "-"
	}
	return humanize.RelTime(at.Time, now, "ago", "from now")
}

func plural(count int, noun string) string {
	if count == 1 {
		return "1 " + noun
	}
	return humanize.Comma(int64(count)) + " " + noun + "s"
}

type postParams struct {
	cli.Connection
}

func likeCommand(like bool) *cli.Command {
	var params postParams

	name, summary, done := "like", "Like a post", "Liked"
	if !like {
		name, summary, done = "unlike", "Remove your like from a post", "Unliked"
	}
	return &cli.Command{
		Name:    name,
		Summary: summary,
		Usage:   "connectx feed " + name + " <post-id>",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("usage: connectx feed %s <post-id>", name)
			}
			app, err := open(&params.Connection, true, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			perform := app.Client.LikePost
			if !like {
				perform = app.Client.UnlikePost
			}
			if err := perform(ctx, args[0]); err != nil {
				return cli.Classify(err)
			}
			fmt.Fprintf(cli.Stdout, "%s %s\n", done, args[0])
			return nil
		},
	}
}

func commentCommand() *cli.Command {
	var params postParams

	return &cli.Command{
		Name:    "comment",
		Summary: "Comment on a post",
		Usage:   "connectx feed comment <post-id> <text>",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) < 2 {
				return cli.Validation("usage: connectx feed comment <post-id> <text>")
			}
			text := strings.TrimSpace(strings.Join(args[1:], " "))
			if text == "" {
				return cli.Validation("comment text is empty")
			}
			app, err := open(&params.Connection, true, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			message, err := app.Client.Comment(ctx, args[0], text)
			if err != nil {
				return cli.Classify(err)
			}
			fmt.Fprintln(cli.Stdout, orDefault(message, "Comment added"))
			return nil
		},
	}
}

type newPostParams struct {
	cli.Connection
	cli.JSONOutput
	Image    string `json:"image"     flag:"image"     desc:"image file to attach"`
	ImageURL string `json:"image_url" flag:"image-url" desc:"URL of an already hosted image"`
}

func newPostCommand() *cli.Command {
	var params newPostParams

	return &cli.Command{
		Name:    "post",
		Summary: "Publish a post",
		Description: `Publish a post to the feed. The caption is the rest of the command
line. An image is optional; a file is checked to be an image before
it is sent.`,
		Usage: "connectx feed post [--image FILE | --image-url URL] [caption...]",
		Examples: []cli.Example{
			{Command: "connectx feed post --image poster.png Fest tonight at the quad"},
		},
		Params: func() any { return &params },
		Output: func() any { return &api.Post{} },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			post := api.NewPost{
				Caption:  strings.TrimSpace(strings.Join(args, " ")),
				ImageURL: params.ImageURL,
			}
			if params.Image != "" && params.ImageURL != "" {
				return cli.Validation("--image and --image-url are exclusive")
			}
			if post.Caption == "" && params.Image == "" && params.ImageURL == "" {
				return cli.Validation("a post needs a caption or an image")
			}
			if params.Image != "" {
				image, err := verification.ReadImage(params.Image)
				if err != nil {
					return cli.Classify(err)
				}
				post.Image = &api.FilePart{Filename: image.Name, ContentType: image.ContentType, Content: image.Data}
			}

			app, err := open(&params.Connection, true, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			created, message, err := app.Client.CreatePost(ctx, post)
			if err != nil {
				return cli.Classify(err)
			}
			if done, err := params.EmitJSON(created); done {
				return err
			}
			if created != nil && created.ID != "" {
				fmt.Fprintf(cli.Stdout, "%s (%s)\n", orDefault(message, "Posted"), created.ID)
				return nil
			}
			fmt.Fprintln(cli.Stdout, orDefault(message, "Posted"))
			return nil
		},
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
