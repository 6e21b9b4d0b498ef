// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

// Package verifyui is the interactive verification screen: it shows
// the student's current step, accepts image paths for the two uploads,
// polls the status while a decision is outstanding and offers the retry
// once the cooldown has passed.
package verifyui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/connectx-campus/connectx/api"
	"github.com/connectx-campus/connectx/lib/tui"
	"github.com/connectx-campus/connectx/verification"
)

// Source is the verification flow the screen drives.
// *verification.Flow implements it.
type Source interface {
	Refresh(ctx context.Context) (verification.Screen, error)
	Screen() verification.Screen
	SubmitIDCard(ctx context.Context, image verification.Image) (string, error)
	SubmitFaceImage(ctx context.Context, image verification.Image) (*api.FaceUploadResult, error)
	RequestRetry() (verification.Screen, error)
}

// Config configures a Model.
type Config struct {
	Context context.Context
	Source  Source

	// Interval between status polls while the screen is not settled.
	Interval time.Duration

	// ReadImage loads an upload from a path. Defaults to
	// verification.ReadImage.
	ReadImage func(path string) (verification.Image, error)

	Theme tui.Theme
	Keys  KeyMap
}

// uploadTarget is which image the input line is collecting.
type uploadTarget int

const (
	targetNone uploadTarget = iota
	targetIDCard
	targetFace
)

type screenMsg struct {
	screen verification.Screen
	toast  string
	err    error
}

type pollMsg struct{}

// Model is the bubbletea model of the verification screen.
type Model struct {
	ctx       context.Context
	source    Source
	interval  time.Duration
	readImage func(string) (verification.Image, error)
	theme     tui.Theme
	keys      KeyMap

	screen   verification.Screen
	loaded   bool
	polling  bool
	busy     bool
	toast    string
	err      error
	target   uploadTarget
	input    textinput.Model
	spinner  spinner.Model
	help     help.Model
	width    int
}

// New returns a model showing source's current screen.
func New(config Config) Model {
	if config.Context == nil {
		config.Context = context.Background()
	}
	if config.Interval <= 0 {
		config.Interval = verification.DefaultPollInterval
	}
	if config.ReadImage == nil {
		config.ReadImage = verification.ReadImage
	}
	if config.Theme == (tui.Theme{}) {
		config.Theme = tui.DefaultTheme
	}
	if len(config.Keys.Quit.Keys()) == 0 {
		config.Keys = DefaultKeyMap
	}

	input := textinput.New()
	input.Placeholder = "path to image"
	input.Prompt = "› "

	return Model{
		ctx:       config.Context,
		source:    config.Source,
		interval:  config.Interval,
		readImage: config.ReadImage,
		theme:     config.Theme,
		keys:      config.Keys,
		screen:    config.Source.Screen(),
		input:     input,
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:      help.New(),
	}
}

// Init fetches the status and starts the spinner.
func (model Model) Init() tea.Cmd {
	return tea.Batch(model.refresh(), model.spinner.Tick)
}

// Screen returns the screen currently shown.
func (model Model) Screen() verification.Screen { return model.screen }

func (model Model) refresh() tea.Cmd {
	return func() tea.Msg {
		screen, err := model.source.Refresh(model.ctx)
		return screenMsg{screen: screen, err: err}
	}
}

func (model Model) upload(target uploadTarget, path string) tea.Cmd {
	return func() tea.Msg {
		image, err := model.readImage(path)
		if err != nil {
			return screenMsg{screen: model.source.Screen(), err: err}
		}
		var toast string
		switch target {
		case targetIDCard:
			toast, err = model.source.SubmitIDCard(model.ctx, image)
		case targetFace:
			var result *api.FaceUploadResult
			result, err = model.source.SubmitFaceImage(model.ctx, image)
			if result != nil {
				toast = result.Message
			}
		}
		return screenMsg{screen: model.source.Screen(), toast: toast, err: err}
	}
}

// watching reports whether the screen should keep polling.
func (model Model) watching() bool {
	return model.screen.Kind != verification.ScreenForm && !verification.Settled(model.screen)
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		model.width = message.Width
		model.help.Width = message.Width
		return model, nil

	case screenMsg:
		model.busy = false
		model.loaded = true
		model.screen = message.screen
		model.err = message.err
		if message.toast != "" {
			model.toast = message.toast
		}
		if model.watching() && !model.polling {
			model.polling = true
			return model, tea.Tick(model.interval, func(time.Time) tea.Msg { return pollMsg{} })
		}
		return model, nil

	case pollMsg:
		model.polling = false
		return model, model.refresh()

	case spinner.TickMsg:
		var command tea.Cmd
		model.spinner, command = model.spinner.Update(message)
		return model, command

	case tea.KeyMsg:
		if model.target != targetNone {
			return model.updateInput(message)
		}
		return model.updateKeys(message)
	}
	return model, nil
}

func (model Model) updateKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Quit):
		return model, tea.Quit
	case key.Matches(message, model.keys.Help):
		model.help.ShowAll = !model.help.ShowAll
	case key.Matches(message, model.keys.Refresh):
		return model, model.refresh()
	case key.Matches(message, model.keys.UploadID) && model.canUpload(targetIDCard):
		return model.openInput(targetIDCard)
	case key.Matches(message, model.keys.UploadFace) && model.canUpload(targetFace):
		return model.openInput(targetFace)
	case key.Matches(message, model.keys.Retry) && model.screen.RetryEnabled:
		screen, err := model.source.RequestRetry()
		model.screen, model.err, model.toast = screen, err, ""
	}
	return model, nil
}

func (model Model) canUpload(target uploadTarget) bool {
	if model.busy || model.screen.Kind != verification.ScreenForm {
		return false
	}
	if target == targetFace {
		return model.screen.Step == verification.NeedsFace
	}
	return true
}

func (model Model) openInput(target uploadTarget) (tea.Model, tea.Cmd) {
	model.target = target
	model.input.SetValue("")
	model.err = nil
	return model, model.input.Focus()
}

func (model Model) updateInput(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Cancel):
		model.target = targetNone
		model.input.Blur()
		return model, nil
	case key.Matches(message, model.keys.Submit):
		path := strings.TrimSpace(model.input.Value())
		if path == "" {
			return model, nil
		}
		target := model.target
		model.target = targetNone
		model.input.Blur()
		model.busy = true
		return model, model.upload(target, path)
	}
	var command tea.Cmd
	model.input, command = model.input.Update(message)
	return model, command
}

// View implements tea.Model.
func (model Model) View() string {
	theme := model.theme
	var body strings.Builder

	if !model.loaded {
		fmt.Fprintf(&body, "%s Loading verification status…\n", model.spinner.View())
		return body.String()
	}

	screen := model.screen
	body.WriteString(theme.Title(screen.Title))
	body.WriteString("\n")
	body.WriteString(model.line(screen.Body))
	body.WriteString("\n\n")

	if len(screen.Stages) > 0 {
		body.WriteString(model.stages())
		body.WriteString("\n\n")
	}
	if analysis := model.analysis(); analysis != "" {
		body.WriteString(analysis)
		body.WriteString("\n")
	}

	switch {
	case model.target != targetNone:
		label := "ID card"
		if model.target == targetFace {
			label = "Face photo"
		}
		fmt.Fprintf(&body, "%s\n%s\n", label, model.input.View())
	case model.busy:
		fmt.Fprintf(&body, "%s Uploading…\n", model.spinner.View())
	case model.watching():
		fmt.Fprintf(&body, "%s %s\n", model.spinner.View(), theme.Faint("Checking for updates"))
	}

	if model.toast != "" {
		body.WriteString(model.line(model.toast))
		body.WriteString("\n")
	}
	if model.err != nil {
		body.WriteString(lipgloss.NewStyle().Foreground(theme.StatusRejected).Render(model.line(errorText(model.err))))
		body.WriteString("\n")
	}

	body.WriteString("\n")
	body.WriteString(model.help.View(model.keys))
	return body.String()
}

func (model Model) line(text string) string {
	if model.width <= 0 {
		return text
	}
	return tui.Truncate(text, model.width)
}

func (model Model) stages() string {
	parts := make([]string, 0, len(model.screen.Stages))
	for index, stage := range model.screen.Stages {
		marker := fmt.Sprintf("%d", index+1)
		style := lipgloss.NewStyle().Foreground(model.theme.FaintText)
		switch {
		case stage.Done:
			marker = "✓"
			style = style.Foreground(model.theme.StatusApproved)
		case stage.Current:
			style = style.Foreground(model.theme.Accent).Bold(true)
		}
		parts = append(parts, style.Render(marker+" "+stage.Label))
	}
	return strings.Join(parts, model.theme.Faint("  ─  "))
}

func (model Model) analysis() string {
	analysis := model.screen.Analysis
	if analysis.Empty() {
		return ""
	}
	var lines []string
	if analysis.FaceMatchScore != nil {
		lines = append(lines, fmt.Sprintf("Face match:    %s", tui.Score(analysis.FaceMatchScore)))
	}
	if analysis.MatchScore != nil {
		lines = append(lines, fmt.Sprintf("Overall match: %s", tui.Score(analysis.MatchScore)))
	}
	if analysis.CollegeMatch != nil {
		answer := "no"
		if *analysis.CollegeMatch {
			answer = "yes"
		}
		lines = append(lines, fmt.Sprintf("College match: %s", answer))
	}
	if analysis.Remarks != "" {
		lines = append(lines, model.line(analysis.Remarks))
	}
	if model.screen.AutoApproved {
		lines = append(lines, lipgloss.NewStyle().Foreground(model.theme.StatusApproved).Render("Approved automatically"))
	}
	return strings.Join(lines, "\n") + "\n"
}

// errorText prefers the server's message and falls back to the error
// itself, so local failures such as unreadable files stay visible.
func errorText(err error) string {
	if text := api.Message(err, ""); text != "" {
		return text
	}
	return err.Error()
}
