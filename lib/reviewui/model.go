// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

// Package reviewui is the interactive review queue for college and
// super admins. It polls the pending list, highlights entries that
// arrived since the last poll, and runs approve, reject and bypass
// through a review.Panel with in-program confirmation.
package reviewui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/connectx-campus/connectx/api"
	"github.com/connectx-campus/connectx/lib/tui"
	"github.com/connectx-campus/connectx/review"
)

// heatTickInterval is the re-render rate while rows are highlighted.
const heatTickInterval = 100 * time.Millisecond

// chromeHeight is the rows used by the header and footer.
const chromeHeight = 6

// Panel is the review surface the queue drives. *review.Panel
// implements it.
type Panel interface {
	Scope() api.ReviewScope
	Pending(ctx context.Context) ([]api.PendingVerification, error)
	Refresh(ctx context.Context) ([]api.PendingVerification, error)
	Approve(ctx context.Context, verificationID string) (string, error)
	Reject(ctx context.Context, verificationID string) (string, error)
	Bypass(ctx context.Context, userID string) (string, error)
}

// Config configures a Model.
type Config struct {
	Context  context.Context
	Panel    Panel
	Interval time.Duration
	Theme    tui.Theme
	Keys     KeyMap

	// Now defaults to time.Now.
	Now func() time.Time
}

type pendingMsg struct {
	entries []api.PendingVerification
	err     error
}

type actionMsg struct {
	toast   string
	err     error
	entries []api.PendingVerification
	// refreshErr is the failure of the queue refetch after a
	// successful action.
	refreshErr error
}

type pollMsg struct{}

type heatTickMsg struct{}

// Model is the bubbletea model of the review queue.
type Model struct {
	ctx      context.Context
	panel    Panel
	interval time.Duration
	theme    tui.Theme
	keys     KeyMap
	now      func() time.Time

	entries []api.PendingVerification
	loaded  bool
	cursor  int
	window  tui.Window
	heat    *tui.HeatTracker
	heating bool
	polling bool

	prompt *promptMsg
	busy   bool
	toast  string
	failed bool

	help   help.Model
	width  int
	height int
}

// New returns an empty queue model.
func New(config Config) Model {
	if config.Context == nil {
		config.Context = context.Background()
	}
	if config.Interval <= 0 {
		config.Interval = review.DefaultPollInterval
	}
	if config.Theme == (tui.Theme{}) {
		config.Theme = tui.DefaultTheme
	}
	if len(config.Keys.Quit.Keys()) == 0 {
		config.Keys = DefaultKeyMap
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return Model{
		ctx:      config.Context,
		panel:    config.Panel,
		interval: config.Interval,
		theme:    config.Theme,
		keys:     config.Keys,
		now:      config.Now,
		heat:     tui.NewHeatTracker(),
		help:     help.New(),
	}
}

// Init fetches the queue.
func (model Model) Init() tea.Cmd { return model.refresh() }

// Entries returns the rows currently shown.
func (model Model) Entries() []api.PendingVerification { return model.entries }

func (model Model) refresh() tea.Cmd {
	return func() tea.Msg {
		entries, err := model.panel.Refresh(model.ctx)
		return pendingMsg{entries: entries, err: err}
	}
}

func (model Model) act(perform func(context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		toast, err := perform(model.ctx)
		message := actionMsg{toast: toast, err: err}
		if err == nil {
			message.entries, message.refreshErr = model.panel.Pending(model.ctx)
		}
		return message
	}
}

func (model Model) tickHeat() tea.Cmd {
	return tea.Tick(heatTickInterval, func(time.Time) tea.Msg { return heatTickMsg{} })
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		model.width, model.height = message.Width, message.Height
		model.help.Width = message.Width
		model.reclamp()
		return model, nil

	case pendingMsg:
		var commands []tea.Cmd
		if message.err != nil {
			model.toast, model.failed = api.Message(message.err, "Failed to load verifications"), true
		} else {
			commands = append(commands, model.replace(message.entries))
		}
		if !model.polling {
			model.polling = true
			commands = append(commands, tea.Tick(model.interval, func(time.Time) tea.Msg { return pollMsg{} }))
		}
		return model, tea.Batch(commands...)

	case pollMsg:
		model.polling = false
		return model, model.refresh()

	case heatTickMsg:
		if model.heat.HasHot(model.now()) {
			return model, model.tickHeat()
		}
		model.heating = false
		return model, nil

	case promptMsg:
		model.prompt = &message
		return model, nil

	case actionMsg:
		model.busy = false
		var failure *review.Failure
		switch {
		case errors.Is(message.err, review.ErrDeclined):
			model.toast = ""
		case errors.As(message.err, &failure):
			model.toast, model.failed = failure.Toast, true
		case message.err != nil:
			model.toast, model.failed = message.err.Error(), true
		case message.refreshErr != nil:
			model.toast = message.toast + " · " + api.Message(message.refreshErr, "Failed to load verifications")
			model.failed = true
		default:
			model.toast, model.failed = message.toast, false
			if message.entries != nil {
				return model, model.replace(message.entries)
			}
		}
		return model, nil

	case tea.KeyMsg:
		if model.prompt != nil {
			return model.answer(message)
		}
		return model.updateKeys(message)
	}
	return model, nil
}

// replace swaps in a fresh queue, keeping the cursor on the same
// record when it is still there.
func (model *Model) replace(entries []api.PendingVerification) tea.Cmd {
	selected := ""
	if model.cursor < len(model.entries) {
		selected = model.entries[model.cursor].ID
	}
	previous := ids(model.entries)

	model.entries = entries
	model.cursor = 0
	for index, entry := range entries {
		if entry.ID == selected {
			model.cursor = index
		}
	}
	model.reclamp()

	// The first load is not news.
	if !model.loaded {
		model.loaded = true
		return nil
	}
	if model.heat.IgniteNew(previous, ids(entries), model.now()) == 0 || model.heating {
		return nil
	}
	model.heating = true
	return model.tickHeat()
}

func ids(entries []api.PendingVerification) []string {
	out := make([]string, len(entries))
	for index, entry := range entries {
		out[index] = entry.ID
	}
	return out
}

func (model *Model) reclamp() {
	height := len(model.entries)
	if model.height > chromeHeight {
		height = model.height - chromeHeight
	}
	model.window = tui.Window{Total: len(model.entries), Height: height, Offset: model.window.Offset}.Clamp(model.cursor)
}

func (model Model) selected() (api.PendingVerification, bool) {
	if model.cursor < 0 || model.cursor >= len(model.entries) {
		return api.PendingVerification{}, false
	}
	return model.entries[model.cursor], true
}

func (model Model) updateKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Quit):
		return model, tea.Quit
	case key.Matches(message, model.keys.Help):
		model.help.ShowAll = !model.help.ShowAll
		return model, nil
	case key.Matches(message, model.keys.Up):
		if model.cursor > 0 {
			model.cursor--
			model.reclamp()
		}
		return model, nil
	case key.Matches(message, model.keys.Down):
		if model.cursor < len(model.entries)-1 {
			model.cursor++
			model.reclamp()
		}
		return model, nil
	case key.Matches(message, model.keys.Refresh):
		return model, model.refresh()
	}

	entry, ok := model.selected()
	if !ok || model.busy {
		return model, nil
	}
	var perform func(context.Context) (string, error)
	switch {
	case key.Matches(message, model.keys.Approve):
		perform = func(ctx context.Context) (string, error) { return model.panel.Approve(ctx, entry.ID) }
	case key.Matches(message, model.keys.Reject):
		perform = func(ctx context.Context) (string, error) { return model.panel.Reject(ctx, entry.ID) }
	case key.Matches(message, model.keys.Bypass):
		perform = func(ctx context.Context) (string, error) { return model.panel.Bypass(ctx, entry.UserID) }
	default:
		return model, nil
	}
	model.busy = true
	model.toast = ""
	return model, model.act(perform)
}

func (model Model) answer(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	var yes bool
	switch {
	case key.Matches(message, model.keys.Yes):
		yes = true
	case key.Matches(message, model.keys.No):
	default:
		return model, nil
	}
	model.prompt.reply <- yes
	model.prompt = nil
	return model, nil
}

// View implements tea.Model.
func (model Model) View() string {
	theme := model.theme
	var view strings.Builder

	title := "Pending verifications"
	if model.panel.Scope() == api.ScopeCollege {
		title = "Pending verifications for your college"
	}
	fmt.Fprintf(&view, "%s %s\n\n", theme.Title(title), theme.Faint(fmt.Sprintf("(%d)", len(model.entries))))

	if !model.loaded {
		view.WriteString(theme.Faint("Loading…"))
		view.WriteString("\n")
	} else if len(model.entries) == 0 {
		view.WriteString(theme.Faint("No pending verifications"))
		view.WriteString("\n")
	} else {
		view.WriteString(model.rows())
		view.WriteString("\n")
	}

	view.WriteString("\n")
	switch {
	case model.prompt != nil:
		view.WriteString(lipgloss.NewStyle().Bold(true).Render(model.prompt.text + " (y/n)"))
	case model.busy:
		view.WriteString(theme.Faint("Working…"))
	case model.toast != "":
		color := theme.StatusApproved
		if model.failed {
			color = theme.StatusRejected
		}
		view.WriteString(lipgloss.NewStyle().Foreground(color).Render(model.toast))
	}
	view.WriteString("\n")
	view.WriteString(model.help.View(model.keys))
	return view.String()
}

func (model Model) rows() string {
	now := model.now()
	start := model.window.Offset
	end := min(start+model.window.Height, len(model.entries))
	bar := model.window.Scrollbar(model.theme)

	lines := make([]string, 0, end-start)
	for index := start; index < end; index++ {
		entry := model.entries[index]
		line := model.row(entry, now)
		style := lipgloss.NewStyle().Foreground(model.theme.NormalText)
		switch {
		case index == model.cursor:
			style = style.Background(model.theme.SelectedBackground).Foreground(model.theme.SelectedForeground)
		case model.heat.Heat(entry.ID, now) > 0:
			style = style.Background(model.theme.HotAccent)
		}
		if model.width > 2 {
			line = tui.Truncate(line, model.width-2)
		}
		if cell := index - start; cell < len(bar) {
			line = bar[cell] + " " + style.Render(line)
		} else {
			line = style.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (model Model) row(entry api.PendingVerification, now time.Time) string {
	name := entry.User.Name
	if name == "" {
		name = entry.UserID
	}
	parts := []string{name, entry.User.Email}
	if college := entry.User.CollegeName(); college != "" {
		parts = append(parts, college)
	}
	parts = append(parts,
		"face "+tui.Score(entry.FaceMatchScore),
		"match "+tui.Score(entry.MatchScore),
	)
	if !entry.CreatedAt.IsZero() {
		parts = append(parts, humanize.RelTime(entry.CreatedAt.Time, now, "ago", "from now"))
	}
	return strings.Join(parts, "  ")
}
