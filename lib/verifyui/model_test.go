// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package verifyui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/connectx-campus/connectx/api"
	"github.com/connectx-campus/connectx/verification"
)

// fakeSource plays back a fixed sequence of screens.
type fakeSource struct {
	screen    verification.Screen
	refreshes int
	uploads   []string
	uploadErr error
	next      verification.Screen
}

func (s *fakeSource) Refresh(context.Context) (verification.Screen, error) {
	s.refreshes++
	return s.screen, nil
}

func (s *fakeSource) Screen() verification.Screen { return s.screen }

func (s *fakeSource) SubmitIDCard(_ context.Context, image verification.Image) (string, error) {
	s.uploads = append(s.uploads, "id:"+image.Name)
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	s.screen = s.next
	return "ID card uploaded", nil
}

func (s *fakeSource) SubmitFaceImage(_ context.Context, image verification.Image) (*api.FaceUploadResult, error) {
	s.uploads = append(s.uploads, "face:"+image.Name)
	s.screen = s.next
	return &api.FaceUploadResult{Status: api.StatusPending, Message: "Face uploaded"}, nil
}

func (s *fakeSource) RequestRetry() (verification.Screen, error) {
	s.screen = verification.Screen{Kind: verification.ScreenForm, Step: verification.NeedsID, Title: "Get Verified"}
	return s.screen, nil
}

func formScreen(step verification.Step) verification.Screen {
	return verification.Screen{
		Kind:  verification.ScreenForm,
		Step:  step,
		Title: "Get Verified",
		Body:  "Prove you're a real campus student",
		Stages: []verification.Stage{
			{Label: "Upload ID", Current: step == verification.NeedsID, Done: step != verification.NeedsID},
			{Label: "Face Scan", Current: step == verification.NeedsFace},
			{Label: "Verify"},
		},
	}
}

func newModel(source *fakeSource) Model {
	return New(Config{
		Source:   source,
		Interval: time.Second,
		ReadImage: func(path string) (verification.Image, error) {
			if path == "missing.jpg" {
				return verification.Image{}, errors.New("open missing.jpg: no such file")
			}
			return verification.Image{Name: path}, nil
		},
	})
}

// run executes command and feeds its message back into the model.
func run(t *testing.T, model Model, command tea.Cmd) Model {
	t.Helper()
	if command == nil {
		t.Fatal("expected a command")
	}
	updated, _ := model.Update(command())
	return updated.(Model)
}

func press(model Model, keys string) (Model, tea.Cmd) {
	message := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)}
	switch keys {
	case "enter":
		message = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		message = tea.KeyMsg{Type: tea.KeyEsc}
	}
	updated, command := model.Update(message)
	return updated.(Model), command
}

func TestLoadingThenForm(t *testing.T) {
	source := &fakeSource{screen: formScreen(verification.NeedsID)}
	model := newModel(source)

	if view := model.View(); !strings.Contains(view, "Loading verification status") {
		t.Fatalf("initial view = %q, want loading", view)
	}

	model = run(t, model, model.refresh())
	view := model.View()
	for _, want := range []string{"Get Verified", "Upload ID", "Face Scan", "Verify"} {
		if !strings.Contains(view, want) {
			t.Errorf("form view missing %q:\n%s", want, view)
		}
	}
	if model.polling {
		t.Error("form screen should not poll")
	}
}

func TestUploadIDThroughInput(t *testing.T) {
	source := &fakeSource{screen: formScreen(verification.NeedsID), next: formScreen(verification.NeedsFace)}
	model := newModel(source)
	model = run(t, model, model.refresh())

	// The face key is ignored before the ID card is in.
	model, _ = press(model, "f")
	if model.target != targetNone {
		t.Fatal("face upload opened at NeedsID")
	}

	model, _ = press(model, "i")
	if model.target != targetIDCard {
		t.Fatalf("target = %v, want ID card", model.target)
	}
	for _, r := range "card.jpg" {
		model, _ = press(model, string(r))
	}
	model, command := press(model, "enter")
	if !model.busy {
		t.Error("model not busy during upload")
	}
	model = run(t, model, command)

	if len(source.uploads) != 1 || source.uploads[0] != "id:card.jpg" {
		t.Fatalf("uploads = %v", source.uploads)
	}
	if model.Screen().Step != verification.NeedsFace {
		t.Errorf("step = %s, want needs_face", model.Screen().Step)
	}
	if !strings.Contains(model.View(), "ID card uploaded") {
		t.Errorf("toast missing:\n%s", model.View())
	}
}

func TestUploadReadErrorShown(t *testing.T) {
	source := &fakeSource{screen: formScreen(verification.NeedsID)}
	model := newModel(source)
	model = run(t, model, model.refresh())

	model, _ = press(model, "i")
	model.input.SetValue("missing.jpg")
	model, command := press(model, "enter")
	model = run(t, model, command)

	if len(source.uploads) != 0 {
		t.Errorf("uploads = %v, want none", source.uploads)
	}
	if !strings.Contains(model.View(), "no such file") {
		t.Errorf("error missing:\n%s", model.View())
	}
}

func TestCancelInput(t *testing.T) {
	source := &fakeSource{screen: formScreen(verification.NeedsFace)}
	model := newModel(source)
	model = run(t, model, model.refresh())

	model, _ = press(model, "f")
	model, _ = press(model, "esc")
	if model.target != targetNone {
		t.Error("esc did not close the input")
	}
}

func TestPendingPolls(t *testing.T) {
	score := 0.91
	source := &fakeSource{screen: verification.Screen{
		Kind:     verification.ScreenPending,
		Step:     verification.UnderReview,
		Title:    "Verification Pending",
		Analysis: verification.Analysis{FaceMatchScore: &score},
	}}
	model := newModel(source)

	updated, command := model.Update(screenMsg{screen: source.screen})
	model = updated.(Model)
	if !model.polling || command == nil {
		t.Fatal("pending screen did not schedule a poll")
	}
	if view := model.View(); !strings.Contains(view, "91%") {
		t.Errorf("analysis missing:\n%s", view)
	}

	// A second screen while a poll is scheduled does not stack ticks.
	updated, command = model.Update(screenMsg{screen: source.screen})
	model = updated.(Model)
	if command != nil {
		t.Error("duplicate poll scheduled")
	}

	updated, command = model.Update(pollMsg{})
	model = updated.(Model)
	if model.polling {
		t.Error("polling still set after tick")
	}
	model = run(t, model, command)
	if source.refreshes != 1 {
		t.Errorf("refreshes = %d, want 1", source.refreshes)
	}
}

func TestRetry(t *testing.T) {
	source := &fakeSource{screen: verification.Screen{
		Kind:         verification.ScreenRejected,
		Step:         verification.Rejected,
		Title:        "Verification Rejected",
		Body:         "Please try submitting again.",
		RetryEnabled: true,
	}}
	model := newModel(source)
	updated, command := model.Update(screenMsg{screen: source.screen})
	model = updated.(Model)
	if command != nil {
		t.Error("settled screen scheduled a poll")
	}

	model, _ = press(model, "t")
	if model.Screen().Kind != verification.ScreenForm {
		t.Errorf("kind = %s after retry, want form", model.Screen().Kind)
	}
}

func TestRetryIgnoredDuringCooldown(t *testing.T) {
	source := &fakeSource{screen: verification.Screen{
		Kind:         verification.ScreenRejected,
		Step:         verification.Rejected,
		Title:        "Verification Rejected",
		Body:         "You can try again in 0:05.",
		Cooldown:     5 * time.Minute,
		CooldownText: "0:05",
	}}
	model := newModel(source)
	updated, command := model.Update(screenMsg{screen: source.screen})
	model = updated.(Model)
	if command == nil {
		t.Error("cooldown screen should keep polling")
	}
	model, _ = press(model, "t")
	if model.Screen().Kind != verification.ScreenRejected {
		t.Error("retry accepted during cooldown")
	}
}

func TestQuit(t *testing.T) {
	model := newModel(&fakeSource{screen: formScreen(verification.NeedsID)})
	_, command := press(model, "q")
	if command == nil {
		t.Fatal("no command for quit")
	}
	if _, ok := command().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}
