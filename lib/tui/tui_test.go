// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/connectx-campus/connectx/api"
)

func TestHeatTracker(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tracker := NewHeatTracker()

	if count := tracker.IgniteNew([]string{"a"}, []string{"a", "b", "c"}, now); count != 2 {
		t.Fatalf("IgniteNew = %d, want 2", count)
	}
	if heat := tracker.Heat("a", now); heat != 0 {
		t.Errorf("Heat(a) = %v, want 0 for an existing row", heat)
	}
	if heat := tracker.Heat("b", now); heat != 1 {
		t.Errorf("Heat(b) at ignition = %v, want 1", heat)
	}
	half := now.Add(HeatDecayDuration / 2)
	if heat := tracker.Heat("b", half); heat < 0.49 || heat > 0.51 {
		t.Errorf("Heat(b) halfway = %v, want 0.5", heat)
	}
	if !tracker.HasHot(half) {
		t.Error("HasHot halfway = false")
	}
	if tracker.HasHot(now.Add(HeatDecayDuration)) {
		t.Error("HasHot after decay = true")
	}
	if len(tracker.ignited) != 0 {
		t.Errorf("decayed entries kept: %v", tracker.ignited)
	}
}

func TestWindowClamp(t *testing.T) {
	cases := []struct {
		name   string
		window Window
		cursor int
		want   int
	}{
		{"cursor visible", Window{Total: 10, Height: 4, Offset: 2}, 3, 2},
		{"cursor above", Window{Total: 10, Height: 4, Offset: 5}, 1, 1},
		{"cursor below", Window{Total: 10, Height: 4, Offset: 0}, 6, 3},
		{"past end", Window{Total: 5, Height: 4, Offset: 4}, 4, 1},
		{"fits", Window{Total: 2, Height: 4, Offset: 1}, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.window.Clamp(tc.cursor).Offset; got != tc.want {
				t.Errorf("Offset = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestScrollbar(t *testing.T) {
	cells := Window{Total: 3, Height: 4}.Scrollbar(DefaultTheme)
	if len(cells) != 4 {
		t.Fatalf("len = %d, want 4", len(cells))
	}
	for _, cell := range cells {
		if !strings.Contains(cell, "┃") {
			t.Fatalf("content fits but cell %q is track", cell)
		}
	}

	cells = Window{Total: 20, Height: 4, Offset: 16}.Scrollbar(DefaultTheme)
	if !strings.Contains(cells[3], "┃") || strings.Contains(cells[0], "┃") {
		t.Errorf("scrolled to end: thumb not at bottom: %q", cells)
	}
}

func TestBadgeAndScore(t *testing.T) {
	if badge := DefaultTheme.Badge(api.User{BypassVerified: true, VerifiedStatus: api.StatusPending}); !strings.Contains(badge, "Bypassed") {
		t.Errorf("Badge(bypassed) = %q", badge)
	}
	if badge := DefaultTheme.Badge(api.User{}); !strings.Contains(badge, string(api.StatusPending)) {
		t.Errorf("Badge(empty) = %q, want pending", badge)
	}
	score := 0.873
	if got := Score(&score); got != "87%" {
		t.Errorf("Score = %q, want 87%%", got)
	}
	if got := Score(nil); got != "n/a" {
		t.Errorf("Score(nil) = %q", got)
	}
	if got := Truncate("abcdef", 4); got != "abc…" {
		t.Errorf("Truncate = %q, want abc…", got)
	}
}
