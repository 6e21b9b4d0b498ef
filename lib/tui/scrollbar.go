// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import "github.com/charmbracelet/lipgloss"

// Window is the visible slice of a scrolling list.
type Window struct {
	Total  int
	Height int
	Offset int
}

// Clamp moves Offset so that row cursor is visible and the window
// never scrolls past the end.
func (w Window) Clamp(cursor int) Window {
	if w.Height <= 0 {
		w.Offset = 0
		return w
	}
	if cursor < w.Offset {
		w.Offset = cursor
	}
	if cursor >= w.Offset+w.Height {
		w.Offset = cursor - w.Height + 1
	}
	maxOffset := max(w.Total-w.Height, 0)
	w.Offset = min(max(w.Offset, 0), maxOffset)
	return w
}

// Scrollbar returns one cell per visible row. A thick segment marks the
// visible part of the list; when everything fits the thumb fills the
// whole column.
func (w Window) Scrollbar(theme Theme) []string {
	if w.Height <= 0 {
		return nil
	}
	track := lipgloss.NewStyle().Foreground(theme.BorderColor).Render("│")
	thumb := lipgloss.NewStyle().Foreground(theme.Accent).Render("┃")

	cells := make([]string, w.Height)
	if w.Total <= w.Height {
		for index := range cells {
			cells[index] = thumb
		}
		return cells
	}

	size := max(w.Height*w.Height/w.Total, 1)
	start := 0
	if span := w.Total - w.Height; span > 0 {
		start = w.Offset * (w.Height - size) / span
	}
	start = min(start, w.Height-size)
	for index := range cells {
		if index >= start && index < start+size {
			cells[index] = thumb
		} else {
			cells[index] = track
		}
	}
	return cells
}
