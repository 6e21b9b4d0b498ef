// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/connectx-campus/connectx/api"
)

// Theme is the palette of the terminal screens. Colors are ANSI
// 256-color codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Verification outcomes.
	StatusPending  lipgloss.Color
	StatusApproved lipgloss.Color
	StatusRejected lipgloss.Color
	StatusBypassed lipgloss.Color

	// Accent is used for titles and the focused scrollbar thumb.
	Accent lipgloss.Color

	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	// HotAccent tints rows that just arrived.
	HotAccent lipgloss.Color
}

// DefaultTheme targets dark 256-color terminals.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	StatusPending:  lipgloss.Color("220"), // amber
	StatusApproved: lipgloss.Color("114"), // green
	StatusRejected: lipgloss.Color("196"), // red
	StatusBypassed: lipgloss.Color("141"), // purple

	Accent: lipgloss.Color("51"), // neon cyan

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),

	HotAccent: lipgloss.Color("58"),
}

// StatusColor returns the color of a verification status. Unknown
// statuses are faint.
func (theme Theme) StatusColor(status api.VerificationStatus) lipgloss.Color {
	switch status {
	case api.StatusPending:
		return theme.StatusPending
	case api.StatusApproved:
		return theme.StatusApproved
	case api.StatusRejected:
		return theme.StatusRejected
	default:
		return theme.FaintText
	}
}

// Badge renders a user's verification state as a short colored label.
func (theme Theme) Badge(user api.User) string {
	if user.BypassVerified {
		return lipgloss.NewStyle().Foreground(theme.StatusBypassed).Render("Bypassed")
	}
	status := user.VerifiedStatus
	if status == "" {
		status = api.StatusPending
	}
	return lipgloss.NewStyle().Foreground(theme.StatusColor(status)).Render(string(status))
}

// Title renders a screen heading.
func (theme Theme) Title(text string) string {
	return lipgloss.NewStyle().Bold(true).Foreground(theme.Accent).Render(text)
}

// Faint renders secondary text.
func (theme Theme) Faint(text string) string {
	return lipgloss.NewStyle().Foreground(theme.FaintText).Render(text)
}

// Help renders a key hint line.
func (theme Theme) Help(text string) string {
	return lipgloss.NewStyle().Foreground(theme.HelpText).Render(text)
}

// Score formats a 0..1 score as a percentage, or "n/a".
func Score(score *float64) string {
	if score == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.0f%%", *score*100)
}

// Truncate shortens styled text to width cells, ending with an
// ellipsis when it was cut.
func Truncate(text string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(text, width, "…")
}
