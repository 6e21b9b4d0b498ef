// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package verifyui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the verification screen.
type KeyMap struct {
	UploadID   key.Binding
	UploadFace key.Binding
	Retry      key.Binding
	Refresh    key.Binding

	// Input mode.
	Submit key.Binding
	Cancel key.Binding

	Help key.Binding
	Quit key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	UploadID: key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "upload ID card"),
	),
	UploadFace: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "upload face"),
	),
	Retry: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "try again"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r", "ctrl+r"),
		key.WithHelp("r", "refresh"),
	),
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "upload"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp implements help.KeyMap.
func (keys KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{keys.UploadID, keys.UploadFace, keys.Retry, keys.Refresh, keys.Quit}
}

// FullHelp implements help.KeyMap.
func (keys KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{keys.UploadID, keys.UploadFace, keys.Retry},
		{keys.Refresh, keys.Help, keys.Quit},
	}
}
