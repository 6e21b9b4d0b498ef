// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package verify

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/connectx-campus/connectx/cmd/connectx/cli"
	"github.com/connectx-campus/connectx/lib/verifyui"
	"github.com/connectx-campus/connectx/verification"
)

func runScreen(ctx context.Context, flow *verification.Flow, interval time.Duration) error {
	model := verifyui.New(verifyui.Config{
		Context:  ctx,
		Source:   flow,
		Interval: interval,
	})
	program := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return cli.Internal("verification screen: %w", err)
	}
	return nil
}
