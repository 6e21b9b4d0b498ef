// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package verification

import (
	"context"
	"log/slog"
	"time"

	"github.com/connectx-campus/connectx/lib/clock"
)

// DefaultPollInterval is the status polling period.
const DefaultPollInterval = 5 * time.Second

// Poller refreshes a Flow on an interval.
type Poller struct {
	Flow     *Flow
	Interval time.Duration
	Clock    clock.Clock
	Logger   *slog.Logger
}

// Settled reports whether polling can stop: the student is approved,
// or was rejected and may retry now.
func Settled(screen Screen) bool {
	return screen.Kind == ScreenApproved || (screen.Kind == ScreenRejected && screen.RetryEnabled)
}

// Run polls until the screen settles or ctx ends. each is called with
// the screen after the first fetch and after every poll that changed
// it. Fetch errors are logged and polling continues.
func (p *Poller) Run(ctx context.Context, each func(Screen)) (Screen, error) {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	timeSource := p.Clock
	if timeSource == nil {
		timeSource = clock.Real()
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ticker := timeSource.NewTicker(interval)
	defer ticker.Stop()

	var last *Screen
	for {
		screen, err := p.Flow.Refresh(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return screen, ctx.Err()
			}
			logger.Warn("status poll failed", "error", err)
		} else if last == nil || changed(*last, screen) {
			if each != nil {
				each(screen)
			}
			last = &screen
		}
		if err == nil && Settled(screen) {
			return screen, nil
		}

		select {
		case <-ctx.Done():
			return p.Flow.Screen(), ctx.Err()
		case <-ticker.C:
		}
	}
}

// changed compares the countdown at minute resolution only.
func changed(previous, current Screen) bool {
	return previous.Kind != current.Kind ||
		previous.Step != current.Step ||
		previous.RetryEnabled != current.RetryEnabled ||
		previous.CooldownText != current.CooldownText ||
		!sameAnalysis(previous.Analysis, current.Analysis)
}

func sameAnalysis(a, b Analysis) bool {
	return equalPointer(a.FaceMatchScore, b.FaceMatchScore) &&
		equalPointer(a.MatchScore, b.MatchScore) &&
		equalPointer(a.CollegeMatch, b.CollegeMatch) &&
		a.Remarks == b.Remarks && a.ReviewedBy == b.ReviewedBy
}

func equalPointer[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
