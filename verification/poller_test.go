// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package verification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/connectx-campus/connectx/api"
	"github.com/connectx-campus/connectx/lib/testutil"
)

func TestPollerRunsUntilApproved(t *testing.T) {
	var mu sync.Mutex
	reports := []*api.StatusReport{
		{Verification: pending("face.jpg")},
		{Verification: pending("face.jpg")},
		{Verification: &api.VerificationRecord{ID: "v1", Status: api.StatusApproved, ReviewedBy: "admin-7"}},
	}
	polled := make(chan struct{}, 4)
	gateway := &stubGateway{status: func() (*api.StatusReport, error) {
		mu.Lock()
		defer mu.Unlock()
		polled <- struct{}{}
		next := reports[0]
		if len(reports) > 1 {
			reports = reports[1:]
		}
		return next, nil
	}}
	flow, fake := newStubFlow(t, gateway)
	poller := &Poller{Flow: flow, Interval: 5 * time.Second, Clock: fake}

	screens := make(chan Screen, 4)
	type outcome struct {
		screen Screen
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		screen, err := poller.Run(context.Background(), func(s Screen) { screens <- s })
		done <- outcome{screen, err}
	}()

	testutil.RequireReceive(t, polled, 5*time.Second, "first poll")
	first := testutil.RequireReceive(t, screens, 5*time.Second, "first screen")
	if first.Kind != ScreenPending {
		t.Fatalf("first screen = %s, want pending", first.Kind)
	}
	fake.WaitForTimers(1)

	// The second poll returns the same report and must not be reported.
	fake.Advance(5 * time.Second)
	testutil.RequireReceive(t, polled, 5*time.Second, "second poll")
	testutil.RequireNoReceive(t, screens, 50*time.Millisecond, "unchanged poll")

	fake.Advance(5 * time.Second)
	final := testutil.RequireReceive(t, screens, 5*time.Second, "approval")
	if final.Kind != ScreenApproved {
		t.Fatalf("final screen = %s, want approved", final.Kind)
	}
	result := testutil.RequireReceive(t, done, 5*time.Second, "Run to return")
	if result.err != nil || result.screen.Kind != ScreenApproved {
		t.Errorf("Run = %s, %v; want approved, nil", result.screen.Kind, result.err)
	}
}

func TestPollerStopsOnCancel(t *testing.T) {
	flow, fake := newStubFlow(t, &stubGateway{status: func() (*api.StatusReport, error) {
		return &api.StatusReport{Verification: pending("face.jpg")}, nil
	}})
	poller := &Poller{Flow: flow, Interval: time.Second, Clock: fake}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := poller.Run(ctx, nil)
		done <- err
	}()
	fake.WaitForTimers(1)
	cancel()
	if err := testutil.RequireReceive(t, done, 5*time.Second, "Run to return"); !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
}

func TestSettled(t *testing.T) {
	if Settled(Screen{Kind: ScreenPending}) {
		t.Error("pending settled")
	}
	if Settled(Screen{Kind: ScreenRejected}) {
		t.Error("rejected during cooldown settled")
	}
	if !Settled(Screen{Kind: ScreenRejected, RetryEnabled: true}) || !Settled(Screen{Kind: ScreenApproved}) {
		t.Error("retryable rejection or approval not settled")
	}
}
