// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package router

import (
	"sync"
	"testing"
)

func TestNavigateDeduplicates(t *testing.T) {
	navigator := New(College, nil)

	if !navigator.Navigate(Login) {
		t.Fatal("first navigation reported no change")
	}
	for range 5 {
		if navigator.Navigate(Login) {
			t.Fatal("repeated navigation to the current path reported a change")
		}
	}
	if navigator.Current() != Login {
		t.Fatalf("Current() = %q", navigator.Current())
	}
	if history := navigator.History(); len(history) != 1 || history[0] != College {
		t.Fatalf("History() = %v", history)
	}
}

func TestConcurrentRedirectsTransitionOnce(t *testing.T) {
	navigator := New(AdminDashboard, nil)
	var (
		wait    sync.WaitGroup
		mu      sync.Mutex
		changes int
	)
	for range 16 {
		wait.Add(1)
		go func() {
			defer wait.Done()
			if navigator.Navigate(Login) {
				mu.Lock()
				changes++
				mu.Unlock()
			}
		}()
	}
	wait.Wait()
	if changes != 1 {
		t.Fatalf("changes = %d, want 1", changes)
	}
}

func TestIsPublic(t *testing.T) {
	for path, want := range map[string]bool{Login: true, Signup: true, Home: false, College: false, Verify: false} {
		if IsPublic(path) != want {
			t.Errorf("IsPublic(%q) = %v", path, !want)
		}
	}
}
