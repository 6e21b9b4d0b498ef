// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"time"
)

// HeatDecayDuration is how long a new row stays highlighted.
const HeatDecayDuration = 5 * time.Second

// HeatTracker remembers when rows first appeared so a screen can tint
// them while they are new.
type HeatTracker struct {
	ignited map[string]time.Time
}

// NewHeatTracker creates an empty tracker.
func NewHeatTracker() *HeatTracker {
	return &HeatTracker{ignited: make(map[string]time.Time)}
}

// Ignite marks an item as changed at now.
func (tracker *HeatTracker) Ignite(itemID string, now time.Time) {
	tracker.ignited[itemID] = now
}

// IgniteNew ignites every ID not in previous and returns how many
// were new.
func (tracker *HeatTracker) IgniteNew(previous, current []string, now time.Time) int {
	seen := make(map[string]bool, len(previous))
	for _, id := range previous {
		seen[id] = true
	}
	count := 0
	for _, id := range current {
		if !seen[id] {
			tracker.Ignite(id, now)
			count++
		}
	}
	return count
}

// Heat returns the current intensity for an item: 1.0 at ignition,
// linearly decaying to 0.0 over [HeatDecayDuration]. Returns 0.0 for
// items that were never ignited or have fully decayed.
func (tracker *HeatTracker) Heat(itemID string, now time.Time) float64 {
	ignition, exists := tracker.ignited[itemID]
	if !exists {
		return 0.0
	}
	elapsed := now.Sub(ignition)
	if elapsed >= HeatDecayDuration {
		return 0.0
	}
	return 1.0 - float64(elapsed)/float64(HeatDecayDuration)
}

// HasHot reports whether any item is still highlighted. Fully decayed
// entries are dropped.
func (tracker *HeatTracker) HasHot(now time.Time) bool {
	hot := false
	for itemID, ignition := range tracker.ignited {
		if now.Sub(ignition) < HeatDecayDuration {
			hot = true
			continue
		}
		delete(tracker.ignited, itemID)
	}
	return hot
}
