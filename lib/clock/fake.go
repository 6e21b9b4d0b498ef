// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sort"
	"sync"
	"time"
)

// FakeClock only moves when Advance is called. AfterFunc callbacks run
// synchronously inside Advance, in deadline order, so a test that
// advances past a refetch deadline observes the refetch before Advance
// returns. Callbacks must not call Advance.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	entries []*fakeEntry
	changed *sync.Cond
}

type fakeEntry struct {
	due      time.Time
	every    time.Duration
	channel  chan time.Time
	callback func()
	done     bool
}

// Fake returns a FakeClock reading initial.
func Fake(initial time.Time) *FakeClock {
	fake := &FakeClock{now: initial}
	fake.changed = sync.NewCond(&fake.mu)
	return fake
}

// Now returns the fake time.
func (f *FakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// After returns a channel that fires when the clock passes now+d. A
// non-positive d fires immediately.
func (f *FakeClock) After(d time.Duration) <-chan time.Time {
	channel := make(chan time.Time, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if d <= 0 {
		channel <- f.now
		return channel
	}
	f.addLocked(&fakeEntry{due: f.now.Add(d), channel: channel})
	return channel
}

// AfterFunc registers f to run when the clock passes now+d. A
// non-positive d runs f before AfterFunc returns.
func (f *FakeClock) AfterFunc(d time.Duration, callback func()) *Timer {
	if d <= 0 {
		callback()
		return &Timer{stop: func() bool { return false }}
	}
	f.mu.Lock()
	entry := &fakeEntry{due: f.now.Add(d), callback: callback}
	f.addLocked(entry)
	f.mu.Unlock()
	return &Timer{stop: func() bool { return f.cancel(entry) }}
}

// NewTicker returns a ticker that fires once per elapsed interval.
func (f *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive ticker interval")
	}
	channel := make(chan time.Time, 1)
	f.mu.Lock()
	entry := &fakeEntry{due: f.now.Add(d), every: d, channel: channel}
	f.addLocked(entry)
	f.mu.Unlock()
	return &Ticker{C: channel, stop: func() { f.cancel(entry) }}
}

// Advance moves the clock forward by d and fires everything that came
// due, earliest first.
func (f *FakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	target := f.now
	f.mu.Unlock()

	for {
		due := f.takeDue(target)
		if len(due) == 0 {
			return
		}
		for _, entry := range due {
			if entry.callback != nil {
				entry.callback()
				continue
			}
			select {
			case entry.channel <- target:
			default:
			}
		}
	}
}

// WaitForTimers blocks until at least n timers or tickers are pending.
// Use it before Advance when the timer is registered by another
// goroutine.
func (f *FakeClock) WaitForTimers(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for len(f.entries) < n {
		f.changed.Wait()
	}
}

// PendingCount returns the number of timers and tickers not yet fired
// or stopped.
func (f *FakeClock) PendingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

func (f *FakeClock) addLocked(entry *fakeEntry) {
	f.entries = append(f.entries, entry)
	f.changed.Broadcast()
}

func (f *FakeClock) cancel(entry *fakeEntry) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if entry.done {
		return false
	}
	entry.done = true
	for index, candidate := range f.entries {
		if candidate == entry {
			f.entries = append(f.entries[:index], f.entries[index+1:]...)
			break
		}
	}
	return true
}

// takeDue removes one-shot entries due at or before target, moves
// tickers to their next deadline, and returns what should fire.
func (f *FakeClock) takeDue(target time.Time) []*fakeEntry {
	f.mu.Lock()
	defer f.mu.Unlock()

	var due, kept []*fakeEntry
	for _, entry := range f.entries {
		if entry.due.After(target) {
			kept = append(kept, entry)
			continue
		}
		due = append(due, entry)
		if entry.every > 0 {
			entry.due = entry.due.Add(entry.every)
			kept = append(kept, entry)
		} else {
			entry.done = true
		}
	}
	f.entries = kept
	sort.SliceStable(due, func(i, j int) bool { return due[i].due.Before(due[j].due) })
	return due
}
