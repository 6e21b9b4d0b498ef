// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

// Package query caches the results of read endpoints by key. A
// fetcher is registered per key; Invalidate refetches it. Concurrent
// refetches of one key are allowed and the last one to finish wins.
//
// Entries can be persisted to a CBOR snapshot so a CLI invocation can
// show the previous result while the next fetch is running.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/connectx-campus/connectx/lib/clock"
	"github.com/connectx-campus/connectx/lib/codec"
)

// Fetcher produces the value for a key.
type Fetcher func(ctx context.Context) (any, error)

// Entry is a cached result.
type Entry struct {
	Value     any
	FetchedAt time.Time
	// Stale is set by MarkStale and cleared by the next fetch.
	Stale bool

	// raw holds a snapshot value not yet decoded into its type.
	raw codec.RawMessage
}

// Cache is a keyed result cache. Safe for concurrent use.
type Cache struct {
	clock  clock.Clock
	logger *slog.Logger

	mu          sync.Mutex
	fetchers    map[string]Fetcher
	entries     map[string]*Entry
	generation  map[string]uint64
	subscribers map[string][]func(any)
}

// New returns an empty cache. Nil arguments use clock.Real and
// slog.Default.
func New(timeSource clock.Clock, logger *slog.Logger) *Cache {
	if timeSource == nil {
		timeSource = clock.Real()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		clock:       timeSource,
		logger:      logger,
		fetchers:    make(map[string]Fetcher),
		entries:     make(map[string]*Entry),
		generation:  make(map[string]uint64),
		subscribers: make(map[string][]func(any)),
	}
}

// Register sets the fetcher for key, replacing any previous one.
func (c *Cache) Register(key string, fetcher Fetcher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchers[key] = fetcher
}

// Subscribe calls listener with every value stored under key.
func (c *Cache) Subscribe(key string, listener func(any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers[key] = append(c.subscribers[key], listener)
}

// Fetch returns the cached value, fetching when nothing is cached or
// the entry is stale.
func (c *Cache) Fetch(ctx context.Context, key string) (any, error) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	if ok && !entry.Stale && entry.raw == nil {
		value := entry.Value
		c.mu.Unlock()
		return value, nil
	}
	c.mu.Unlock()
	return c.Invalidate(ctx, key)
}

// Invalidate refetches key now and returns the new value. On error the
// previous entry is kept and marked stale.
func (c *Cache) Invalidate(ctx context.Context, key string) (any, error) {
	c.mu.Lock()
	fetcher, ok := c.fetchers[key]
	c.generation[key]++
	started := c.generation[key]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("query: no fetcher registered for %q", key)
	}

	value, err := fetcher(ctx)
	if err != nil {
		c.MarkStale(key)
		return nil, err
	}

	c.mu.Lock()
	if c.generation[key] != started {
		c.logger.Debug("refetch overtaken by a newer one", "key", key)
	}
	// Last finisher wins regardless of start order.
	c.entries[key] = &Entry{Value: value, FetchedAt: c.clock.Now()}
	listeners := slices.Clone(c.subscribers[key])
	c.mu.Unlock()

	for _, listener := range listeners {
		listener(value)
	}
	return value, nil
}

// MarkStale makes the next Fetch of key refetch.
func (c *Cache) MarkStale(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[key]; ok {
		entry.Stale = true
	}
}

// Peek returns the entry for key without fetching.
func (c *Cache) Peek(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}
	return *entry, true
}

// Get returns the cached value of key as T. A value restored from a
// snapshot is decoded into T on first use.
func Get[T any](c *Cache, key string) (T, bool) {
	var zero T
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if entry.raw != nil {
		var decoded T
		if err := codec.Unmarshal(entry.raw, &decoded); err != nil {
			c.logger.Warn("discarding undecodable snapshot entry", "key", key, "error", err)
			delete(c.entries, key)
			return zero, false
		}
		entry.Value, entry.raw = decoded, nil
		// A restored value is shown but always refetched.
		entry.Stale = true
	}
	typed, ok := entry.Value.(T)
	return typed, ok
}

// FetchAs is Fetch with a type assertion.
func FetchAs[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var zero T
	value, err := c.Fetch(ctx, key)
	if err != nil {
		return zero, err
	}
	typed, ok := value.(T)
	if !ok {
		return zero, fmt.Errorf("query: %q holds %T", key, value)
	}
	return typed, nil
}
