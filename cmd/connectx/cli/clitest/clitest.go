// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

// Package clitest runs connectx commands against a fake backend. Each
// [Env] owns a temporary config and session file, pointed at an
// httptest server, and captures command output.
package clitest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/connectx-campus/connectx/api"
	"github.com/connectx-campus/connectx/cmd/connectx/cli"
	"github.com/connectx-campus/connectx/session"
)

// Env is one command-test environment.
type Env struct {
	t           *testing.T
	Server      *httptest.Server
	SessionPath string

	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []Request
}

// Request is a recorded backend call.
type Request struct {
	Method string
	Path   string
	Body   string
	Token  string
}

// New starts the backend and points CONNECTX_CONFIG at a config for it.
// Routes are added with [Env.Handle]; unknown routes answer 404.
func New(t *testing.T) *Env {
	t.Helper()
	env := &Env{t: t, routes: make(map[string]http.HandlerFunc)}
	env.Server = httptest.NewServer(http.HandlerFunc(env.serve))
	t.Cleanup(env.Server.Close)

	dir := t.TempDir()
	env.SessionPath = filepath.Join(dir, "session.json")
	config := fmt.Sprintf(`api:
  base_url: %s/api
  timeout: 5s
session:
  path: %s
verification:
  refetch_delay: 10ms
cache:
  snapshot_path: ""
log:
  level: error
`, env.Server.URL, env.SessionPath)
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(config), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONNECTX_CONFIG", configPath)
	t.Setenv("CONNECTX_API_URL", "")
	return env
}

// Handle registers handler for "METHOD /path", the path relative to
// the API root.
func (e *Env) Handle(pattern string, handler http.HandlerFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.routes[pattern] = handler
}

// Reply registers a route that answers a success envelope around data.
func (e *Env) Reply(pattern string, data any) {
	e.Handle(pattern, func(w http.ResponseWriter, r *http.Request) { WriteData(w, data) })
}

// Fail registers a route that answers an error envelope.
func (e *Env) Fail(pattern string, status int, message string) {
	e.Handle(pattern, func(w http.ResponseWriter, r *http.Request) { WriteError(w, status, message) })
}

func (e *Env) serve(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api")
	body, _ := io.ReadAll(r.Body)

	e.mu.Lock()
	e.requests = append(e.requests, Request{
		Method: r.Method,
		Path:   path,
		Body:   string(body),
		Token:  strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "),
	})
	handler := e.routes[r.Method+" "+path]
	e.mu.Unlock()

	if handler == nil {
		WriteError(w, http.StatusNotFound, "no route "+path)
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	handler(w, r)
}

// Requests returns the calls made so far.
func (e *Env) Requests() []Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Request(nil), e.requests...)
}

// Count returns how many calls matched "METHOD /path".
func (e *Env) Count(pattern string) int {
	count := 0
	for _, request := range e.Requests() {
		if request.Method+" "+request.Path == pattern {
			count++
		}
	}
	return count
}

// SignIn stores a session for user.
func (e *Env) SignIn(user api.User) {
	e.t.Helper()
	backend := session.FileBackend{Path: e.SessionPath}
	if err := backend.Save(&session.Record{AccessToken: "token-" + user.ID, User: &user}); err != nil {
		e.t.Fatal(err)
	}
}

// StoredUser returns the user in the session file, or nil when signed
// out.
func (e *Env) StoredUser() *api.User {
	e.t.Helper()
	record, err := session.FileBackend{Path: e.SessionPath}.Load()
	if err != nil {
		return nil
	}
	return record.User
}

// Run executes args against root and returns stdout. Stdin answers
// prompts.
func (e *Env) Run(root *cli.Command, stdin string, args ...string) (string, error) {
	e.t.Helper()
	var stdout, stderr bytes.Buffer
	previousOut, previousErr, previousIn := cli.Stdout, cli.Stderr, cli.Stdin
	cli.Stdout, cli.Stderr, cli.Stdin = &stdout, &stderr, strings.NewReader(stdin)
	defer func() { cli.Stdout, cli.Stderr, cli.Stdin = previousOut, previousErr, previousIn }()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	err := root.Execute(context.Background(), args, logger)
	return stdout.String(), err
}

// WriteData writes {"success": true, "data": data}.
func WriteData(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

// WriteMessage writes a success envelope with a message and no data.
func WriteMessage(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true, "message": message})
}

// WriteError writes {"success": false, "message": message} with status.
func WriteError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "message": message})
}
