// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

// Package auth resolves who is signed in. It owns the transitions of
// the auth state {authenticated, user, loading}: the initial identity
// check against /auth/me, login, signup, logout, and the forced logout
// that follows a 401.
package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/connectx-campus/connectx/api"
	"github.com/connectx-campus/connectx/lib/clock"
	"github.com/connectx-campus/connectx/lib/secret"
	"github.com/connectx-campus/connectx/router"
	"github.com/connectx-campus/connectx/session"
)

// DefaultStallTimeout is how long the identity check may run before
// State reports Stalled.
const DefaultStallTimeout = 10 * time.Second

// State is the auth state the route guard consumes.
type State struct {
	Authenticated bool
	User          *api.User
	Loading       bool

	// Stalled is set while Loading once the identity check has run
	// longer than the stall timeout. The check itself is not aborted.
	Stalled bool
}

// Gateway is the part of api.Client the resolver needs.
type Gateway interface {
	Me(ctx context.Context) (*api.User, error)
	Login(ctx context.Context, email string, password *secret.Buffer) (*api.AuthResult, error)
	Signup(ctx context.Context, request api.SignupRequest, password *secret.Buffer) (*api.AuthResult, error)
}

// Config holds the resolver's collaborators.
type Config struct {
	Gateway   Gateway
	Store     *session.Store
	Navigator *router.Navigator
	// Clock defaults to clock.Real().
	Clock clock.Clock
	// StallTimeout defaults to DefaultStallTimeout.
	StallTimeout time.Duration
	// OnChange, when set, is called after every state transition.
	OnChange func(State)
	Logger   *slog.Logger
}

// Resolver tracks the auth state. Safe for concurrent use.
type Resolver struct {
	gateway      Gateway
	store        *session.Store
	navigator    *router.Navigator
	clock        clock.Clock
	stallTimeout time.Duration
	onChange     func(State)
	logger       *slog.Logger

	mu      sync.Mutex
	loading bool
	stalled bool
}

// NewResolver returns a resolver. It starts loading if the store holds
// a token, because that token has not been checked yet.
func NewResolver(config Config) *Resolver {
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.StallTimeout <= 0 {
		config.StallTimeout = DefaultStallTimeout
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Resolver{
		gateway:      config.Gateway,
		store:        config.Store,
		navigator:    config.Navigator,
		clock:        config.Clock,
		stallTimeout: config.StallTimeout,
		onChange:     config.OnChange,
		logger:       config.Logger,
		loading:      config.Store.HasToken(),
	}
}

// State returns the current auth state.
func (r *Resolver) State() State {
	r.mu.Lock()
	loading, stalled := r.loading, r.stalled
	r.mu.Unlock()

	state := State{Loading: loading, Stalled: loading && stalled}
	if !loading {
		state.User = r.store.User()
		state.Authenticated = state.User != nil && r.store.HasToken()
	}
	return state
}

func (r *Resolver) setLoading(loading, stalled bool) {
	r.mu.Lock()
	r.loading, r.stalled = loading, stalled
	r.mu.Unlock()
	r.notify()
}

func (r *Resolver) notify() {
	if r.onChange != nil {
		r.onChange(r.State())
	}
}

// Resolve checks the stored token against /auth/me and blocks until
// the server answers. Without a token it returns the signed-out state
// immediately. A failed check clears the session.
func (r *Resolver) Resolve(ctx context.Context) State {
	if !r.store.HasToken() {
		r.setLoading(false, false)
		return r.State()
	}
	r.setLoading(true, false)

	stall := r.clock.AfterFunc(r.stallTimeout, func() {
		r.mu.Lock()
		wasLoading := r.loading
		if wasLoading {
			r.stalled = true
		}
		r.mu.Unlock()
		if wasLoading {
			r.logger.Warn("identity check is taking longer than expected", "timeout", r.stallTimeout)
			r.notify()
		}
	})
	defer stall.Stop()

	if expiry, ok := r.store.TokenExpiry(); ok && !expiry.After(r.clock.Now()) {
		r.logger.Debug("access token looks expired, asking the server anyway", "expiry", expiry)
	}

	user, err := r.gateway.Me(ctx)
	if err != nil {
		r.logger.Warn("identity check failed, signing out", "error", err)
		if clearErr := r.store.Clear(); clearErr != nil {
			r.logger.Error("clearing session", "error", clearErr)
		}
		r.setLoading(false, false)
		return r.State()
	}
	if err := r.store.SetUser(*user); err != nil {
		r.logger.Warn("caching user", "error", err)
	}
	r.setLoading(false, false)
	return r.State()
}

// Refresh replaces the cached user with a fresher copy, such as the
// user embedded in a verification status report.
func (r *Resolver) Refresh(user api.User) {
	if err := r.store.SetUser(user); err != nil {
		r.logger.Debug("not caching user", "error", err)
		return
	}
	r.notify()
}

// Login authenticates and establishes the session.
func (r *Resolver) Login(ctx context.Context, email string, password *secret.Buffer) (*api.User, error) {
	if err := validateLogin(email, password); err != nil {
		return nil, err
	}
	result, err := r.gateway.Login(ctx, email, password)
	if err != nil {
		return nil, &Failure{Message: api.Message(err, LoginFailedMessage), Err: err}
	}
	return r.establish(result)
}

// Signup validates the form, creates the account, and establishes the
// session.
func (r *Resolver) Signup(ctx context.Context, request api.SignupRequest, password *secret.Buffer) (*api.User, error) {
	if err := ValidateSignup(request, password); err != nil {
		return nil, err
	}
	result, err := r.gateway.Signup(ctx, request, password)
	if err != nil {
		return nil, &Failure{Message: api.Message(err, SignupFailedMessage), Err: err}
	}
	return r.establish(result)
}

func (r *Resolver) establish(result *api.AuthResult) (*api.User, error) {
	if err := r.store.Establish(result); err != nil {
		return nil, err
	}
	r.setLoading(false, false)
	user := result.User
	return &user, nil
}

// Logout clears the session and returns to the login page.
func (r *Resolver) Logout() error {
	err := r.store.Clear()
	r.setLoading(false, false)
	r.navigator.Navigate(router.Login)
	return err
}
