// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

// Package review is the admin side of verification: the pending queue
// and the approve, reject, bypass and delete-user actions. A college
// admin's panel is scoped to their college; a super admin's is global.
//
// Destructive actions ask a Confirmer first and make no request when
// it declines. Every successful action refetches the lists it changed.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/connectx-campus/connectx/api"
	"github.com/connectx-campus/connectx/lib/clock"
	"github.com/connectx-campus/connectx/query"
)

// DefaultPollInterval is how often Watch refetches the pending queue.
const DefaultPollInterval = 30 * time.Second

var (
	// ErrDeclined is returned when the confirmation was declined.
	ErrDeclined = errors.New("review: declined")

	// ErrInFlight is returned while the same action is still running.
	ErrInFlight = errors.New("review: action already in progress")

	// ErrNotAdmin is returned by NewPanel for a non-admin role.
	ErrNotAdmin = errors.New("review: role has no review panel")

	// ErrNotPermitted is returned for an action outside the panel's
	// scope.
	ErrNotPermitted = errors.New("review: not permitted in this panel")
)

// Confirmer asks the operator a yes/no question and blocks for the
// answer.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Gateway is the part of api.Client the panel calls.
type Gateway interface {
	PendingVerifications(ctx context.Context, scope api.ReviewScope) ([]api.PendingVerification, error)
	DecideVerification(ctx context.Context, scope api.ReviewScope, verificationID string, decision api.VerificationStatus) (string, error)
	BypassVerification(ctx context.Context, userID string) (string, error)
	Users(ctx context.Context, scope api.ReviewScope) ([]api.User, error)
	DeleteUser(ctx context.Context, userID string) (string, error)
}

// Config configures a Panel.
type Config struct {
	Gateway Gateway
	Role    api.Role

	// Confirm answers the questions asked before reject, bypass and
	// delete. Nil declines everything.
	Confirm Confirmer

	// Cache holds the pending and user lists. A private cache is
	// created when nil.
	Cache *query.Cache

	Clock  clock.Clock
	Logger *slog.Logger
}

// Action names an operation for the in-flight guard and in failures.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionBypass  Action = "bypass"
	ActionDelete  Action = "delete"
)

// Failure is an action error carrying the text to show the operator.
type Failure struct {
	Action Action
	Toast  string
	Err    error
}

func (f *Failure) Error() string { return fmt.Sprintf("review: %s: %v", f.Action, f.Err) }
func (f *Failure) Unwrap() error { return f.Err }

// Panel is one admin's review surface. Safe for concurrent use.
type Panel struct {
	gateway Gateway
	scope   api.ReviewScope
	texts   texts
	confirm Confirmer
	cache   *query.Cache
	clock   clock.Clock
	logger  *slog.Logger

	mu       sync.Mutex
	inFlight map[Action]bool
}

// NewPanel returns the panel for role.
func NewPanel(config Config) (*Panel, error) {
	var scope api.ReviewScope
	switch config.Role {
	case api.RoleCollegeAdmin:
		scope = api.ScopeCollege
	case api.RoleSuperAdmin:
		scope = api.ScopeGlobal
	default:
		return nil, fmt.Errorf("%w: %q", ErrNotAdmin, config.Role)
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Cache == nil {
		config.Cache = query.New(config.Clock, config.Logger)
	}
	if config.Confirm == nil {
		config.Confirm = ConfirmFunc(func(string) bool { return false })
	}

	panel := &Panel{
		gateway:  config.Gateway,
		scope:    scope,
		texts:    textsFor(scope),
		confirm:  config.Confirm,
		cache:    config.Cache,
		clock:    config.Clock,
		logger:   config.Logger.With("scope", string(scope)),
		inFlight: make(map[Action]bool),
	}
	panel.cache.Register(panel.pendingKey(), func(ctx context.Context) (any, error) {
		return panel.gateway.PendingVerifications(ctx, panel.scope)
	})
	panel.cache.Register(panel.usersKey(), func(ctx context.Context) (any, error) {
		return panel.gateway.Users(ctx, panel.scope)
	})
	return panel, nil
}

// Scope returns the panel's scope.
func (p *Panel) Scope() api.ReviewScope { return p.scope }

func (p *Panel) pendingKey() string { return "review/pending/" + string(p.scope) }
func (p *Panel) usersKey() string   { return "review/users/" + string(p.scope) }

// Pending returns the pending queue, cached until the next action or
// Refresh.
func (p *Panel) Pending(ctx context.Context) ([]api.PendingVerification, error) {
	return query.FetchAs[[]api.PendingVerification](ctx, p.cache, p.pendingKey())
}

// Refresh refetches the pending queue.
func (p *Panel) Refresh(ctx context.Context) ([]api.PendingVerification, error) {
	value, err := p.cache.Invalidate(ctx, p.pendingKey())
	if err != nil {
		return nil, err
	}
	return value.([]api.PendingVerification), nil
}

// Users returns the college's students, or every user for a super
// admin.
func (p *Panel) Users(ctx context.Context) ([]api.User, error) {
	return query.FetchAs[[]api.User](ctx, p.cache, p.usersKey())
}

// Approve approves a verification record. It is not confirmed.
func (p *Panel) Approve(ctx context.Context, verificationID string) (string, error) {
	return p.run(ctx, ActionApprove, "", func(ctx context.Context) error {
		_, err := p.gateway.DecideVerification(ctx, p.scope, verificationID, api.StatusApproved)
		return err
	}, p.pendingKey(), p.usersKey())
}

// Reject rejects a verification record after confirmation.
func (p *Panel) Reject(ctx context.Context, verificationID string) (string, error) {
	return p.run(ctx, ActionReject, p.texts.confirmReject, func(ctx context.Context) error {
		_, err := p.gateway.DecideVerification(ctx, p.scope, verificationID, api.StatusRejected)
		return err
	}, p.pendingKey(), p.usersKey())
}

// Bypass marks a user verified without review, after confirmation.
func (p *Panel) Bypass(ctx context.Context, userID string) (string, error) {
	return p.run(ctx, ActionBypass, p.texts.confirmBypass, func(ctx context.Context) error {
		_, err := p.gateway.BypassVerification(ctx, userID)
		return err
	}, p.pendingKey(), p.usersKey())
}

// DeleteUser removes an account after confirmation. Super admins only.
func (p *Panel) DeleteUser(ctx context.Context, userID string) (string, error) {
	if p.scope != api.ScopeGlobal {
		return "", fmt.Errorf("%w: deleting users", ErrNotPermitted)
	}
	return p.run(ctx, ActionDelete, fmt.Sprintf(p.texts.confirmDelete, p.displayName(userID)), func(ctx context.Context) error {
		_, err := p.gateway.DeleteUser(ctx, userID)
		return err
	}, p.usersKey())
}

// displayName finds userID in the cached user list.
func (p *Panel) displayName(userID string) string {
	if users, ok := query.Get[[]api.User](p.cache, p.usersKey()); ok {
		for _, user := range users {
			if user.ID == userID && user.Name != "" {
				return user.Name
			}
		}
	}
	return userID
}

// run guards, confirms, performs and then invalidates. prompt is empty
// for actions that are not confirmed.
func (p *Panel) run(ctx context.Context, action Action, prompt string, perform func(context.Context) error, invalidate ...string) (string, error) {
	p.mu.Lock()
	if p.inFlight[action] {
		p.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrInFlight, action)
	}
	p.inFlight[action] = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		delete(p.inFlight, action)
		p.mu.Unlock()
	}()

	if prompt != "" && !p.confirm.Confirm(prompt) {
		p.logger.Debug("action declined", "action", action)
		return "", ErrDeclined
	}

	if err := perform(ctx); err != nil {
		return "", &Failure{Action: action, Toast: api.Message(err, p.texts.failed[action]), Err: err}
	}
	p.logger.Info("review action done", "action", action)

	for _, key := range invalidate {
		if _, err := p.cache.Invalidate(ctx, key); err != nil {
			p.logger.Warn("refetch after action failed", "action", action, "key", key, "error", err)
		}
	}
	return p.texts.done[action], nil
}

// Watch refetches the pending queue every interval until ctx ends,
// calling each with every result. Fetch errors are logged.
func (p *Panel) Watch(ctx context.Context, interval time.Duration, each func([]api.PendingVerification)) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := p.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		pending, err := p.Refresh(ctx)
		switch {
		case err != nil && ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			p.logger.Warn("pending queue refetch failed", "error", err)
		case each != nil:
			each(pending)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
