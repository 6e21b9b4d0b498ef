// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

// Package session holds the signed-in identity: the access token, the
// refresh token, and a cached copy of the user record. Store is the
// only writer of those three keys. The API client reads the token
// through the api.TokenSource interface and cannot modify it.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/connectx-campus/connectx/api"
	"github.com/connectx-campus/connectx/lib/secret"
)

// ErrNoSession means nothing is stored.
var ErrNoSession = errors.New("session: not signed in")

// Store is the in-memory session backed by a Backend. Safe for
// concurrent use.
type Store struct {
	mu      sync.RWMutex
	backend Backend
	logger  *slog.Logger

	access  *secret.Buffer
	refresh *secret.Buffer
	user    *api.User
}

// Open loads the stored session, if any. An unreadable record is
// logged and treated as signed out; the file is left in place.
func Open(backend Backend, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	store := &Store{backend: backend, logger: logger}

	record, err := backend.Load()
	switch {
	case errors.Is(err, ErrNoSession):
		return store, nil
	case err != nil:
		logger.Warn("ignoring unreadable session", "error", err)
		return store, nil
	}
	if err := store.adopt(record); err != nil {
		return nil, err
	}
	return store, nil
}

// adopt replaces the in-memory state with record. Caller holds mu or
// has exclusive access.
func (s *Store) adopt(record *Record) error {
	access, err := secret.NewFromString(record.AccessToken)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}
	var refresh *secret.Buffer
	if record.RefreshToken != "" {
		if refresh, err = secret.NewFromString(record.RefreshToken); err != nil {
			access.Close()
			return fmt.Errorf("session: %w", err)
		}
	}
	s.release()
	s.access, s.refresh, s.user = access, refresh, record.User
	return nil
}

func (s *Store) release() {
	if s.access != nil {
		s.access.Close()
	}
	if s.refresh != nil {
		s.refresh.Close()
	}
	s.access, s.refresh, s.user = nil, nil, nil
}

// AccessToken implements api.TokenSource.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.access == nil {
		return ""
	}
	return s.access.String()
}

// HasToken reports whether an access token is held.
func (s *Store) HasToken() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access != nil
}

// User returns a copy of the cached user, or nil.
func (s *Store) User() *api.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	copied := *s.user
	return &copied
}

// Establish stores the result of a login or signup.
func (s *Store) Establish(result *api.AuthResult) error {
	user := result.User
	record := &Record{AccessToken: result.AccessToken, RefreshToken: result.RefreshToken, User: &user}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.Save(record); err != nil {
		return err
	}
	if err := s.adopt(record); err != nil {
		return err
	}
	s.logger.Info("session established", "user_id", user.ID, "role", user.Role)
	return nil
}

// SetUser replaces the cached user after a fresh fetch. Without a
// token there is no session to update and ErrNoSession is returned.
func (s *Store) SetUser(user api.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.access == nil {
		return ErrNoSession
	}
	record := &Record{AccessToken: s.access.String(), User: &user}
	if s.refresh != nil {
		record.RefreshToken = s.refresh.String()
	}
	if err := s.backend.Save(record); err != nil {
		return err
	}
	s.user = &user
	return nil
}

// Clear removes all three keys.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	hadSession := s.access != nil
	s.release()
	if err := s.backend.Clear(); err != nil {
		return err
	}
	if hadSession {
		s.logger.Info("session cleared")
	}
	return nil
}

// TokenExpiry reads the exp claim of the access token without
// verifying its signature. The server remains the authority; this only
// informs display. ok is false when there is no token or no exp claim.
func (s *Store) TokenExpiry() (expiry time.Time, ok bool) {
	token := s.AccessToken()
	if token == "" {
		return time.Time{}, false
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	expiresAt, err := parsed.Claims.GetExpirationTime()
	if err != nil || expiresAt == nil {
		return time.Time{}, false
	}
	return expiresAt.Time, true
}

// Close zeroes the in-memory tokens. The persisted record is kept.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.release()
}
