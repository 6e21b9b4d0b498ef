// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/connectx-campus/connectx/api"
	"github.com/connectx-campus/connectx/auth"
	"github.com/connectx-campus/connectx/review"
	"github.com/connectx-campus/connectx/session"
	"github.com/connectx-campus/connectx/verification"
)

// ErrorCategory classifies command errors so scripts can decide
// whether to fix input, sign in again, or retry.
type ErrorCategory string

const (
	// CategoryValidation: bad arguments or input. Fix and retry.
	CategoryValidation ErrorCategory = "validation"

	// CategoryNotFound: the referenced record does not exist.
	CategoryNotFound ErrorCategory = "not_found"

	// CategoryForbidden: not signed in, or the role may not do this.
	CategoryForbidden ErrorCategory = "forbidden"

	// CategoryConflict: the request conflicts with current state, such
	// as an upload at the wrong step or a retry during the cooldown.
	CategoryConflict ErrorCategory = "conflict"

	// CategoryTransient: the server was unreachable or failed
	// temporarily. Retry later.
	CategoryTransient ErrorCategory = "transient"

	// CategoryInternal: anything else.
	CategoryInternal ErrorCategory = "internal"
)

// ToolError is a categorized command error. Hint, when set, is printed
// after the message.
type ToolError struct {
	Category ErrorCategory
	Err      error
	Hint     string
}

func (e *ToolError) Error() string {
	if e.Hint == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + "\n\n" + e.Hint
}

func (e *ToolError) Unwrap() error { return e.Err }

// WithHint sets the hint and returns e.
func (e *ToolError) WithHint(hint string) *ToolError {
	e.Hint = hint
	return e
}

func newToolError(category ErrorCategory, format string, args []any) *ToolError {
	return &ToolError{Category: category, Err: fmt.Errorf(format, args...)}
}

// Validation returns a bad-input error.
func Validation(format string, args ...any) *ToolError {
	return newToolError(CategoryValidation, format, args)
}

// NotFound returns a missing-record error.
func NotFound(format string, args ...any) *ToolError {
	return newToolError(CategoryNotFound, format, args)
}

// Forbidden returns a permission error.
func Forbidden(format string, args ...any) *ToolError {
	return newToolError(CategoryForbidden, format, args)
}

// Conflict returns an error against current state.
func Conflict(format string, args ...any) *ToolError {
	return newToolError(CategoryConflict, format, args)
}

// Transient returns a temporary failure.
func Transient(format string, args ...any) *ToolError {
	return newToolError(CategoryTransient, format, args)
}

// Internal returns an unexpected failure.
func Internal(format string, args ...any) *ToolError {
	return newToolError(CategoryInternal, format, args)
}

// shownError carries the user-facing text of err while keeping err in
// the chain.
type shownError struct {
	text string
	err  error
}

func (e *shownError) Error() string { return e.text }
func (e *shownError) Unwrap() error { return e.err }

const loginHint = "Run 'connectx login <email>' to sign in."

// Classify categorizes any error returned by the client packages. A
// ToolError anywhere in the chain is returned as is; nil stays nil.
func Classify(err error) *ToolError {
	if err == nil {
		return nil
	}
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr
	}

	shown := &shownError{text: api.Message(err, err.Error()), err: err}
	wrap := func(category ErrorCategory) *ToolError {
		return &ToolError{Category: category, Err: shown}
	}

	var apiErr *api.Error
	switch {
	case errors.Is(err, session.ErrNoSession):
		return wrap(CategoryForbidden).WithHint(loginHint)
	case errors.Is(err, auth.ErrInvalidInput),
		errors.Is(err, verification.ErrNotImage),
		errors.Is(err, verification.ErrWrongStep):
		return wrap(CategoryValidation)
	case errors.Is(err, verification.ErrDuplicateUpload),
		errors.Is(err, verification.ErrUploadInFlight),
		errors.Is(err, verification.ErrRetryNotAllowed),
		errors.Is(err, review.ErrInFlight):
		return wrap(CategoryConflict)
	case errors.Is(err, review.ErrNotAdmin), errors.Is(err, review.ErrNotPermitted):
		return wrap(CategoryForbidden)
	case errors.Is(err, fs.ErrNotExist):
		return wrap(CategoryNotFound)
	case errors.Is(err, api.ErrUnreachable), errors.Is(err, context.DeadlineExceeded):
		return wrap(CategoryTransient)
	case errors.As(err, &apiErr):
		return wrap(categoryForStatus(apiErr.StatusCode)).WithHint(hintForStatus(apiErr.StatusCode))
	}
	return wrap(CategoryInternal)
}

func categoryForStatus(status int) ErrorCategory {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return CategoryForbidden
	case status == http.StatusNotFound:
		return CategoryNotFound
	case status == http.StatusConflict:
		return CategoryConflict
	case status == http.StatusTooManyRequests, status >= 500:
		return CategoryTransient
	case status >= 400:
		return CategoryValidation
	}
	return CategoryInternal
}

func hintForStatus(status int) string {
	if status == http.StatusUnauthorized {
		return loginHint
	}
	return ""
}
