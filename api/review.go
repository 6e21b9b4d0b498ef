// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"net/http"
	"net/url"
)

// ReviewScope selects the college-scoped or global review endpoints.
type ReviewScope string

const (
	ScopeCollege ReviewScope = "college"
	ScopeGlobal  ReviewScope = "admin"
)

// PendingVerifications lists records awaiting a decision in scope.
func (c *Client) PendingVerifications(ctx context.Context, scope ReviewScope) ([]PendingVerification, error) {
	var pending []PendingVerification
	if err := c.get(ctx, "/"+string(scope)+"/verifications/pending", nil, &pending); err != nil {
		if err := c.orDefault(err, "pending verifications"); err != nil {
			return nil, err
		}
	}
	if pending == nil {
		pending = []PendingVerification{}
	}
	return pending, nil
}

// DecideVerification sets a record to approved or rejected.
func (c *Client) DecideVerification(ctx context.Context, scope ReviewScope, verificationID string, decision VerificationStatus) (string, error) {
	path := "/" + string(scope) + "/verifications/" + url.PathEscape(verificationID)
	return c.mutate(ctx, http.MethodPut, path, map[string]VerificationStatus{"status": decision})
}

// BypassVerification marks a user verified without a review. Super
// admin only.
func (c *Client) BypassVerification(ctx context.Context, userID string) (string, error) {
	return c.mutate(ctx, http.MethodPost, "/admin/verification/bypass", map[string]string{"userId": userID})
}

// Users lists the accounts visible in scope: the college's students,
// or every user for super admins.
func (c *Client) Users(ctx context.Context, scope ReviewScope) ([]User, error) {
	path := "/admin/users"
	if scope == ScopeCollege {
		path = "/college/students"
	}
	var users []User
	if err := c.get(ctx, path, nil, &users); err != nil {
		if err := c.orDefault(err, "users"); err != nil {
			return nil, err
		}
	}
	if users == nil {
		users = []User{}
	}
	return users, nil
}

// DeleteUser removes an account. Super admin only.
func (c *Client) DeleteUser(ctx context.Context, userID string) (string, error) {
	return c.mutate(ctx, http.MethodDelete, "/admin/users/"+url.PathEscape(userID), nil)
}
