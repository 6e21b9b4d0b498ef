// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/connectx-campus/connectx/lib/secret"
)

// SignupRequest is the account form. Password travels separately as a
// secret.Buffer.
type SignupRequest struct {
	Name      string `json:"name" validate:"required,min=2,max=80"`
	Username  string `json:"username" validate:"required,min=3,max=30,alphanum"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required,e164"`
	CollegeID string `json:"collegeId" validate:"required"`
	Batch     string `json:"batch" validate:"required,numeric,len=4"`
	Role      Role   `json:"role,omitempty" validate:"omitempty,oneof=student college_admin super_admin"`
}

// Login exchanges credentials for tokens. The password Buffer is read
// but not closed.
func (c *Client) Login(ctx context.Context, email string, password *secret.Buffer) (*AuthResult, error) {
	if email == "" || password == nil {
		return nil, errors.New("api: email and password are required")
	}
	body := map[string]string{"email": email, "password": password.String()}
	return c.authenticate(ctx, "/auth/login", body)
}

// Signup creates an account and returns its first tokens.
func (c *Client) Signup(ctx context.Context, request SignupRequest, password *secret.Buffer) (*AuthResult, error) {
	if password == nil {
		return nil, errors.New("api: password is required")
	}
	encoded, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}
	var body map[string]any
	if err := json.Unmarshal(encoded, &body); err != nil {
		return nil, err
	}
	body["password"] = password.String()
	return c.authenticate(ctx, "/auth/signup", body)
}

// Colleges lists the colleges offered on the signup form. It needs no
// session. The list is never nil, even alongside an error.
func (c *Client) Colleges(ctx context.Context) ([]College, error) {
	var colleges []College
	if err := c.get(ctx, "/auth/colleges", nil, &colleges); err != nil {
		c.logger.Warn("college list unavailable", "error", err)
		return []College{}, err
	}
	if colleges == nil {
		colleges = []College{}
	}
	return colleges, nil
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (*AuthResult, error) {
	decoded, err := c.call(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return nil, err
	}
	var result AuthResult
	if err := c.decodeData(http.MethodPost, path, decoded, &result); err != nil {
		return nil, err
	}
	if result.AccessToken == "" {
		return nil, &Error{StatusCode: http.StatusOK, Method: http.MethodPost, Path: path, Message: "server returned no access token"}
	}
	c.logger.Info("authenticated", "user_id", result.User.ID, "role", result.User.Role)
	return &result, nil
}

// Me fetches the account behind the current token.
func (c *Client) Me(ctx context.Context) (*User, error) {
	const path = "/auth/me"
	decoded, err := c.call(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	// Some deployments wrap the record as {"user": {...}}.
	var wrapped struct {
		User *User `json:"user"`
	}
	if err := c.decodeData(http.MethodGet, path, decoded, &wrapped); err == nil && wrapped.User != nil {
		return wrapped.User, nil
	}
	var user User
	if err := c.decodeData(http.MethodGet, path, decoded, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, errors.Join(ErrMalformed, errors.New("api: GET /auth/me: user has no id"))
	}
	return &user, nil
}

// OTPChannel selects email or phone one-time codes.
type OTPChannel string

const (
	OTPEmail OTPChannel = "email"
	OTPPhone OTPChannel = "phone"
)

// SendOTP asks the server to deliver a code to address.
func (c *Client) SendOTP(ctx context.Context, channel OTPChannel, address string) (string, error) {
	return c.mutate(ctx, http.MethodPost, "/auth/send-"+string(channel)+"-otp", map[string]string{string(channel): address})
}

// VerifyOTP confirms a delivered code.
func (c *Client) VerifyOTP(ctx context.Context, channel OTPChannel, address, code string) (string, error) {
	return c.mutate(ctx, http.MethodPost, "/auth/verify-"+string(channel)+"-otp",
		map[string]string{string(channel): address, "otp": code})
}
