// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/connectx-campus/connectx/api"
	"github.com/connectx-campus/connectx/lib/secret"
)

// Messages shown when the server gives no reason.
const (
	LoginFailedMessage  = "Login failed. Please check your credentials."
	SignupFailedMessage = "Signup failed. Please try again."
)

// MinPasswordLength is enforced before signup is sent.
const MinPasswordLength = 8

// Failure is an auth error with the message to show the user.
type Failure struct {
	Message string
	Err     error
}

func (f *Failure) Error() string { return f.Message }
func (f *Failure) Unwrap() error { return f.Err }

// ErrInvalidInput is wrapped by every local validation Failure.
var ErrInvalidInput = errors.New("invalid input")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validateLogin(email string, password *secret.Buffer) error {
	var problems []string
	if err := validate.Var(email, "required,email"); err != nil {
		problems = append(problems, "email must be a valid address")
	}
	if password == nil || password.Len() == 0 {
		problems = append(problems, "password is required")
	}
	return failure(problems)
}

// ValidateSignup checks the signup form locally and reports every
// problem at once. Signup calls it before anything is sent.
func ValidateSignup(request api.SignupRequest, password *secret.Buffer) error {
	var problems []string
	if err := validate.Struct(request); err != nil {
		var fieldErrors validator.ValidationErrors
		if !errors.As(err, &fieldErrors) {
			return fmt.Errorf("auth: validating signup: %w", err)
		}
		for _, fieldError := range fieldErrors {
			problems = append(problems, describe(fieldError))
		}
	}
	if password == nil || password.Len() < MinPasswordLength {
		problems = append(problems, fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	return failure(problems)
}

func failure(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return &Failure{Message: strings.Join(problems, "; "), Err: ErrInvalidInput}
}

func describe(fieldError validator.FieldError) string {
	field := fieldError.Field()
	switch fieldError.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid address"
	case "e164":
		return field + " must be in international format, e.g. +919876543210"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fieldError.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fieldError.Param())
	case "len":
		return fmt.Sprintf("%s must be %s characters", field, fieldError.Param())
	case "alphanum":
		return field + " may only contain letters and digits"
	case "numeric":
		return field + " must be a number"
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, fieldError.Param())
	}
	return fmt.Sprintf("%s is invalid (%s)", field, fieldError.Tag())
}
