// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

// Package guard decides what happens when a route is opened: wait for
// the identity check, send the user to sign in, to verification, or to
// their role's landing page, or render the route.
//
// Decide is a pure function. Enforce applies its redirects through a
// router.Navigator.
package guard

import (
	"github.com/connectx-campus/connectx/auth"
	"github.com/connectx-campus/connectx/router"
)

// Kind is the outcome of a guard decision.
type Kind string

const (
	KindLoading        Kind = "loading"
	KindLoadingStalled Kind = "loading_stalled"
	KindRedirect       Kind = "redirect"
	KindRender         Kind = "render"
	KindNotFound       Kind = "not_found"
)

// ReloadHint is shown with a stalled decision.
const ReloadHint = "Reload Page"

// Decision is the guard's answer for one route.
type Decision struct {
	Kind Kind

	// Location is the redirect target.
	Location string

	// Reason says which check produced the decision.
	Reason string
}

// Input is the state a decision is made from.
type Input struct {
	Auth auth.State

	// VerificationResolved is set once the verification status has
	// been fetched in this session.
	VerificationResolved bool
}

// Decide evaluates route. The verification check comes before the role
// check: an unverified student opening an admin route goes to /verify.
func Decide(route Route, input Input) Decision {
	state := input.Auth
	if state.Loading {
		if state.Stalled {
			return Decision{Kind: KindLoadingStalled, Reason: "identity check is taking too long"}
		}
		return Decision{Kind: KindLoading, Reason: "checking identity"}
	}

	if route.Public {
		if state.Authenticated {
			return redirect(Landing(state.User), "already signed in")
		}
		return Decision{Kind: KindRender}
	}
	if !state.Authenticated || state.User == nil {
		return redirect(router.Login, "not signed in")
	}

	policy, known := PolicyFor(state.User.Role)
	if !known {
		return redirect(router.Login, "unknown role "+string(state.User.Role))
	}

	if route.RequireVerification && policy.Verified {
		// The stored user may be out of date, so the fetched status
		// decides even when it says verified.
		if !input.VerificationResolved {
			return Decision{Kind: KindLoading, Reason: "checking verification"}
		}
		if !Verified(state.User) {
			return redirect(router.Verify, "identity not verified")
		}
	}

	if !route.Allows(state.User.Role) {
		return redirect(policy.Landing, "role "+string(state.User.Role)+" may not open "+route.Path)
	}
	return Decision{Kind: KindRender}
}

func redirect(location, reason string) Decision {
	return Decision{Kind: KindRedirect, Location: location, Reason: reason}
}

// Check looks path up and decides. Unknown paths are not found.
func Check(path string, input Input) Decision {
	route, ok := Lookup(path)
	if !ok {
		return Decision{Kind: KindNotFound, Reason: "no route " + path}
	}
	return Decide(route, input)
}

// Enforce decides for the navigator's current location and follows a
// redirect. A redirect to the current location is not repeated.
func Enforce(navigator *router.Navigator, input Input) Decision {
	decision := Check(navigator.Current(), input)
	if decision.Kind == KindRedirect {
		navigator.Navigate(decision.Location)
	}
	return decision
}
