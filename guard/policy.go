// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package guard

import (
	"github.com/connectx-campus/connectx/api"
	"github.com/connectx-campus/connectx/router"
)

// Policy is what the guard knows about one role.
type Policy struct {
	Role api.Role

	// Landing is where the role is sent after sign-in and when it
	// opens a route it may not see.
	Landing string

	// Verified means the role must pass identity verification before
	// routes that require it.
	Verified bool
}

// The role set is closed: an unknown role gets no policy.
var policies = map[api.Role]Policy{
	api.RoleStudent:      {Role: api.RoleStudent, Landing: router.Home, Verified: true},
	api.RoleCollegeAdmin: {Role: api.RoleCollegeAdmin, Landing: router.College},
	api.RoleSuperAdmin:   {Role: api.RoleSuperAdmin, Landing: router.AdminDashboard},
}

// PolicyFor returns the policy of role.
func PolicyFor(role api.Role) (Policy, bool) {
	policy, ok := policies[role]
	return policy, ok
}

// Landing returns the landing route of user, or the login page for a
// missing user or an unknown role.
func Landing(user *api.User) string {
	if user == nil {
		return router.Login
	}
	if policy, ok := policies[user.Role]; ok {
		return policy.Landing
	}
	return router.Login
}

// Verified reports whether user may use verification-gated routes.
func Verified(user *api.User) bool {
	if user == nil {
		return false
	}
	return user.EmailVerified && user.PhoneVerified &&
		(user.VerifiedStatus == api.StatusApproved || user.BypassVerified)
}
