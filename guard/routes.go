// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package guard

import (
	"slices"

	"github.com/connectx-campus/connectx/api"
	"github.com/connectx-campus/connectx/router"
)

// Route is an entry of the route table.
type Route struct {
	Path string

	// Public routes are the sign-in pages. Everything else requires
	// authentication.
	Public bool

	// Roles that may open the route. Empty means any signed-in role.
	Roles []api.Role

	// RequireVerification gates the route on identity verification for
	// roles whose policy demands it.
	RequireVerification bool
}

// Allows reports whether role may open the route.
func (r Route) Allows(role api.Role) bool {
	return len(r.Roles) == 0 || slices.Contains(r.Roles, role)
}

var routes = []Route{
	{Path: router.Home, Roles: []api.Role{api.RoleStudent}, RequireVerification: true},
	{Path: router.Verify, Roles: []api.Role{api.RoleStudent}},
	{Path: router.College, Roles: []api.Role{api.RoleCollegeAdmin}},
	{Path: router.Admin, Roles: []api.Role{api.RoleSuperAdmin}},
	{Path: router.AdminDashboard, Roles: []api.Role{api.RoleSuperAdmin}},
	{Path: router.Login, Public: true},
	{Path: router.Signup, Public: true},
}

// Routes returns a copy of the route table.
func Routes() []Route { return slices.Clone(routes) }

// Lookup finds the route for path.
func Lookup(path string) (Route, bool) {
	for _, route := range routes {
		if route.Path == path {
			return route, true
		}
	}
	return Route{}, false
}
