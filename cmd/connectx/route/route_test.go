// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package route

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/connectx-campus/connectx/api"
	"github.com/connectx-campus/connectx/cmd/connectx/cli"
	"github.com/connectx-campus/connectx/cmd/connectx/cli/clitest"
	"github.com/connectx-campus/connectx/guard"
)

func root() *cli.Command {
	return &cli.Command{Name: "connectx", Subcommands: []*cli.Command{Command()}}
}

func unverifiedStudent() api.User {
	return api.User{ID: "u-1", Name: "Asha", Role: api.RoleStudent, EmailVerified: true, PhoneVerified: true}
}

func check(t *testing.T, env *clitest.Env, path string) decisionOutput {
	t.Helper()
	output, err := env.Run(root(), "", "route", "check", path, "--json")
	if err != nil {
		t.Fatalf("route check %s: %v", path, err)
	}
	var decision decisionOutput
	if err := json.Unmarshal([]byte(output), &decision); err != nil {
		t.Fatalf("decoding %q: %v", output, err)
	}
	return decision
}

func TestCheckSignedOutRedirectsToLogin(t *testing.T) {
	env := clitest.New(t)
	decision := check(t, env, "/")
	if decision.Kind != guard.KindRedirect || decision.Location != "/login" {
		t.Errorf("decision = %+v", decision)
	}
}

func TestCheckUnverifiedStudentGoesToVerify(t *testing.T) {
	env := clitest.New(t)
	env.SignIn(unverifiedStudent())
	env.Reply("GET /auth/me", unverifiedStudent())
	user := unverifiedStudent()
	env.Reply("GET /student/verify/status", api.StatusReport{User: &user})

	decision := check(t, env, "/")
	if decision.Kind != guard.KindRedirect || decision.Location != "/verify" {
		t.Errorf("decision = %+v", decision)
	}
	if env.Count("GET /student/verify/status") != 1 {
		t.Error("verification status not fetched")
	}
}

func TestCheckVerifiedStudentRendersHome(t *testing.T) {
	env := clitest.New(t)
	verified := unverifiedStudent()
	verified.VerifiedStatus = api.StatusApproved
	env.SignIn(verified)
	env.Reply("GET /auth/me", verified)
	env.Reply("GET /student/verify/status", api.StatusReport{User: &verified})

	decision := check(t, env, "/")
	if decision.Kind != guard.KindRender {
		t.Errorf("decision = %+v", decision)
	}
	if env.Count("GET /student/verify/status") != 1 {
		t.Error("verification status not fetched for a verified student")
	}
}

func TestCheckStoredApprovalIsRechecked(t *testing.T) {
	env := clitest.New(t)
	stored := unverifiedStudent()
	stored.VerifiedStatus = api.StatusApproved
	env.SignIn(stored)
	env.Reply("GET /auth/me", stored)
	current := unverifiedStudent()
	current.VerifiedStatus = api.StatusRejected
	env.Reply("GET /student/verify/status", api.StatusReport{User: &current})

	decision := check(t, env, "/")
	if decision.Kind != guard.KindRedirect || decision.Location != "/verify" {
		t.Errorf("decision = %+v, want redirect to /verify", decision)
	}
}

func TestCheckStatusUnavailableShowsLoading(t *testing.T) {
	env := clitest.New(t)
	verified := unverifiedStudent()
	verified.VerifiedStatus = api.StatusApproved
	env.SignIn(verified)
	env.Reply("GET /auth/me", verified)
	env.Fail("GET /student/verify/status", 500, "status service down")

	decision := check(t, env, "/")
	if decision.Kind != guard.KindLoading {
		t.Errorf("decision = %+v, want loading", decision)
	}
}

func TestCheckAdminOnStudentRoute(t *testing.T) {
	env := clitest.New(t)
	admin := api.User{ID: "a-1", Role: api.RoleCollegeAdmin}
	env.SignIn(admin)
	env.Reply("GET /auth/me", admin)

	output, err := env.Run(root(), "", "route", "check", "verify")
	if err != nil {
		t.Fatalf("route check: %v", err)
	}
	if !strings.Contains(output, "/verify -> /college") {
		t.Errorf("output = %q", output)
	}
}

func TestList(t *testing.T) {
	env := clitest.New(t)
	output, err := env.Run(root(), "", "route", "list")
	if err != nil {
		t.Fatalf("route list: %v", err)
	}
	for _, want := range []string{"/login", "public", "/college", "college_admin", "students"} {
		if !strings.Contains(output, want) {
			t.Errorf("output lacks %q:\n%s", want, output)
		}
	}
}
