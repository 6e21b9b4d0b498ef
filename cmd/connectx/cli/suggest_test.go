// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"verify", "verify", 0},
		{"verfy", "verify", 1},
		{"kitten", "sitting", 3},
		{"review", "reveiw", 2},
	}
	for _, test := range tests {
		if got := levenshtein(test.a, test.b); got != test.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
		}
	}
}

func TestSuggestCommand(t *testing.T) {
	commands := []*Command{{Name: "login"}, {Name: "logout"}, {Name: "verify"}}
	if got := suggestCommand("logni", commands); got != "login" {
		t.Errorf("suggestCommand(logni) = %q, want login", got)
	}
	if got := suggestCommand("coupons", commands); got != "" {
		t.Errorf("suggestCommand(coupons) = %q, want none", got)
	}
}

func TestSuggestFlag(t *testing.T) {
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flagSet.Bool("yes", false, "")
	flagSet.String("password-file", "", "")

	if got := suggestFlag([]string{"user@campus.edu", "--pasword-file=x"}, flagSet); got != "--password-file" {
		t.Errorf("suggestFlag = %q, want --password-file", got)
	}
	if got := suggestFlag([]string{"--", "--yse"}, flagSet); got != "" {
		t.Errorf("suggestFlag after -- = %q, want none", got)
	}
	if got := suggestFlag([]string{"--yes", "--completely-different"}, flagSet); got != "" {
		t.Errorf("suggestFlag = %q, want none", got)
	}
	if got := suggestFlag([]string{"--yse"}, nil); got != "" {
		t.Errorf("suggestFlag with nil set = %q", got)
	}
}
