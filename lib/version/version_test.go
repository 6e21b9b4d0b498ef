// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"strings"
	"testing"
)

func TestFull(t *testing.T) {
	full := Full()
	if !strings.HasPrefix(full, "connectx "+Version+" (") {
		t.Errorf("Full() = %q", full)
	}
	if !strings.Contains(full, "Platform: ") {
		t.Errorf("Full() lacks the platform: %q", full)
	}
}

func TestUserAgent(t *testing.T) {
	if got := UserAgent(); got != "connectx-cli/"+Version {
		t.Errorf("UserAgent() = %q", got)
	}
}
