// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

// Package version carries build metadata. Release builds set it at link
// time:
//
//	go build -ldflags "-X github.com/connectx-campus/connectx/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// Without ldflags the VCS stamp the go command embeds is used.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var stamp = sync.OnceValues(func() (commit, built string) {
	commit, built = GitCommit, BuildTime
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return commit, built
	}
	modified := false
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if commit == "unknown" && len(setting.Value) >= 7 {
				commit = setting.Value[:7]
			}
		case "vcs.time":
			if built == "unknown" {
				built = setting.Value
			}
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	if modified && commit != "unknown" && GitCommit == "unknown" {
		commit += "-dirty"
	}
	return commit, built
})

// Info is the one-line form used in the User-Agent header.
func Info() string {
	commit, built := stamp()
	return fmt.Sprintf("%s (%s, %s)", Version, commit, built)
}

// Full is the multi-line form printed by "connectx version".
func Full() string {
	return fmt.Sprintf("connectx %s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// UserAgent identifies the client to the API.
func UserAgent() string { return "connectx-cli/" + Version }
