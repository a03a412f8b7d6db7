// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package version carries build metadata injected via ldflags.
package version

import "fmt"

// Info describes the running binary.
type Info struct {
	Version   string // git tag, "dev" for local builds
	GitCommit string
	BuildTime string // RFC3339
}

// String formats the banner printed by -version.
func (i Info) String() string {
	v := i.Version
	if v == "" {
		v = "dev"
	}
	commit, built := i.GitCommit, i.BuildTime
	if commit == "" {
		commit = "unknown"
	}
	if built == "" {
		built = "unknown"
	}
	return fmt.Sprintf("lumina %s (commit: %s, built: %s)", v, commit, built)
}
