// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import "github.com/pdiddy/scholar-stats/internal/failure"

// Exit codes of the scholar-stats binary. A fallback artifact is still a
// successful run.
const (
	ExitSuccess     = 0 // Artifact written, live or fallback
	ExitError       = 1 // Persistence or other runtime failure
	ExitConfigError = 2 // Missing profile id, partial proxy, bad flags
)

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case failure.IsConfiguration(err):
		return ExitConfigError
	default:
		return ExitError
	}
}
