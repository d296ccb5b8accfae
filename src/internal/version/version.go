// FILE: zkpauth/src/internal/version/version.go
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is set at compile time via -ldflags
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// String returns a formatted version string
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s, %s)", Version, GitCommit, BuildTime, runtime.Version())
}

// Short returns just the version tag
func Short() string {
	return Version
}

// Info returns build information for status reports
func Info() map[string]any {
	return map[string]any{
		"version":    Version,
		"git_commit": GitCommit,
		"build_time": BuildTime,
		"go_version": runtime.Version(),
	}
}
