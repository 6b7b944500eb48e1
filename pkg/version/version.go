// Package version exposes build version information.
package version

import "fmt"

// Set at build time via -ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// BuildInfo returns a human-readable version string.
func BuildInfo() string {
	return fmt.Sprintf("talentsift %s (commit %s, built %s)", Version, Commit, Date)
}
