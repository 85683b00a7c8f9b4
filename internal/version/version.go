package version

import "fmt"

//nolint:gochecknoglobals // Overridden with -ldflags "-X".
var (
	// Version is the semantic version of the build.
	Version = "0.1.0"
	// Commit is the short git SHA of the build.
	Commit = "none"
	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"
)

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full returns the version with commit and build time.
func Full() string {
	return fmt.Sprintf("presence-light %s (commit %s, built %s)", Version, Commit, BuildTime)
}
