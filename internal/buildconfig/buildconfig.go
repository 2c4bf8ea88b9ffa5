package buildconfig

import "fmt"

// Build-time variables injected via ldflags
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func Version() string {
	return version
}

func Commit() string {
	return commit
}

// VersionInfo returns full version information for the /version endpoint.
func VersionInfo() map[string]string {
	return map[string]string{
		"version":    version,
		"commit":     commit,
		"build_date": buildDate,
	}
}

// String renders the version line printed by the CLI.
func String() string {
	return fmt.Sprintf("skybot %s (commit %s, built %s)", version, commit, buildDate)
}
