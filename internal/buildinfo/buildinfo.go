package buildinfo

import "fmt"

// Set with -ldflags "-X peptrack/internal/buildinfo.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String is the line printed by the version command.
func String() string {
	return fmt.Sprintf("peptrack %s (commit=%s, date=%s)", Version, Commit, Date)
}
