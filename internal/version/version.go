// Package version carries build metadata injected through -ldflags.
package version

import (
	"fmt"
	"runtime/debug"
)

var (
	// Version is the release tag, set with -ldflags "-X .../version.Version=v1.2.3".
	Version = "dev"

	// Commit is the git short hash of the build.
	Commit = "unknown"

	// Date is the build timestamp.
	Date = "unknown"
)

// Short returns Version, falling back to the module version recorded by
// `go install` when no tag was injected.
func Short() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}

// String is the one-line form printed by `httpme version`.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Short(), Commit, Date)
}
