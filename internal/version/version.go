// Package version holds the build identification of the binary.
package version

import "fmt"

// Version is set at build time:
// go build -ldflags "-X git.home.luguber.info/inful/docsetbuilder/internal/version.Version=v1.0.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String describes the build for --version output.
func String() string {
	return fmt.Sprintf("docsetbuilder %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
