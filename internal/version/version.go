package version

import (
	"fmt"
	"runtime"
	"time"
)

// Overridden at build time with -ldflags "-X github.com/MrSnakeDoc/demogen/internal/version.Version=...".
var (
	Version   = "dev"                           // ex: v0.3.0
	Commit    = "none"                          // ex: abcd123
	BuildDate = time.Now().Format(time.RFC3339) // ex: 2026-10-01T09:12:00Z
	GoVersion = runtime.Version()
)

// String renders the build information on a single line.
func String() string {
	return fmt.Sprintf("demogen %s (commit=%s, built=%s, go=%s)", Version, Commit, BuildDate, GoVersion)
}
