package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "dev"             // ex: v0.1.0, set with -ldflags
	Commit    = "none"            // ex: abcd123
	BuildDate = "unknown"         // ex: 2025-08-11T18:42:00Z
	GoVersion = runtime.Version() // go version
)

// UserAgent is sent with every reachability probe.
func UserAgent() string {
	return fmt.Sprintf("Mozilla/5.0 (compatible; appvis/%s)", Version)
}
