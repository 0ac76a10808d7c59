// Package version holds build information injected at link time:
//
//	go build -ldflags "-X gettip/internal/version.Version=v1.0.0 -X gettip/internal/version.Commit=$(git rev-parse --short HEAD)"
package version

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info returns a one-line description of the build
func Info() string {
	return fmt.Sprintf("gettip %s (commit %s, built %s)", Version, Commit, Date)
}
