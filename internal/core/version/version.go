// Package version reports the build of the running binary
package version

import "runtime"

// BuildInfo describes one build
type BuildInfo struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
}

// Set with -ldflags, e.g.
// -X 'prtimeline/internal/core/version.version=v0.3.0' -X 'prtimeline/internal/core/version.commit=abcd'
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Info returns the build information of service
func Info(service string) BuildInfo {
	return BuildInfo{
		Service:   service,
		Version:   version,
		Commit:    commit,
		Date:      date,
		GoVersion: runtime.Version(),
	}
}
