// Package version holds build version information. It is a separate
// package so cli and api can both read it without an import cycle.
package version

// Version is the build version string, set by ldflags during release
// builds. Format: vX.Y.Z or vX.Y.Z-dev.
var Version = "v1.2.0-dev"

// BuildTime is the build timestamp, set by ldflags during build.
var BuildTime = "unknown"

// UserAgent returns the User-Agent header value for dashboard requests.
func UserAgent() string {
	return "kwforge/" + Version
}
