// Package version holds the ponderous build version. Release builds set it
// with ldflags:
//
//	go build -ldflags "-X github.com/danethurber/ponderous/internal/version.Version=v0.3.0" ./cmd/ponderous
package version

import "runtime/debug"

// Version defaults to "dev" for local builds.
var Version = "dev"

// GetVersion returns the build version. Builds installed with go install
// report their module version when no ldflags value was set.
func GetVersion() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}
