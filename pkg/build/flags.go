// SPDX-License-Identifier: MIT
// Package build exposes metadata embedded at compile time via -ldflags:
// application name, build timestamp, git commit and semantic version.
package build

// Populated by -ldflags during compilation; development builds keep the
// defaults.
var (
	buildName    = "emberlight"
	buildTime    = "unknown"
	buildCommit  = "unknown"
	buildVersion = "dev"
)

// Info holds the resolved build metadata.
type Info struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

// GetInfo returns the build metadata for this binary.
func GetInfo() Info {
	return Info{
		Name:    buildName,
		Time:    buildTime,
		Commit:  buildCommit,
		Version: buildVersion,
	}
}
