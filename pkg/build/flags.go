// SPDX-License-Identifier: MIT
//
// Package build exposes the build metadata embedded with -ldflags, for
// example:
//
//	go build -ldflags "-X lipsync/pkg/build.buildName=lipsync \
//	  -X lipsync/pkg/build.buildTime=2025-04-13T10:00:00Z \
//	  -X lipsync/pkg/build.buildCommit=abcdef1 \
//	  -X lipsync/pkg/build.buildVersion=v0.3.0"
//
// Development builds set none of the flags and report the defaults.
package build

import "fmt"

// Flags is the build metadata of the running binary.
type Flags struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

func (f Flags) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", f.Name, f.Version, f.Commit, f.Time)
}

// Populated by -ldflags.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = defaultFlags()
)

func defaultFlags() *Flags {
	return &Flags{
		Name:    "lipsync",
		Time:    "unknown",
		Commit:  "unknown",
		Version: "dev",
	}
}

// Initialize copies the ldflags values into the build information. A build
// that sets none of them keeps the development defaults; a build that sets
// only some of them is rejected.
func Initialize() error {
	if buildName == "" && buildTime == "" && buildCommit == "" && buildVersion == "" {
		return nil
	}
	if buildName == "" {
		return fmt.Errorf("BuildName is required")
	}
	if buildTime == "" {
		return fmt.Errorf("BuildTime is required")
	}
	if buildCommit == "" {
		return fmt.Errorf("BuildCommit is required")
	}
	if buildVersion == "" {
		return fmt.Errorf("BuildVersion is required")
	}

	buildFlags.Name = buildName
	buildFlags.Time = buildTime
	buildFlags.Commit = buildCommit
	buildFlags.Version = buildVersion

	return nil
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *Flags {
	return buildFlags
}
