// SPDX-License-Identifier: MIT
//
// Package build carries the metadata stamped into the binary at link time:
//
//	go build -ldflags "-X notetrack/pkg/build.buildName=notetrack \
//	    -X notetrack/pkg/build.buildVersion=0.3.0 \
//	    -X notetrack/pkg/build.buildCommit=$(git rev-parse --short HEAD) \
//	    -X notetrack/pkg/build.buildTime=$(date -u +%FT%TZ)"
//
// Development builds run without ldflags; Initialize reports which values are
// missing and the defaults stay in place.
package build

import (
	"errors"
	"fmt"
)

// Info is the build metadata exposed to the CLI and the startup log.
type Info struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// Package-level variables populated by -ldflags during compilation.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildInfo    = defaultInfo()
)

func defaultInfo() *Info {
	return &Info{
		Name:        "notetrack",
		Description: "Detect pitch and segment note onsets in monophonic audio",
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "dev",
	}
}

// Initialize copies the ldflags values into the build info. Every missing
// value is reported in the returned error; values that are present are still
// applied, so a partially stamped binary keeps what it has.
func Initialize() error {
	var errs []error
	apply := func(dst *string, src, flag string) {
		if src == "" {
			errs = append(errs, fmt.Errorf("%s is required", flag))
			return
		}
		*dst = src
	}

	apply(&buildInfo.Name, buildName, "BuildName")
	apply(&buildInfo.Time, buildTime, "BuildTime")
	apply(&buildInfo.Commit, buildCommit, "BuildCommit")
	apply(&buildInfo.Version, buildVersion, "BuildVersion")

	return errors.Join(errs...)
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *Info {
	return buildInfo
}

// Summary renders a one-line banner, e.g. "notetrack dev (unknown, built unknown)".
func (i *Info) Summary() string {
	return fmt.Sprintf("%s %s (%s, built %s)", i.Name, i.Version, i.Commit, i.Time)
}
