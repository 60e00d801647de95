// Package version exposes build identification for the carbonmcp binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// BuildVersion is the application version, overridable at build time with
// -ldflags "-X github.com/greentrip/carbonmcp/pkg/version.BuildVersion=v1.2.3".
var BuildVersion = "dev"

// Info returns version details as labels suitable for metrics and health
// reporting.
func Info() map[string]string {
	info := map[string]string{
		"version":    BuildVersion,
		"go_version": runtime.Version(),
		"commit":     "unknown",
		"build_date": "unknown",
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range bi.Settings {
			switch setting.Key {
			case "vcs.revision":
				info["commit"] = setting.Value
			case "vcs.time":
				info["build_date"] = setting.Value
			}
		}
	}

	return info
}

// String renders a single-line human-readable version string.
func String() string {
	info := Info()
	return fmt.Sprintf("carbonmcp %s (commit %s, built %s, %s)",
		info["version"], info["commit"], info["build_date"], info["go_version"])
}
