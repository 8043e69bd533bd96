package main

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set at release time:
// -ldflags "-X main.Version=1.0.0 -X main.Commit=abc123 -X main.Date=2026-10-14"
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// VersionInfo describes the build. Binaries from go install carry no
// ldflags, so the module version and VCS stamp fill the gaps.
func VersionInfo() string {
	return versionInfo(debug.ReadBuildInfo)
}

func versionInfo(read func() (*debug.BuildInfo, bool)) string {
	version, commit, date := Version, Commit, Date
	if info, ok := read(); ok && info != nil {
		if version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			version = info.Main.Version
		}
		for _, s := range info.Settings {
			switch {
			case s.Key == "vcs.revision" && commit == "none":
				commit = shortRevision(s.Value)
			case s.Key == "vcs.time" && date == "unknown":
				date = s.Value
			}
		}
	}
	return fmt.Sprintf("issuedash %s (commit: %s, built: %s, %s/%s)",
		version, commit, date, runtime.GOOS, runtime.GOARCH)
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}
