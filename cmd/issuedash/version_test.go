package main

import (
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionInfo_Defaults(t *testing.T) {
	got := versionInfo(func() (*debug.BuildInfo, bool) { return nil, false })
	assert.Equal(t, "issuedash dev (commit: none, built: unknown, "+runtime.GOOS+"/"+runtime.GOARCH+")", got)
}

func TestVersionInfo_FromBuildInfo(t *testing.T) {
	info := &debug.BuildInfo{
		Main: debug.Module{Version: "v1.2.3"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2026-10-01T09:00:00Z"},
		},
	}
	got := versionInfo(func() (*debug.BuildInfo, bool) { return info, true })
	assert.Contains(t, got, "issuedash v1.2.3 (commit: 0123456789ab, built: 2026-10-01T09:00:00Z,")
}

func TestVersionInfo_LdflagsWin(t *testing.T) {
	oldVersion, oldCommit := Version, Commit
	t.Cleanup(func() { Version, Commit = oldVersion, oldCommit })
	Version, Commit = "1.0.0", "abc123"

	info := &debug.BuildInfo{
		Main:     debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "ffff"}},
	}
	got := versionInfo(func() (*debug.BuildInfo, bool) { return info, true })
	assert.Contains(t, got, "issuedash 1.0.0 (commit: abc123, built: unknown,")
}
