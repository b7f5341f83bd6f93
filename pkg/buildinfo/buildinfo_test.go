package buildinfo

import (
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func stubBuildInfo(t *testing.T, bi *debug.BuildInfo) {
	t.Helper()
	orig := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, bi != nil }
	t.Cleanup(func() { readBuildInfo = orig })
}

func stubVar(t *testing.T, v *string, value string) {
	t.Helper()
	orig := *v
	*v = value
	t.Cleanup(func() { *v = orig })
}

func TestReadFromToolchain(t *testing.T) {
	stubBuildInfo(t, &debug.BuildInfo{
		GoVersion: "go1.25.3",
		Main:      debug.Module{Version: "v0.4.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
			{Key: "vcs.modified", Value: "true"},
			{Key: "-tags", Value: "netgo"},
		},
	})

	info := Read()
	assert.Equal(t, "v0.4.0", info.Version)
	assert.Equal(t, "go1.25.3", info.Go.Version)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Go.Platform)
	assert.Equal(t, "netgo", info.Go.Tags)
	assert.Equal(t, "abc123", info.Git.CommitHash)
	assert.Equal(t, "2026-01-02T03:04:05Z", info.Git.CommitDatetime)
	assert.True(t, info.Git.Modified)
}

func TestLinkerValuesWin(t *testing.T) {
	stubBuildInfo(t, &debug.BuildInfo{
		Main:     debug.Module{Version: "v0.4.0"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "abc123"}},
	})
	stubVar(t, &Version, "v1.2.3")
	stubVar(t, &Commit, "def456")
	stubVar(t, &Branch, "main")
	stubVar(t, &BuildTime, "2026-02-03T00:00:00Z")

	info := Read()
	assert.Equal(t, "v1.2.3", info.Version)
	assert.Equal(t, "def456", info.Git.CommitHash)
	assert.Equal(t, "main", info.Git.Branch)
	assert.Equal(t, "2026-02-03T00:00:00Z", info.BuildTime)
}

func TestReadWithoutBuildInfo(t *testing.T) {
	stubBuildInfo(t, nil)

	info := Read()
	assert.Equal(t, "(devel)", info.Version)
	assert.Equal(t, runtime.Version(), info.Go.Version)
	assert.False(t, info.Git.Modified)
}
