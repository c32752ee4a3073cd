package version

import (
	"runtime/debug"
	"testing"
)

func TestResolveFromBuildInfo(t *testing.T) {
	t.Parallel()

	read := func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{
			Main: debug.Module{Version: "v0.3.1"},
			Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "0123456789abcdef0123"},
				{Key: "vcs.time", Value: "2026-10-01T12:00:00Z"},
				{Key: "vcs.modified", Value: "true"},
			},
		}, true
	}
	info := resolve(read)
	if info.Version != "v0.3.1" || info.BuildTime != "2026-10-01T12:00:00Z" {
		t.Fatalf("info: %+v", info)
	}
	if got := info.String(); got != "v0.3.1 (0123456789ab, modified)" {
		t.Fatalf("string: got %q", got)
	}
}

func TestResolveWithoutBuildInfo(t *testing.T) {
	t.Parallel()

	info := resolve(func() (*debug.BuildInfo, bool) { return nil, false })
	if info.Version != "dev" || info.String() != "dev" {
		t.Fatalf("info: %+v", info)
	}
	devel := resolve(func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}, true
	})
	if devel.Version != "dev" {
		t.Fatalf("devel build: got %q", devel.Version)
	}
}

func TestShortCommit(t *testing.T) {
	t.Parallel()

	if got := shortCommit("abc"); got != "abc" {
		t.Fatalf("short: got %q", got)
	}
	if got := shortCommit("0123456789abcdef"); got != "0123456789ab" {
		t.Fatalf("long: got %q", got)
	}
}
