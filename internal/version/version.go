package version

import (
	"runtime/debug"
	"strings"
)

var (
	// Version is the release version (set via -ldflags).
	Version = ""
	// Commit is the git commit hash (set via -ldflags).
	Commit = ""
	// BuildTime is the build timestamp (set via -ldflags).
	BuildTime = ""
)

type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
}

// Resolve prefers the linker-provided values and fills the gaps from the
// module build info stamped by the go command.
func Resolve() Info {
	return resolve(debug.ReadBuildInfo)
}

func resolve(read func() (*debug.BuildInfo, bool)) Info {
	info := Info{Version: Version, Commit: Commit, BuildTime: BuildTime}
	if bi, ok := read(); ok {
		if info.Version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = s.Value
				}
			case "vcs.time":
				if info.BuildTime == "" {
					info.BuildTime = s.Value
				}
			case "vcs.modified":
				info.Modified = s.Value == "true"
			}
		}
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	return info
}

func String() string {
	return Resolve().String()
}

func (i Info) String() string {
	var b strings.Builder
	b.WriteString(i.Version)
	if i.Commit != "" {
		b.WriteString(" (")
		b.WriteString(shortCommit(i.Commit))
		if i.Modified {
			b.WriteString(", modified")
		}
		b.WriteString(")")
	}
	return b.String()
}

func shortCommit(commit string) string {
	if len(commit) <= 12 {
		return commit
	}
	return commit[:12]
}
