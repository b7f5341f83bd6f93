// Package buildinfo reports what was built, when, and from which commit.
//
// Values set at link time take priority over what the Go toolchain embeds:
//
//	go build -ldflags "-X github.com/Goden-Gun/balthazar/pkg/buildinfo.Version=v1.2.3"
package buildinfo

import (
	"runtime"
	"runtime/debug"
)

// Set with -ldflags "-X ...".
var (
	Version   = ""
	Commit    = ""
	Branch    = ""
	BuildTime = ""
)

// Info is the build metadata served by the example binary.
type Info struct {
	Version   string  `json:"version"`
	BuildTime string  `json:"build_time,omitempty"`
	Go        GoInfo  `json:"go"`
	Git       GitInfo `json:"git"`
}

type GoInfo struct {
	Version  string `json:"version"`
	Platform string `json:"platform"`
	Tags     string `json:"tags,omitempty"`
}

type GitInfo struct {
	Branch         string `json:"branch,omitempty"`
	CommitHash     string `json:"commit_hash,omitempty"`
	CommitDatetime string `json:"commit_datetime,omitempty"`
	Modified       bool   `json:"modified"`
}

var readBuildInfo = debug.ReadBuildInfo

// Read collects the build metadata of the running binary.
func Read() Info {
	info := Info{
		Version:   Version,
		BuildTime: BuildTime,
		Go: GoInfo{
			Version:  runtime.Version(),
			Platform: runtime.GOOS + "/" + runtime.GOARCH,
		},
		Git: GitInfo{Branch: Branch, CommitHash: Commit},
	}

	if bi, ok := readBuildInfo(); ok {
		if info.Version == "" {
			info.Version = bi.Main.Version
		}
		if bi.GoVersion != "" {
			info.Go.Version = bi.GoVersion
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Git.CommitHash == "" {
					info.Git.CommitHash = s.Value
				}
			case "vcs.time":
				info.Git.CommitDatetime = s.Value
			case "vcs.modified":
				info.Git.Modified = s.Value == "true"
			case "-tags":
				info.Go.Tags = s.Value
			}
		}
	}
	if info.Version == "" {
		info.Version = "(devel)"
	}
	return info
}
