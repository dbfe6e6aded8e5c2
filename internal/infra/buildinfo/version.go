package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set through -ldflags -X.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info is the build description reported by both binaries.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// Get returns the linked values. When no commit was injected the VCS
// revision recorded by the go tool is used instead.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
	if info.Commit == "unknown" {
		if rev, ok := vcsRevision(); ok {
			info.Commit = rev
		}
	}
	return info
}

func vcsRevision() (string, bool) {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "", false
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			if len(s.Value) > 12 {
				return s.Value[:12], true
			}
			return s.Value, true
		}
	}
	return "", false
}

// String formats Info as "version (commit, goversion) built at time".
func (i Info) String() string {
	return fmt.Sprintf("%s (%s, %s) built at %s", i.Version, i.Commit, i.GoVersion, i.BuildTime)
}

// String is Get().String().
func String() string {
	return Get().String()
}
