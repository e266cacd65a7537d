// Package version reports the build version of fisinject.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

// Set at build time via ldflags:
//
//	go build -ldflags="-X github.com/muurk/fisinject/internal/version.Version=v1.2.3 \
//	                   -X github.com/muurk/fisinject/internal/version.Commit=abc123"
//
// Unset values are filled from the embedded build info when available.
var (
	Version = ""
	Commit  = ""
)

// Info describes the running binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Modified  bool   `json:"modified,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

var current Info

func init() {
	bi, _ := debug.ReadBuildInfo()
	current = resolve(Version, Commit, bi)
	Version, Commit = current.Version, current.Commit
}

// resolve merges ldflags values with build info. ldflags always win.
func resolve(version, commit string, bi *debug.BuildInfo) Info {
	info := Info{
		Version:   version,
		Commit:    commit,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	if bi != nil {
		var revision string
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				revision = s.Value
			case "vcs.modified":
				info.Modified = s.Value == "true"
			case "vcs.time":
				info.BuildTime = s.Value
			}
		}

		if info.Commit == "" && revision != "" {
			info.Commit = shortRevision(revision)
			if info.Modified {
				info.Commit += "-dirty"
			}
		}
		// go install module@version records a real module version.
		if info.Version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
		if info.Version == "" && info.BuildTime != "" {
			if t, err := time.Parse(time.RFC3339, info.BuildTime); err == nil {
				info.Version = "dev-" + t.Format("20060102")
			}
		}
	}

	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Commit == "" {
		info.Commit = "unknown"
	}
	return info
}

func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// Get returns the resolved build information.
func Get() Info {
	return current
}

// Full returns the version with its commit.
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", current.Version, current.Commit)
}
