package app

import (
	"fmt"
	"runtime/debug"
)

// Version, Commit, and BuildTime are set via ldflags at build time.
// Example: go build -ldflags "-X github.com/emissioncoresupport/evidence-ledger/internal/app.Version=1.0.0"
// Without ldflags, Commit and BuildTime fall back to the VCS stamp of the binary.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// BuildVersion returns a formatted version string for startup logs and health endpoints.
func BuildVersion() string {
	commit, built := Commit, BuildTime
	if info, ok := debug.ReadBuildInfo(); ok {
		commit, built = vcsStamp(info.Settings, commit, built)
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, commit, built)
}

// vcsStamp fills unset commit and build time from vcs build settings.
func vcsStamp(settings []debug.BuildSetting, commit, built string) (string, string) {
	dirty, fromVCS := false, false
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if commit == "unknown" && s.Value != "" {
				commit, fromVCS = s.Value, true
				if len(commit) > 12 {
					commit = commit[:12]
				}
			}
		case "vcs.time":
			if built == "unknown" && s.Value != "" {
				built = s.Value
			}
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if dirty && fromVCS {
		commit += "-dirty"
	}
	return commit, built
}
