// Package buildinfo names the running build.
package buildinfo

import "runtime/debug"

// Set at build time via -ldflags "-X powdemo/internal/buildinfo.Version=...".
var (
	Version = "dev"
	Commit  = ""
)

var readBuildInfo = debug.ReadBuildInfo

// Short returns the release version when one was stamped, otherwise a short
// VCS revision (with a "+dirty" suffix for modified trees), otherwise "dev".
func Short() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	rev, dirty := Commit, false
	if rev == "" {
		rev, dirty = vcsRevision()
	}
	if rev == "" {
		return "dev"
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if dirty {
		rev += "+dirty"
	}
	return rev
}

func vcsRevision() (rev string, dirty bool) {
	info, ok := readBuildInfo()
	if !ok {
		return "", false
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	return rev, dirty
}
