package version

import (
	"runtime/debug"
	"strings"
)

// Set at release time through -ldflags; development builds fall back to
// the VCS metadata stamped into the binary.
var (
	Version = "0.1.0"
	Commit  = ""
	Date    = ""
)

// Resolve returns the version string shown to users. Release builds print
// the bare version; other builds append the short commit hash, with a
// "+dirty" marker when the working tree had local modifications.
func Resolve() string {
	return resolve(Version, Commit, readBuildInfo)
}

type vcsInfo struct {
	revision string
	modified bool
}

func resolve(base, commit string, buildInfo func() (vcsInfo, bool)) string {
	if base == "" {
		base = "0.0.0"
	}

	if commit == "" {
		if info, ok := buildInfo(); ok {
			commit = info.revision
			if info.modified {
				commit += "+dirty"
			}
		}
	}

	if commit == "" {
		return base
	}
	return base + "-" + shortCommit(commit)
}

func shortCommit(commit string) string {
	hash, marker, _ := strings.Cut(commit, "+")
	if len(hash) > 12 {
		hash = hash[:12]
	}
	if marker != "" {
		return hash + "+" + marker
	}
	return hash
}

func readBuildInfo() (vcsInfo, bool) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return vcsInfo{}, false
	}

	var out vcsInfo
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			out.revision = setting.Value
		case "vcs.modified":
			out.modified = setting.Value == "true"
		}
	}

	if out.revision == "" {
		return vcsInfo{}, false
	}
	return out, true
}
