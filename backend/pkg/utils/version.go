package utils

import (
	"fmt"
	"runtime/debug"
)

//nolint:gochecknoglobals // Set at build time via -ldflags
var Version = "v0.0.0-dev"

const shortCommitLen = 7

// GetVersionShort returns "<version> (<commit>)".
func GetVersionShort() string {
	commit, _, modified := getVCSInfo()
	if modified == "true" {
		commit += "-dirty"
	}

	return fmt.Sprintf("%s (%s)", Version, commit)
}

// GetBuildVersion returns the short version followed by the build time.
func GetBuildVersion() string {
	_, buildTime, _ := getVCSInfo()

	return fmt.Sprintf("%s built at %s", GetVersionShort(), buildTime)
}

// GetBuildInfo returns build metadata as a flat map.
func GetBuildInfo() map[string]string {
	commit, buildTime, modified := getVCSInfo()

	info := map[string]string{
		"version":      Version,
		"commit":       commit,
		"build_time":   buildTime,
		"vcs_modified": modified,
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		info["go_version"] = bi.GoVersion
	}

	return info
}

func getVCSInfo() (commit, buildTime, modified string) {
	commit, buildTime, modified = "unknown", "unknown", "false"

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return commit, buildTime, modified
	}

	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			commit = s.Value
			if len(commit) > shortCommitLen {
				commit = commit[:shortCommitLen]
			}
		case "vcs.time":
			buildTime = s.Value
		case "vcs.modified":
			if s.Value == "true" {
				modified = "true"
			}
		}
	}

	return commit, buildTime, modified
}
