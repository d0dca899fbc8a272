package internal

import (
	"fmt"
	"runtime"
	"strings"
)

const (

	// Name of the binary, used for logger groups and configuration paths.
	Name = "gcbuild"

	// String reported when a linker variable was not set.
	defaultUndefined = "(undefined)"

	// String reported for builds made outside the release pipeline.
	defaultLocalBuild = "(local)"

	// Branch whose builds carry no stage suffix in the version string.
	mainBranch = "main"
)

var (
	version   = "" // Release version (e.g., "1.4.0")
	stage     = "" // Git branch the binary was built from (e.g., "main")
	gitCommit = "" // Git commit hash (e.g., "9f1c2ab")

	rawQuiet   = "false" // Default for quiet mode
	rawDebug   = "false" // Default for debug mode
	rawVerbose = "false" // Default for verbose mode
)

// Returns the release version without a leading "v".
//
// Returns "(undefined)" when the binary was built without a version.
func Version() string {
	v := strings.TrimSpace(version)
	if v == "" {
		return defaultUndefined
	}
	return strings.TrimPrefix(strings.ToLower(v), "v")
}

// Returns the branch the binary was built from, lowercased.
func Stage() string {
	s := strings.TrimSpace(stage)
	if s == "" {
		return defaultUndefined
	}
	return strings.ToLower(s)
}

// Returns the git commit hash the binary was built from.
func GitCommit() string {
	c := strings.TrimSpace(gitCommit)
	if c == "" {
		return defaultUndefined
	}
	return c
}

// Returns true unless version, commit, and stage were all injected at link
// time.
func IsLocal() bool {
	return strings.TrimSpace(version) == "" ||
		strings.TrimSpace(gitCommit) == "" ||
		strings.TrimSpace(stage) == ""
}

// Returns a human readable version line.
//
// Local builds report "(local)". Release builds report
// "<version>[+<stage>] <commit> [<os>/<arch>]"; the stage is omitted for the
// main branch.
func VersionString() string {
	if IsLocal() {
		return defaultLocalBuild
	}

	s := ""
	if st := Stage(); st != mainBranch {
		s = "+" + st
	}

	return fmt.Sprintf("%s%s %s [%s/%s]", Version(), s, GitCommit(), runtime.GOOS, runtime.GOARCH)
}
