package runner

import (
	"io"

	"github.com/kballard/go-shellquote"
)

// An external process invocation.
type Command struct {
	Args   []string  // Executable followed by its arguments, one token each.
	Dir    string    // Working directory. Empty uses the caller's.
	Env    []string  // Extra KEY=VALUE entries appended to the inherited environment.
	Stdout io.Writer // When set, receives raw standard output; only standard error is streamed.
}

// Returns the argv quoted the way a POSIX shell would need it.
//
// Used for logging and as the lookup key of [FakeRunner]. It is never parsed
// back into arguments.
func (c Command) String() string {
	return shellquote.Join(c.Args...)
}

// Outcome of a terminated process.
type Result struct {
	ExitCode int // Exit status; -1 if the process was killed or never exited normally.
}

// Returns true iff the exit status is exactly zero.
func (r Result) Succeeded() bool {
	return r.ExitCode == 0
}
