package build

import (
	"context"
	"errors"

	"github.com/groupcenter/gcbuild/internal/runner"
)

// Process exit codes reported for pipeline outcomes.
const (
	ExitOK               = 0
	ExitProcessFailed    = 1
	ExitPrecondition     = 2
	ExitArtifactNotFound = 3
	ExitSpawnFailed      = 127
	ExitCanceled         = 130
)

// Maps a pipeline error to a process exit code.
//
// A missing artifact and a failed precondition get their own codes so
// scripts can tell them apart from a failed build.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ExitCanceled
	case errors.Is(err, runner.ErrSpawn):
		return ExitSpawnFailed
	case errors.Is(err, ErrPreconditionFailed), errors.Is(err, ErrInvalidConfig):
		return ExitPrecondition
	case errors.Is(err, ErrArtifactNotFound):
		return ExitArtifactNotFound
	default:
		return ExitProcessFailed
	}
}
