package runner

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSpawn        = errors.New("failed to start process")
	ErrEmptyCommand = errors.New("empty command")
)

// Returned when an executable could not be launched at all.
type SpawnError struct {
	Args []string // Argv that failed to start.
	Err  error    // Underlying cause (not found, permission denied).
}

func (e *SpawnError) Error() string {
	name := "(none)"
	if len(e.Args) > 0 {
		name = e.Args[0]
	}
	return fmt.Sprintf("%s: %s: %v", ErrSpawn, name, e.Err)
}

// Matches both [ErrSpawn] and the underlying cause.
func (e *SpawnError) Unwrap() []error {
	return []error{ErrSpawn, e.Err}
}

// Returned when the context was cancelled while a process was running.
type CanceledError struct {
	Args []string
	Err  error // The context error.
}

func (e *CanceledError) Error() string {
	return fmt.Sprintf("%s: %v", strings.Join(e.Args, " "), e.Err)
}

func (e *CanceledError) Unwrap() error {
	return e.Err
}
