package runner

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Simulates a command's execution for [FakeRunner].
type Hook func(ctx context.Context, cmd Command) (Result, error)

type fakeResult struct {
	exitCode int
	output   string
	err      error
	hook     Hook
}

// A recorded invocation of [FakeRunner.Run].
type FakeCall struct {
	Cmd      Command
	ExitCode int
	Err      error
}

func (c FakeCall) String() string {
	return fmt.Sprintf("cmd=%q exitCode=%d err=%v", c.Cmd.String(), c.ExitCode, c.Err)
}

// A [Runner] that never spawns processes.
//
// Commands are matched by their quoted argv ([Command.String]). Unregistered
// commands succeed with no output.
type FakeRunner struct {
	mu    sync.Mutex
	out   io.Writer
	cmds  map[string]fakeResult
	calls []FakeCall
}

var _ Runner = &FakeRunner{}

// Creates a [FakeRunner] writing registered output to out, which may be nil.
func NewFakeRunner(out io.Writer) *FakeRunner {
	if out == nil {
		out = io.Discard
	}
	return &FakeRunner{
		out:  out,
		cmds: make(map[string]fakeResult),
	}
}

func (f *FakeRunner) Run(ctx context.Context, cmd Command) (res Result, err error) {
	f.mu.Lock()
	r, ok := f.cmds[cmd.String()]
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.calls = append(f.calls, FakeCall{Cmd: cmd, ExitCode: res.ExitCode, Err: err})
		f.mu.Unlock()
	}()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{ExitCode: -1}, &CanceledError{Args: cmd.Args, Err: ctxErr}
	}
	if !ok {
		return Result{}, nil
	}
	if r.hook != nil {
		return r.hook(ctx, cmd)
	}
	if r.err != nil {
		return Result{ExitCode: -1}, r.err
	}

	if r.output != "" {
		w := f.out
		if cmd.Stdout != nil {
			w = cmd.Stdout
		}
		if _, err := io.WriteString(w, r.output); err != nil {
			return Result{ExitCode: -1}, fmt.Errorf("error writing output: %v", err)
		}
	}

	return Result{ExitCode: r.exitCode}, nil
}

// Registers the exit code and output of a command.
//
// A newline is appended to output when missing.
func (f *FakeRunner) Register(cmd string, exitCode int, output string) {
	if output != "" && !strings.HasSuffix(output, "\n") {
		output += "\n"
	}
	f.set(cmd, fakeResult{exitCode: exitCode, output: output})
}

// Registers an error returned instead of running the command.
func (f *FakeRunner) RegisterError(cmd string, err error) {
	f.set(cmd, fakeResult{err: err})
}

// Registers a hook that decides the command's outcome.
func (f *FakeRunner) RegisterHook(cmd string, hook Hook) {
	f.set(cmd, fakeResult{hook: hook})
}

// Returns the invocations recorded so far, in order.
func (f *FakeRunner) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeCall(nil), f.calls...)
}

// Returns the quoted argv of every recorded invocation, in order.
func (f *FakeRunner) Commands() []string {
	calls := f.Calls()
	cmds := make([]string, len(calls))
	for i, c := range calls {
		cmds[i] = c.Cmd.String()
	}
	return cmds
}

func (f *FakeRunner) set(cmd string, r fakeResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cmds[cmd] = r
}
