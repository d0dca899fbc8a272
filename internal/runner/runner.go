package runner

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync/atomic"
	"time"
)

// How long output pipes stay open after the child exits. A descendant that
// left the process group but still holds the pipe would otherwise keep Run
// blocked.
const waitDelay = 2 * time.Second

// Executes commands and reports how they terminated.
type Runner interface {

	// Runs the command to completion.
	//
	// A non-zero exit status is not an error. Errors are reserved for
	// processes that could not be started and for cancellation.
	Run(ctx context.Context, cmd Command) (Result, error)
}

// Runs commands as child processes of the current process.
type ProcessRunner struct {
	out    io.Writer // Destination of the streamed output.
	prefix string    // Prepended to every streamed line.
}

var _ Runner = &ProcessRunner{}

// Creates a [ProcessRunner] that streams output to out.
//
// A nil writer streams to os.Stdout.
func NewProcessRunner(out io.Writer) *ProcessRunner {
	if out == nil {
		out = os.Stdout
	}
	return &ProcessRunner{out: out}
}

// Sets a prefix written before every streamed line and returns the runner.
func (p *ProcessRunner) WithPrefix(prefix string) *ProcessRunner {
	p.prefix = prefix
	return p
}

// Starts the command, streams its combined output line by line, and waits
// for it to exit.
//
// The child runs in its own process group. If ctx is cancelled before the
// child exits, the whole group is killed and a [CanceledError] is returned
// with an exit code of -1.
func (p *ProcessRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	if len(cmd.Args) == 0 {
		return Result{ExitCode: -1}, &SpawnError{Err: ErrEmptyCommand}
	}
	if err := ctx.Err(); err != nil {
		return Result{ExitCode: -1}, &CanceledError{Args: cmd.Args, Err: err}
	}

	slog.Debug("running command", "command", cmd.String(), "dir", cmd.Dir)

	c := exec.Command(cmd.Args[0], cmd.Args[1:]...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	c.WaitDelay = waitDelay
	setProcessGroup(c)

	pr, pw := io.Pipe()
	c.Stderr = pw
	c.Stdout = pw
	if cmd.Stdout != nil {
		c.Stdout = cmd.Stdout
	}

	if err := c.Start(); err != nil {
		pw.Close()
		pr.Close()
		return Result{ExitCode: -1}, &SpawnError{Args: cmd.Args, Err: err}
	}

	streamed := make(chan error, 1)
	go func() {
		streamed <- streamLines(pr, p.out, p.prefix)
	}()

	var killed atomic.Bool
	stop := context.AfterFunc(ctx, func() {
		killed.Store(true)
		killProcessGroup(c)
	})

	waitErr := c.Wait()
	stop()
	pw.Close()

	if err := <-streamed; err != nil {
		slog.Warn("output streaming stopped", "command", cmd.String(), "error", err)
	}

	if killed.Load() {
		return Result{ExitCode: -1}, &CanceledError{Args: cmd.Args, Err: ctx.Err()}
	}

	var exitErr *exec.ExitError
	switch {
	case waitErr == nil, errors.Is(waitErr, exec.ErrWaitDelay):
		return Result{ExitCode: 0}, nil
	case errors.As(waitErr, &exitErr):
		return Result{ExitCode: exitErr.ExitCode()}, nil
	default:
		return Result{ExitCode: -1}, waitErr
	}
}

// Copies r to w one line at a time as lines become available.
//
// A trailing line without a newline is terminated with one. If w fails, the
// rest of r is drained so the child never blocks on a full pipe.
func streamLines(r io.Reader, w io.Writer, prefix string) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			if line[len(line)-1] != '\n' {
				line = append(line, '\n')
			}
			if prefix != "" {
				line = append([]byte(prefix), line...)
			}
			if _, werr := w.Write(line); werr != nil {
				io.Copy(io.Discard, br)
				return werr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
