package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A bytes.Buffer safe for concurrent reads while a process writes to it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func sh(script string) Command {
	return Command{Args: []string{"sh", "-c", script}}
}

func TestRunExitStatus(t *testing.T) {
	skipOnWindows(t)

	tests := []struct {
		name      string
		script    string
		exitCode  int
		succeeded bool
	}{
		{"zero", "exit 0", 0, true},
		{"one", "exit 1", 1, false},
		{"three", "exit 3", 3, false},
		{"high", "exit 255", 255, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewProcessRunner(io.Discard).Run(context.Background(), sh(tt.script))
			require.NoError(t, err)
			assert.Equal(t, tt.exitCode, res.ExitCode)
			assert.Equal(t, tt.succeeded, res.Succeeded())
		})
	}
}

func TestRunKilledBySignalIsFailure(t *testing.T) {
	skipOnWindows(t)

	res, err := NewProcessRunner(io.Discard).Run(context.Background(), sh("kill -9 $$"))
	require.NoError(t, err)
	assert.False(t, res.Succeeded())
}

func TestRunMergesStderr(t *testing.T) {
	skipOnWindows(t)

	var out syncBuffer
	res, err := NewProcessRunner(&out).Run(context.Background(), sh("echo to-stdout; echo to-stderr 1>&2"))
	require.NoError(t, err)
	assert.True(t, res.Succeeded())
	assert.Equal(t, "to-stdout\nto-stderr\n", out.String())
}

func TestRunTerminatesPartialLine(t *testing.T) {
	skipOnWindows(t)

	var out syncBuffer
	_, err := NewProcessRunner(&out).Run(context.Background(), sh("printf 'first\\npartial'"))
	require.NoError(t, err)
	assert.Equal(t, "first\npartial\n", out.String())
}

func TestRunPrefix(t *testing.T) {
	skipOnWindows(t)

	var out syncBuffer
	_, err := NewProcessRunner(&out).WithPrefix("> ").Run(context.Background(), sh("echo a; echo b"))
	require.NoError(t, err)
	assert.Equal(t, "> a\n> b\n", out.String())
}

func TestRunDirAndEnv(t *testing.T) {
	skipOnWindows(t)

	dir := t.TempDir()
	var out syncBuffer
	cmd := sh(`pwd; echo "$GCBUILD_RUNNER_TEST"`)
	cmd.Dir = dir
	cmd.Env = []string{"GCBUILD_RUNNER_TEST=from-env"}

	_, err := NewProcessRunner(&out).Run(context.Background(), cmd)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(lines[0])
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, "from-env", lines[1])
}

func TestRunCapturesStdout(t *testing.T) {
	skipOnWindows(t)

	var console syncBuffer
	var captured bytes.Buffer
	cmd := sh("echo payload; echo diagnostic 1>&2")
	cmd.Stdout = &captured

	_, err := NewProcessRunner(&console).Run(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, "payload\n", captured.String())
	assert.Equal(t, "diagnostic\n", console.String())
}

func TestRunSpawnError(t *testing.T) {
	res, err := NewProcessRunner(io.Discard).Run(context.Background(), Command{
		Args: []string{"gcbuild-definitely-not-an-executable"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSpawn))
	assert.Equal(t, -1, res.ExitCode)

	var spawnErr *SpawnError
	require.True(t, errors.As(err, &spawnErr))
	assert.Equal(t, "gcbuild-definitely-not-an-executable", spawnErr.Args[0])
}

func TestRunPermissionDenied(t *testing.T) {
	skipOnWindows(t)
	if os.Getuid() == 0 {
		t.Skip("root can execute files without the execute bit")
	}

	script := filepath.Join(t.TempDir(), "script.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho hi\n"), 0644))

	_, err := NewProcessRunner(io.Discard).Run(context.Background(), Command{Args: []string{script}})
	assert.True(t, errors.Is(err, ErrSpawn))
}

func TestRunEmptyCommand(t *testing.T) {
	_, err := NewProcessRunner(io.Discard).Run(context.Background(), Command{})
	assert.True(t, errors.Is(err, ErrSpawn))
	assert.True(t, errors.Is(err, ErrEmptyCommand))
}

func TestRunStreamsAndCancels(t *testing.T) {
	skipOnWindows(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out syncBuffer
	done := make(chan struct{})
	var res Result
	var err error

	go func() {
		defer close(done)
		res, err = NewProcessRunner(&out).Run(ctx, sh("echo ready; sleep 60; echo never"))
	}()

	// Output must be visible while the process is still running.
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "ready")
	}, 10*time.Second, 10*time.Millisecond)

	select {
	case <-done:
		t.Fatal("process exited before cancellation")
	default:
	}

	cancel()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("process was not killed after cancellation")
	}

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, -1, res.ExitCode)
	assert.NotContains(t, out.String(), "never")
}

func TestRunCancelWithDetachedDescendant(t *testing.T) {
	skipOnWindows(t)
	if _, err := exec.LookPath("setsid"); err != nil {
		t.Skip("requires setsid")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out syncBuffer
	done := make(chan struct{})
	var err error

	go func() {
		defer close(done)
		// The setsid child leaves the process group but keeps the output pipe.
		_, err = NewProcessRunner(&out).Run(ctx, sh("setsid sleep 20 & echo ready; sleep 60"))
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "ready")
	}, 10*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("run blocked on a pipe held by a detached descendant")
	}
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRunExitWithDetachedDescendant(t *testing.T) {
	skipOnWindows(t)
	if _, err := exec.LookPath("setsid"); err != nil {
		t.Skip("requires setsid")
	}

	start := time.Now()
	res, err := NewProcessRunner(io.Discard).Run(context.Background(), sh("setsid sleep 20 & exit 0"))
	require.NoError(t, err)
	assert.True(t, res.Succeeded())
	assert.True(t, time.Since(start) < 10*time.Second, "run blocked after the child exited")
}

func TestRunAlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewProcessRunner(io.Discard).Run(ctx, Command{Args: []string{"true"}})
	assert.True(t, errors.Is(err, context.Canceled))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("closed")
}

func TestStreamLinesDrainsOnWriteFailure(t *testing.T) {
	input := strings.Repeat("line\n", 10000)
	r := strings.NewReader(input)

	err := streamLines(r, failingWriter{}, "")
	assert.EqualError(t, err, "closed")
	assert.Equal(t, 0, r.Len())
}

func TestCommandString(t *testing.T) {
	cmd := Command{Args: []string{"docker", "run", "-v", "/path with space:/src:rw", "img"}}
	assert.Equal(t, `docker run -v '/path with space:/src:rw' img`, cmd.String())
}
