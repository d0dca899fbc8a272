package runner

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeRunnerRegistered(t *testing.T) {
	var out bytes.Buffer
	f := NewFakeRunner(&out)
	f.Register("docker build -t app .", 1, "boom")

	res, err := f.Run(context.Background(), Command{Args: []string{"docker", "build", "-t", "app", "."}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.ExitCode)
	assert.Equal(t, "boom\n", out.String())
	assert.Equal(t, []string{"docker build -t app ."}, f.Commands())
}

func TestFakeRunnerUnregisteredSucceeds(t *testing.T) {
	f := NewFakeRunner(nil)
	res, err := f.Run(context.Background(), Command{Args: []string{"true"}})
	require.NoError(t, err)
	assert.True(t, res.Succeeded())
}

func TestFakeRunnerErrorAndHook(t *testing.T) {
	f := NewFakeRunner(nil)
	f.RegisterError("missing", &SpawnError{Args: []string{"missing"}, Err: errors.New("not found")})
	f.RegisterHook("hooked", func(ctx context.Context, cmd Command) (Result, error) {
		return Result{ExitCode: 7}, nil
	})

	_, err := f.Run(context.Background(), Command{Args: []string{"missing"}})
	assert.True(t, errors.Is(err, ErrSpawn))

	res, err := f.Run(context.Background(), Command{Args: []string{"hooked"}})
	require.NoError(t, err)
	assert.Equal(t, 7, res.ExitCode)

	calls := f.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, 7, calls[1].ExitCode)
}

func TestFakeRunnerCapturesToCommandStdout(t *testing.T) {
	var console, captured bytes.Buffer
	f := NewFakeRunner(&console)
	f.Register("dump", 0, "rows")

	_, err := f.Run(context.Background(), Command{Args: []string{"dump"}, Stdout: &captured})
	require.NoError(t, err)
	assert.Equal(t, "rows\n", captured.String())
	assert.Empty(t, console.String())
}
