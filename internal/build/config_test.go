package build

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groupcenter/gcbuild/internal/runner"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/src/group-center")

	require.NoError(t, cfg.validate())
	assert.Equal(t, "/src/group-center", cfg.Mount.Source)
	assert.Equal(t, DefaultContainerWorkdir, cfg.Mount.Destination)

	cfg.CacheDirs[0] = "changed"
	cfg.DriverArgs[0] = "changed"
	assert.Equal(t, "build", DefaultCacheDirs[0])
	assert.Equal(t, "./gradlew", DefaultDriverArgs[0])
}

func TestValidateListsMissingFields(t *testing.T) {
	err := Config{Mount: DefaultConfig(".").Mount}.validate()
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "image, context, dockerfile, artifact directory, artifact suffix, output")
}

func TestConfigPath(t *testing.T) {
	cfg := Config{Context: "/src"}
	assert.Equal(t, filepath.Join("/src", "build", "libs"), cfg.path("build/libs"))
	assert.Equal(t, "/abs/out.jar", cfg.path("/abs/out.jar"))
	assert.Equal(t, "", cfg.path(""))
}

func TestConfigMountDefaultsSource(t *testing.T) {
	cfg := Config{Context: "relative/tree"}
	cfg.Mount.Destination = "/work"

	m, err := cfg.mount()
	require.NoError(t, err)

	want, err := filepath.Abs("relative/tree")
	require.NoError(t, err)
	assert.Equal(t, want, m.Source)
	assert.Equal(t, "bind", m.Type)
}

func TestContainerName(t *testing.T) {
	tests := map[string]string{
		"builder":                        "builder-run",
		"registry.local:5000/gc/builder": "registry.local-5000-gc-builder-run",
		"builder@sha256:abc":             "builder-sha256-abc-run",
	}
	for image, want := range tests {
		assert.Equal(t, want, Config{Image: image}.containerName(), image)
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "init", StateInit.String())
	assert.Equal(t, "config-restored", StateConfigRestored.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "unknown", State(42).String())

	assert.True(t, StateDone.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StatePublished.Terminal())
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, ExitOK},
		{"process", fmt.Errorf("%w: exited with status 2", ErrProcessExecution), ExitProcessFailed},
		{"file system", ErrFileSystem, ExitProcessFailed},
		{"precondition", fmt.Errorf("%w: driver not found", ErrPreconditionFailed), ExitPrecondition},
		{"invalid config", ErrInvalidConfig, ExitPrecondition},
		{"artifact", fmt.Errorf("%w: none", ErrArtifactNotFound), ExitArtifactNotFound},
		{"spawn", &runner.SpawnError{Args: []string{"docker"}, Err: errors.New("not found")}, ExitSpawnFailed},
		{"canceled", &runner.CanceledError{Args: []string{"docker"}, Err: context.Canceled}, ExitCanceled},
		{"deadline", context.DeadlineExceeded, ExitCanceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}
