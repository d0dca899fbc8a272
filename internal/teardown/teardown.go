// Package teardown stops a deployed environment and removes its local state.
//
// The compose project is killed, its containers removed, and the project
// brought down; then the application image and the local data directory are
// removed. Engine commands are best-effort so a partially deployed
// environment can still be cleaned up. Only a failure to remove the data
// directory is reported.
//
// Example usage:
//
//	cfg := teardown.DefaultConfig()
//	if err := teardown.Run(ctx, runner.NewProcessRunner(os.Stdout), cfg); err != nil {
//	    return err
//	}
package teardown

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/groupcenter/gcbuild/internal/engine"
	"github.com/groupcenter/gcbuild/internal/runner"
)

const (
	DefaultCompose = "docker-compose"
	DefaultImage   = "group_center:latest"
	DefaultDataDir = "./Data"
)

var ErrDataDir = errors.New("failed to remove data directory")

// Parameters of a teardown.
type Config struct {
	Engine  string   // Container engine binary.
	Compose []string // Compose command, e.g. ["docker", "compose"].
	Image   string   // Application image to remove, empty to keep it.
	DataDir string   // Local data directory to remove, empty to keep it.
}

// Returns the default teardown configuration.
func DefaultConfig() Config {
	return Config{
		Engine:  engine.DefaultBinary,
		Compose: []string{DefaultCompose},
		Image:   DefaultImage,
		DataDir: DefaultDataDir,
	}
}

// Tears the environment down.
//
// Returns the context error if ctx is cancelled between steps.
func Run(ctx context.Context, r runner.Runner, cfg Config) error {
	compose := cfg.Compose
	if len(compose) == 0 {
		compose = []string{DefaultCompose}
	}

	steps := []runner.Command{
		composeCmd(compose, "kill"),
		composeCmd(compose, "rm", "-f"),
		composeCmd(compose, "down"),
	}
	if cfg.Image != "" {
		steps = append(steps, engine.New(cfg.Engine).RemoveImage(cfg.Image))
	}

	for _, cmd := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		bestEffort(ctx, r, cmd)
	}

	if cfg.DataDir == "" {
		return nil
	}
	slog.Info("removing data directory", "path", cfg.DataDir)
	if err := os.RemoveAll(cfg.DataDir); err != nil {
		return fmt.Errorf("%w: %w", ErrDataDir, err)
	}
	return nil
}

func composeCmd(compose []string, args ...string) runner.Command {
	argv := append(append([]string(nil), compose...), args...)
	return runner.Command{Args: argv}
}

// Runs cmd, logging instead of returning any failure.
func bestEffort(ctx context.Context, r runner.Runner, cmd runner.Command) {
	res, err := r.Run(ctx, cmd)
	switch {
	case err != nil:
		slog.Warn("teardown step failed", "cmd", cmd.String(), "error", err)
	case !res.Succeeded():
		slog.Warn("teardown step failed", "cmd", cmd.String(), "exit", res.ExitCode)
	default:
		slog.Debug("teardown step done", "cmd", cmd.String())
	}
}
