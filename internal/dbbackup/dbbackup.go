// Package dbbackup dumps a database running inside a container to a file.
package dbbackup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jonboulle/clockwork"

	"github.com/groupcenter/gcbuild/internal/engine"
	"github.com/groupcenter/gcbuild/internal/paths"
	"github.com/groupcenter/gcbuild/internal/runner"
)

const (
	DefaultContainer = "GroupCenterMySQL"
	DefaultUser      = "root"
	DefaultDir       = "./backup"

	timestampLayout = "20060102_150405"
	passwordEnv     = "MYSQL_PWD"
)

var (
	ErrInvalidConfig = errors.New("invalid backup configuration")
	ErrBackup        = errors.New("database backup failed")
)

// Parameters of a backup.
type Config struct {
	Engine    string // Container engine binary.
	Container string // Container running the database server.
	User      string
	Password  string // Passed through the environment, never on the command line.
	Database  string
	Dir       string // Directory the dump file is written to.
}

// Returns the default configuration. Password and Database have no default.
func DefaultConfig() Config {
	return Config{
		Engine:    engine.DefaultBinary,
		Container: DefaultContainer,
		User:      DefaultUser,
		Dir:       DefaultDir,
	}
}

// Creates database dumps.
type Backup struct {
	runner runner.Runner
	clock  clockwork.Clock
}

// Creates a [Backup] running commands with r and naming files after clock.
func New(r runner.Runner, clock clockwork.Clock) *Backup {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Backup{runner: r, clock: clock}
}

// Dumps the database and returns the path of the dump file.
//
// The file is named "<database>_backup_<YYYYmmdd_HHMMSS>.sql". It is removed
// again if the dump does not complete.
func (b *Backup) Run(ctx context.Context, cfg Config) (path string, err error) {
	if cfg.Container == "" || cfg.User == "" || cfg.Database == "" || cfg.Dir == "" {
		return "", fmt.Errorf("%w: container, user, database and directory are required", ErrInvalidConfig)
	}

	if err := os.MkdirAll(cfg.Dir, paths.DefaultDirMode); err != nil {
		return "", fmt.Errorf("%w: %w", ErrBackup, err)
	}

	name := fmt.Sprintf("%s_backup_%s.sql", cfg.Database, b.clock.Now().Format(timestampLayout))
	file := filepath.Join(cfg.Dir, name)

	f, err := os.OpenFile(file, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBackup, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrBackup, cerr)
		}
		if err != nil {
			os.Remove(file)
			path = ""
		}
	}()

	cmd := engine.New(cfg.Engine).Exec(cfg.Container, []string{passwordEnv}, "mysqldump", "-u"+cfg.User, cfg.Database)
	cmd.Env = []string{passwordEnv + "=" + cfg.Password}
	cmd.Stdout = f

	slog.Info("dumping database", "container", cfg.Container, "database", cfg.Database, "file", file)

	res, err := b.runner.Run(ctx, cmd)
	if err != nil {
		return "", err
	}
	if !res.Succeeded() {
		return "", fmt.Errorf("%w: mysqldump exited with status %d", ErrBackup, res.ExitCode)
	}
	return file, nil
}
