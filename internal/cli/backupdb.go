package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/groupcenter/gcbuild/internal/dbbackup"
	"github.com/groupcenter/gcbuild/internal/runner"
)

// Represents the 'gcbuild backup-db' command.
type BackupDBCmd struct {
	Container string `help:"Container running the database server." default:"${db_container}"`
	User      string `short:"u" help:"Database user." default:"${db_user}"`
	Password  string `help:"Database password." env:"MYSQL_PWD"`
	Database  string `help:"Database to dump." required:""`
	Dir       string `help:"Directory the dump is written to." default:"${backup_dir}"`
}

// Executes the backup-db command and prints the path of the dump.
func (c *BackupDBCmd) Run(ctx context.Context, root *RootCmd) error {
	b := dbbackup.New(runner.NewProcessRunner(os.Stderr), nil)

	path, err := b.Run(ctx, dbbackup.Config{
		Engine:    root.Engine,
		Container: c.Container,
		User:      c.User,
		Password:  c.Password,
		Database:  c.Database,
		Dir:       c.Dir,
	})
	if err != nil {
		return err
	}

	fmt.Println(path)
	return nil
}
