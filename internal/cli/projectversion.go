package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/groupcenter/gcbuild/internal/project"
)

// Represents the 'gcbuild project-version' command.
type ProjectVersionCmd struct {
	File string `short:"f" help:"Properties file holding the version." default:"${version_file}"`
}

// Executes the project-version command.
func (c *ProjectVersionCmd) Run(ctx context.Context) error {
	return printVersion(os.Stdout, c.File)
}

// Writes the version without a trailing newline, for use in "$(...)".
func printVersion(w io.Writer, path string) error {
	v, err := project.ReadVersion(path)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, v)
	return err
}
