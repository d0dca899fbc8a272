package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/kballard/go-shellquote"

	"github.com/groupcenter/gcbuild/internal/build"
	"github.com/groupcenter/gcbuild/internal/runner"
	"github.com/groupcenter/gcbuild/internal/teardown"
)

// Represents the 'gcbuild clean' command.
type CleanCmd struct {
	Compose string `help:"Compose command, split like a shell would." default:"${compose}" env:"GCBUILD_COMPOSE"`
	Image   string `help:"Application image to remove. Empty keeps it." default:"${app_image}"`
	DataDir string `help:"Local data directory to remove. Empty keeps it." default:"${data_dir}"`
}

// Executes the clean command.
func (c *CleanCmd) Run(ctx context.Context, root *RootCmd) error {
	cfg, err := c.config(root)
	if err != nil {
		return err
	}
	return teardown.Run(ctx, runner.NewProcessRunner(os.Stdout), cfg)
}

func (c *CleanCmd) config(root *RootCmd) (teardown.Config, error) {
	compose, err := shellquote.Split(c.Compose)
	if err != nil {
		return teardown.Config{}, fmt.Errorf("%w: compose command: %w", build.ErrInvalidConfig, err)
	}
	return teardown.Config{
		Engine:  root.Engine,
		Compose: compose,
		Image:   c.Image,
		DataDir: c.DataDir,
	}, nil
}
