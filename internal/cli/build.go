package cli

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/groupcenter/gcbuild/internal/build"
	"github.com/groupcenter/gcbuild/internal/engine"
	"github.com/groupcenter/gcbuild/internal/project"
	"github.com/groupcenter/gcbuild/internal/runner"
	"github.com/groupcenter/gcbuild/internal/runtime"
)

// Prefix of child process output lines, indenting them under the banners.
const outputPrefix = "  │ "

// Represents the 'gcbuild build' command.
type BuildCmd struct {
	Context           string            `short:"C" help:"Working tree to build." default:"." placeholder:"DIR"`
	Image             string            `help:"Name the builder image is tagged with." default:"${image}"`
	Dockerfile        string            `help:"Dockerfile of the builder image, relative to the working tree." default:"${dockerfile}"`
	Workdir           string            `help:"Mount point of the working tree inside the container." default:"${workdir}"`
	Driver            string            `help:"File that must exist in the working tree before the build starts." default:"${driver}"`
	Platform          string            `help:"Target platform of the builder image (e.g. linux/amd64)."`
	Label             map[string]string `help:"Additional image label." placeholder:"KEY=VALUE"`
	WrapperProperties string            `help:"Distribution configuration redirected during the build." default:"${wrapper_properties}"`
	DistributionBase  string            `help:"Base URL the build tool distribution is fetched from. Empty disables the redirect." default:"${distribution_base}" env:"GCBUILD_DISTRIBUTION_BASE"`
	ArtifactDir       string            `help:"Directory searched for the build artifact." default:"${artifact_dir}"`
	ArtifactSuffix    string            `help:"File name suffix of the build artifact." default:"${artifact_suffix}"`
	Output            string            `short:"o" help:"Path the artifact is published to." default:"${output}"`
	VersionFile       string            `help:"Properties file holding the project version." default:"${version_file}"`
	CleanCache        bool              `help:"Purge build caches before and after the build."`
	KeepImage         bool              `help:"Keep the builder image after the build."`
	ContainerdAddress string            `help:"Remove the image through containerd at this socket instead of the engine CLI." placeholder:"PATH"`
	Namespace         string            `help:"containerd namespace of the image." default:"${namespace}"`
	DriverArgs        []string          `arg:"" optional:"" passthrough:"" help:"Command run inside the container."`
}

// Executes the build command.
func (c *BuildCmd) Run(ctx context.Context, root *RootCmd) error {
	cfg, err := c.config(root)
	if err != nil {
		return err
	}

	opts := []build.Option{
		build.WithRunner(runner.NewProcessRunner(os.Stdout).WithPrefix(outputPrefix)),
	}

	if c.ContainerdAddress != "" {
		rt, err := runtime.New(c.ContainerdAddress, c.Namespace)
		if err != nil {
			slog.Warn("containerd unavailable, removing image through the engine", "error", err)
		} else {
			defer rt.Close()
			opts = append(opts, build.WithImageRemover(rt))
		}
	}

	report, err := build.New(cfg, opts...).Run(ctx)
	if err != nil {
		return err
	}

	slog.Info("artifact published", "path", report.Output, "digest", report.Artifact.Digest)
	return nil
}

// Translates flags into a pipeline configuration.
func (c *BuildCmd) config(root *RootCmd) (build.Config, error) {
	dir, err := filepath.Abs(c.Context)
	if err != nil {
		return build.Config{}, err
	}

	cfg := build.DefaultConfig(dir)
	cfg.Image = c.Image
	cfg.Engine = root.Engine
	cfg.Dockerfile = c.Dockerfile
	cfg.Mount = engine.BindMount(dir, c.Workdir)
	cfg.Driver = c.Driver
	cfg.Platform = c.Platform
	cfg.Labels = c.Label
	cfg.WrapperProperties = c.WrapperProperties
	cfg.DistributionBase = c.DistributionBase
	cfg.ArtifactDir = c.ArtifactDir
	cfg.ArtifactSuffix = c.ArtifactSuffix
	cfg.Output = c.Output
	cfg.CleanCache = c.CleanCache
	cfg.KeepImage = c.KeepImage
	if args := c.driverArgs(); len(args) > 0 {
		cfg.DriverArgs = args
	}
	cfg.Version = c.projectVersion(dir)

	return cfg, nil
}

// Returns the container command given after the flags.
//
// kong keeps the "--" separator in passthrough arguments; it is not part of
// the command.
func (c *BuildCmd) driverArgs() []string {
	args := c.DriverArgs
	if len(args) > 0 && args[0] == "--" {
		args = args[1:]
	}
	return args
}

// Returns the project version, or empty if the version file is absent.
func (c *BuildCmd) projectVersion(dir string) string {
	if c.VersionFile == "" {
		return ""
	}
	path := c.VersionFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}

	v, err := project.ReadVersion(path)
	if errors.Is(err, fs.ErrNotExist) {
		return ""
	}
	if err != nil {
		slog.Warn("project version unavailable", "path", path, "error", err)
		return ""
	}
	return v
}
