package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"sigs.k8s.io/yaml"

	"github.com/groupcenter/gcbuild/internal"
	"github.com/groupcenter/gcbuild/internal/build"
	"github.com/groupcenter/gcbuild/internal/dbbackup"
	"github.com/groupcenter/gcbuild/internal/engine"
	"github.com/groupcenter/gcbuild/internal/patch"
	"github.com/groupcenter/gcbuild/internal/paths"
	"github.com/groupcenter/gcbuild/internal/project"
	"github.com/groupcenter/gcbuild/internal/runtime"
	"github.com/groupcenter/gcbuild/internal/teardown"
)

// Represents the root command for gcbuild.
type RootCmd struct {
	Quiet   bool   `short:"q" help:"Suppress informational output."`
	Verbose bool   `short:"v" help:"Include source locations in log output."`
	Debug   bool   `short:"d" help:"Enable debug output."`
	NoColor bool   `help:"Disable colored stage banners."`
	Engine  string `short:"e" help:"Container engine binary." default:"${engine}" env:"GCBUILD_ENGINE" placeholder:"BIN"`

	Build          BuildCmd          `cmd:"" help:"Build the project inside a container and publish the artifact."`
	Clean          CleanCmd          `cmd:"" help:"Tear down the deployed environment and remove local data."`
	BackupDB       BackupDBCmd       `cmd:"" name:"backup-db" help:"Dump the application database to a timestamped file."`
	ProjectVersion ProjectVersionCmd `cmd:"" name:"project-version" help:"Print the project version."`
	Version        VersionCmd        `cmd:"" help:"Show version information."`
}

// Parses arguments, configures logging, and runs the selected subcommand.
//
// SIGINT and SIGTERM cancel the context handed to the subcommand. Argument
// and configuration file errors are reported as [build.ErrInvalidConfig].
func Execute(args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var root RootCmd
	parser, err := newParser(&root, kong.BindTo(ctx, (*context.Context)(nil)))
	if err != nil {
		return err
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		var perr *kong.ParseError
		if errors.As(err, &perr) && perr.Context != nil {
			_ = perr.Context.PrintUsage(true)
		}
		return fmt.Errorf("%w: %w", build.ErrInvalidConfig, err)
	}

	configureLogger(&root, os.Stderr)
	configureColor(&root)

	return kongCtx.Run(&root)
}

// Creates the command-line parser.
//
// Flags are resolved from the environment and from the YAML configuration
// files in [paths.ConfigFiles], the project file taking precedence over the
// user file.
func newParser(root *RootCmd, options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.Name(internal.Name),
		kong.Description("Containerized build orchestration.\n\nBuilds a builder image, runs the build inside it with the working tree mounted, and publishes the produced artifact."),
		kong.UsageOnError(),
		kong.Configuration(yamlLoader, paths.ConfigFiles()...),
		kong.Vars{
			"version":            internal.VersionString(),
			"engine":             engine.DefaultBinary,
			"image":              build.DefaultImage,
			"dockerfile":         build.DefaultDockerfile,
			"workdir":            build.DefaultContainerWorkdir,
			"driver":             build.DefaultDriver,
			"wrapper_properties": build.DefaultWrapperProperties,
			"artifact_dir":       build.DefaultArtifactDir,
			"artifact_suffix":    build.DefaultArtifactSuffix,
			"output":             build.DefaultOutput,
			"distribution_base":  patch.OfficialDistributionBase,
			"version_file":       project.DefaultVersionFile,
			"namespace":          runtime.DefaultNamespace,
			"compose":            teardown.DefaultCompose,
			"app_image":          teardown.DefaultImage,
			"data_dir":           teardown.DefaultDataDir,
			"db_container":       dbbackup.DefaultContainer,
			"db_user":            dbbackup.DefaultUser,
			"backup_dir":         dbbackup.DefaultDir,
		},
	}, options...)

	return kong.New(root, options...)
}

// Reads a YAML configuration file as a kong resolver.
//
// Keys are flag names in snake case, e.g. "distribution_base". An empty file
// resolves nothing.
func yamlLoader(r io.Reader) (kong.Resolver, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		data = []byte("{}")
	}
	js, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, err
	}
	return kong.JSON(bytes.NewReader(js))
}

// Configures the global logger based on CLI flags and linker defaults.
//
// The resolved switches are stored back so the rest of the process sees the
// same values.
func configureLogger(root *RootCmd, w io.Writer) {
	internal.SetDebug(root.Debug || internal.IsDebug())
	internal.SetQuiet(root.Quiet || internal.IsQuiet())
	internal.SetVerbose(root.Verbose || internal.IsVerbose())

	debug := internal.IsDebug()
	quiet := internal.IsQuiet()
	verbose := internal.IsVerbose()

	level := new(slog.LevelVar)
	switch {
	case debug:
		level.Set(slog.LevelDebug)
	case quiet:
		level.Set(slog.LevelWarn)
	default:
		level.Set(slog.LevelInfo)
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: verbose,
	})
	slog.SetDefault(slog.New(handler).With("app", internal.Name))
}

// Turns colored output off when requested or when stdout is not a terminal.
func configureColor(root *RootCmd) {
	if root.NoColor || !isTerminal(os.Stdout) {
		color.NoColor = true
	}
}

// Whether the given file is an interactive terminal.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
