package main

import (
	"log/slog"
	"os"

	"github.com/groupcenter/gcbuild/internal"
	"github.com/groupcenter/gcbuild/internal/build"
	"github.com/groupcenter/gcbuild/internal/cli"
)

// The entry point for gcbuild.
//
// Initializes logging, executes the root command, and exits with the status
// mapped from the command's error.
func main() {
	slog.SetDefault(logger())

	slog.Debug("build", "version", internal.VersionString())

	slog.Debug("gcbuild is running",
		"pid", os.Getpid(),
		"cwd", cwd(),
		"args", os.Args,
	)

	if err := cli.Execute(os.Args[1:]); err != nil {
		slog.Error(err.Error())
		os.Exit(build.ExitCode(err))
	}
}

// Creates a stderr logger seeded from build-time linker flags.
//
// The logger is replaced after flag parsing via cli.Execute.
func logger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel()})
	return slog.New(handler).With("app", internal.Name)
}

// Returns the log level derived from build-time linker flags.
func logLevel() slog.Level {
	if internal.IsDebug() {
		return slog.LevelDebug
	}
	if internal.IsQuiet() {
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

// Returns the current working directory or "(unknown)".
func cwd() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "(unknown)"
	}
	return cwd
}
