// Package engine builds container engine command lines.
//
// Every method returns a [runner.Command] assembled token by token. The
// engine binary is configurable so docker-compatible CLIs (docker, nerdctl,
// podman) can be used interchangeably.
package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/containerd/platforms"
	specs "github.com/opencontainers/runtime-spec/specs-go"

	"github.com/groupcenter/gcbuild/internal/runner"
)

// Default container engine binary.
const DefaultBinary = "docker"

// A docker-compatible container engine CLI.
type Engine struct {
	Binary string // Executable name or path.
}

// Creates an [Engine] for the given binary, defaulting to [DefaultBinary].
func New(binary string) Engine {
	if binary == "" {
		binary = DefaultBinary
	}
	return Engine{Binary: binary}
}

// Parameters of an image build.
type BuildOptions struct {
	Dockerfile string            // Path to the Dockerfile.
	Tag        string            // Image name to tag the result with.
	Context    string            // Build context directory.
	Platform   string            // Target platform, empty for the engine default.
	Labels     map[string]string // Image labels.
}

// Returns the command building an image.
func (e Engine) Build(o BuildOptions) runner.Command {
	args := []string{e.Binary, "build", "-t", o.Tag, "-f", o.Dockerfile}
	if o.Platform != "" {
		args = append(args, "--platform", o.Platform)
	}
	for _, k := range sortedKeys(o.Labels) {
		args = append(args, "--label", k+"="+o.Labels[k])
	}
	args = append(args, o.Context)

	return runner.Command{Args: args}
}

// Parameters of a container run.
type RunOptions struct {
	Image   string        // Image to run.
	Name    string        // Container name, empty for an engine-generated one.
	Mounts  []specs.Mount // Bind mounts from the host.
	Workdir string        // Working directory inside the container.
	Args    []string      // Command and arguments, empty for the image default.
	Keep    bool          // Keep the container after it exits.
}

// Returns the command running a container in the foreground.
func (e Engine) Run(o RunOptions) runner.Command {
	args := []string{e.Binary, "run"}
	if !o.Keep {
		args = append(args, "--rm")
	}
	if o.Name != "" {
		args = append(args, "--name", o.Name)
	}
	for _, m := range o.Mounts {
		args = append(args, "-v", VolumeSpec(m))
	}
	if o.Workdir != "" {
		args = append(args, "-w", o.Workdir)
	}
	args = append(args, o.Image)
	args = append(args, o.Args...)

	return runner.Command{Args: args}
}

// Returns the command removing an image.
func (e Engine) RemoveImage(image string) runner.Command {
	return runner.Command{Args: []string{e.Binary, "rmi", image}}
}

// Returns the command force-removing a container, running or not.
func (e Engine) RemoveContainer(name string) runner.Command {
	return runner.Command{Args: []string{e.Binary, "rm", "-f", name}}
}

// Returns the command executing args inside a running container.
//
// Each name in env is forwarded from the caller's environment with "-e NAME",
// so values never appear on the command line.
func (e Engine) Exec(container string, env []string, args ...string) runner.Command {
	argv := []string{e.Binary, "exec"}
	for _, name := range env {
		argv = append(argv, "-e", name)
	}
	argv = append(argv, container)
	argv = append(argv, args...)

	return runner.Command{Args: argv}
}

// Formats a bind mount as a "-v" value: "source:destination[:options]".
func VolumeSpec(m specs.Mount) string {
	s := m.Source + ":" + m.Destination
	if len(m.Options) > 0 {
		s += ":" + strings.Join(m.Options, ",")
	}
	return s
}

// Returns a read-write bind mount of source at destination.
func BindMount(source, destination string) specs.Mount {
	return specs.Mount{
		Type:        "bind",
		Source:      source,
		Destination: destination,
		Options:     []string{"rw"},
	}
}

// Validates and normalizes a platform string such as "linux/x86_64".
//
// An empty string is returned unchanged.
func NormalizePlatform(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	parsed, err := platforms.Parse(p)
	if err != nil {
		return "", fmt.Errorf("invalid platform %q: %w", p, err)
	}
	return platforms.Format(platforms.Normalize(parsed)), nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
