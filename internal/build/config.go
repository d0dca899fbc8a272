package build

import (
	"fmt"
	"path/filepath"
	"strings"

	specs "github.com/opencontainers/runtime-spec/specs-go"

	"github.com/groupcenter/gcbuild/internal/engine"
)

const (
	DefaultImage             = "group-center-builder"
	DefaultDockerfile        = "Docker/Dockerfile-Build"
	DefaultContainerWorkdir  = "/usr/local/group-center"
	DefaultDriver            = "gradlew"
	DefaultWrapperProperties = "gradle/wrapper/gradle-wrapper.properties"
	DefaultArtifactDir       = "build/libs"
	DefaultArtifactSuffix    = ".jar"
	DefaultOutput            = "group-center-docker.jar"
)

// Directories removed before and after the build when caches are purged.
var DefaultCacheDirs = []string{"build", ".gradle"}

// Command run inside the build container by default.
var DefaultDriverArgs = []string{"./gradlew", "--info", "bootJar"}

// Parameters of a pipeline run.
//
// Relative paths are resolved against Context. A Config is built once and
// not modified by the pipeline.
type Config struct {
	Image      string      // Name the build image is tagged with.
	Engine     string      // Container engine binary.
	Dockerfile string      // Dockerfile of the build image.
	Context    string      // Host working tree; also the image build context.
	Mount      specs.Mount // Mount of the working tree inside the container.
	Driver     string      // File that must exist in Context before anything runs.
	DriverArgs []string    // Command run inside the container. Empty uses the image default.
	Platform   string      // Target platform of the image, empty for the engine default.
	Version    string      // Project version recorded as an image label.
	Labels     map[string]string

	WrapperProperties string // Distribution-URL configuration patched during the run.
	DistributionBase  string // Base URL the distribution is redirected to.

	ArtifactDir    string   // Directory searched for the artifact.
	ArtifactSuffix string   // File name suffix of the artifact.
	Output         string   // Canonical path the artifact is published to.
	CacheDirs      []string // Directories purged when CleanCache is set.
	CleanCache     bool     // Purge CacheDirs before and after the build.
	KeepImage      bool     // Skip removing the build image at the end.
}

// Returns the default configuration for the working tree at root.
func DefaultConfig(root string) Config {
	return Config{
		Image:             DefaultImage,
		Engine:            engine.DefaultBinary,
		Dockerfile:        DefaultDockerfile,
		Context:           root,
		Mount:             engine.BindMount(root, DefaultContainerWorkdir),
		Driver:            DefaultDriver,
		DriverArgs:        append([]string(nil), DefaultDriverArgs...),
		WrapperProperties: DefaultWrapperProperties,
		ArtifactDir:       DefaultArtifactDir,
		ArtifactSuffix:    DefaultArtifactSuffix,
		Output:            DefaultOutput,
		CacheDirs:         append([]string(nil), DefaultCacheDirs...),
	}
}

// Checks that the fields the pipeline cannot default are set.
func (c Config) validate() error {
	var missing []string
	if c.Image == "" {
		missing = append(missing, "image")
	}
	if c.Context == "" {
		missing = append(missing, "context")
	}
	if c.Dockerfile == "" {
		missing = append(missing, "dockerfile")
	}
	if c.ArtifactDir == "" {
		missing = append(missing, "artifact directory")
	}
	if c.ArtifactSuffix == "" {
		missing = append(missing, "artifact suffix")
	}
	if c.Output == "" {
		missing = append(missing, "output")
	}
	if c.Mount.Destination == "" {
		missing = append(missing, "mount destination")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidConfig, strings.Join(missing, ", "))
	}
	return nil
}

// Resolves p against the build context.
func (c Config) path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Context, p)
}

// Returns the mount of the working tree with an absolute source.
//
// An empty source defaults to Context.
func (c Config) mount() (specs.Mount, error) {
	m := c.Mount
	if m.Source == "" {
		m.Source = c.Context
	}
	if m.Type == "" {
		m.Type = "bind"
	}

	src, err := filepath.Abs(m.Source)
	if err != nil {
		return specs.Mount{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	m.Source = src

	return m, nil
}

// Name given to the build container, derived from the image name.
func (c Config) containerName() string {
	return containerNameReplacer.Replace(c.Image) + "-run"
}

var containerNameReplacer = strings.NewReplacer("/", "-", ":", "-", "@", "-")
