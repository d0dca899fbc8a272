package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	goruntime "runtime"
	"time"

	"github.com/jonboulle/clockwork"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	specs "github.com/opencontainers/runtime-spec/specs-go"

	"github.com/groupcenter/gcbuild/internal/artifact"
	"github.com/groupcenter/gcbuild/internal/engine"
	"github.com/groupcenter/gcbuild/internal/patch"
	"github.com/groupcenter/gcbuild/internal/paths"
	"github.com/groupcenter/gcbuild/internal/runner"
)

// Removes the build image once the pipeline no longer needs it.
type ImageRemover interface {
	RemoveImage(ctx context.Context, image string) error
}

// Outcome of a single pipeline step.
type StepResult struct {
	Name    string
	Elapsed time.Duration
	Err     error
}

// Record of a pipeline run.
type Report struct {
	States   []State            // States entered, in order.
	Steps    []StepResult       // Steps executed, in order.
	Artifact *artifact.Artifact // Located artifact, nil if none was found.
	Output   string             // Path the artifact was published to, empty if not published.
}

// Returns the last state entered.
func (r *Report) State() State {
	if len(r.States) == 0 {
		return StateInit
	}
	return r.States[len(r.States)-1]
}

// Returns true if the run entered s.
func (r *Report) Visited(s State) bool {
	for _, v := range r.States {
		if v == s {
			return true
		}
	}
	return false
}

// Drives one containerized build from image build to artifact publication.
type Pipeline struct {
	cfg     Config
	engine  engine.Engine
	runner  runner.Runner
	remover ImageRemover
	out     *outputter
	clock   clockwork.Clock

	report     *Report
	failedStep string
}

// Configures a [Pipeline].
type Option func(*Pipeline)

// Runs commands with r instead of spawning processes directly.
func WithRunner(r runner.Runner) Option {
	return func(p *Pipeline) { p.runner = r }
}

// Removes the build image with r instead of the engine CLI.
func WithImageRemover(r ImageRemover) Option {
	return func(p *Pipeline) { p.remover = r }
}

// Writes stage banners to w.
func WithOutput(w io.Writer) Option {
	return func(p *Pipeline) { p.out = newOutputter(w) }
}

// Uses c for step timings and image timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// Creates a pipeline for cfg.
//
// By default commands are spawned as child processes streaming to stdout,
// banners go to stdout, and the image is removed through the engine CLI.
func New(cfg Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:    cfg,
		engine: engine.New(cfg.Engine),
		out:    newOutputter(os.Stdout),
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.runner == nil {
		p.runner = runner.NewProcessRunner(os.Stdout)
	}
	if p.remover == nil {
		p.remover = &cliRemover{runner: p.runner, engine: p.engine}
	}
	return p
}

// Runs the pipeline to completion.
//
// Image build and container run failures abort the run. The distribution
// configuration is restored on every path once it was patched, including
// failure and cancellation of the container run. Config patch and restore
// problems, as well as image removal failures, are logged and never change
// the outcome. The returned report is never nil.
func (p *Pipeline) Run(ctx context.Context) (report *Report, err error) {
	p.report = &Report{}
	p.failedStep = ""
	p.enter(StateInit)

	start := p.clock.Now()
	p.out.startPipeline(p.cfg.Image, p.stepCount())

	defer func() {
		if err != nil {
			p.enter(StateFailed)
			slog.Error("build failed", "step", p.failedStep, "error", err)
		} else {
			p.enter(StateDone)
		}
		p.out.endPipeline(p.clock.Since(start), p.failedStep, err)
	}()

	var pl plan
	if err := p.step("Check prerequisites", func() (err error) {
		pl, err = p.checkPreconditions()
		return err
	}); err != nil {
		return p.report, err
	}

	if err := p.step("Prepare directories", p.prepare); err != nil {
		return p.report, err
	}

	p.enter(StateImageBuilding)
	if err := p.step("Build image", func() error {
		return p.buildImage(ctx, pl)
	}); err != nil {
		return p.report, err
	}

	if !p.cfg.KeepImage {
		defer p.removeImage(context.WithoutCancel(ctx))
	}

	if err := p.buildInContainer(ctx, pl); err != nil {
		return p.report, err
	}

	var found *artifact.Artifact
	if err := p.step("Locate artifact", func() (err error) {
		found, err = p.locate()
		return err
	}); err != nil {
		return p.report, err
	}
	p.report.Artifact = found
	p.enter(StateArtifactLocated)

	output := p.cfg.path(p.cfg.Output)
	if err := p.step("Publish artifact", func() error {
		return p.publish(found, output)
	}); err != nil {
		return p.report, err
	}
	p.report.Output = output
	p.enter(StatePublished)

	if p.cfg.CleanCache {
		p.step("Purge caches", func() error {
			if err := p.purgeCaches(); err != nil {
				p.out.warnf("cache purge incomplete: %v", err)
				slog.Warn("post-build cache purge failed", "error", err)
			}
			return nil
		})
	}

	return p.report, nil
}

// Values derived from the configuration during the precondition check.
type plan struct {
	run      engine.RunOptions
	platform string
}

// Verifies everything the run needs before any process is spawned.
//
// The driver marker must exist inside the build context, otherwise an
// expensive container would be started only to fail. A config backup left
// by an interrupted earlier run is put back first.
func (p *Pipeline) checkPreconditions() (plan, error) {
	if err := p.cfg.validate(); err != nil {
		return plan{}, err
	}

	if err := requireFile(p.cfg.path(p.cfg.Dockerfile), "dockerfile"); err != nil {
		return plan{}, err
	}

	if p.cfg.Driver != "" {
		driver := p.cfg.path(p.cfg.Driver)
		if err := requireFile(driver, "build driver"); err != nil {
			return plan{}, err
		}
		if goruntime.GOOS != "windows" {
			if err := ensureExecutable(driver); err != nil {
				return plan{}, fmt.Errorf("%w: %w", ErrFileSystem, err)
			}
		}
	}

	platform, err := engine.NormalizePlatform(p.cfg.Platform)
	if err != nil {
		return plan{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	mount, err := p.cfg.mount()
	if err != nil {
		return plan{}, err
	}

	if p.cfg.WrapperProperties != "" {
		if _, err := patch.Recover(p.cfg.path(p.cfg.WrapperProperties)); err != nil {
			p.out.warnf("stale config backup could not be recovered: %v", err)
			slog.Warn("config recovery failed", "error", err)
		}
	}

	return plan{
		run: engine.RunOptions{
			Image:   p.cfg.Image,
			Name:    p.cfg.containerName(),
			Mounts:  []specs.Mount{mount},
			Workdir: mount.Destination,
			Args:    p.cfg.DriverArgs,
		},
		platform: platform,
	}, nil
}

// Purges caches when requested and recreates an empty artifact directory.
func (p *Pipeline) prepare() error {
	if p.cfg.CleanCache {
		if err := p.purgeCaches(); err != nil {
			return err
		}
	}

	dir := p.cfg.path(p.cfg.ArtifactDir)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("%w: %w", ErrFileSystem, err)
	}
	if err := os.MkdirAll(dir, paths.DefaultDirMode); err != nil {
		return fmt.Errorf("%w: %w", ErrFileSystem, err)
	}
	return nil
}

// Removes every configured cache directory that exists.
func (p *Pipeline) purgeCaches() error {
	var errs []error
	for _, dir := range p.cfg.CacheDirs {
		path := p.cfg.path(dir)
		slog.Info("purging cache", "path", path)
		if err := os.RemoveAll(path); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrFileSystem, err)
	}
	return nil
}

// Builds the image from the Dockerfile with the context as build context.
func (p *Pipeline) buildImage(ctx context.Context, pl plan) error {
	cmd := p.engine.Build(engine.BuildOptions{
		Dockerfile: p.cfg.path(p.cfg.Dockerfile),
		Tag:        p.cfg.Image,
		Context:    p.cfg.Context,
		Platform:   pl.platform,
		Labels:     p.labels(),
	})
	return p.runChecked(ctx, cmd, "image build")
}

// Returns the image labels: configured labels plus OCI annotations.
func (p *Pipeline) labels() map[string]string {
	labels := map[string]string{
		ocispec.AnnotationTitle:   p.cfg.Image,
		ocispec.AnnotationCreated: p.clock.Now().UTC().Format(time.RFC3339),
	}
	if p.cfg.Version != "" {
		labels[ocispec.AnnotationVersion] = p.cfg.Version
	}
	for k, v := range p.cfg.Labels {
		labels[k] = v
	}
	return labels
}

// Runs the build container with the distribution configuration patched.
//
// The configuration is patched before the container starts and restored by
// a deferred call, so the restore runs whether the container succeeds,
// fails, or is cancelled.
func (p *Pipeline) buildInContainer(ctx context.Context, pl plan) error {
	backup := p.patchConfig()
	defer p.restoreConfig(backup)

	p.enter(StateContainerRunning)
	return p.step("Run build container", func() error {
		return p.runContainer(ctx, pl)
	})
}

// Backs up and patches the distribution configuration.
//
// Returns nil when there is nothing to restore later. Every failure is a
// warning: the build proceeds with the configuration as it is.
func (p *Pipeline) patchConfig() *patch.Snapshot {
	var backup *patch.Snapshot

	p.step("Patch config", func() error {
		if p.cfg.WrapperProperties == "" || p.cfg.DistributionBase == "" {
			p.out.warnf("distribution redirect disabled")
			return nil
		}

		path := p.cfg.path(p.cfg.WrapperProperties)
		b, err := patch.Backup(path)
		if err != nil {
			p.out.warnf("config not patched: %v", err)
			slog.Warn("config backup failed, continuing without patch", "path", path, "error", err)
			return nil
		}
		backup = b

		n, err := patch.Patch(b, patch.DistributionURL(), patch.DistributionURLReplacement(p.cfg.DistributionBase))
		if err != nil {
			p.out.warnf("config not patched: %v", err)
			slog.Warn("config patch failed, continuing", "path", path, "error", err)
			return nil
		}
		if n == 0 {
			p.out.warnf("no distributionUrl found in %s", path)
		}
		slog.Info("distribution redirected", "path", path, "base", p.cfg.DistributionBase, "matches", n)
		return nil
	})

	if backup != nil {
		p.enter(StateConfigPatched)
	}
	return backup
}

// Restores the distribution configuration. Never fails the pipeline.
//
// Without a backup there is nothing to restore and no state is recorded.
func (p *Pipeline) restoreConfig(backup *patch.Snapshot) {
	p.step("Restore config", func() error {
		if backup == nil {
			return nil
		}
		if err := patch.Restore(backup); err != nil {
			p.out.warnf("config not restored: %v", err)
			slog.Error("config restore failed", "path", backup.Path, "error", err)
		}
		return nil
	})
	if backup != nil {
		p.enter(StateConfigRestored)
	}
}

// Runs the build container in the foreground.
//
// On cancellation the container is force-removed, since killing the engine
// client does not necessarily stop the container itself.
func (p *Pipeline) runContainer(ctx context.Context, pl plan) error {
	err := p.runChecked(ctx, p.engine.Run(pl.run), "container run")
	if err != nil && ctx.Err() != nil {
		cleanup := context.WithoutCancel(ctx)
		if _, rmErr := p.runner.Run(cleanup, p.engine.RemoveContainer(pl.run.Name)); rmErr != nil {
			slog.Warn("failed to remove build container", "name", pl.run.Name, "error", rmErr)
		}
	}
	return err
}

// Runs cmd and converts a non-zero exit status into [ErrProcessExecution].
func (p *Pipeline) runChecked(ctx context.Context, cmd runner.Command, what string) error {
	res, err := p.runner.Run(ctx, cmd)
	if err != nil {
		return err
	}
	if !res.Succeeded() {
		return fmt.Errorf("%w: %s exited with status %d", ErrProcessExecution, what, res.ExitCode)
	}
	return nil
}

// Finds the artifact in the artifact directory.
func (p *Pipeline) locate() (*artifact.Artifact, error) {
	a, err := artifact.Find(p.cfg.path(p.cfg.ArtifactDir), p.cfg.ArtifactSuffix)
	if errors.Is(err, artifact.ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrArtifactNotFound, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileSystem, err)
	}
	slog.Info("artifact located", "path", a.Path, "digest", a.Digest)
	return a, nil
}

// Copies the artifact to its canonical path.
func (p *Pipeline) publish(a *artifact.Artifact, output string) error {
	if err := artifact.Publish(a, output); err != nil {
		return fmt.Errorf("%w: %w", ErrFileSystem, err)
	}
	return nil
}

// Removes the build image. Failures are logged only.
func (p *Pipeline) removeImage(ctx context.Context) {
	p.step("Remove image", func() error {
		if err := p.remover.RemoveImage(ctx, p.cfg.Image); err != nil {
			p.out.warnf("image not removed: %v", err)
			slog.Warn("image removal failed", "image", p.cfg.Image, "error", err)
		}
		return nil
	})
}

// Runs fn as a named step with banners and timing.
//
// The name of the first failing step is remembered for the final summary.
func (p *Pipeline) step(name string, fn func() error) error {
	p.out.startStep(name)
	start := p.clock.Now()

	err := fn()

	elapsed := p.clock.Since(start)
	p.report.Steps = append(p.report.Steps, StepResult{Name: name, Elapsed: elapsed, Err: err})
	p.out.endStep(name, elapsed, err)

	if err != nil && p.failedStep == "" {
		p.failedStep = name
	}
	return err
}

// Records a state transition.
func (p *Pipeline) enter(s State) {
	p.report.States = append(p.report.States, s)
	slog.Debug("pipeline state", "state", s.String())
}

// Number of steps a fully successful run announces.
func (p *Pipeline) stepCount() int {
	n := 8
	if p.cfg.CleanCache {
		n++
	}
	if !p.cfg.KeepImage {
		n++
	}
	return n
}

// Returns [ErrPreconditionFailed] unless path is an existing file.
func requireFile(path, what string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s not found: %s", ErrPreconditionFailed, what, path)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPreconditionFailed, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory: %s", ErrPreconditionFailed, what, path)
	}
	return nil
}

// Adds execute permission for everyone who can read the file.
func ensureExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	mode := info.Mode().Perm()
	exec := (mode & 0444) >> 2
	if mode&exec == exec {
		return nil
	}
	return os.Chmod(path, mode|exec)
}

// Removes images through the engine CLI.
type cliRemover struct {
	runner runner.Runner
	engine engine.Engine
}

func (r *cliRemover) RemoveImage(ctx context.Context, image string) error {
	res, err := r.runner.Run(ctx, r.engine.RemoveImage(image))
	if err != nil {
		return err
	}
	if !res.Succeeded() {
		return fmt.Errorf("%w: image removal exited with status %d", ErrProcessExecution, res.ExitCode)
	}
	return nil
}
