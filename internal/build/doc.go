// Package build runs a containerized build of a working tree.
//
// A pipeline builds a builder image from a Dockerfile, runs that image with
// the working tree bind-mounted so the build tool writes its output back to
// the host, and publishes the produced artifact under a canonical name.
// While the container runs, the build tool's distribution URL is redirected
// to a configured mirror; the original configuration file is restored
// byte-for-byte on every exit path, including failure and cancellation.
//
// Each stage is announced with a numbered banner and timed. Image build and
// container failures abort the run; config patching, cache purging after the
// build, and image removal are best-effort and only produce warnings.
// [ExitCode] maps the error returned by [Pipeline.Run] to a process exit
// status.
//
// Example usage:
//
//	cfg := build.DefaultConfig(".")
//	cfg.DistributionBase = "https://mirrors.example.com/gradle"
//
//	report, err := build.New(cfg).Run(ctx)
//	if err != nil {
//	    os.Exit(build.ExitCode(err))
//	}
//	fmt.Println(report.Output)
package build
