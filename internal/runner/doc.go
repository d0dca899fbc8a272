// Package runner spawns external processes for the build pipeline.
//
// A [Command] is an explicit argv plus an optional working directory and
// environment. It is always built token by token; nothing in this package
// splits a human-oriented command string.
//
// [ProcessRunner] merges standard error into standard output and streams the
// combined output to its writer one line at a time while the process runs.
// A non-zero exit status is reported through [Result], not as an error. Only
// failures to start the executable ([SpawnError]) and cancellation are
// returned as errors. Cancelling the context kills the whole process group,
// not just the direct child.
//
// Example usage:
//
//	r := runner.NewProcessRunner(os.Stdout)
//	res, err := r.Run(ctx, runner.Command{
//	    Args: []string{"docker", "build", "-t", "app", "."},
//	})
//	if err != nil {
//	    return err
//	}
//	if !res.Succeeded() {
//	    return fmt.Errorf("exit status %d", res.ExitCode)
//	}
package runner
