// Parses flags and configuration files and runs gcbuild subcommands.
//
// Global flags:
//
//	-q, --quiet      Suppress informational output.
//	-v, --verbose    Include source locations in log output.
//	-d, --debug      Enable debug output.
//	    --no-color   Disable colored stage banners.
//	-e, --engine     Container engine binary (docker, nerdctl, podman).
//
// Flag values are resolved, from highest to lowest precedence, from the
// command line, the environment, ./gcbuild.yaml and the user configuration
// file under the XDG config directory. Configuration keys are flag names in
// snake case. Flags override build-time defaults set via linker flags. After
// parsing, the global logger is replaced to reflect the final level.
package cli
