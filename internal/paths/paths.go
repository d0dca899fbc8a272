package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (

	// Subdirectory name under the platform configuration directory.
	appName = "gcbuild"

	// Name of the configuration file, both user-level and project-level.
	configFilename = "config.yaml"

	// Name of the project-level configuration file in the working tree.
	projectFilename = "gcbuild.yaml"

	// Default permission mode for directories.
	DefaultDirMode os.FileMode = 0755

	// Default permission mode for files.
	DefaultFileMode os.FileMode = 0644
)

// Path to the user-level configuration file.
//
//	Linux:   $XDG_CONFIG_HOME/gcbuild/config.yaml or ~/.config/gcbuild/config.yaml
//	macOS:   ~/Library/Application Support/gcbuild/config.yaml
func UserConfig() string {
	return filepath.Join(xdg.ConfigHome, appName, configFilename)
}

// Path to the project-level configuration file, relative to the working
// directory.
func ProjectConfig() string {
	return projectFilename
}

// Configuration files in increasing order of precedence.
//
// Later files override values from earlier ones. Missing files are skipped
// by the loader.
func ConfigFiles() []string {
	return []string{UserConfig(), ProjectConfig()}
}
