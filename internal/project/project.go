// Package project reads metadata of the project being built.
package project

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

const (
	// Default location of the version file, relative to the project root.
	DefaultVersionFile = "src/main/resources/settings/version.properties"

	// Version reported when the file has no version entry.
	DefaultVersion = "0.0.0"

	snapshotSuffix = "-SNAPSHOT"
)

var ErrVersionFile = errors.New("failed to read version file")

// Returns the project version recorded in a properties file.
//
// The value of the last "version=" line wins and a trailing "-SNAPSHOT" is
// dropped. Lines starting with "#" or "!" are comments. A file without any
// version line yields [DefaultVersion].
func ReadVersion(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrVersionFile, err)
	}
	defer f.Close()

	version := DefaultVersion
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' || line[0] == '!' {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok || strings.TrimSpace(key) != "version" {
			continue
		}
		version = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrVersionFile, err)
	}

	version = strings.TrimSpace(strings.TrimSuffix(version, snapshotSuffix))
	if version == "" {
		return DefaultVersion, nil
	}
	return version, nil
}
