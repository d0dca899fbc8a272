package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/opencontainers/go-digest"
)

// A build output located on disk.
type Artifact struct {
	Path   string        // Full path of the file.
	Suffix string        // Suffix the file name matched.
	Digest digest.Digest // SHA-256 of the content at the time it was found.
}

// Finds the artifact under root whose name ends with suffix.
//
// Only regular files are considered. If several match, the smallest full
// path in byte order is returned. Returns [ErrNotFound] when nothing matches
// or root does not exist.
func Find(root, suffix string) (*Artifact, error) {
	matches, err := matching(root, suffix)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no *%s under %s", ErrNotFound, suffix, root)
	}

	sort.Strings(matches)
	path := matches[0]

	if len(matches) > 1 {
		slog.Warn("multiple artifacts matched, using the first by path", "selected", path, "candidates", len(matches))
	}

	dgst, err := fileDigest(path)
	if err != nil {
		return nil, err
	}

	return &Artifact{Path: path, Suffix: suffix, Digest: dgst}, nil
}

// Returns every regular file under root whose name ends with suffix.
func matching(root, suffix string) ([]string, error) {
	var matches []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if d.Type().IsRegular() && strings.HasSuffix(d.Name(), suffix) {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return matches, nil
}

// Returns the SHA-256 digest of a file's content.
func fileDigest(path string) (digest.Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return digest.SHA256.FromReader(f)
}
