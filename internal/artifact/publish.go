package artifact

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/groupcenter/gcbuild/internal/paths"
)

// Copies the artifact to dst, replacing any existing file.
//
// The parent directory of dst is created if needed. The copy is written to a
// temporary file next to dst and renamed into place once its digest matches
// the artifact's.
func Publish(a *Artifact, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), paths.DefaultDirMode); err != nil {
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}

	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}

	tmp, err := copyToTemp(a.Path, dst)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}

	dgst, err := fileDigest(tmp)
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}
	if dgst != a.Digest {
		os.Remove(tmp)
		return fmt.Errorf("%w: %s != %s", ErrDigestMismatch, dgst, a.Digest)
	}

	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}

	slog.Info("artifact published", "path", dst, "digest", a.Digest)
	return nil
}

// Copies src into a new temporary file in the directory of dst and returns
// its path.
func copyToTemp(src, dst string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", err
	}
	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return "", err
	}

	if err := os.Chmod(out.Name(), paths.DefaultFileMode); err != nil {
		os.Remove(out.Name())
		return "", err
	}

	return out.Name(), nil
}
