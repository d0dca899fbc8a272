package patch

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

// Suffix appended to the original path to name the sibling backup file.
const backupSuffix = ".bak"

// A snapshot of a configuration file taken before it is patched.
//
// The handle is consumed by the first successful [Restore]. Holding more
// than one live handle for the same path is not supported.
type Snapshot struct {
	Path       string // File being patched.
	BackupPath string // Sibling copy written by [Backup].

	content []byte      // Original bytes.
	mode    fs.FileMode // Original permission bits.

	mu    sync.Mutex
	spent bool
}

// Returns the backup path used for a configuration file.
func BackupPath(path string) string {
	return path + backupSuffix
}

// Snapshots the file at path and writes an identical sibling copy.
//
// The sibling copy appears complete or not at all, so a failed backup never
// leaves a truncated copy for [Recover] to put back. Returns
// [ErrConfigFileMissing] if path does not exist.
func Backup(path string) (*Snapshot, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrConfigFileMissing, path)
	}
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	b := &Snapshot{
		Path:       path,
		BackupPath: BackupPath(path),
		content:    content,
		mode:       info.Mode().Perm(),
	}

	if err := writeAtomic(b.BackupPath, content, b.mode); err != nil {
		return nil, err
	}

	slog.Debug("config backed up", "path", path, "backup", b.BackupPath, "bytes", len(content))
	return b, nil
}

// Replaces every non-overlapping match of re in the current content of the
// file and rewrites it in place.
//
// The substitution operates on whatever the file contains now, not on the
// snapshot. The replacement may reference capture groups as in
// [regexp.Regexp.ReplaceAll]. Returns the number of matches.
func Patch(b *Snapshot, re *regexp.Regexp, replacement string) (int, error) {
	if b == nil {
		return 0, fmt.Errorf("%w: %w", ErrPatch, ErrBackupMissing)
	}

	info, err := os.Stat(b.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("%w: %w: %s", ErrPatch, ErrConfigFileMissing, b.Path)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrPatch, err)
	}

	content, err := os.ReadFile(b.Path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrPatch, err)
	}

	matches := len(re.FindAllIndex(content, -1))
	if matches == 0 {
		return 0, nil
	}

	patched := re.ReplaceAll(content, []byte(replacement))
	if err := os.WriteFile(b.Path, patched, info.Mode().Perm()); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrPatch, err)
	}

	slog.Debug("config patched", "path", b.Path, "matches", matches)
	return matches, nil
}

// Writes the snapshot back over the original file and removes the sibling
// copy.
//
// A nil or already restored handle is a warning, not an error. A missing
// sibling copy is also a warning: the snapshot in memory is still written
// back. Only a failure to write the original file returns [ErrRestore].
func Restore(b *Snapshot) error {
	if b == nil {
		slog.Warn("no config backup to restore")
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.spent {
		slog.Warn("config backup already restored", "path", b.Path)
		return nil
	}

	if err := os.WriteFile(b.Path, b.content, b.mode); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRestore, b.Path, err)
	}
	// WriteFile keeps the mode of an existing file; reapply the original.
	if err := os.Chmod(b.Path, b.mode); err != nil {
		slog.Warn("failed to restore config mode", "path", b.Path, "error", err)
	}
	b.spent = true

	if err := os.Remove(b.BackupPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("config backup file already gone", "backup", b.BackupPath)
		} else {
			slog.Warn("failed to remove config backup file", "backup", b.BackupPath, "error", err)
		}
	}

	slog.Debug("config restored", "path", b.Path)
	return nil
}

// Puts back a backup file left behind by an interrupted run.
//
// If BackupPath(path) exists, its content replaces path and the backup file
// is removed. Returns true if a stale backup was found.
func Recover(path string) (bool, error) {
	backupPath := BackupPath(path)

	info, err := os.Stat(backupPath)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrRestore, err)
	}

	content, err := os.ReadFile(backupPath)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrRestore, err)
	}

	if err := writeAtomic(path, content, info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrRestore, path, err)
	}

	if err := os.Remove(backupPath); err != nil {
		return true, fmt.Errorf("%w: %w", ErrRestore, err)
	}

	slog.Warn("recovered config from stale backup", "path", path, "backup", backupPath)
	return true, nil
}

// Writes content to a temporary file next to path and renames it over path.
//
// On failure the temporary file is removed and path is left untouched.
func writeAtomic(path string, content []byte, mode fs.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(content); err != nil {
		return err
	}
	if err = tmp.Chmod(mode); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
