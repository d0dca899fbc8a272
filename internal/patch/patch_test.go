package patch

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gradle-wrapper.properties")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestRoundTrip(t *testing.T) {
	re := regexp.MustCompile(`mirror`)

	tests := []struct {
		name    string
		content string
		matches int
	}{
		{"empty file", "", 0},
		{"no trailing newline", "host=mirror", 1},
		{"no match", "a=1\nb=2\n", 0},
		{"single match", "a=1\nhost=mirror\nb=2\n", 1},
		{"many matches", "mirror\nmirror mirror\nx=mirror\n", 4},
		{"crlf", "host=mirror\r\nother=1\r\n", 1},
		{"binary-ish", "k=\x00\xff mirror\n", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.content)

			b, err := Backup(path)
			require.NoError(t, err)
			assert.Equal(t, tt.content, readFile(t, b.BackupPath))

			n, err := Patch(b, re, "official")
			require.NoError(t, err)
			assert.Equal(t, tt.matches, n)
			if tt.matches > 0 {
				assert.NotEqual(t, tt.content, readFile(t, path))
			}

			require.NoError(t, Restore(b))
			assert.Equal(t, tt.content, readFile(t, path))
			assert.NoFileExists(t, b.BackupPath)
		})
	}
}

func TestPatchUsesCurrentContent(t *testing.T) {
	path := writeFile(t, "v=1\n")
	b, err := Backup(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("v=2\n"), 0644))

	_, err = Patch(b, regexp.MustCompile(`v=(\d)`), "v=${1}0")
	require.NoError(t, err)
	assert.Equal(t, "v=20\n", readFile(t, path))

	require.NoError(t, Restore(b))
	assert.Equal(t, "v=1\n", readFile(t, path))
}

func TestBackupMissingFile(t *testing.T) {
	_, err := Backup(filepath.Join(t.TempDir(), "absent.properties"))
	assert.True(t, errors.Is(err, ErrConfigFileMissing))
}

func TestBackupFailureLeavesNoPartialCopy(t *testing.T) {
	content := strings.Repeat("distributionUrl=https\\://mirror.local/gradle-8.5-bin.zip\n", 200)
	path := writeFile(t, content)

	// A directory in the way makes the final rename fail after the copy was written.
	require.NoError(t, os.MkdirAll(filepath.Join(BackupPath(path), "occupied"), 0755))

	_, err := Backup(path)
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{filepath.Base(path), filepath.Base(BackupPath(path))}, names)
	assert.Equal(t, content, readFile(t, path))
}

func TestBackupReplacesStaleCopyWhole(t *testing.T) {
	path := writeFile(t, "distributionUrl=https\\://services.gradle.org/distributions/gradle-8.5-bin.zip\n")
	require.NoError(t, os.WriteFile(BackupPath(path), []byte("truncat"), 0644))

	b, err := Backup(path)
	require.NoError(t, err)
	assert.Equal(t, readFile(t, path), readFile(t, b.BackupPath))

	require.NoError(t, Restore(b))
	found, err := Recover(path)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPatchNilBackup(t *testing.T) {
	_, err := Patch(nil, regexp.MustCompile(`x`), "y")
	assert.True(t, errors.Is(err, ErrBackupMissing))
}

func TestRestoreTwice(t *testing.T) {
	path := writeFile(t, "original\n")
	b, err := Backup(path)
	require.NoError(t, err)

	_, err = Patch(b, regexp.MustCompile(`original`), "patched")
	require.NoError(t, err)

	require.NoError(t, Restore(b))

	// Changes made after the first restore must survive the second.
	require.NoError(t, os.WriteFile(path, []byte("edited later\n"), 0644))
	require.NoError(t, Restore(b))
	assert.Equal(t, "edited later\n", readFile(t, path))
}

func TestRestoreNil(t *testing.T) {
	assert.NoError(t, Restore(nil))
}

func TestRestoreWithoutBackupFile(t *testing.T) {
	path := writeFile(t, "original\n")
	b, err := Backup(path)
	require.NoError(t, err)

	_, err = Patch(b, regexp.MustCompile(`original`), "patched")
	require.NoError(t, err)
	require.NoError(t, os.Remove(b.BackupPath))

	require.NoError(t, Restore(b))
	assert.Equal(t, "original\n", readFile(t, path))
}

func TestRestorePreservesMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not preserved on Windows")
	}

	path := writeFile(t, "x=1\n")
	require.NoError(t, os.Chmod(path, 0600))

	b, err := Backup(path)
	require.NoError(t, err)
	require.NoError(t, os.Chmod(path, 0644))
	require.NoError(t, Restore(b))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestRecover(t *testing.T) {
	path := writeFile(t, "patched\n")
	require.NoError(t, os.WriteFile(BackupPath(path), []byte("original\n"), 0644))

	found, err := Recover(path)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "original\n", readFile(t, path))
	assert.NoFileExists(t, BackupPath(path))
}

func TestRecoverNothingStale(t *testing.T) {
	path := writeFile(t, "clean\n")

	found, err := Recover(path)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, "clean\n", readFile(t, path))
}
