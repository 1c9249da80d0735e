package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		full := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("x"), 0o644))
	}
	return dir
}

func TestFindFilesByExtension(t *testing.T) {
	t.Run("filters by extension", func(t *testing.T) {
		dir := writeFiles(t, "a.hcl", "b.yaml", "c.txt")
		files, err := FindFilesByExtension(dir, ".hcl")
		require.NoError(t, err)
		require.Len(t, files, 1)
		assert.Equal(t, filepath.Join(dir, "a.hcl"), files[0])
	})

	t.Run("matches any of several extensions", func(t *testing.T) {
		dir := writeFiles(t, "a.yaml", "b.yml", "c.hcl")
		files, err := FindFilesByExtension(dir, ".yaml", ".yml")
		require.NoError(t, err)
		assert.Len(t, files, 2)
	})

	t.Run("walks subdirectories in lexical order", func(t *testing.T) {
		dir := writeFiles(t, "z.hcl", "nested/a.hcl", "nested/deep/m.hcl")
		files, err := FindFilesByExtension(dir, ".hcl")
		require.NoError(t, err)
		require.Len(t, files, 3)
		assert.Equal(t, []string{
			filepath.Join(dir, "nested", "a.hcl"),
			filepath.Join(dir, "nested", "deep", "m.hcl"),
			filepath.Join(dir, "z.hcl"),
		}, files)
	})

	t.Run("returns a regular file as-is regardless of extension", func(t *testing.T) {
		dir := writeFiles(t, "sweep.conf")
		path := filepath.Join(dir, "sweep.conf")
		files, err := FindFilesByExtension(path, ".hcl")
		require.NoError(t, err)
		assert.Equal(t, []string{path}, files)
	})

	t.Run("empty result for a directory with no matches", func(t *testing.T) {
		dir := writeFiles(t, "readme.md")
		files, err := FindFilesByExtension(dir, ".hcl")
		require.NoError(t, err)
		assert.Empty(t, files)
	})

	t.Run("errors on a missing path", func(t *testing.T) {
		_, err := FindFilesByExtension(filepath.Join(t.TempDir(), "missing"), ".hcl")
		assert.Error(t, err)
	})

	t.Run("panics without extensions", func(t *testing.T) {
		assert.Panics(t, func() {
			_, _ = FindFilesByExtension(t.TempDir())
		})
	})
}
