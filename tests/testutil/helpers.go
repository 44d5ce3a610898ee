// Package testutil provides shared test helpers for the integration tests.
package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"project-dependencies/internal/adapters"
	"project-dependencies/internal/types"
)

// WriteFile creates path and its parent directories.
func WriteFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// PackArchive writes a zip at dest whose entries map archive names to
// file contents.
func PackArchive(t *testing.T, dest string, files map[string]string) {
	t.Helper()
	staging := t.TempDir()
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	entries := make([]types.ArchiveEntry, 0, len(names))
	for _, name := range names {
		source := filepath.Join(staging, filepath.FromSlash(name))
		WriteFile(t, source, files[name])
		entries = append(entries, types.ArchiveEntry{Source: source, Name: name})
	}
	require.NoError(t, adapters.NewArchiveStoreAdapter().Pack(dest, entries))
}
