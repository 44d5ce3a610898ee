package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"project-dependencies/internal/types"
)

func TestManifestReadSelectsEntries(t *testing.T) {
	dir := t.TempDir()
	content := `{"dependencies":[{"name":"sqlite3","version":"3.35.5"},{"name":"glm","version":""}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "libraries.json"), []byte(content), 0644))

	manifest := NewManifestFileAdapter().Read(dir)
	want := []types.ManifestEntry{
		{Name: "sqlite3", Version: "3.35.5"},
		{Name: "glm", Version: ""},
	}
	if diff := cmp.Diff(want, manifest.Entries()); diff != "" {
		t.Fatalf("unexpected entries (-want +got):\n%s", diff)
	}
	version, ok := manifest.Lookup("sqlite3")
	assert.True(t, ok)
	assert.Equal(t, "3.35.5", version)
}

func TestManifestReadMissingIsEmpty(t *testing.T) {
	manifest := NewManifestFileAdapter().Read(t.TempDir())
	assert.True(t, manifest.Empty())
}

func TestManifestReadMalformedIsEmpty(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not json", content: "{"},
		{name: "missing key", content: `{"libs":[]}`},
		{name: "wrong type", content: `{"dependencies":"sqlite3"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "libraries.json"), []byte(tt.content), 0644))
			assert.True(t, NewManifestFileAdapter().Read(dir).Empty())
		})
	}
}

func TestManifestParseStrict(t *testing.T) {
	_, err := NewManifestFileAdapter().Parse([]byte(`{"libs":[]}`))
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))

	_, err = NewManifestFileAdapter().Parse([]byte(`{"dependencies":[{"version":"1.0"}]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty name")
}

func TestManifestDuplicateLastWins(t *testing.T) {
	manifest, err := NewManifestFileAdapter().Parse([]byte(`{"dependencies":[
		{"name":"sdl","version":"2.0.12"},
		{"name":"glm","version":"0.9.9.8"},
		{"name":"sdl","version":"2.0.14"}
	]}`))
	require.NoError(t, err)
	assert.Equal(t, 2, manifest.Len())
	version, _ := manifest.Lookup("sdl")
	assert.Equal(t, "2.0.14", version)
	assert.Equal(t, "sdl", manifest.Entries()[0].Name)
}

func TestManifestEmptyDependenciesListIsEmpty(t *testing.T) {
	manifest, err := NewManifestFileAdapter().Parse([]byte(`{"dependencies":[]}`))
	require.NoError(t, err)
	assert.True(t, manifest.Empty())
}
