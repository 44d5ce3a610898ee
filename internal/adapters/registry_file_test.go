package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"project-dependencies/internal/types"
)

func TestRegistryFileLoadsDescriptors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.yaml")
	content := `dependencies:
  - name: zlib
    default_version: "1.3"
    prebuilt:
      Linux:
        url: https://example.com/zlib-{version}.tar.gz
        format: tar.gz
        strip_components: 1
    source:
      kind: git
      url: https://github.com/madler/zlib.git
      ref: v{version}
    recipes:
      "*":
        steps:
          - tool: cmake
            args: ["-S", "{source}", "-B", "{build}"]
        outputs:
          - from: "{install}"
          - from: "{recipe}/zlib.pc"
            fallback: "Name: zlib\n"
    markers:
      "*":
        - ["lib/libz.a", "lib/zlib.lib"]
    unsupported: [iOS]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	descriptors, err := NewRegistryFileAdapter().LoadDescriptors(path)
	require.NoError(t, err)
	require.Len(t, descriptors, 1)
	d := descriptors[0]
	assert.Equal(t, "zlib", d.Name)
	assert.Equal(t, types.ArchiveFormatTarGz, d.Prebuilt["Linux"].Format)
	assert.Equal(t, 1, d.Prebuilt["Linux"].StripComponents)
	assert.Equal(t, types.SourceKindGit, d.Source.Kind)
	assert.Equal(t, []string{"-S", "{source}", "-B", "{build}"}, d.Recipes["*"].Steps[0].Args)
	assert.Equal(t, types.Marker{"lib/libz.a", "lib/zlib.lib"}, d.Markers["*"][0])
	assert.Equal(t, "Name: zlib\n", d.Recipes["*"].Outputs[1].Fallback)
	assert.Equal(t, []string{"iOS"}, d.Unsupported)
}

func TestRegistryFileEmptyPath(t *testing.T) {
	descriptors, err := NewRegistryFileAdapter().LoadDescriptors("")
	require.NoError(t, err)
	assert.Nil(t, descriptors)
}

func TestRegistryFileErrors(t *testing.T) {
	_, err := NewRegistryFileAdapter().LoadDescriptors(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dependencies:\n  - name: x\n    colour: blue\n"), 0644))
	_, err = NewRegistryFileAdapter().LoadDescriptors(path)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}
