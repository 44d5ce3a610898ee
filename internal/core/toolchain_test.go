package core

import (
	"errors"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolchainPrefersConfiguredPath(t *testing.T) {
	tc := Toolchain{
		Paths: map[string]string{"cmake": "/opt/cmake/bin/cmake"},
		LookPath: func(string) (string, error) {
			t.Fatal("PATH lookup should not run")
			return "", nil
		},
	}
	got, err := tc.Resolve("cmake")
	require.NoError(t, err)
	assert.Equal(t, "/opt/cmake/bin/cmake", got)
}

func TestToolchainKeepsExplicitPaths(t *testing.T) {
	tc := Toolchain{}
	got, err := tc.Resolve("./configure")
	require.NoError(t, err)
	assert.Equal(t, "./configure", got)
}

func TestToolchainFallsBackToPath(t *testing.T) {
	tc := Toolchain{LookPath: func(file string) (string, error) { return "/usr/bin/" + file, nil }}
	got, err := tc.Resolve("git")
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/git", got)
}

func TestToolchainMissingTool(t *testing.T) {
	tc := Toolchain{LookPath: func(string) (string, error) { return "", errors.New("not found") }}
	_, err := tc.Resolve("gclient")
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeFailedPrecondition, errbuilder.CodeOf(err))
	assert.Contains(t, err.Error(), "tools.gclient")
}
