package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPlaceholders(t *testing.T) {
	vars := map[string]string{"version": "3.35.5", "work": "/tmp/w"}
	assert.Equal(t, "tags/3.35.5", ExpandPlaceholders("tags/{version}", vars))
	assert.Equal(t, "/tmp/w/sqlite/{unknown}", ExpandPlaceholders("{work}/sqlite/{unknown}", vars))
	assert.Equal(t, "plain", ExpandPlaceholders("plain", vars))
}

func TestCommandErrorIncludesOutput(t *testing.T) {
	base := errors.New("exit status 2")
	err := CommandError([]byte("  cmake: not configured \n"), base)
	assert.EqualError(t, err, "cmake: not configured: exit status 2")
	assert.ErrorIs(t, err, base)

	assert.Equal(t, base, CommandError(nil, base))
}

func TestWithWorkingDirRestoresOnError(t *testing.T) {
	start, err := os.Getwd()
	require.NoError(t, err)
	target := t.TempDir()

	boom := errors.New("boom")
	var inside string
	err = WithWorkingDir(target, func() error {
		inside, _ = os.Getwd()
		return boom
	})
	require.ErrorIs(t, err, boom)

	resolvedTarget, _ := filepath.EvalSymlinks(target)
	resolvedInside, _ := filepath.EvalSymlinks(inside)
	assert.Equal(t, resolvedTarget, resolvedInside)

	after, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, start, after)
}

func TestWithWorkingDirRestoresOnPanic(t *testing.T) {
	start, err := os.Getwd()
	require.NoError(t, err)

	assert.Panics(t, func() {
		_ = WithWorkingDir(t.TempDir(), func() error {
			panic("step exploded")
		})
	})

	after, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, start, after)
}

func TestWithWorkingDirMissingDir(t *testing.T) {
	called := false
	err := WithWorkingDir(filepath.Join(t.TempDir(), "missing"), func() error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
}
