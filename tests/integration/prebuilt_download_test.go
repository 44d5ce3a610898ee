//go:build integration

package integration

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"project-dependencies/internal/app"
	"project-dependencies/internal/types"
	"project-dependencies/tests/testutil"
)

const registryTemplate = `dependencies:
  - name: widget
    default_version: "1.0"
    prebuilt:
      "*":
        url: %s/widget-{version}.zip
    markers:
      "*":
        - ["include/widget.h"]
`

func TestInstallAllDownloadsFromStaticServer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping testcontainers test in short mode")
	}
	ctx := t.Context()
	root := t.TempDir()

	archive := filepath.Join(root, "served", "widget-1.0.zip")
	testutil.PackArchive(t, archive, map[string]string{
		"include/widget.h": "#pragma once\n",
		"lib/libwidget.a":  "!<arch>\n",
	})
	endpoint, cleanup := startStaticServer(ctx, t, archive)
	t.Cleanup(cleanup)

	registry := filepath.Join(root, "registry.yaml")
	testutil.WriteFile(t, registry, fmt.Sprintf(registryTemplate, endpoint))
	project := filepath.Join(root, "project")
	testutil.WriteFile(t, filepath.Join(project, "libraries.json"), `{"dependencies": [{"name": "widget", "version": "1.0"}]}`)

	service := app.NewService(app.Config{HTTPTimeoutSec: 30, HTTPRetries: 2, HTTPRetryDelayMs: 200})
	service.Host = types.PlatformLinux
	result, err := service.InstallAll(ctx, app.InstallAllRequest{
		Root:        filepath.Join(root, "recipes"),
		Registry:    registry,
		ProjectPath: project,
	})
	require.NoError(t, err)
	require.Len(t, result.Passes, 1)
	require.Equal(t, types.BuildOutcomeDownloaded, result.Passes[0].Build)
	require.FileExists(t, filepath.Join(project, "libraries", "widget", "linux", "include", "widget.h"))
	require.FileExists(t, filepath.Join(project, "libraries", "widget", "linux", "lib", "libwidget.a"))
	require.FileExists(t, filepath.Join(root, "recipes", "widget", "lib", "Linux", "1.0_Linux.zip"))
}

func TestBuildMissingPrebuiltWithoutRecipeFails(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping testcontainers test in short mode")
	}
	ctx := t.Context()
	root := t.TempDir()

	archive := filepath.Join(root, "served", "widget-1.0.zip")
	testutil.PackArchive(t, archive, map[string]string{"include/widget.h": "#pragma once\n"})
	endpoint, cleanup := startStaticServer(ctx, t, archive)
	t.Cleanup(cleanup)

	registry := filepath.Join(root, "registry.yaml")
	testutil.WriteFile(t, registry, fmt.Sprintf(registryTemplate, endpoint))

	service := app.NewService(app.Config{HTTPTimeoutSec: 30, HTTPRetries: 1, HTTPRetryDelayMs: 100})
	service.Host = types.PlatformLinux
	_, err := service.Build(ctx, app.BuildRequest{
		Root:     filepath.Join(root, "recipes"),
		Registry: registry,
		Name:     "widget",
		Version:  "2.0",
	})
	require.Error(t, err)
	require.Equal(t, errbuilder.CodeFailedPrecondition, errbuilder.CodeOf(err))
}

func startStaticServer(ctx context.Context, t *testing.T, archive string) (string, func()) {
	t.Helper()
	req := testcontainers.ContainerRequest{
		Image:        "python:3.12-alpine",
		ExposedPorts: []string{"8080/tcp"},
		Cmd:          []string{"python", "-m", "http.server", "8080", "--directory", "/srv"},
		Files: []testcontainers.ContainerFile{{
			HostFilePath:      archive,
			ContainerFilePath: "/srv/" + filepath.Base(archive),
			FileMode:          0644,
		}},
		WaitingFor: wait.ForListeningPort("8080/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "8080/tcp")
	require.NoError(t, err)

	endpoint := fmt.Sprintf("http://%s:%s", host, port.Port())
	cleanup := func() {
		_ = container.Terminate(context.Background())
	}
	return endpoint, cleanup
}
