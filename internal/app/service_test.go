package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"project-dependencies/internal/adapters"
	"project-dependencies/internal/types"
)

// touchRunner stands in for the build toolchain: every argument that is an
// absolute path becomes an empty file.
type touchRunner struct {
	commands []types.Command
}

func (r *touchRunner) Run(_ context.Context, command types.Command) error {
	r.commands = append(r.commands, command)
	for _, arg := range command.Args {
		if !filepath.IsAbs(arg) {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(arg), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(arg, []byte(command.Path), 0644); err != nil {
			return err
		}
	}
	return nil
}

type appFixture struct {
	service  Service
	root     string
	registry string
	project  string
	runner   *touchRunner
	hits     *atomic.Int32
}

const registryTemplate = `dependencies:
  - name: widget
    default_version: "1.0"
    prebuilt:
      "*":
        url: %s/widget-{version}.zip
    markers:
      "*":
        - ["include/widget.h"]
  - name: gadget
    default_version: "2.0"
    recipes:
      "*":
        steps:
          - tool: touch
            args: ["{install}/include/gadget.h"]
        outputs:
          - from: "{install}"
    markers:
      "*":
        - ["include/gadget.h"]
`

func newAppFixture(t *testing.T) appFixture {
	t.Helper()
	base := t.TempDir()

	header := filepath.Join(base, "widget.h")
	require.NoError(t, os.WriteFile(header, []byte("#pragma once\n"), 0644))
	payload := filepath.Join(base, "widget.zip")
	require.NoError(t, adapters.NewArchiveStoreAdapter().Pack(payload, []types.ArchiveEntry{
		{Source: header, Name: "include/widget.h"},
	}))
	data, err := os.ReadFile(payload)
	require.NoError(t, err)

	hits := &atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/widget-1.0.zip" {
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
		_, _ = w.Write(data)
	}))
	t.Cleanup(server.Close)

	registry := filepath.Join(base, "registry.yaml")
	require.NoError(t, os.WriteFile(registry, []byte(fmt.Sprintf(registryTemplate, server.URL)), 0644))

	runner := &touchRunner{}
	service := NewService(Config{})
	service.Host = types.PlatformLinux
	service.Runner = runner
	service.LookPath = func(file string) (string, error) { return "/usr/bin/" + file, nil }

	project := filepath.Join(base, "project")
	require.NoError(t, os.MkdirAll(project, 0755))
	return appFixture{
		service:  service,
		root:     filepath.Join(base, "recipes"),
		registry: registry,
		project:  project,
		runner:   runner,
		hits:     hits,
	}
}

func (f appFixture) writeManifest(t *testing.T, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.project, "libraries.json"), []byte(content), 0644))
}
