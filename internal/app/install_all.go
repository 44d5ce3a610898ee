package app

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"project-dependencies/internal/core"
)

// InstallAll builds and installs every dependency listed in the project's
// libraries.json into <project>/libraries. An absent or empty manifest
// selects the whole registry.
func (s Service) InstallAll(ctx context.Context, req InstallAllRequest) (InstallAllResult, error) {
	projectPath, err := absPath(req.ProjectPath, "project path")
	if err != nil {
		return InstallAllResult{}, err
	}
	p, err := s.pipeline(ctx, req.Root, req.Registry)
	if err != nil {
		return InstallAllResult{}, err
	}
	manifest := s.Manifest.Read(projectPath)
	result := InstallAllResult{
		ManifestPath:    s.Manifest.Path(projectPath),
		ManifestEntries: manifest.Len(),
		InstallRoot:     filepath.Join(projectPath, LibrariesDir),
	}
	log.Info().
		Str("manifest", result.ManifestPath).
		Int("entries", result.ManifestEntries).
		Str("install_root", result.InstallRoot).
		Msg("installing dependencies")

	run, err := p.orchestrator.Run(ctx, core.RunRequest{
		Manifest:    manifest,
		InstallRoot: result.InstallRoot,
		Clean:       req.Clean,
	})
	result.Passes = run.Passes
	result.Skipped = run.Skipped
	result.Unknown = run.Unknown
	result.Unsupported = run.Unsupported
	if err != nil {
		return result, err
	}
	return result, nil
}
