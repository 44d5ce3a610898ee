package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"project-dependencies/internal/ports"
	"project-dependencies/internal/types"
)

// Installer unpacks archive cache entries into a project's install tree.
// It never builds.
type Installer struct {
	Layout   Layout
	Archives ports.ArchivePort
}

type InstallRequest struct {
	Descriptor  types.Descriptor
	Version     string
	Platform    types.Platform
	InstallRoot string
}

type InstallResult struct {
	Outcome    types.InstallOutcome
	InstallDir string
}

// IsInstalled checks the descriptor's markers, or the directory itself
// when there are none.
func (i Installer) IsInstalled(d types.Descriptor, p types.Platform, installDir string) bool {
	markers := MarkersFor(d, p)
	if len(markers) == 0 {
		info, err := os.Stat(installDir)
		return err == nil && info.IsDir()
	}
	for _, marker := range markers {
		if !anyExists(installDir, marker) {
			return false
		}
	}
	return true
}

func (i Installer) Install(ctx context.Context, req InstallRequest) (InstallResult, error) {
	d := req.Descriptor
	version := versionOf(d, req.Version)
	installDir := i.Layout.InstallPath(req.InstallRoot, d, req.Platform)
	logger := log.With().
		Str("dependency", d.Name).
		Str("version", version).
		Str("platform", string(req.Platform)).
		Logger()

	if i.IsInstalled(d, req.Platform, installDir) {
		logger.Debug().Str("path", installDir).Msg("already installed")
		return InstallResult{Outcome: types.InstallOutcomeAlreadyInstalled, InstallDir: installDir}, nil
	}

	archivePath := i.Layout.ArchivePath(d, version, req.Platform)
	if !i.Archives.Exists(archivePath) {
		return InstallResult{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("archive not built for %s %s on %s: %s", d.Name, version, req.Platform, archivePath))
	}

	strip := 0
	if entry, ok := PrebuiltFor(d, req.Platform); ok {
		strip = entry.StripComponents
	}
	logger.Info().Str("path", installDir).Msg("installing")
	if err := i.extract(ctx, archivePath, installDir, ArchiveFormatFor(d, req.Platform), strip); err != nil {
		return InstallResult{}, err
	}
	return InstallResult{Outcome: types.InstallOutcomeInstalled, InstallDir: installDir}, nil
}

// extract unpacks into a staging directory beside installDir and moves the
// result into place, so a failed extraction leaves no partial tree.
func (i Installer) extract(ctx context.Context, archivePath string, installDir string, format types.ArchiveFormat, strip int) error {
	parent := filepath.Dir(installDir)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return installError(installDir, err)
	}
	staging, err := os.MkdirTemp(parent, "."+filepath.Base(installDir)+"-")
	if err != nil {
		return installError(installDir, err)
	}
	defer os.RemoveAll(staging)

	if err := i.Archives.Extract(ctx, archivePath, staging, format, strip); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to extract %s", archivePath)).
			WithCause(err)
	}
	if err := os.MkdirAll(installDir, 0755); err != nil {
		return installError(installDir, err)
	}
	entries, err := os.ReadDir(staging)
	if err != nil {
		return installError(installDir, err)
	}
	for _, entry := range entries {
		target := filepath.Join(installDir, entry.Name())
		if err := os.RemoveAll(target); err != nil {
			return installError(installDir, err)
		}
		if err := os.Rename(filepath.Join(staging, entry.Name()), target); err != nil {
			return installError(installDir, err)
		}
	}
	return nil
}

func anyExists(dir string, alternatives types.Marker) bool {
	for _, rel := range alternatives {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(rel))); err == nil {
			return true
		}
	}
	return false
}

func installError(dir string, err error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(fmt.Sprintf("failed to install into %s", dir)).
		WithCause(err)
}
