package adapters

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"project-dependencies/internal/ports"
	"project-dependencies/internal/types"
)

const ManifestFileName = "libraries.json"

type ManifestFileAdapter struct{}

func NewManifestFileAdapter() ManifestFileAdapter {
	return ManifestFileAdapter{}
}

func (a ManifestFileAdapter) Path(projectPath string) string {
	return filepath.Join(projectPath, ManifestFileName)
}

// Read degrades every failure to the empty manifest, which selects all
// dependencies with their default versions.
func (a ManifestFileAdapter) Read(projectPath string) types.Manifest {
	path := a.Path(projectPath)
	data, err := os.ReadFile(path)
	if err != nil {
		log.Info().Str("path", path).Msg("no readable manifest, processing every dependency")
		return types.Manifest{}
	}
	manifest, err := a.Parse(data)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("malformed manifest, processing every dependency")
		return types.Manifest{}
	}
	log.Debug().Str("path", path).Int("entries", manifest.Len()).Msg("manifest loaded")
	return manifest
}

func (a ManifestFileAdapter) Parse(data []byte) (types.Manifest, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	var file types.ManifestFile
	if err := decoder.Decode(&file); err != nil {
		return types.Manifest{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse manifest json").
			WithCause(err)
	}
	if file.Dependencies == nil {
		return types.Manifest{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("manifest has no dependencies list")
	}
	entries := make([]types.ManifestEntry, 0, len(*file.Dependencies))
	for idx, entry := range *file.Dependencies {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return types.Manifest{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("manifest entry %d has an empty name", idx))
		}
		entries = append(entries, types.ManifestEntry{Name: name, Version: strings.TrimSpace(entry.Version)})
	}
	return types.NewManifest(entries), nil
}

var _ ports.ManifestPort = ManifestFileAdapter{}
