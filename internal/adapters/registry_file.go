package adapters

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"project-dependencies/internal/ports"
	"project-dependencies/internal/types"
)

// RegistryFileAdapter loads descriptor overrides from YAML.
type RegistryFileAdapter struct{}

func NewRegistryFileAdapter() RegistryFileAdapter {
	return RegistryFileAdapter{}
}

// LoadDescriptors returns nil for an empty path.
func (a RegistryFileAdapter) LoadDescriptors(path string) ([]types.Descriptor, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("registry file not found: " + path).
			WithCause(err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	var file types.RegistryFile
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse registry yaml").
			WithCause(err)
	}
	log.Debug().
		Str("path", path).
		Int("dependencies", len(file.Dependencies)).
		Msg("registry overrides loaded")
	return file.Dependencies, nil
}

var _ ports.RegistrySourcePort = RegistryFileAdapter{}
