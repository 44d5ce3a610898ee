package app

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"project-dependencies/internal/core"
)

// Validate checks the registry (built-ins plus overrides) and, when the
// project has one, the strict form of its libraries.json.
func (s Service) Validate(ctx context.Context, req ValidateRequest) (ValidateResult, error) {
	p, err := s.pipeline(ctx, "", req.Registry)
	if err != nil {
		return ValidateResult{}, err
	}
	if err := validateRegistry(ctx, p); err != nil {
		return ValidateResult{}, err
	}
	result := ValidateResult{Dependencies: len(p.registry.All())}
	for _, d := range p.registry.All() {
		for _, platform := range d.Unsupported {
			result.Unsupported = append(result.Unsupported, d.Name+" on "+platform)
		}
	}
	if strings.TrimSpace(req.ProjectPath) == "" {
		return result, nil
	}

	projectPath, err := absPath(req.ProjectPath, "project path")
	if err != nil {
		return ValidateResult{}, err
	}
	result.ManifestPath = s.Manifest.Path(projectPath)
	data, err := os.ReadFile(result.ManifestPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return result, nil
		}
		return ValidateResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read manifest " + result.ManifestPath).
			WithCause(err)
	}
	manifest, err := s.Manifest.Parse(data)
	if err != nil {
		return ValidateResult{}, err
	}
	result.ManifestPresent = true
	result.ManifestEntries = manifest.Len()
	if unknown := p.orchestrator.UnknownNames(manifest); len(unknown) > 0 {
		return ValidateResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("manifest names unknown dependencies: " + strings.Join(unknown, ", "))
	}
	return result, nil
}

// validateRegistry checks the merged registry, which also covers built-ins
// that an override replaced.
func validateRegistry(ctx context.Context, p pipeline) error {
	return core.NewDescriptorChecker().ValidateRegistry(ctx, p.registry.All())
}
