package core

import (
	"context"
	"os"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"project-dependencies/internal/ports"
	"project-dependencies/internal/shared"
	"project-dependencies/internal/types"
)

// Orchestrator walks the registry in order and builds then installs every
// dependency the manifest selects.
type Orchestrator struct {
	Registry  Registry
	Builder   Builder
	Installer Installer
	Policy    ports.VariantPolicyPort
	// EnterDir scopes a working directory change around fn.
	EnterDir func(dir string, fn func() error) error
}

type RunRequest struct {
	Manifest    types.Manifest
	InstallRoot string
	Clean       bool
}

type PassReport struct {
	Dependency string
	Version    string
	Platform   types.Platform
	Build      types.BuildOutcome
	Install    types.InstallOutcome
}

type RunResult struct {
	Passes  []PassReport
	Skipped []string
	Unknown []string
	// Unsupported holds passes skipped because the descriptor lists the
	// platform as unsupported. They carry no outcomes.
	Unsupported []PassReport
}

// Selected returns the descriptors the manifest asks for, in registry
// order, with the version to use for each.
func (o Orchestrator) Selected(manifest types.Manifest) ([]types.Descriptor, []string) {
	var selected []types.Descriptor
	var versions []string
	for _, d := range o.Registry.All() {
		if manifest.Empty() {
			selected = append(selected, d)
			versions = append(versions, d.DefaultVersion)
			continue
		}
		requested, ok := manifest.Lookup(d.Name)
		if !ok {
			continue
		}
		selected = append(selected, d)
		versions = append(versions, versionOf(d, requested))
	}
	return selected, versions
}

// UnknownNames lists manifest entries that name no registered dependency.
func (o Orchestrator) UnknownNames(manifest types.Manifest) []string {
	var unknown []string
	for _, entry := range manifest.Entries() {
		if _, ok := o.Registry.Lookup(entry.Name); !ok {
			unknown = append(unknown, entry.Name)
		}
	}
	return unknown
}

// Run stops at the first failing step and returns the passes completed so
// far together with the error.
func (o Orchestrator) Run(ctx context.Context, req RunRequest) (RunResult, error) {
	result := RunResult{Unknown: o.UnknownNames(req.Manifest)}
	for _, name := range result.Unknown {
		log.Warn().Str("dependency", name).Msg("manifest names an unknown dependency, ignoring")
	}
	selected, versions := o.Selected(req.Manifest)
	chosen := map[string]bool{}
	for _, d := range selected {
		chosen[d.Name] = true
	}
	for _, d := range o.Registry.All() {
		if !chosen[d.Name] {
			result.Skipped = append(result.Skipped, d.Name)
		}
	}

	enter := o.EnterDir
	if enter == nil {
		enter = shared.WithWorkingDir
	}
	for idx, d := range selected {
		recipeDir := o.Builder.Layout.RecipeDir(d)
		if err := os.MkdirAll(recipeDir, 0755); err != nil {
			return result, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to create recipe directory " + recipeDir).
				WithCause(err)
		}
		for _, platform := range o.Policy.Passes(d) {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			report := PassReport{Dependency: d.Name, Version: versions[idx], Platform: platform}
			if !Supported(d, platform) {
				log.Warn().
					Str("dependency", d.Name).
					Str("platform", string(platform)).
					Msg("dependency is not supported on this platform, skipping")
				result.Unsupported = append(result.Unsupported, report)
				continue
			}
			err := enter(recipeDir, func() error {
				built, err := o.Builder.Build(ctx, BuildRequest{
					Descriptor: d,
					Version:    report.Version,
					Platform:   platform,
					Clean:      req.Clean,
				})
				if err != nil {
					return err
				}
				report.Build = built.Outcome
				installed, err := o.Installer.Install(ctx, InstallRequest{
					Descriptor:  d,
					Version:     report.Version,
					Platform:    platform,
					InstallRoot: req.InstallRoot,
				})
				if err != nil {
					return err
				}
				report.Install = installed.Outcome
				return nil
			})
			if err != nil {
				return result, err
			}
			log.Info().
				Str("dependency", d.Name).
				Str("version", report.Version).
				Str("platform", string(platform)).
				Str("build", string(report.Build)).
				Str("install", string(report.Install)).
				Msg("dependency ready")
			result.Passes = append(result.Passes, report)
		}
	}
	return result, nil
}
