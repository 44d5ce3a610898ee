package app

import (
	"context"
	"os"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"project-dependencies/internal/core"
	"project-dependencies/internal/types"
)

func (s Service) Build(ctx context.Context, req BuildRequest) (BuildResult, error) {
	platform, err := core.ResolvePlatform(s.host(), req.IOS, req.IOSSimulator)
	if err != nil {
		return BuildResult{}, err
	}
	p, err := s.pipeline(ctx, req.Root, req.Registry)
	if err != nil {
		return BuildResult{}, err
	}
	d, err := p.lookup(req.Name)
	if err != nil {
		return BuildResult{}, err
	}
	if platform.IsVariant() && d.PlatformNeutral {
		platform = s.host()
	}
	if err := ensureRecipeDir(p.layout, d); err != nil {
		return BuildResult{}, err
	}

	var built core.BuildResult
	err = s.enter(p.layout.RecipeDir(d), func() error {
		var err error
		built, err = p.builder.Build(ctx, core.BuildRequest{
			Descriptor: d,
			Version:    req.Version,
			Platform:   platform,
			Clean:      req.Clean,
		})
		return err
	})
	if err != nil {
		return BuildResult{}, err
	}
	version := resolvedVersion(d, req.Version)
	log.Debug().
		Str("dependency", d.Name).
		Str("version", version).
		Str("platform", string(platform)).
		Str("outcome", string(built.Outcome)).
		Msg("build finished")
	return BuildResult{
		Dependency:  d.Name,
		Version:     version,
		Platform:    platform,
		Outcome:     built.Outcome,
		ArchivePath: built.ArchivePath,
		URL:         built.URL,
	}, nil
}

func ensureRecipeDir(layout core.Layout, d types.Descriptor) error {
	dir := layout.RecipeDir(d)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create recipe directory " + dir).
			WithCause(err)
	}
	return nil
}
