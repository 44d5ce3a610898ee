package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"project-dependencies/internal/core"
)

// Install extracts an already built archive. It never triggers a build.
func (s Service) Install(ctx context.Context, req InstallRequest) (InstallResult, error) {
	platform, err := core.ResolvePlatform(s.host(), req.IOS, req.IOSSimulator)
	if err != nil {
		return InstallResult{}, err
	}
	p, err := s.pipeline(ctx, req.Root, req.Registry)
	if err != nil {
		return InstallResult{}, err
	}
	d, err := p.lookup(req.Name)
	if err != nil {
		return InstallResult{}, err
	}
	if platform.IsVariant() && d.PlatformNeutral {
		platform = s.host()
	}
	installRoot, err := absPath(req.InstallRoot, "install root")
	if err != nil {
		return InstallResult{}, err
	}
	version := resolvedVersion(d, req.Version)
	installed, err := p.installer.Install(ctx, core.InstallRequest{
		Descriptor:  d,
		Version:     version,
		Platform:    platform,
		InstallRoot: installRoot,
	})
	if err != nil {
		return InstallResult{}, err
	}
	log.Debug().
		Str("dependency", d.Name).
		Str("dir", installed.InstallDir).
		Str("outcome", string(installed.Outcome)).
		Msg("install finished")
	return InstallResult{
		Dependency: d.Name,
		Version:    version,
		Platform:   platform,
		Outcome:    installed.Outcome,
		InstallDir: installed.InstallDir,
	}, nil
}
