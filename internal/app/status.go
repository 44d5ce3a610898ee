package app

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"project-dependencies/internal/core"
	"project-dependencies/internal/types"
)

const statusWorkers = 8

var cachePlatforms = []types.Platform{
	types.PlatformWindows,
	types.PlatformDarwin,
	types.PlatformLinux,
	types.PlatformIOS,
	types.PlatformIOSSimulator,
}

// Status reports the archive cache and, when a project is given, what the
// manifest selects and whether it is installed on the host platform.
func (s Service) Status(ctx context.Context, req StatusRequest) (StatusResult, error) {
	p, err := s.pipeline(ctx, req.Root, req.Registry)
	if err != nil {
		return StatusResult{}, err
	}
	host := s.host()
	var manifest types.Manifest
	var installRoot string
	if req.ProjectPath != "" {
		projectPath, err := absPath(req.ProjectPath, "project path")
		if err != nil {
			return StatusResult{}, err
		}
		manifest = s.Manifest.Read(projectPath)
		installRoot = filepath.Join(projectPath, LibrariesDir)
	}

	descriptors := p.registry.All()
	statuses := make([]DependencyStatus, len(descriptors))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(statusWorkers)
	for idx, d := range descriptors {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			status := DependencyStatus{Name: d.Name, DefaultVersion: d.DefaultVersion}
			if installRoot != "" {
				requested, ok := manifest.Lookup(d.Name)
				status.Selected = ok || manifest.Empty()
				status.Requested = resolvedVersion(d, requested)
				status.InstallDir = p.layout.InstallPath(installRoot, d, host)
				status.Installed = p.installer.IsInstalled(d, host, status.InstallDir)
			}
			cached, err := scanCache(p.layout, d, s.loadRecord(p.layout, d))
			if err != nil {
				return err
			}
			status.Cached = cached
			statuses[idx] = status
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return StatusResult{}, err
	}
	return StatusResult{Host: host, Dependencies: statuses}, nil
}

// loadRecord returns the build record for d. A record that cannot be read
// only costs the origin column, so it is logged and treated as empty.
func (s Service) loadRecord(layout core.Layout, d types.Descriptor) types.BuildRecord {
	if s.Records == nil {
		return types.BuildRecord{}
	}
	record, err := s.Records.Load(layout.RecordDir(d))
	if err != nil {
		log.Warn().Err(err).Str("dependency", d.Name).Msg("ignoring unreadable build record")
		return types.BuildRecord{}
	}
	return record
}

func scanCache(layout core.Layout, d types.Descriptor, record types.BuildRecord) ([]CachedArchives, error) {
	platforms := cachePlatforms
	if d.PlatformNeutral {
		platforms = []types.Platform{types.PlatformUnknown}
	}
	var cached []CachedArchives
	for _, platform := range platforms {
		dir := layout.CacheDir(d, platform)
		entries, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to read cache directory " + dir).
				WithCause(err)
		}
		var versions []string
		origins := map[string]types.BuildOrigin{}
		for _, entry := range entries {
			if !entry.Type().IsRegular() {
				continue
			}
			version, ok := layout.VersionFromArchive(d, platform, entry.Name())
			if !ok {
				continue
			}
			versions = append(versions, version)
			if origin, ok := originOf(record, d, version, platform, entry.Name()); ok {
				origins[version] = origin
			}
		}
		if len(versions) == 0 {
			continue
		}
		archives := CachedArchives{Platform: platform, Versions: core.SortVersions(versions)}
		if len(origins) > 0 {
			archives.Origins = origins
		}
		cached = append(cached, archives)
	}
	return cached, nil
}

// originOf finds the record entry for a cached archive. Platform neutral
// entries are keyed by whichever host built them, so they are matched by
// archive name instead.
func originOf(record types.BuildRecord, d types.Descriptor, version string, platform types.Platform, archive string) (types.BuildOrigin, bool) {
	if !d.PlatformNeutral {
		entry, ok := record.Cache[core.RecordKey(version, platform)]
		if !ok || entry.Archive != archive {
			return "", false
		}
		return entry.Origin, true
	}
	for _, entry := range record.Cache {
		if entry.Archive == archive {
			return entry.Origin, true
		}
	}
	return "", false
}
