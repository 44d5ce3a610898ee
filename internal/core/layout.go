package core

import (
	"path/filepath"
	"slices"

	"project-dependencies/internal/shared"
	"project-dependencies/internal/types"
)

const (
	defaultArchivePattern = "{version}_{platform}{ext}"
	neutralArchivePattern = "{version}{ext}"
	cacheDirName          = "lib"
	workDirName           = "__temp"
)

// Layout computes every on-disk location used by the pipeline from the
// recipe root.
type Layout struct {
	Root string
}

func NewLayout(root string) Layout {
	return Layout{Root: root}
}

// RecipeDir is the per-dependency directory the orchestrator enters.
func (l Layout) RecipeDir(d types.Descriptor) string {
	return filepath.Join(l.Root, d.Name)
}

// RecordDir holds the build record for all platforms of a dependency.
func (l Layout) RecordDir(d types.Descriptor) string {
	return filepath.Join(l.RecipeDir(d), cacheDirName)
}

func (l Layout) CacheDir(d types.Descriptor, p types.Platform) string {
	if d.PlatformNeutral {
		return l.RecordDir(d)
	}
	return filepath.Join(l.RecordDir(d), p.CacheName())
}

func (l Layout) ArchiveName(d types.Descriptor, version string, p types.Platform) string {
	pattern := d.ArchiveName
	if pattern == "" {
		pattern = defaultArchivePattern
		if d.PlatformNeutral {
			pattern = neutralArchivePattern
		}
	}
	return shared.ExpandPlaceholders(pattern, map[string]string{
		"version":  version,
		"platform": p.CacheName(),
		"ext":      ArchiveFormatFor(d, p).Extension(),
	})
}

// ArchivePath is the archive cache entry for (d, version, p).
func (l Layout) ArchivePath(d types.Descriptor, version string, p types.Platform) string {
	return filepath.Join(l.CacheDir(d, p), l.ArchiveName(d, version, p))
}

// WorkDir is scratch space for source builds; --clean removes it.
func (l Layout) WorkDir(d types.Descriptor) string {
	return filepath.Join(l.RecipeDir(d), workDirName)
}

// InstallPath is where the archive for p is unpacked below installRoot.
func (l Layout) InstallPath(installRoot string, d types.Descriptor, p types.Platform) string {
	name := d.InstallDir
	if name == "" {
		name = d.Name
	}
	if d.PlatformNeutral {
		return filepath.Join(installRoot, name)
	}
	return filepath.Join(installRoot, name, string(p))
}

// RecordKey identifies a cache entry inside the build record.
func RecordKey(version string, p types.Platform) string {
	return version + "-" + p.CacheName()
}

// PrebuiltFor returns the download entry for p, falling back to the
// wildcard entry. An entry with an empty URL is reported as absent.
func PrebuiltFor(d types.Descriptor, p types.Platform) (types.Prebuilt, bool) {
	entry, ok := d.Prebuilt[p.CacheName()]
	if !ok {
		entry, ok = d.Prebuilt[types.AnyPlatform]
	}
	if !ok || entry.URL == "" {
		return types.Prebuilt{}, false
	}
	return entry, true
}

// Supported reports whether d can be produced for p at all.
func Supported(d types.Descriptor, p types.Platform) bool {
	return !slices.Contains(d.Unsupported, p.CacheName())
}

func RecipeFor(d types.Descriptor, p types.Platform) (types.Recipe, bool) {
	if recipe, ok := d.Recipes[p.CacheName()]; ok {
		return recipe, true
	}
	recipe, ok := d.Recipes[types.AnyPlatform]
	return recipe, ok
}

func MarkersFor(d types.Descriptor, p types.Platform) []types.Marker {
	if markers, ok := d.Markers[p.CacheName()]; ok {
		return markers
	}
	return d.Markers[types.AnyPlatform]
}

// ArchiveFormatFor is the format of the cache entry. Downloads are stored
// as published; everything built here is a zip.
func ArchiveFormatFor(d types.Descriptor, p types.Platform) types.ArchiveFormat {
	if entry, ok := PrebuiltFor(d, p); ok && entry.Format != "" {
		return entry.Format
	}
	return types.ArchiveFormatZip
}
