package core

import (
	"sort"
	"strings"

	pep440 "github.com/aquasecurity/go-pep440-version"
	debversion "github.com/knqyf263/go-deb-version"

	"project-dependencies/internal/types"
)

// versionCache memoizes parsed versions while sorting. Dependency
// versions come in many shapes ("12.0.0", "v0.9.0-pre16", "1.2.198.1"),
// so PEP 440 is tried first and Debian ordering is the fallback.
type versionCache struct {
	deb map[string]*debversion.Version
	pep map[string]*pep440.Version
}

func newVersionCache() *versionCache {
	return &versionCache{
		deb: map[string]*debversion.Version{},
		pep: map[string]*pep440.Version{},
	}
}

func (c *versionCache) pepVersion(value string) *pep440.Version {
	if parsed, ok := c.pep[value]; ok {
		return parsed
	}
	var out *pep440.Version
	if parsed, err := pep440.Parse(value); err == nil {
		out = &parsed
	}
	c.pep[value] = out
	return out
}

func (c *versionCache) debVersion(value string) *debversion.Version {
	if parsed, ok := c.deb[value]; ok {
		return parsed
	}
	var out *debversion.Version
	if parsed, err := debversion.NewVersion(value); err == nil {
		out = &parsed
	}
	c.deb[value] = out
	return out
}

// compare returns -1, 0 or 1. Values neither scheme can parse fall back
// to lexical order so the result stays total.
func (c *versionCache) compare(a string, b string) int {
	if va, vb := c.pepVersion(a), c.pepVersion(b); va != nil && vb != nil {
		return va.Compare(*vb)
	}
	if va, vb := c.debVersion(a), c.debVersion(b); va != nil && vb != nil {
		return va.Compare(*vb)
	}
	return strings.Compare(a, b)
}

// SortVersions orders versions oldest first.
func SortVersions(versions []string) []string {
	out := append([]string(nil), versions...)
	cache := newVersionCache()
	sort.SliceStable(out, func(i, j int) bool {
		return cache.compare(out[i], out[j]) < 0
	})
	return out
}

// VersionFromArchive recovers the version from a cache file name produced
// by Layout.ArchiveName. It reports false for unrelated files.
func (l Layout) VersionFromArchive(d types.Descriptor, p types.Platform, fileName string) (string, bool) {
	pattern := l.ArchiveName(d, "{version}", p)
	prefix, suffix, found := strings.Cut(pattern, "{version}")
	if !found {
		return "", false
	}
	if !strings.HasPrefix(fileName, prefix) || !strings.HasSuffix(fileName, suffix) {
		return "", false
	}
	version := strings.TrimSuffix(strings.TrimPrefix(fileName, prefix), suffix)
	if version == "" || strings.ContainsAny(version, "{}") {
		return "", false
	}
	return version, true
}
