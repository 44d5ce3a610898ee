package app

import (
	"project-dependencies/internal/core"
	"project-dependencies/internal/types"
)

type BuildRequest struct {
	Root         string
	Registry     string
	Name         string
	Version      string
	IOS          bool
	IOSSimulator bool
	Clean        bool
}

type BuildResult struct {
	Dependency  string
	Version     string
	Platform    types.Platform
	Outcome     types.BuildOutcome
	ArchivePath string
	URL         string
}

type InstallRequest struct {
	Root         string
	Registry     string
	Name         string
	Version      string
	IOS          bool
	IOSSimulator bool
	// InstallRoot receives <name>/<platform>; this is the project's
	// libraries directory when called from InstallAll.
	InstallRoot string
}

type InstallResult struct {
	Dependency string
	Version    string
	Platform   types.Platform
	Outcome    types.InstallOutcome
	InstallDir string
}

type InstallAllRequest struct {
	Root        string
	Registry    string
	ProjectPath string
	Clean       bool
}

type InstallAllResult struct {
	ManifestPath    string
	ManifestEntries int
	InstallRoot     string
	Passes          []core.PassReport
	Skipped         []string
	Unknown         []string
	Unsupported     []core.PassReport
}

type StatusRequest struct {
	Root        string
	Registry    string
	ProjectPath string
}

// CachedArchives lists cached versions for one platform. Origins holds
// how each version was produced, when the build record knows.
type CachedArchives struct {
	Platform types.Platform
	Versions []string
	Origins  map[string]types.BuildOrigin
}

type DependencyStatus struct {
	Name           string
	DefaultVersion string
	Requested      string
	Selected       bool
	Cached         []CachedArchives
	Installed      bool
	InstallDir     string
}

type StatusResult struct {
	Host         types.Platform
	Dependencies []DependencyStatus
}

type ValidateRequest struct {
	Registry    string
	ProjectPath string
}

type ValidateResult struct {
	Dependencies    int
	ManifestPath    string
	ManifestPresent bool
	ManifestEntries int
	// Unsupported pairs a dependency with a platform it is never built
	// for, e.g. "vulkan on Windows".
	Unsupported []string
}
