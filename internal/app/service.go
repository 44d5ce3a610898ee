package app

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"project-dependencies/internal/adapters"
	"project-dependencies/internal/core"
	"project-dependencies/internal/policies"
	"project-dependencies/internal/ports"
	"project-dependencies/internal/shared"
	"project-dependencies/internal/types"
)

// LibrariesDir is the install root below a project.
const LibrariesDir = "libraries"

type Service struct {
	Manifest       ports.ManifestPort
	RegistrySource ports.RegistrySourcePort
	Archives       ports.ArchivePort
	Downloader     ports.DownloaderPort
	Sources        ports.SourcePort
	Runner         ports.CommandRunnerPort
	Records        ports.BuildRecordPort
	Host           types.Platform
	Tools          map[string]string
	LookPath       func(file string) (string, error)
	KeepWork       bool
	SkipVariants   []types.Platform
	Clock          func() time.Time
	EnterDir       func(dir string, fn func() error) error
}

// Config carries the settings NewService threads into the adapters.
type Config struct {
	HTTPTimeoutSec   int
	HTTPRetries      int
	HTTPRetryDelayMs int
	Tools            map[string]string
	KeepWork         bool
	// SkipVariants lists iOS passes install-all never schedules.
	SkipVariants []types.Platform
	// Output receives build tool output when set.
	Output io.Writer
}

func NewService(cfg Config) Service {
	runner := adapters.NewCommandRunnerAdapter(cfg.Output)
	return Service{
		Manifest:       adapters.NewManifestFileAdapter(),
		RegistrySource: adapters.NewRegistryFileAdapter(),
		Archives:       adapters.NewArchiveStoreAdapter(),
		Downloader:     adapters.NewHTTPDownloaderAdapter(cfg.HTTPTimeoutSec, cfg.HTTPRetries, cfg.HTTPRetryDelayMs),
		Sources:        adapters.NewGitSourceAdapter(cfg.Tools["git"], runner),
		Runner:         runner,
		Records:        adapters.NewBuildRecordFileAdapter(),
		Host:           core.CurrentPlatform(),
		Tools:          cfg.Tools,
		LookPath:       exec.LookPath,
		KeepWork:       cfg.KeepWork,
		SkipVariants:   cfg.SkipVariants,
		Clock:          time.Now,
		EnterDir:       shared.WithWorkingDir,
	}
}

// pipeline is the core wiring for one recipe root and registry.
type pipeline struct {
	registry     core.Registry
	layout       core.Layout
	builder      core.Builder
	installer    core.Installer
	orchestrator core.Orchestrator
}

func (s Service) pipeline(ctx context.Context, root string, registryPath string) (pipeline, error) {
	absRoot, err := absPath(root, "recipe root")
	if err != nil {
		return pipeline{}, err
	}
	overrides, err := s.RegistrySource.LoadDescriptors(strings.TrimSpace(registryPath))
	if err != nil {
		return pipeline{}, err
	}
	if err := core.NewDescriptorChecker().ValidateRegistry(ctx, overrides); err != nil {
		return pipeline{}, err
	}
	registry := core.NewRegistry(overrides)
	layout := core.NewLayout(absRoot)
	tools := core.NewToolchain(s.Tools)
	if s.LookPath != nil {
		tools.LookPath = s.LookPath
	}
	builder := core.Builder{
		Layout:     layout,
		Archives:   s.Archives,
		Downloader: s.Downloader,
		Sources:    s.Sources,
		Runner:     s.Runner,
		Records:    s.Records,
		Tools:      tools,
		Clock:      s.Clock,
		KeepWork:   s.KeepWork,
	}
	installer := core.Installer{Layout: layout, Archives: s.Archives}
	return pipeline{
		registry:  registry,
		layout:    layout,
		builder:   builder,
		installer: installer,
		orchestrator: core.Orchestrator{
			Registry:  registry,
			Builder:   builder,
			Installer: installer,
			Policy:    policies.NewVariantPolicy(s.host()).WithoutVariants(s.SkipVariants...),
			EnterDir:  s.EnterDir,
		},
	}, nil
}

func (p pipeline) lookup(name string) (types.Descriptor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.Descriptor{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("dependency name is required")
	}
	d, ok := p.registry.Lookup(name)
	if !ok {
		return types.Descriptor{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("unknown dependency %s (known: %s)", name, strings.Join(p.registry.Names(), ", ")))
	}
	return d, nil
}

func resolvedVersion(d types.Descriptor, requested string) string {
	if version := strings.TrimSpace(requested); version != "" {
		return version
	}
	return d.DefaultVersion
}

func (s Service) host() types.Platform {
	if s.Host == "" {
		return core.CurrentPlatform()
	}
	return s.Host
}

func (s Service) enter(dir string, fn func() error) error {
	if s.EnterDir == nil {
		return shared.WithWorkingDir(dir, fn)
	}
	return s.EnterDir(dir, fn)
}

// absPath resolves paths up front because the orchestrator changes the
// working directory while it runs.
func absPath(path string, what string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = "."
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid " + what + ": " + path).
			WithCause(err)
	}
	return abs, nil
}
