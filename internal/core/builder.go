package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"project-dependencies/internal/ports"
	"project-dependencies/internal/shared"
	"project-dependencies/internal/types"
)

// Builder makes sure an archive cache entry exists for a dependency,
// downloading a published binary when there is one and building from
// source otherwise.
type Builder struct {
	Layout     Layout
	Archives   ports.ArchivePort
	Downloader ports.DownloaderPort
	Sources    ports.SourcePort
	Runner     ports.CommandRunnerPort
	Records    ports.BuildRecordPort
	Tools      Toolchain
	Clock      func() time.Time
	KeepWork   bool
}

type BuildRequest struct {
	Descriptor types.Descriptor
	Version    string
	Platform   types.Platform
	Clean      bool
}

type BuildResult struct {
	Outcome     types.BuildOutcome
	ArchivePath string
	URL         string
}

func (b Builder) Build(ctx context.Context, req BuildRequest) (BuildResult, error) {
	d := req.Descriptor
	version := versionOf(d, req.Version)
	archivePath := b.Layout.ArchivePath(d, version, req.Platform)
	assert.NotEmpty(ctx, archivePath, "archive path must be set")

	logger := log.With().
		Str("dependency", d.Name).
		Str("version", version).
		Str("platform", string(req.Platform)).
		Logger()

	if !Supported(d, req.Platform) {
		return BuildResult{}, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("%s is not supported on %s", d.Name, req.Platform))
	}
	if b.Archives.Exists(archivePath) {
		logger.Debug().Str("path", archivePath).Msg("archive already built")
		return BuildResult{Outcome: types.BuildOutcomeAlreadyBuilt, ArchivePath: archivePath}, nil
	}

	if req.Clean {
		if err := os.RemoveAll(b.Layout.WorkDir(d)); err != nil {
			return BuildResult{}, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("failed to clean work directory for %s", d.Name)).
				WithCause(err)
		}
	}

	vars := b.placeholders(d, version, req.Platform)
	if entry, ok := PrebuiltFor(d, req.Platform); ok {
		url := shared.ExpandPlaceholders(entry.URL, vars)
		logger.Info().Str("url", url).Msg("downloading prebuilt binary")
		err := b.Downloader.Download(ctx, url, archivePath, entry.SHA256)
		if err == nil {
			b.record(logger, d, version, req.Platform, types.BuildRecordEntry{
				Origin: types.BuildOriginDownload,
				URL:    url,
				SHA256: entry.SHA256,
			}, archivePath)
			return BuildResult{Outcome: types.BuildOutcomeDownloaded, ArchivePath: archivePath, URL: url}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return BuildResult{}, ctxErr
		}
		logger.Warn().Err(err).Str("url", url).Msg("download failed, building from source")
	}

	recipe, ok := RecipeFor(d, req.Platform)
	if !ok {
		return BuildResult{}, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("no prebuilt binary or build recipe for %s on %s", d.Name, req.Platform))
	}

	logger.Info().Msg("building from source")
	if err := b.buildFromSource(ctx, logger, d, recipe, vars, archivePath); err != nil {
		return BuildResult{}, err
	}
	b.record(logger, d, version, req.Platform, types.BuildRecordEntry{Origin: types.BuildOriginSource}, archivePath)

	if !b.KeepWork {
		if err := os.RemoveAll(vars["work"]); err != nil {
			logger.Warn().Err(err).Str("path", vars["work"]).Msg("failed to remove work directory")
		}
	}
	return BuildResult{Outcome: types.BuildOutcomeBuiltFromSource, ArchivePath: archivePath}, nil
}

func (b Builder) placeholders(d types.Descriptor, version string, p types.Platform) map[string]string {
	work := b.Layout.WorkDir(d)
	vars := map[string]string{
		"version":  version,
		"platform": p.CacheName(),
		"recipe":   b.Layout.RecipeDir(d),
		"work":     work,
		"build":    filepath.Join(work, "build"),
		"install":  filepath.Join(work, "install"),
		"source":   filepath.Join(work, "source"),
	}
	if d.Source.Kind == types.SourceKindArchive && d.Source.Dir != "" {
		vars["source"] = filepath.Join(vars["source"], shared.ExpandPlaceholders(d.Source.Dir, vars))
	}
	return vars
}

func (b Builder) buildFromSource(ctx context.Context, logger zerolog.Logger, d types.Descriptor, recipe types.Recipe, vars map[string]string, archivePath string) error {
	for _, dir := range []string{vars["work"], vars["build"], vars["install"]} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to create build directories").
				WithCause(err)
		}
	}
	if err := b.fetchSource(ctx, d, vars); err != nil {
		return err
	}
	for idx, step := range recipe.Steps {
		if err := b.runStep(ctx, logger, step, vars); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("build of %s failed at step %d (%s)", d.Name, idx+1, step.Tool)).
				WithCause(err)
		}
	}
	entries, err := collectOutputs(recipe.Outputs, vars)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("build of %s produced no outputs", d.Name))
	}
	logger.Debug().Int("files", len(entries)).Str("path", archivePath).Msg("packaging archive")
	if err := b.Archives.Pack(archivePath, entries); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to package %s", d.Name)).
			WithCause(err)
	}
	return nil
}

func (b Builder) fetchSource(ctx context.Context, d types.Descriptor, vars map[string]string) error {
	sourceRoot := filepath.Join(vars["work"], "source")
	url := shared.ExpandPlaceholders(d.Source.URL, vars)
	var err error
	switch d.Source.Kind {
	case types.SourceKindGit:
		err = b.Sources.Sync(ctx, url, shared.ExpandPlaceholders(d.Source.Ref, vars), sourceRoot)
	case types.SourceKindArchive:
		format := d.Source.Format
		if format == "" {
			format = types.ArchiveFormatZip
		}
		download := filepath.Join(vars["work"], "source"+format.Extension())
		if err = b.Downloader.Download(ctx, url, download, ""); err == nil {
			err = b.Archives.Extract(ctx, download, sourceRoot, format, 0)
		}
	default:
		err = os.MkdirAll(sourceRoot, 0755)
	}
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to fetch source for %s", d.Name)).
			WithCause(err)
	}
	return nil
}

func (b Builder) runStep(ctx context.Context, logger zerolog.Logger, step types.Step, vars map[string]string) error {
	tool, err := b.Tools.Resolve(shared.ExpandPlaceholders(step.Tool, vars))
	if err != nil {
		return err
	}
	args := make([]string, 0, len(step.Args))
	for _, arg := range step.Args {
		args = append(args, shared.ExpandPlaceholders(arg, vars))
	}
	dir := step.Dir
	if dir == "" {
		dir = "{source}"
	}
	var env map[string]string
	if len(step.Env) > 0 {
		env = make(map[string]string, len(step.Env))
		for key, value := range step.Env {
			env[key] = os.Expand(shared.ExpandPlaceholders(value, vars), os.Getenv)
		}
	}
	cmd := types.Command{Path: tool, Args: args, Dir: shared.ExpandPlaceholders(dir, vars), Env: env}
	logger.Debug().Str("tool", tool).Strs("args", args).Str("path", cmd.Dir).Msg("running build step")
	return b.Runner.Run(ctx, cmd)
}

func (b Builder) record(logger zerolog.Logger, d types.Descriptor, version string, p types.Platform, entry types.BuildRecordEntry, archivePath string) {
	if b.Records == nil {
		return
	}
	entry.Archive = filepath.Base(archivePath)
	entry.BuildTime = b.now()
	if err := b.Records.Record(b.Layout.RecordDir(d), RecordKey(version, p), entry); err != nil {
		logger.Warn().Err(err).Msg("failed to update build record")
	}
}

func (b Builder) now() time.Time {
	if b.Clock == nil {
		return time.Now().UTC()
	}
	return b.Clock().UTC()
}

// collectOutputs maps recipe outputs to archive entries. A file lands at
// To/<base name>; a missing file with a Fallback is written below work
// first. A directory is copied recursively below To, unless Match
// is set, in which case matching files are flattened into To. Version
// control metadata is never packed.
func collectOutputs(outputs []types.Output, vars map[string]string) ([]types.ArchiveEntry, error) {
	byName := map[string]types.ArchiveEntry{}
	for _, output := range outputs {
		from := filepath.Clean(shared.ExpandPlaceholders(output.From, vars))
		to := strings.Trim(path.Clean("/"+filepath.ToSlash(shared.ExpandPlaceholders(output.To, vars))), "/")
		info, err := os.Stat(from)
		if errors.Is(err, fs.ErrNotExist) && output.Fallback != "" {
			from, err = writeFallback(vars["work"], filepath.Base(from), output.Fallback)
			if err == nil {
				info, err = os.Stat(from)
			}
		}
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && output.Optional {
				continue
			}
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("build output %s is missing", from)).
				WithCause(err)
		}
		if !info.IsDir() {
			if matches(output.Match, filepath.Base(from)) {
				addEntry(byName, from, path.Join(to, filepath.Base(from)))
			}
			continue
		}
		err = filepath.WalkDir(from, func(p string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if entry.IsDir() {
				if entry.Name() == ".git" {
					return filepath.SkipDir
				}
				return nil
			}
			if stat, err := os.Stat(p); err != nil || stat.IsDir() {
				return nil
			}
			if len(output.Match) > 0 {
				if matches(output.Match, entry.Name()) {
					addEntry(byName, p, path.Join(to, entry.Name()))
				}
				return nil
			}
			rel, err := filepath.Rel(from, p)
			if err != nil {
				return err
			}
			addEntry(byName, p, path.Join(to, filepath.ToSlash(rel)))
			return nil
		})
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("failed to collect build output %s", from)).
				WithCause(err)
		}
	}
	entries := make([]types.ArchiveEntry, 0, len(byName))
	for _, entry := range byName {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// writeFallback materialises default content below the work tree so it
// can be packed like any other output.
func writeFallback(work string, name string, content string) (string, error) {
	if work == "" {
		return "", errors.New("no work directory for fallback output " + name)
	}
	dir := filepath.Join(work, "fallback")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	target := filepath.Join(dir, name)
	return target, os.WriteFile(target, []byte(content), 0644)
}

func addEntry(byName map[string]types.ArchiveEntry, source string, name string) {
	if _, ok := byName[name]; ok {
		return
	}
	byName[name] = types.ArchiveEntry{Source: source, Name: name}
}

func matches(patterns []string, name string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func versionOf(d types.Descriptor, requested string) string {
	if version := strings.TrimSpace(requested); version != "" {
		return version
	}
	return d.DefaultVersion
}
