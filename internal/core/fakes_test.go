package core

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"project-dependencies/internal/types"
)

// fakeArchives treats any existing file as a cache entry. Pack writes a
// placeholder file and Extract materialises the files registered for the
// archive.
type fakeArchives struct {
	packed     map[string][]types.ArchiveEntry
	contents   map[string][]string
	extracts   int
	extractErr error
	onExists   func(path string)
}

func newFakeArchives() *fakeArchives {
	return &fakeArchives{packed: map[string][]types.ArchiveEntry{}, contents: map[string][]string{}}
}

func (f *fakeArchives) Exists(path string) bool {
	if f.onExists != nil {
		f.onExists(path)
	}
	_, err := os.Stat(path)
	return err == nil
}

func (f *fakeArchives) Pack(dest string, entries []types.ArchiveEntry) error {
	f.packed[dest] = entries
	return writeFile(dest, "archive")
}

func (f *fakeArchives) Extract(_ context.Context, src string, dest string, _ types.ArchiveFormat, _ int) error {
	f.extracts++
	files := f.contents[src]
	if len(files) == 0 {
		files = []string{"payload.txt"}
	}
	for _, name := range files {
		if err := writeFile(filepath.Join(dest, filepath.FromSlash(name)), name); err != nil {
			return err
		}
	}
	return f.extractErr
}

type fakeDownloader struct {
	calls []string
	err   error
}

func (f *fakeDownloader) Download(_ context.Context, url string, dest string, _ string) error {
	f.calls = append(f.calls, url)
	if f.err != nil {
		return f.err
	}
	return writeFile(dest, url)
}

// fakeSources checks out a tree holding the given files.
type fakeSources struct {
	calls []string
	files []string
}

func (f *fakeSources) Sync(_ context.Context, remote string, ref string, dir string) error {
	f.calls = append(f.calls, remote+"@"+ref)
	for _, name := range f.files {
		if err := writeFile(filepath.Join(dir, filepath.FromSlash(name)), name); err != nil {
			return err
		}
	}
	return os.MkdirAll(dir, 0755)
}

type fakeRunner struct {
	commands []types.Command
	err      error
	onRun    func(cmd types.Command) error
}

func (f *fakeRunner) Run(_ context.Context, cmd types.Command) error {
	f.commands = append(f.commands, cmd)
	if f.onRun != nil {
		if err := f.onRun(cmd); err != nil {
			return err
		}
	}
	return f.err
}

type fakeRecords struct {
	entries map[string]types.BuildRecordEntry
}

func (f *fakeRecords) Load(string) (types.BuildRecord, error) {
	return types.BuildRecord{Cache: f.entries}, nil
}

func (f *fakeRecords) Record(_ string, key string, entry types.BuildRecordEntry) error {
	if f.entries == nil {
		f.entries = map[string]types.BuildRecordEntry{}
	}
	f.entries[key] = entry
	return nil
}

type builderFixture struct {
	builder    Builder
	archives   *fakeArchives
	downloader *fakeDownloader
	sources    *fakeSources
	runner     *fakeRunner
	records    *fakeRecords
}

func newBuilderFixture(root string) builderFixture {
	f := builderFixture{
		archives:   newFakeArchives(),
		downloader: &fakeDownloader{},
		sources:    &fakeSources{},
		runner:     &fakeRunner{},
		records:    &fakeRecords{},
	}
	f.builder = Builder{
		Layout:     NewLayout(root),
		Archives:   f.archives,
		Downloader: f.downloader,
		Sources:    f.sources,
		Runner:     f.runner,
		Records:    f.records,
		Tools: Toolchain{LookPath: func(file string) (string, error) {
			return "/usr/bin/" + file, nil
		}},
		Clock: func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
	}
	return f
}

func writeFile(path string, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}
