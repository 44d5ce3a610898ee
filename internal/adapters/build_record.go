package adapters

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"project-dependencies/internal/ports"
	"project-dependencies/internal/types"
)

const buildRecordFile = ".cache.json"

// BuildRecordFileAdapter keeps the informational .cache.json next to the
// archive cache of a dependency.
type BuildRecordFileAdapter struct{}

func NewBuildRecordFileAdapter() BuildRecordFileAdapter {
	return BuildRecordFileAdapter{}
}

// Load returns an empty record when the file does not exist yet.
func (a BuildRecordFileAdapter) Load(dir string) (types.BuildRecord, error) {
	record := types.BuildRecord{Cache: map[string]types.BuildRecordEntry{}}
	data, err := os.ReadFile(filepath.Join(dir, buildRecordFile))
	if errors.Is(err, fs.ErrNotExist) {
		return record, nil
	}
	if err != nil {
		return record, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read build record").
			WithCause(err)
	}
	if err := json.Unmarshal(data, &record); err != nil {
		return types.BuildRecord{Cache: map[string]types.BuildRecordEntry{}}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse build record").
			WithCause(err)
	}
	if record.Cache == nil {
		record.Cache = map[string]types.BuildRecordEntry{}
	}
	return record, nil
}

// Record upserts one entry. A corrupt record file is replaced.
func (a BuildRecordFileAdapter) Record(dir string, key string, entry types.BuildRecordEntry) error {
	path, err := a.ensurePath(dir)
	if err != nil {
		return err
	}
	record, err := a.Load(dir)
	if err != nil && errbuilder.CodeOf(err) != errbuilder.CodeInvalidArgument {
		return err
	}
	record.Cache[key] = entry
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode build record").
			WithCause(err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write build record").
			WithCause(err)
	}
	return os.Rename(tmp, path)
}

func (a BuildRecordFileAdapter) ensurePath(dir string) (string, error) {
	if dir == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("build record directory is empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create build record directory").
			WithCause(err)
	}
	return filepath.Join(dir, buildRecordFile), nil
}

var _ ports.BuildRecordPort = BuildRecordFileAdapter{}
