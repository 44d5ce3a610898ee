package ports

import "project-dependencies/internal/types"

type BuildRecordPort interface {
	Load(dir string) (types.BuildRecord, error)
	Record(dir string, key string, entry types.BuildRecordEntry) error
}
