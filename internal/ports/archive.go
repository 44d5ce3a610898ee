package ports

import (
	"context"

	"project-dependencies/internal/types"
)

type ArchivePort interface {
	Exists(path string) bool
	Pack(dest string, entries []types.ArchiveEntry) error
	Extract(ctx context.Context, src string, dest string, format types.ArchiveFormat, stripComponents int) error
}
