package ports

import "context"

type SourcePort interface {
	// Sync makes dir a checkout of ref from remote.
	Sync(ctx context.Context, remote string, ref string, dir string) error
}
