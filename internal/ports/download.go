package ports

import "context"

type DownloaderPort interface {
	// Download fetches url into dest. dest is only created when the whole
	// body was received and, if sha256 is set, matched.
	Download(ctx context.Context, url string, dest string, sha256 string) error
}
