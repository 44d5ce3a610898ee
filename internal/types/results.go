package types

import "time"

type BuildOutcome string

const (
	BuildOutcomeAlreadyBuilt    BuildOutcome = "already-built"
	BuildOutcomeDownloaded      BuildOutcome = "downloaded"
	BuildOutcomeBuiltFromSource BuildOutcome = "built-from-source"
)

type InstallOutcome string

const (
	InstallOutcomeAlreadyInstalled InstallOutcome = "already-installed"
	InstallOutcomeInstalled        InstallOutcome = "installed"
)

type BuildOrigin string

const (
	BuildOriginDownload BuildOrigin = "download"
	BuildOriginSource   BuildOrigin = "source"
)

// BuildRecordEntry describes how one archive cache entry was produced.
type BuildRecordEntry struct {
	Origin    BuildOrigin `json:"origin"`
	URL       string      `json:"url,omitempty"`
	SHA256    string      `json:"sha256,omitempty"`
	Archive   string      `json:"archive"`
	BuildTime time.Time   `json:"build_time"`
}

// BuildRecord maps "version-platform" keys to entries.
type BuildRecord struct {
	Cache map[string]BuildRecordEntry `json:"cache"`
}

// ArchiveEntry pairs a file on disk with its name inside an archive.
type ArchiveEntry struct {
	Source string
	Name   string
}

// Command is a fully resolved process invocation.
type Command struct {
	Path string
	Args []string
	Dir  string
	Env  map[string]string
}
