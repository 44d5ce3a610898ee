package ports

import "project-dependencies/internal/types"

// ManifestPort reads the project's libraries.json.
type ManifestPort interface {
	// Read never fails: a missing or malformed manifest yields the empty
	// manifest.
	Read(projectPath string) types.Manifest

	// Parse is the strict form used by validation.
	Parse(data []byte) (types.Manifest, error)

	// Path returns where Read looks for the manifest.
	Path(projectPath string) string
}
