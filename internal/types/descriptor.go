package types

type ArchiveFormat string

const (
	ArchiveFormatZip   ArchiveFormat = "zip"
	ArchiveFormatTarXz ArchiveFormat = "tar.xz"
	ArchiveFormatTarGz ArchiveFormat = "tar.gz"
)

// Extension returns the file suffix for the format, including the dot.
func (f ArchiveFormat) Extension() string {
	switch f {
	case ArchiveFormatTarXz:
		return ".tar.xz"
	case ArchiveFormatTarGz:
		return ".tar.gz"
	default:
		return ".zip"
	}
}

type SourceKind string

const (
	SourceKindNone    SourceKind = ""
	SourceKindGit     SourceKind = "git"
	SourceKindArchive SourceKind = "archive"
)

// Prebuilt is one entry of a descriptor's download table. An empty URL
// means no binary is published for that platform.
type Prebuilt struct {
	URL             string        `yaml:"url"`
	SHA256          string        `yaml:"sha256,omitempty"`
	Format          ArchiveFormat `yaml:"format,omitempty"`
	StripComponents int           `yaml:"strip_components,omitempty"`
}

type Source struct {
	Kind   SourceKind    `yaml:"kind"`
	URL    string        `yaml:"url"`
	Ref    string        `yaml:"ref,omitempty"`
	Dir    string        `yaml:"dir,omitempty"`
	Format ArchiveFormat `yaml:"format,omitempty"`
}

// Step is a single toolchain invocation. Tool is either a logical tool
// name ("git", "cmake", "make", "sh") resolved through the toolchain, or a
// path.
type Step struct {
	Tool string            `yaml:"tool"`
	Args []string          `yaml:"args,omitempty"`
	Dir  string            `yaml:"dir,omitempty"`
	Env  map[string]string `yaml:"env,omitempty"`
}

// Output copies From (a file or directory under the work tree) into the
// archive at To. Match filters directory contents by base name. Fallback
// is file content packed under From's base name when From is missing.
type Output struct {
	From     string   `yaml:"from"`
	To       string   `yaml:"to,omitempty"`
	Match    []string `yaml:"match,omitempty"`
	Optional bool     `yaml:"optional,omitempty"`
	Fallback string   `yaml:"fallback,omitempty"`
}

type Recipe struct {
	Steps   []Step   `yaml:"steps"`
	Outputs []Output `yaml:"outputs"`
}

// Marker lists alternative relative paths; at least one must exist.
type Marker []string

// Descriptor is the data that drives the generic build and install
// pipeline for one dependency. Unsupported lists the cache names of
// platforms the dependency is never built for; install-all skips them
// with a warning.
type Descriptor struct {
	Name            string              `yaml:"name"`
	DefaultVersion  string              `yaml:"default_version"`
	InstallDir      string              `yaml:"install_dir,omitempty"`
	ArchiveName     string              `yaml:"archive_name,omitempty"`
	PlatformNeutral bool                `yaml:"platform_neutral,omitempty"`
	Variants        []Platform          `yaml:"variants,omitempty"`
	Prebuilt        map[string]Prebuilt `yaml:"prebuilt,omitempty"`
	Source          Source              `yaml:"source,omitempty"`
	Recipes         map[string]Recipe   `yaml:"recipes,omitempty"`
	Markers         map[string][]Marker `yaml:"markers,omitempty"`
	Unsupported     []string            `yaml:"unsupported,omitempty"`
}

// RegistryFile is the top-level structure of a registry override file.
type RegistryFile struct {
	Dependencies []Descriptor `yaml:"dependencies"`
}
