package types

// ManifestEntry is one record of libraries.json.
type ManifestEntry struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ManifestFile mirrors the on-disk shape of libraries.json.
type ManifestFile struct {
	Dependencies *[]ManifestEntry `json:"dependencies"`
}

// Manifest is the ordered name to version mapping read from
// libraries.json. The zero value is the empty manifest, which means
// "process every registered dependency with its default version".
type Manifest struct {
	entries []ManifestEntry
	index   map[string]int
}

// NewManifest keeps the first position of each name and the last version
// seen for it.
func NewManifest(entries []ManifestEntry) Manifest {
	m := Manifest{index: map[string]int{}}
	for _, entry := range entries {
		if idx, ok := m.index[entry.Name]; ok {
			m.entries[idx].Version = entry.Version
			continue
		}
		m.index[entry.Name] = len(m.entries)
		m.entries = append(m.entries, entry)
	}
	return m
}

func (m Manifest) Empty() bool {
	return len(m.entries) == 0
}

func (m Manifest) Len() int {
	return len(m.entries)
}

// Lookup returns the requested version for name, which may be empty.
func (m Manifest) Lookup(name string) (string, bool) {
	idx, ok := m.index[name]
	if !ok {
		return "", false
	}
	return m.entries[idx].Version, true
}

func (m Manifest) Entries() []ManifestEntry {
	return append([]ManifestEntry(nil), m.entries...)
}
