package assets

import (
	"encoding/json"
	"os"
	"sync"
)

// Manifest maps source asset paths to their published keys. A publish run
// produces one:
//
//	{
//	  "kinet.js": "kinet.a1b2c3d4.js",
//	  "css/app.css": "css/app.e5f6a7b8.css"
//	}
//
// Servers load it to resolve fingerprinted URLs for the shell. Safe for
// concurrent use.
type Manifest struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewManifest creates an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{
		entries: make(map[string]string),
	}
}

// Load reads a manifest.json file written by WriteFile (or by a publish
// run): a flat JSON object of source path to published key.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	return &Manifest{entries: entries}, nil
}

// Resolve returns the published key for the given source path. Unknown
// sources come back unchanged, so unfingerprinted setups keep working.
func (m *Manifest) Resolve(source string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if resolved, ok := m.entries[source]; ok {
		return resolved
	}
	return source
}

// Has returns true if the manifest contains the given source path.
func (m *Manifest) Has(source string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.entries[source]
	return ok
}

// Set adds or updates an entry.
func (m *Manifest) Set(source, published string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[source] = published
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}

// All returns a copy of all entries.
func (m *Manifest) All() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]string, len(m.entries))
	for k, v := range m.entries {
		result[k] = v
	}
	return result
}

// WriteFile writes the manifest as indented JSON in the format Load reads.
func (m *Manifest) WriteFile(path string) error {
	data, err := json.MarshalIndent(m.All(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
