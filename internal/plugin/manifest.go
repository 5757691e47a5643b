package plugin

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
)

// ManifestFile is the manifest name looked up in each plugin directory.
const ManifestFile = "plugin.json"

// Manifest describes a plugin: where its module is and which export to
// instantiate.
type Manifest struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Class       string `json:"class"`
	Active      bool   `json:"active"`
	Author      string `json:"author,omitempty"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description,omitempty"`

	// Dir is the directory holding the manifest. Empty for built-in
	// manifests, whose Path names an entry of the module registry.
	Dir string `json:"-"`
}

// ParseManifest parses manifest JSON. The required fields name, path and
// class must be non-empty strings and active must be a boolean.
func ParseManifest(data []byte, dir string) (*Manifest, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidManifest)
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: not an object", ErrInvalidManifest)
	}

	m := &Manifest{Dir: dir}
	for _, field := range []struct {
		key string
		dst *string
	}{
		{"name", &m.Name},
		{"path", &m.Path},
		{"class", &m.Class},
	} {
		v := doc.Get(field.key)
		if v.Type != gjson.String || v.Str == "" {
			return nil, fmt.Errorf("%w: missing %q", ErrInvalidManifest, field.key)
		}
		*field.dst = v.Str
	}

	active := doc.Get("active")
	if !active.IsBool() {
		return nil, fmt.Errorf("%w: missing %q", ErrInvalidManifest, "active")
	}
	m.Active = active.Bool()

	m.Author = doc.Get("author").String()
	m.Version = doc.Get("version").String()
	m.Description = doc.Get("description").String()
	return m, nil
}

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return ParseManifest(data, filepath.Dir(path))
}

// Builtin reports whether the manifest was provided in-process.
func (m *Manifest) Builtin() bool {
	return m.Dir == ""
}

// ModulePath returns the module path resolved against the manifest
// directory.
func (m *Manifest) ModulePath() string {
	if m.Builtin() || filepath.IsAbs(m.Path) {
		return m.Path
	}
	return filepath.Join(m.Dir, m.Path)
}

// IsLua reports whether the module is a Lua script.
func (m *Manifest) IsLua() bool {
	return filepath.Ext(m.Path) == ".lua"
}

// String returns a string representation of the manifest.
func (m *Manifest) String() string {
	if m.Version == "" {
		return m.Name
	}
	return fmt.Sprintf("%s v%s", m.Name, m.Version)
}
