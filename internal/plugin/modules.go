package plugin

import (
	"fmt"
	"sort"
	"sync"
)

// Constructor instantiates a plugin class.
type Constructor func() any

// Modules maps module paths to their exported classes. It stands in for
// dynamic module loading for plugins compiled into the binary.
type Modules struct {
	mu      sync.RWMutex
	modules map[string]map[string]Constructor
}

// NewModules creates an empty module registry.
func NewModules() *Modules {
	return &Modules{modules: make(map[string]map[string]Constructor)}
}

// Register exports class from the module at path.
func (m *Modules) Register(path, class string, ctor Constructor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exports, ok := m.modules[path]
	if !ok {
		exports = make(map[string]Constructor)
		m.modules[path] = exports
	}
	exports[class] = ctor
}

// Lookup returns the constructor for class in the module at path.
func (m *Modules) Lookup(path, class string) (Constructor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	exports, ok := m.modules[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, path)
	}
	ctor, ok := exports[class]
	if !ok || ctor == nil {
		return nil, fmt.Errorf("%w: %s in %s", ErrExportNotFound, class, path)
	}
	return ctor, nil
}

// Paths returns the registered module paths, sorted.
func (m *Modules) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	paths := make([]string, 0, len(m.modules))
	for p := range m.modules {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
