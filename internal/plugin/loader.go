package plugin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// defaultReadLimit bounds concurrent manifest reads.
const defaultReadLimit = 8

// Loader discovers plugin manifests on the filesystem.
type Loader struct {
	// Search paths for plugins (checked in order)
	paths []string
	limit int
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithPaths sets the plugin search paths.
func WithPaths(paths ...string) LoaderOption {
	return func(l *Loader) {
		l.paths = paths
	}
}

// WithReadLimit bounds the number of manifests read at once.
func WithReadLimit(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.limit = n
		}
	}
}

// NewLoader creates a loader. Without WithPaths it searches nothing.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{limit: defaultReadLimit}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// DefaultPluginPaths returns the conventional plugin search paths.
func DefaultPluginPaths() []string {
	paths := make([]string, 0, 2)

	// User plugins: ~/.config/blockstorm/plugins/
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "blockstorm", "plugins"))
	}

	// Project plugins: .blockstorm/plugins/
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".blockstorm", "plugins"))
	}

	return paths
}

// Paths returns the configured search paths.
func (l *Loader) Paths() []string {
	return l.paths
}

// AddPath adds a search path.
func (l *Loader) AddPath(path string) {
	l.paths = append(l.paths, path)
}

// Discover reads every plugin.json found one directory below the search
// paths. Results follow search path order, then directory name order. A
// manifest that cannot be read or parsed is reported with its error and
// does not abort discovery; missing search paths are ignored.
func (l *Loader) Discover(ctx context.Context) ([]Status, error) {
	var files []string
	for _, base := range l.paths {
		found, err := manifestsIn(base)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}

	results := make([]Status, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.limit)
	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m, err := LoadManifest(file)
			results[i] = Status{Source: file, Manifest: m, Err: err}
			if err != nil {
				results[i].State = StateError
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// manifestsIn lists base/*/plugin.json.
func manifestsIn(base string) ([]string, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading plugin path %s: %w", base, err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		file := filepath.Join(base, entry.Name(), ManifestFile)
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			files = append(files, file)
		}
	}
	return files, nil
}
