package plugin

import (
	"errors"
	"fmt"
)

// Plugin runtime errors.
var (
	// ErrInvalidManifest is returned when a manifest is malformed or misses
	// a required field.
	ErrInvalidManifest = errors.New("invalid plugin manifest")

	// ErrModuleNotFound is returned when a manifest's path resolves to
	// nothing loadable.
	ErrModuleNotFound = errors.New("plugin module not found")

	// ErrExportNotFound is returned when the module has no export named by
	// the manifest's class.
	ErrExportNotFound = errors.New("plugin class not exported")

	// ErrNotAPlugin is returned when the instantiated class is neither a
	// Plugin nor an Extension.
	ErrNotAPlugin = errors.New("instance is not a plugin or extension")

	// ErrNilEnv is returned by Init without an environment.
	ErrNilEnv = errors.New("plugin environment is nil")
)

// Load stages reported by LoadError.
const (
	StageManifest = "manifest"
	StageModule   = "module"
	StageExport   = "export"
	StageSetup    = "setup"
)

// LoadError reports a failure to bring up one plugin.
type LoadError struct {
	Plugin string
	Stage  string
	Err    error
}

// Error implements error.
func (e *LoadError) Error() string {
	if e.Plugin == "" {
		return fmt.Sprintf("plugin %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("plugin %q %s: %v", e.Plugin, e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Err
}
