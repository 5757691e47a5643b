package plugin

// State represents the lifecycle state of a discovered plugin.
type State int

// Plugin states.
const (
	// StateDiscovered - Manifest was read but not acted on yet.
	StateDiscovered State = iota

	// StateSkipped - Manifest is inactive, disabled or a duplicate.
	StateSkipped

	// StateLoaded - Class was instantiated.
	StateLoaded

	// StateActive - Instance is attached or set up.
	StateActive

	// StateError - Plugin failed at some stage.
	StateError
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateDiscovered:
		return "discovered"
	case StateSkipped:
		return "skipped"
	case StateLoaded:
		return "loaded"
	case StateActive:
		return "active"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// IsUsable returns true if the plugin instance is in use.
func (s State) IsUsable() bool {
	return s == StateLoaded || s == StateActive
}

// Status is the outcome of discovering and loading one manifest.
type Status struct {
	// Source is the manifest file, or "builtin".
	Source   string
	Manifest *Manifest
	State    State
	Err      error
}

// Name returns the manifest name, or the source when the manifest could not
// be read.
func (s Status) Name() string {
	if s.Manifest != nil && s.Manifest.Name != "" {
		return s.Manifest.Name
	}
	return s.Source
}
