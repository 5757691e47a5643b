package overlay

import "time"

// Config holds the overlay stack configuration.
type Config struct {
	// GraceWindow is how long a freshly opened overlay ignores outside
	// clicks, so the click that opened it does not close it.
	GraceWindow time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{GraceWindow: 100 * time.Millisecond}
}
