package plugin

import (
	"go.uber.org/zap"

	"github.com/dshills/blockstorm/internal/command"
	"github.com/dshills/blockstorm/internal/dom"
	"github.com/dshills/blockstorm/internal/event"
	"github.com/dshills/blockstorm/internal/input/key"
	"github.com/dshills/blockstorm/internal/overlay"
)

// Env is the editor surface handed to plugins.
type Env struct {
	Doc      *dom.Document
	Bus      *event.Bus
	Commands *command.Registry
	Overlays *overlay.Stack
	Platform key.Platform
	Logger   *zap.Logger
}

// Plugin is a unit of editor behavior set up once after loading.
type Plugin interface {
	// Setup receives the environment and every loaded instance.
	Setup(env *Env, all []any) error
}

// Host is a plugin that other plugins extend.
type Host interface {
	Plugin

	// HostType names the host. Extensions target it by this name.
	HostType() string

	// AttachExtensions receives the extensions targeting this host.
	AttachExtensions(exts []Extension)
}

// Extension contributes to the host named by Target.
type Extension interface {
	Target() string
}

// ExtensionInitializer is implemented by extensions that want a handle on
// their host once attached. An error marks the extension as failed.
type ExtensionInitializer interface {
	SetupExtension(host Host) error
}

// CommandProvider is implemented by extensions that contribute commands.
type CommandProvider interface {
	Commands() []command.Command
}

// Closer is implemented by instances holding resources past Setup.
type Closer interface {
	Close() error
}
