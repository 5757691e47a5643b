// Package builtin provides the core command extension shipped with the
// editor. It targets the shortcut host like any third-party extension and
// reaches editor services through context requests.
package builtin

import (
	"go.uber.org/zap"

	"github.com/dshills/blockstorm/internal/command"
	"github.com/dshills/blockstorm/internal/dom"
	"github.com/dshills/blockstorm/internal/event"
	"github.com/dshills/blockstorm/internal/overlay"
	"github.com/dshills/blockstorm/internal/plugin"
	"github.com/dshills/blockstorm/internal/shortcut"
)

// Manifest locates the core extension in the module registry.
const (
	ModulePath = "builtin/core"
	ClassName  = "Core"
)

// Command ids.
const (
	CmdUndo               = "history.undo"
	CmdRedo               = "history.redo"
	CmdInsertParagraph    = "block.insertParagraph"
	CmdDeleteBlock        = "block.delete"
	CmdReplaceBlock       = "block.replace"
	CmdReplacePlaceholder = "block.replacePlaceholder"
	CmdCloseOverlay       = "overlay.close"
)

// Undoer is the history surface the undo commands need.
type Undoer interface {
	Undo() bool
	Redo() bool
}

// Popper is the overlay surface overlay.close needs.
type Popper interface {
	Len() int
	Pop() overlay.Element
}

// Core is the core command extension.
type Core struct {
	bus    *event.Bus
	sched  dom.Scheduler
	logger *zap.Logger
	cmds   []command.Command
	host   plugin.Host
}

// Option configures Core.
type Option func(*Core)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Core) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates the core extension. Services are requested on bus when a
// command runs; asynchronous work is posted to sched.
func New(bus *event.Bus, sched dom.Scheduler, opts ...Option) *Core {
	c := &Core{bus: bus, sched: sched, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	c.cmds = []command.Command{
		&command.Definition{
			Name:  CmdUndo,
			Order: 0,
			Run:   c.undo,
			Keys:  []command.Shortcut{{Chord: "Mod+Z"}},
		},
		&command.Definition{
			Name:  CmdRedo,
			Order: 1,
			Run:   c.redo,
			Keys:  []command.Shortcut{{Chord: "Mod+Shift+Z"}, {Chord: "Mod+Y"}},
		},
		&command.Definition{
			Name:  CmdInsertParagraph,
			Order: 10,
			Run:   insertParagraph,
			Keys:  []command.Shortcut{{Chord: "Mod+Enter"}},
		},
		&command.Definition{Name: CmdDeleteBlock, Order: 11, Run: deleteBlock},
		&command.Definition{Name: CmdReplaceBlock, Order: 12, Run: replaceBlock},
		&command.Definition{Name: CmdReplacePlaceholder, Order: 13, Run: c.replacePlaceholder},
		&command.Definition{Name: CmdCloseOverlay, Order: 20, Run: c.closeOverlay},
	}
	return c
}

// Target implements plugin.Extension.
func (c *Core) Target() string { return shortcut.HostType }

// Commands implements plugin.CommandProvider.
func (c *Core) Commands() []command.Command { return c.cmds }

// SetupExtension implements plugin.ExtensionInitializer.
func (c *Core) SetupExtension(host plugin.Host) error {
	c.host = host
	c.logger.Debug("core commands attached", zap.String("host", host.HostType()))
	return nil
}

func (c *Core) undo(*command.Context) bool {
	h, ok := event.RequestAs[Undoer](c.bus, event.ServiceHistory, c)
	return ok && h.Undo()
}

func (c *Core) redo(*command.Context) bool {
	h, ok := event.RequestAs[Undoer](c.bus, event.ServiceHistory, c)
	return ok && h.Redo()
}
