package command

import (
	"golang.org/x/net/html"

	"github.com/dshills/blockstorm/internal/dom"
	"github.com/dshills/blockstorm/internal/input/key"
)

// Context is the argument bag passed to commands. Each command documents
// which fields it reads.
type Context struct {
	Doc         *dom.Document
	Selection   *dom.Selection
	URL         string
	Event       *key.Event
	Target      *html.Node
	Content     any
	Latex       string
	DisplayMode bool
}

// Command is an executable editor action.
type Command interface {
	ID() string
	Execute(ctx *Context) bool
}

// Shortcut binds a chord to a command.
type Shortcut struct {
	// Chord in "Mod+Shift+Z" syntax.
	Chord string

	// Priority orders bindings that share a chord. Higher wins.
	Priority int

	// When, if set, must return true for the binding to apply.
	When func(ctx *Context) bool

	// AllowDefault keeps the native action and propagation of the key event.
	AllowDefault bool
}

// ShortcutProvider is implemented by commands that declare shortcuts.
type ShortcutProvider interface {
	Shortcuts() []Shortcut
}

// Sortable is implemented by contributed data that declares its position
// relative to contributions from other plugins.
type Sortable interface {
	SortKey() int
}

// Definition is a Command built from plain values.
type Definition struct {
	Name  string
	Run   func(ctx *Context) bool
	Keys  []Shortcut
	Order int
}

// ID implements Command.
func (d *Definition) ID() string { return d.Name }

// Execute implements Command.
func (d *Definition) Execute(ctx *Context) bool {
	if d.Run == nil {
		return false
	}
	return d.Run(ctx)
}

// Shortcuts implements ShortcutProvider.
func (d *Definition) Shortcuts() []Shortcut { return d.Keys }

// SortKey implements Sortable.
func (d *Definition) SortKey() int { return d.Order }

// SortKeyOf returns the sort key of v, or 0.
func SortKeyOf(v any) int {
	if s, ok := v.(Sortable); ok {
		return s.SortKey()
	}
	return 0
}
