// Package overlay keeps track of the floating surfaces (menus, popovers,
// toolbars) open over the editor, in z-order, and closes them on Escape
// or on a click outside the topmost one.
package overlay

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dshills/blockstorm/internal/dom"
)

// Strategy decides what happens to the stack when an overlay opens.
type Strategy uint8

const (
	// StrategyDefault pops overlays until the top one allows an overlay on top.
	StrategyDefault Strategy = iota

	// StrategyClearStack closes every open overlay first.
	StrategyClearStack

	// StrategyKeepStack leaves the stack untouched.
	StrategyKeepStack
)

// String returns the string representation of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyDefault:
		return "default"
	case StrategyClearStack:
		return "clear-stack"
	case StrategyKeepStack:
		return "keep-stack"
	default:
		return "unknown"
	}
}

// Options is the stacking policy an overlay reports about itself.
type Options struct {
	// AllowOverlayOnTop keeps this overlay open when another opens over it
	// with the default strategy.
	AllowOverlayOnTop bool

	// Strategy applies when this overlay is pushed.
	Strategy Strategy

	// CloseOnOutsideClick lets a click outside the overlay close it.
	CloseOnOutsideClick bool

	// LockSelection asks the editor to hold the document selection while
	// the overlay is open.
	LockSelection bool
}

// Element is a floating surface managed by a Stack.
type Element interface {
	// Options returns the element's stacking policy. It is read on every
	// push, so an element may change its answer over time.
	Options() Options

	// Contains reports whether target lies inside the element.
	Contains(target *html.Node) bool

	// Mount attaches the element to the overlay layer.
	Mount(layer *html.Node)

	// Unmount detaches the element.
	Unmount()
}

// Panel is an Element backed by its own node.
type Panel struct {
	name string
	node *html.Node
	opts Options

	// OnClose runs after the panel is unmounted.
	OnClose func()
}

// NewPanel creates a panel rendered as <div class="ce-overlay" data-overlay=name>.
func NewPanel(name string, opts Options) *Panel {
	node := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Div,
		Data:     "div",
		Attr: []html.Attribute{
			{Key: "class", Val: "ce-overlay"},
			{Key: "data-overlay", Val: name},
		},
	}
	return &Panel{name: name, node: node, opts: opts}
}

// Name returns the panel name.
func (p *Panel) Name() string { return p.name }

// Node returns the panel's root node.
func (p *Panel) Node() *html.Node { return p.node }

// SetOptions replaces the stacking policy.
func (p *Panel) SetOptions(opts Options) { p.opts = opts }

// Options implements Element.
func (p *Panel) Options() Options { return p.opts }

// Contains implements Element.
func (p *Panel) Contains(target *html.Node) bool {
	return target != nil && dom.Contains(p.node, target)
}

// Mount implements Element.
func (p *Panel) Mount(layer *html.Node) {
	if p.node.Parent != nil {
		p.node.Parent.RemoveChild(p.node)
	}
	layer.AppendChild(p.node)
}

// Unmount implements Element.
func (p *Panel) Unmount() {
	if p.node.Parent != nil {
		p.node.Parent.RemoveChild(p.node)
	}
	if p.OnClose != nil {
		p.OnClose()
	}
}

// Mounted reports whether the panel is attached to a layer.
func (p *Panel) Mounted() bool {
	return p.node.Parent != nil
}
