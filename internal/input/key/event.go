package key

import (
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// Named keys, as reported in Event.Key.
const (
	Enter     = "Enter"
	Escape    = "Escape"
	Backspace = "Backspace"
	Delete    = "Delete"
	Tab       = "Tab"
	Process   = "Process"
	Dead      = "Dead"
)

// Event is a key-down event. Key holds the produced character for
// printable keys and the key name otherwise.
type Event struct {
	Key         string
	Modifiers   Modifier
	IsComposing bool
	Repeat      bool

	defaultPrevented   bool
	propagationStopped bool
}

// NewEvent creates a key-down event.
func NewEvent(k string, mods Modifier) *Event {
	return &Event{Key: k, Modifiers: mods}
}

// PreventDefault suppresses the native action for this event.
func (e *Event) PreventDefault() {
	e.defaultPrevented = true
}

// DefaultPrevented reports whether PreventDefault was called.
func (e *Event) DefaultPrevented() bool {
	return e.defaultPrevented
}

// StopPropagation keeps later listeners from seeing the event.
func (e *Event) StopPropagation() {
	e.propagationStopped = true
}

// PropagationStopped reports whether StopPropagation was called.
func (e *Event) PropagationStopped() bool {
	return e.propagationStopped
}

// IsPrintable reports whether the event produces a single visible
// grapheme without a command modifier.
func (e *Event) IsPrintable() bool {
	if e.Modifiers.Has(ModCtrl) || e.Modifiers.Has(ModMeta) {
		return false
	}
	if e.Key == "" || uniseg.GraphemeClusterCount(e.Key) != 1 {
		return false
	}
	r, _ := utf8.DecodeRuneInString(e.Key)
	return unicode.IsPrint(r)
}

// IsComposition reports whether the event belongs to an IME composition.
func (e *Event) IsComposition() bool {
	return e.IsComposing || e.Key == Process || e.Key == Dead
}

// HasPrimary reports whether the platform's primary modifier is held.
func (e *Event) HasPrimary(p Platform) bool {
	return e.Modifiers.Has(p.Primary())
}

// Graphemes splits text into user-perceived characters.
func Graphemes(text string) []string {
	var out []string
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		out = append(out, g.Str())
	}
	return out
}
