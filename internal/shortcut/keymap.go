package shortcut

import (
	"sort"

	"github.com/dshills/blockstorm/internal/command"
)

// Binding maps a chord to a command.
type Binding struct {
	// Chord is the canonical chord string.
	Chord string

	// Command is the command to run.
	Command command.Command

	// Priority orders bindings that share a chord. Higher wins.
	Priority int

	// When, if set, must return true for the binding to apply.
	When func(ctx *command.Context) bool

	// AllowDefault keeps the native action and propagation.
	AllowDefault bool
}

// applies reports whether the binding's precondition holds.
func (b Binding) applies(ctx *command.Context) bool {
	return b.When == nil || b.When(ctx)
}

// Keymap holds bindings grouped by chord.
type Keymap struct {
	bindings map[string][]Binding
}

// NewKeymap creates an empty keymap.
func NewKeymap() *Keymap {
	return &Keymap{bindings: make(map[string][]Binding)}
}

// Add inserts b after every existing binding of equal or higher priority.
func (k *Keymap) Add(b Binding) {
	list := append(k.bindings[b.Chord], b)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Priority > list[j].Priority
	})
	k.bindings[b.Chord] = list
}

// Lookup returns the bindings for chord, highest priority first.
func (k *Keymap) Lookup(chord string) []Binding {
	return k.bindings[chord]
}

// Match returns the first binding for chord that applies to ctx.
func (k *Keymap) Match(chord string, ctx *command.Context) (Binding, bool) {
	for _, b := range k.bindings[chord] {
		if b.applies(ctx) {
			return b, true
		}
	}
	return Binding{}, false
}

// Chords returns the bound chords, sorted.
func (k *Keymap) Chords() []string {
	chords := make([]string, 0, len(k.bindings))
	for c := range k.bindings {
		chords = append(chords, c)
	}
	sort.Strings(chords)
	return chords
}

// Len returns the number of bindings.
func (k *Keymap) Len() int {
	n := 0
	for _, list := range k.bindings {
		n += len(list)
	}
	return n
}
