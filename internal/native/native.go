package native

import (
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/dshills/blockstorm/internal/dom"
	"github.com/dshills/blockstorm/internal/event"
	"github.com/dshills/blockstorm/internal/input/key"
)

// Simulator performs default actions against a document.
type Simulator struct {
	doc       *dom.Document
	bus       *event.Bus
	platform  key.Platform
	clipboard string
	logger    *zap.Logger
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithPlatform sets the platform used to recognize Mod+V and Mod+X.
func WithPlatform(p key.Platform) Option {
	return func(s *Simulator) {
		s.platform = p
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Simulator) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a simulator. A nil bus disables input events.
func New(doc *dom.Document, bus *event.Bus, opts ...Option) *Simulator {
	s := &Simulator{
		doc:      doc,
		bus:      bus,
		platform: key.DetectPlatform(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Clipboard returns the simulated clipboard contents.
func (s *Simulator) Clipboard() string {
	return s.clipboard
}

// SetClipboard replaces the clipboard contents used by Mod+V.
func (s *Simulator) SetClipboard(markup string) {
	s.clipboard = markup
}

// KeyDown performs the default action of ev and reports whether the tree
// changed. Events whose default was prevented, composition events and keys
// without a default action do nothing.
func (s *Simulator) KeyDown(ev *key.Event) bool {
	if ev == nil || ev.DefaultPrevented() || ev.IsComposition() {
		return false
	}
	primary := ev.HasPrimary(s.platform)
	switch {
	case ev.Key == key.Backspace:
		return s.DeleteBackward()
	case ev.Key == key.Delete:
		return s.DeleteForward()
	case ev.Key == key.Enter && !primary:
		return s.InsertParagraph()
	case primary && key.NormalizeKey(ev.Key) == "v":
		return s.Paste(s.clipboard)
	case primary && key.NormalizeKey(ev.Key) == "x":
		_, ok := s.Cut()
		return ok
	case ev.IsPrintable():
		return s.InsertText(ev.Key)
	}
	return false
}

// InsertText inserts text at the caret, replacing a selected range.
func (s *Simulator) InsertText(text string) bool {
	if text == "" {
		return false
	}
	s.deleteSelection()
	if !s.insertAtCaret(text) {
		return false
	}
	s.emit(event.InputInsertText, text)
	return true
}

// DeleteBackward removes the grapheme before the caret, or the selected
// range. At the start of a block the block merges into its predecessor.
func (s *Simulator) DeleteBackward() bool {
	if s.deleteSelection() || s.deleteGrapheme(false) || s.mergeBackward() {
		s.emit(event.InputDeleteBackward, "")
		return true
	}
	return false
}

// DeleteForward removes the grapheme after the caret, or the selected
// range. At the end of a block the next block merges into it.
func (s *Simulator) DeleteForward() bool {
	if s.deleteSelection() || s.deleteGrapheme(true) || s.mergeForward() {
		s.emit(event.InputDeleteForward, "")
		return true
	}
	return false
}

func (s *Simulator) emit(inputType, data string) {
	s.logger.Debug("native edit", zap.String("type", inputType))
	if s.bus == nil {
		return
	}
	s.bus.Emit(event.TopicInput, &event.Input{InputType: inputType, Data: data})
}

// caret returns the collapsed caret, or false when the selection is absent
// or outside the root.
func (s *Simulator) caret() (*html.Node, int, bool) {
	sel := s.doc.Selection()
	if sel == nil || !s.doc.SelectionInside() {
		return nil, 0, false
	}
	return sel.Focus, dom.ClampOffset(sel.Focus, sel.FocusOffset), true
}
