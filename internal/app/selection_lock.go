package app

import (
	"sync"

	"github.com/dshills/blockstorm/internal/dom"
	"github.com/dshills/blockstorm/internal/overlay"
)

// SelectionLock holds the document selection while an overlay that asks
// for it is open, and puts it back when the last such overlay closes.
type SelectionLock struct {
	doc *dom.Document

	mu    sync.Mutex
	saved *dom.Selection
	depth int
}

// NewSelectionLock creates a lock for doc.
func NewSelectionLock(doc *dom.Document) *SelectionLock {
	return &SelectionLock{doc: doc}
}

// Lock saves the current selection. Nested locks keep the first one.
func (l *SelectionLock) Lock() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.depth == 0 {
		l.saved = l.doc.Selection()
	}
	l.depth++
}

// Unlock releases one lock. Releasing the last one restores the saved
// selection if its nodes are still in the document.
func (l *SelectionLock) Unlock() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.depth == 0 {
		return
	}
	l.depth--
	if l.depth > 0 {
		return
	}
	sel := l.saved
	l.saved = nil
	if sel == nil {
		return
	}
	root := l.doc.Root()
	if !dom.Contains(root, sel.Anchor) || !dom.Contains(root, sel.Focus) {
		return
	}
	l.doc.SetSelection(dom.Selection{
		Anchor:       sel.Anchor,
		AnchorOffset: dom.ClampOffset(sel.Anchor, sel.AnchorOffset),
		Focus:        sel.Focus,
		FocusOffset:  dom.ClampOffset(sel.Focus, sel.FocusOffset),
	})
}

// Locked reports whether a lock is held.
func (l *SelectionLock) Locked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.depth > 0
}

// track is an overlay change listener driving the lock.
func (l *SelectionLock) track(c overlay.Change) {
	if !c.Element.Options().LockSelection {
		return
	}
	switch c.Kind {
	case overlay.Opened:
		l.Lock()
	case overlay.Closed:
		l.Unlock()
	}
}
