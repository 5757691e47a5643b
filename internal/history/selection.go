package history

import (
	"github.com/dshills/blockstorm/internal/dom"
)

// SelectionSnapshot stores a selection as index paths from the root so it
// survives the node replacement a restore performs.
type SelectionSnapshot struct {
	AnchorPath   dom.Path
	AnchorOffset int
	FocusPath    dom.Path
	FocusOffset  int
	IsCollapsed  bool
}

// CaptureSelection records the current selection. It returns nil when there
// is no selection or it lies outside the root.
func CaptureSelection(doc *dom.Document) *SelectionSnapshot {
	sel := doc.Selection()
	if sel == nil {
		return nil
	}
	root := doc.Root()
	anchor, err := dom.PathOf(root, sel.Anchor)
	if err != nil {
		return nil
	}
	focus, err := dom.PathOf(root, sel.Focus)
	if err != nil {
		return nil
	}
	return &SelectionSnapshot{
		AnchorPath:   anchor,
		AnchorOffset: sel.AnchorOffset,
		FocusPath:    focus,
		FocusOffset:  sel.FocusOffset,
		IsCollapsed:  sel.Collapsed(),
	}
}

// RestoreSelection resolves s against the current tree. Offsets are clamped
// to the resolved nodes. If either path no longer resolves the selection is
// cleared and false is returned.
func RestoreSelection(doc *dom.Document, s *SelectionSnapshot) bool {
	if s == nil {
		doc.ClearSelection()
		return false
	}
	root := doc.Root()
	anchor, err := dom.NodeAt(root, s.AnchorPath)
	if err != nil {
		doc.ClearSelection()
		return false
	}
	focus, err := dom.NodeAt(root, s.FocusPath)
	if err != nil {
		doc.ClearSelection()
		return false
	}
	aOff := dom.ClampOffset(anchor, s.AnchorOffset)
	if s.IsCollapsed {
		doc.Collapse(anchor, aOff)
		return true
	}
	doc.SetSelection(dom.Selection{
		Anchor:       anchor,
		AnchorOffset: aOff,
		Focus:        focus,
		FocusOffset:  dom.ClampOffset(focus, s.FocusOffset),
	})
	return true
}
