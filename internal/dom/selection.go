package dom

import (
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Selection is the current caret or range inside the document.
// Offsets count runes inside text nodes and children inside elements.
type Selection struct {
	Anchor       *html.Node
	AnchorOffset int
	Focus        *html.Node
	FocusOffset  int
}

// Collapsed reports whether anchor and focus coincide.
func (s Selection) Collapsed() bool {
	return s.Anchor == s.Focus && s.AnchorOffset == s.FocusOffset
}

// Selection returns the current selection, or nil when there is none.
func (d *Document) Selection() *Selection {
	if d.selection == nil {
		return nil
	}
	sel := *d.selection
	return &sel
}

// SetSelection replaces the current selection.
func (d *Document) SetSelection(sel Selection) {
	d.selection = &sel
}

// ClearSelection removes the selection.
func (d *Document) ClearSelection() {
	d.selection = nil
}

// Collapse places a caret at offset inside n.
func (d *Document) Collapse(n *html.Node, offset int) {
	d.SetSelection(Selection{Anchor: n, AnchorOffset: offset, Focus: n, FocusOffset: offset})
}

// CaretToStart places the caret at the start of n's first text position.
func (d *Document) CaretToStart(n *html.Node) {
	if t := FirstText(n); t != nil {
		d.Collapse(t, 0)
		return
	}
	d.Collapse(n, 0)
}

// SelectionInside reports whether the selection is anchored inside the root.
func (d *Document) SelectionInside() bool {
	if d.selection == nil {
		return false
	}
	return Contains(d.root, d.selection.Anchor) && Contains(d.root, d.selection.Focus)
}

// CurrentBlock returns the block containing the selection focus.
func (d *Document) CurrentBlock() *html.Node {
	if d.selection == nil {
		return nil
	}
	return ContainingBlock(d.root, d.selection.Focus)
}

// ContainingBlock returns the direct child of root that contains n.
func ContainingBlock(root, n *html.Node) *html.Node {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Parent == root {
			return cur
		}
	}
	return nil
}

// FirstText returns the first text node under n in document order.
func FirstText(n *html.Node) *html.Node {
	if n.Type == html.TextNode {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := FirstText(c); t != nil {
			return t
		}
	}
	return nil
}

// NodeLength is the maximum valid offset inside n.
func NodeLength(n *html.Node) int {
	switch n.Type {
	case html.TextNode, html.CommentNode:
		return utf8.RuneCountInString(n.Data)
	default:
		count := 0
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			count++
		}
		return count
	}
}

// ClampOffset bounds offset to [0, NodeLength(n)].
func ClampOffset(n *html.Node, offset int) int {
	if offset < 0 {
		return 0
	}
	if max := NodeLength(n); offset > max {
		return max
	}
	return offset
}
