package native

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dshills/blockstorm/internal/dom"
	"github.com/dshills/blockstorm/internal/event"
)

// InsertParagraph splits the current block at the caret. Content after the
// caret moves into a bare <div> inserted after the block, and the caret
// moves to its start.
func (s *Simulator) InsertParagraph() bool {
	s.deleteSelection()
	root := s.doc.Root()
	div := &html.Node{Type: html.ElementNode, DataAtom: atom.Div, Data: "div"}

	node, off, ok := s.caret()
	var ref *html.Node
	switch {
	case !ok:
	case node == root:
		ref = childAt(root, off)
	default:
		block := dom.ContainingBlock(root, node)
		if block == nil {
			return false
		}
		ref = block.NextSibling
		splitInto(div, block, node, off)
	}

	if err := s.doc.InsertBefore(root, div, ref); err != nil {
		return false
	}
	s.doc.CaretToStart(div)
	s.emit(event.InputInsertParagraph, "")
	return true
}

// splitInto moves everything after (node, off) at node's level into div.
func splitInto(div, block, node *html.Node, off int) {
	var rest *html.Node
	if node.Type == html.TextNode {
		runes := []rune(node.Data)
		if tail := string(runes[off:]); tail != "" {
			div.AppendChild(&html.Node{Type: html.TextNode, Data: tail})
		}
		node.Data = string(runes[:off])
		if node.Parent != block {
			return
		}
		rest = node.NextSibling
	} else {
		rest = childAt(node, off)
	}
	for c := rest; c != nil; {
		next := c.NextSibling
		c.Parent.RemoveChild(c)
		div.AppendChild(c)
		c = next
	}
}

// mergeBackward joins the current block into the previous one when the
// caret is at the start of its block.
func (s *Simulator) mergeBackward() bool {
	node, off, ok := s.caret()
	if !ok {
		return false
	}
	block := dom.ContainingBlock(s.doc.Root(), node)
	if block == nil || !atBlockStart(block, node, off) {
		return false
	}
	prev := prevElement(block)
	if prev == nil {
		return false
	}
	s.join(prev, block)
	return true
}

// mergeForward joins the next block into the current one when the caret
// is at the end of its block.
func (s *Simulator) mergeForward() bool {
	node, off, ok := s.caret()
	if !ok {
		return false
	}
	block := dom.ContainingBlock(s.doc.Root(), node)
	if block == nil || !atBlockEnd(block, node, off) {
		return false
	}
	next := nextElement(block)
	if next == nil {
		return false
	}
	s.join(block, next)
	return true
}

// join moves the children of from to the end of into and removes from.
// The caret lands at the seam.
func (s *Simulator) join(into, from *html.Node) {
	seam := lastText(into)
	for c := from.FirstChild; c != nil; c = from.FirstChild {
		from.RemoveChild(c)
		into.AppendChild(c)
	}
	_ = s.doc.RemoveChild(s.doc.Root(), from)
	s.doc.ClearBlockState(from)
	if seam != nil {
		s.doc.Collapse(seam, dom.NodeLength(seam))
		return
	}
	s.doc.CaretToStart(into)
}

func atBlockStart(block, node *html.Node, off int) bool {
	if off != 0 {
		return false
	}
	if node.Type == html.TextNode {
		for t := adjacentText(block, node, false); t != nil; t = adjacentText(block, t, false) {
			if t.Data != "" {
				return false
			}
		}
		return true
	}
	t := lastTextBefore(block, node, off)
	return t == nil || (t.Data == "" && atBlockStart(block, t, 0))
}

func atBlockEnd(block, node *html.Node, off int) bool {
	if off != dom.NodeLength(node) {
		return false
	}
	if node.Type == html.TextNode {
		for t := adjacentText(block, node, true); t != nil; t = adjacentText(block, t, true) {
			if t.Data != "" {
				return false
			}
		}
		return true
	}
	t := firstTextAfter(block, node, off)
	return t == nil || (t.Data == "" && atBlockEnd(block, t, 0))
}

func prevElement(n *html.Node) *html.Node {
	for c := n.PrevSibling; c != nil; c = c.PrevSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

func nextElement(n *html.Node) *html.Node {
	for c := n.NextSibling; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}
