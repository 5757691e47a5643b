package native

import (
	"strings"

	"github.com/rivo/uniseg"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/dshills/blockstorm/internal/dom"
)

// insertAtCaret inserts text at the collapsed caret. Without a selection
// the text lands as a bare text node at the end of the root.
func (s *Simulator) insertAtCaret(text string) bool {
	node, off, ok := s.caret()
	if !ok {
		t := &html.Node{Type: html.TextNode, Data: text}
		if err := s.doc.AppendChild(s.doc.Root(), t); err != nil {
			return false
		}
		s.doc.Collapse(t, dom.NodeLength(t))
		return true
	}

	if node.Type == html.TextNode {
		runes := []rune(node.Data)
		ins := []rune(text)
		out := make([]rune, 0, len(runes)+len(ins))
		out = append(out, runes[:off]...)
		out = append(out, ins...)
		out = append(out, runes[off:]...)
		s.doc.SetText(node, string(out))
		s.doc.Collapse(node, off+len(ins))
		return true
	}

	t := &html.Node{Type: html.TextNode, Data: text}
	if err := s.doc.InsertBefore(node, t, childAt(node, off)); err != nil {
		s.logger.Debug("insert failed", zap.Error(err))
		return false
	}
	s.doc.Collapse(t, dom.NodeLength(t))
	return true
}

// deleteGrapheme removes one grapheme cluster next to the caret, looking
// into the neighbouring text node of the same block when the caret sits at
// a text boundary.
func (s *Simulator) deleteGrapheme(forward bool) bool {
	node, off, ok := s.caret()
	if !ok {
		return false
	}
	block := dom.ContainingBlock(s.doc.Root(), node)
	if block == nil {
		return false
	}

	if node.Type != html.TextNode {
		if forward {
			node = firstTextAfter(block, node, off)
			off = 0
		} else {
			node = lastTextBefore(block, node, off)
			if node != nil {
				off = dom.NodeLength(node)
			}
		}
		if node == nil {
			return false
		}
	}

	for node != nil {
		runes := []rune(node.Data)
		if forward && off < len(runes) {
			end := nextBoundary(node.Data, off)
			s.doc.SetText(node, string(runes[:off])+string(runes[end:]))
			s.doc.Collapse(node, off)
			return true
		}
		if !forward && off > 0 {
			start := prevBoundary(node.Data, off)
			s.doc.SetText(node, string(runes[:start])+string(runes[off:]))
			s.doc.Collapse(node, start)
			return true
		}
		if forward {
			node = adjacentText(block, node, true)
			off = 0
		} else {
			node = adjacentText(block, node, false)
			if node != nil {
				off = dom.NodeLength(node)
			}
		}
	}
	return false
}

// deleteSelection removes a non-collapsed selection and reports whether
// anything was removed.
func (s *Simulator) deleteSelection() bool {
	_, ok := s.extractRange()
	return ok
}

// extractRange removes the selected text and returns it. Both ends must be
// text nodes inside the root. A range spanning blocks removes the blocks
// in between and joins the last block into the first.
func (s *Simulator) extractRange() (string, bool) {
	sel := s.doc.Selection()
	if sel == nil || sel.Collapsed() || !s.doc.SelectionInside() {
		return "", false
	}
	start, so := sel.Anchor, dom.ClampOffset(sel.Anchor, sel.AnchorOffset)
	end, eo := sel.Focus, dom.ClampOffset(sel.Focus, sel.FocusOffset)
	if start.Type != html.TextNode || end.Type != html.TextNode {
		return "", false
	}
	if before(s.doc.Root(), end, eo, start, so) {
		start, so, end, eo = end, eo, start, so
	}

	if start == end {
		runes := []rune(start.Data)
		cut := string(runes[so:eo])
		s.doc.SetText(start, string(runes[:so])+string(runes[eo:]))
		s.doc.Collapse(start, so)
		return cut, true
	}

	var sb strings.Builder
	inRange := false
	dom.Walk(s.doc.Root(), func(n *html.Node) {
		if n.Type != html.TextNode {
			return
		}
		switch {
		case n == start:
			runes := []rune(n.Data)
			sb.WriteString(string(runes[so:]))
			s.doc.SetText(n, string(runes[:so]))
			inRange = true
		case n == end:
			runes := []rune(n.Data)
			sb.WriteString(string(runes[:eo]))
			s.doc.SetText(n, string(runes[eo:]))
			inRange = false
		case inRange:
			sb.WriteString(n.Data)
			s.doc.SetText(n, "")
		}
	})

	root := s.doc.Root()
	first, last := dom.ContainingBlock(root, start), dom.ContainingBlock(root, end)
	if first != nil && last != nil && first != last {
		for c := first.NextSibling; c != nil && c != last; {
			next := c.NextSibling
			_ = s.doc.RemoveChild(root, c)
			c = next
		}
		s.join(first, last)
	}
	s.doc.Collapse(start, so)
	return sb.String(), true
}

// before reports whether (a, ao) precedes (b, bo) in document order.
func before(root, a *html.Node, ao int, b *html.Node, bo int) bool {
	if a == b {
		return ao < bo
	}
	pa, errA := dom.PathOf(root, a)
	pb, errB := dom.PathOf(root, b)
	if errA != nil || errB != nil {
		return false
	}
	for i := 0; i < len(pa) && i < len(pb); i++ {
		if pa[i] != pb[i] {
			return pa[i] < pb[i]
		}
	}
	return len(pa) < len(pb)
}

// graphemeStarts returns the rune offsets at which grapheme clusters begin,
// followed by the total rune count.
func graphemeStarts(s string) []int {
	var out []int
	pos := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		out = append(out, pos)
		pos += len(g.Runes())
	}
	return append(out, pos)
}

func prevBoundary(s string, off int) int {
	prev := 0
	for _, b := range graphemeStarts(s) {
		if b >= off {
			break
		}
		prev = b
	}
	return prev
}

func nextBoundary(s string, off int) int {
	starts := graphemeStarts(s)
	for _, b := range starts {
		if b > off {
			return b
		}
	}
	return starts[len(starts)-1]
}

// textNodes lists the text nodes under block in document order.
func textNodes(block *html.Node) []*html.Node {
	var out []*html.Node
	dom.Walk(block, func(n *html.Node) {
		if n.Type == html.TextNode {
			out = append(out, n)
		}
	})
	return out
}

// adjacentText returns the text node after (or before) t inside block.
func adjacentText(block, t *html.Node, forward bool) *html.Node {
	nodes := textNodes(block)
	for i, n := range nodes {
		if n != t {
			continue
		}
		if forward && i+1 < len(nodes) {
			return nodes[i+1]
		}
		if !forward && i > 0 {
			return nodes[i-1]
		}
		return nil
	}
	return nil
}

// firstTextAfter returns the first text node at or after child off of el.
func firstTextAfter(block, el *html.Node, off int) *html.Node {
	for c := childAt(el, off); c != nil; c = c.NextSibling {
		if t := dom.FirstText(c); t != nil {
			return t
		}
	}
	for cur := el; cur != nil && cur != block; cur = cur.Parent {
		for c := cur.NextSibling; c != nil; c = c.NextSibling {
			if t := dom.FirstText(c); t != nil {
				return t
			}
		}
	}
	return nil
}

// lastTextBefore returns the last text node before child off of el.
func lastTextBefore(block, el *html.Node, off int) *html.Node {
	limit := childAt(el, off)
	var found *html.Node
	for _, t := range textNodes(block) {
		var precedes bool
		if limit != nil {
			precedes = before(block, t, 0, limit, 0)
		} else {
			precedes = dom.Contains(el, t) || before(block, t, 0, el, 0)
		}
		if !precedes {
			break
		}
		found = t
	}
	return found
}

func lastText(n *html.Node) *html.Node {
	nodes := textNodes(n)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[len(nodes)-1]
}

func childAt(parent *html.Node, index int) *html.Node {
	i := 0
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if i == index {
			return c
		}
		i++
	}
	return nil
}
