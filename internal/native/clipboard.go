package native

import (
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/dshills/blockstorm/internal/dom"
	"github.com/dshills/blockstorm/internal/event"
)

// Paste inserts markup at the caret. Plain text and inline content go into
// the current text position; block-level content is inserted as siblings
// after the current block, unrepaired.
func (s *Simulator) Paste(markup string) bool {
	if markup == "" {
		return false
	}
	nodes, err := s.doc.ParseFragment(markup)
	if err != nil {
		s.logger.Warn("paste: unparsable markup", zap.Error(err))
		return false
	}
	if len(nodes) == 0 {
		return false
	}
	s.deleteSelection()

	var text strings.Builder
	for _, n := range nodes {
		text.WriteString(dom.TextContent(n))
	}

	if inline(nodes) {
		if !s.insertAtCaret(text.String()) {
			return false
		}
		s.emit(event.InputInsertFromPaste, text.String())
		return true
	}

	root := s.doc.Root()
	var ref *html.Node
	if node, _, ok := s.caret(); ok {
		if block := dom.ContainingBlock(root, node); block != nil {
			ref = block.NextSibling
		}
	}
	var last *html.Node
	for _, n := range nodes {
		if err := s.doc.InsertBefore(root, n, ref); err != nil {
			s.logger.Warn("paste: insert failed", zap.Error(err))
			continue
		}
		last = n
	}
	if last == nil {
		return false
	}
	if t := lastText(last); t != nil {
		s.doc.Collapse(t, dom.NodeLength(t))
	} else {
		s.doc.Collapse(last, dom.NodeLength(last))
	}
	s.emit(event.InputInsertFromPaste, text.String())
	return true
}

// Cut removes the selected text, stores it on the clipboard and returns it.
func (s *Simulator) Cut() (string, bool) {
	text, ok := s.extractRange()
	if !ok {
		return "", false
	}
	s.clipboard = html.EscapeString(text)
	s.emit(event.InputDeleteByCut, "")
	return text, true
}

var phrasing = map[string]bool{
	"a": true, "b": true, "br": true, "code": true, "em": true, "i": true,
	"kbd": true, "mark": true, "s": true, "small": true, "span": true,
	"strong": true, "sub": true, "sup": true, "u": true,
}

func inline(nodes []*html.Node) bool {
	for _, n := range nodes {
		switch n.Type {
		case html.TextNode:
		case html.ElementNode:
			if !phrasing[n.Data] {
				return false
			}
		default:
			return false
		}
	}
	return true
}
