package dom

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Structural conventions shared by every component and renderer.
const (
	ClassRoot      = "ce-root"
	ClassBlock     = "ce-block"
	ClassTransient = "ce-transient"
	AttrBlockID    = "data-block-id"
	AttrBlockType  = "data-block-type"
	AttrTransient  = "data-transient"
	AttrState      = "data-ce-state"
)

// DefaultKind is the block kind the normalizer creates.
const DefaultKind = "paragraph"

// Kinds lists the recognized block kinds and the tag each renders with.
// Paragraphs are divs: a repaired block keeps whatever flow content the
// offender held, and markup re-parsed from a snapshot must nest the same way.
var Kinds = map[string]atom.Atom{
	"paragraph": atom.Div,
	"header":    atom.H2,
	"list":      atom.Ul,
	"quote":     atom.Blockquote,
	"code":      atom.Pre,
	"table":     atom.Table,
	"image":     atom.Figure,
	"callout":   atom.Aside,
	"equation":  atom.Div,
	"embed":     atom.Div,
	"delimiter": atom.Hr,
}

// NewBlockID returns a fresh block identifier.
func NewBlockID() string {
	return uuid.NewString()
}

// NewBlock creates a detached block element of the given kind. Unknown
// kinds render as a div but are still marked with the requested kind.
func NewBlock(kind string) *html.Node {
	a, ok := Kinds[kind]
	if !ok {
		a = atom.Div
	}
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr: []html.Attribute{
			{Key: "class", Val: ClassBlock + " ce-" + kind},
			{Key: AttrBlockType, Val: kind},
			{Key: AttrBlockID, Val: NewBlockID()},
		},
	}
}

// NewTextBlock creates a block of the given kind holding a single text node.
func NewTextBlock(kind, text string) *html.Node {
	b := NewBlock(kind)
	if text != "" {
		b.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
	return b
}

// IsBlock reports whether n satisfies the block invariant: an element with
// the block class, a non-empty id and a recognized kind.
func IsBlock(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if !HasClass(n, ClassBlock) {
		return false
	}
	if Attr(n, AttrBlockID) == "" {
		return false
	}
	_, ok := Kinds[Attr(n, AttrBlockType)]
	return ok
}

// IsTransient reports whether n is UI scaffolding, such as a drag placeholder.
func IsTransient(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	return HasAttr(n, AttrTransient) || HasClass(n, ClassTransient)
}

// BlockID returns the identifier of a block, or "".
func BlockID(n *html.Node) string {
	return Attr(n, AttrBlockID)
}

// BlockKind returns the kind of a block, or "".
func BlockKind(n *html.Node) string {
	return Attr(n, AttrBlockType)
}

// Blocks returns the root's direct children that are blocks.
func (d *Document) Blocks() []*html.Node {
	var out []*html.Node
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if IsBlock(c) {
			out = append(out, c)
		}
	}
	return out
}

// FindBlock returns the block with the given id.
func (d *Document) FindBlock(id string) *html.Node {
	if id == "" {
		return nil
	}
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && Attr(c, AttrBlockID) == id {
			return c
		}
	}
	return nil
}

// CountBlockID counts the root's children carrying id.
func (d *Document) CountBlockID(id string) int {
	n := 0
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && Attr(c, AttrBlockID) == id {
			n++
		}
	}
	return n
}

// Attr returns the value of attribute key on n, or "".
func Attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

// HasAttr reports whether n carries attribute key.
func HasAttr(n *html.Node, key string) bool {
	if n == nil {
		return false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return true
		}
	}
	return false
}

// SetAttr sets attribute key on n.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes attribute key from n.
func RemoveAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// HasClass reports whether n's class list contains class.
func HasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(Attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}
