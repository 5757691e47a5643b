package dom

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Scheduler queues deferred work. *loop.Loop satisfies it.
type Scheduler interface {
	Post(fn func())
}

// immediate runs posted work synchronously. Used when a Document has no loop.
type immediate struct{}

func (immediate) Post(fn func()) { fn() }

// Document owns the editable content root.
type Document struct {
	root      *html.Node
	sched     Scheduler
	observers []*MutationObserver
	selection *Selection
	states    map[*html.Node]BlockState
}

// Option configures a Document.
type Option func(*Document)

// WithScheduler sets the scheduler used to deliver mutation records.
func WithScheduler(s Scheduler) Option {
	return func(d *Document) {
		if s != nil {
			d.sched = s
		}
	}
}

// New creates a document with an empty content root.
func New(opts ...Option) *Document {
	root := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Div,
		Data:     "div",
		Attr: []html.Attribute{
			{Key: "class", Val: ClassRoot},
			{Key: "contenteditable", Val: "true"},
		},
	}
	d := &Document{
		root:   root,
		sched:  immediate{},
		states: make(map[*html.Node]BlockState),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Parse creates a document whose root holds the given markup.
// Populating the root is not reported to observers.
func Parse(markup string, opts ...Option) (*Document, error) {
	d := New(opts...)
	nodes, err := d.ParseFragment(markup)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		d.root.AppendChild(n)
	}
	return d, nil
}

// Root returns the content root.
func (d *Document) Root() *html.Node {
	return d.root
}

// ParseFragment parses markup in the context of the content root.
// The returned nodes are detached.
func (d *Document) ParseFragment(markup string) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, DataAtom: atom.Div, Data: "div"}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing fragment: %w", err)
	}
	return nodes, nil
}

// Children returns the root's direct children.
func (d *Document) Children() []*html.Node {
	return ChildNodes(d.root)
}

// ChildNodes returns the direct children of n.
func ChildNodes(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// AppendChild appends child to parent, detaching it from its current
// parent first.
func (d *Document) AppendChild(parent, child *html.Node) error {
	return d.InsertBefore(parent, child, nil)
}

// InsertBefore inserts child into parent before ref. A nil ref appends.
func (d *Document) InsertBefore(parent, child, ref *html.Node) error {
	if ref != nil && ref.Parent != parent {
		return ErrNotChild
	}
	if child == ref {
		return nil
	}
	for p := parent; p != nil; p = p.Parent {
		if p == child {
			return ErrHierarchy
		}
	}
	if child.Parent != nil {
		d.detach(child)
	}
	prev := parent.LastChild
	if ref != nil {
		prev = ref.PrevSibling
	}
	parent.InsertBefore(child, ref)
	d.record(MutationRecord{
		Target:          parent,
		Added:           []*html.Node{child},
		PreviousSibling: prev,
		NextSibling:     ref,
	})
	return nil
}

// RemoveChild removes child from parent.
func (d *Document) RemoveChild(parent, child *html.Node) error {
	if child.Parent != parent {
		return ErrNotChild
	}
	d.detach(child)
	return nil
}

// ReplaceChild replaces old with repl inside parent.
func (d *Document) ReplaceChild(parent, repl, old *html.Node) error {
	if old.Parent != parent {
		return ErrNotChild
	}
	if repl == old {
		return nil
	}
	for p := parent; p != nil; p = p.Parent {
		if p == repl {
			return ErrHierarchy
		}
	}
	if repl.Parent != nil {
		d.detach(repl)
	}
	prev, next := old.PrevSibling, old.NextSibling
	parent.InsertBefore(repl, old)
	parent.RemoveChild(old)
	d.record(MutationRecord{
		Target:          parent,
		Added:           []*html.Node{repl},
		Removed:         []*html.Node{old},
		PreviousSibling: prev,
		NextSibling:     next,
	})
	return nil
}

// ReplaceChildren removes every child of parent and appends nodes in one
// mutation.
func (d *Document) ReplaceChildren(parent *html.Node, nodes ...*html.Node) {
	removed := ChildNodes(parent)
	for _, c := range removed {
		parent.RemoveChild(c)
	}
	for _, n := range nodes {
		if n.Parent != nil {
			d.detach(n)
		}
		parent.AppendChild(n)
	}
	if len(removed) == 0 && len(nodes) == 0 {
		return
	}
	d.record(MutationRecord{
		Target:  parent,
		Added:   append([]*html.Node(nil), nodes...),
		Removed: removed,
	})
}

// SetText replaces the data of a text or comment node. Character data
// changes are not child-list mutations and are not reported.
func (d *Document) SetText(n *html.Node, text string) {
	n.Data = text
}

func (d *Document) detach(child *html.Node) {
	parent := child.Parent
	prev, next := child.PrevSibling, child.NextSibling
	parent.RemoveChild(child)
	d.record(MutationRecord{
		Target:          parent,
		Removed:         []*html.Node{child},
		PreviousSibling: prev,
		NextSibling:     next,
	})
}

// HTML renders the root's children.
func (d *Document) HTML() string {
	var buf bytes.Buffer
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&buf, c)
	}
	return buf.String()
}

// Render serializes a single node to markup.
func Render(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// TextContent returns the concatenated text of n and its descendants.
func TextContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				sb.WriteString(c.Data)
				continue
			}
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// Contains reports whether n is ancestor or equal to other.
func Contains(n, other *html.Node) bool {
	for p := other; p != nil; p = p.Parent {
		if p == n {
			return true
		}
	}
	return false
}

// Walk visits n and its descendants in document order.
func Walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		Walk(c, fn)
	}
}
