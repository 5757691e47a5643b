// Package normalize keeps the content root block-shaped after edits the
// editor did not make itself.
//
// The normalizer observes direct-child insertions into the root. A new
// child that already is a block is kept (with a fresh id if its id
// collides); anything else is swapped for a default paragraph block
// seeded with the offending node's content, and the caret moves to the
// start of the replacement.
//
// Code that inserts valid blocks on purpose should wrap the insertion in
// Suspend so legitimate moves are not second-guessed.
package normalize

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/dshills/blockstorm/internal/dom"
)

// Normalizer enforces the block invariant on a document root.
type Normalizer struct {
	doc     *dom.Document
	obs     *dom.MutationObserver
	logger  *zap.Logger
	kind    string
	replace func(parent, repl, old *html.Node) error
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(n *Normalizer) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// WithDefaultKind sets the kind of block used for repairs.
func WithDefaultKind(kind string) Option {
	return func(n *Normalizer) {
		if _, ok := dom.Kinds[kind]; ok {
			n.kind = kind
		}
	}
}

// New creates a normalizer for doc. It is idle until Start.
func New(doc *dom.Document, opts ...Option) *Normalizer {
	n := &Normalizer{
		doc:     doc,
		logger:  zap.NewNop(),
		kind:    dom.DefaultKind,
		replace: doc.ReplaceChild,
	}
	for _, opt := range opts {
		opt(n)
	}
	n.obs = dom.NewObserver(doc, n.handle)
	return n
}

// Start begins observing the root.
func (n *Normalizer) Start() {
	n.obs.Observe(n.doc.Root())
}

// Stop disconnects the observer. Pending records are dropped.
func (n *Normalizer) Stop() {
	n.obs.Disconnect()
}

// Running reports whether the observer is connected.
func (n *Normalizer) Running() bool {
	return n.obs.Observing()
}

// Suspend runs fn with observation paused, restoring the previous state.
func (n *Normalizer) Suspend(fn func()) {
	was := n.Running()
	if was {
		n.Stop()
		defer n.Start()
	}
	fn()
}

// Normalize checks every current child of the root once and returns the
// number of nodes it changed.
func (n *Normalizer) Normalize() int {
	changed := 0
	for _, c := range n.doc.Children() {
		if n.check(c) {
			changed++
		}
	}
	return changed
}

func (n *Normalizer) handle(records []dom.MutationRecord, _ *dom.MutationObserver) {
	root := n.doc.Root()
	for _, rec := range records {
		for _, added := range rec.Added {
			if added.Parent != root {
				continue
			}
			n.check(added)
		}
	}
}

// check enforces the invariant on one child and reports whether it changed.
func (n *Normalizer) check(node *html.Node) bool {
	if !structural(node) || dom.IsTransient(node) {
		return false
	}
	if dom.IsBlock(node) {
		id := dom.BlockID(node)
		if n.doc.CountBlockID(id) <= 1 {
			return false
		}
		fresh := dom.NewBlockID()
		dom.SetAttr(node, dom.AttrBlockID, fresh)
		n.logger.Debug("reassigned colliding block id", zap.String("old", id), zap.String("new", fresh))
		return true
	}
	return n.repair(node)
}

// repair swaps node for a default block and moves its content across.
// The swap happens first so a failure leaves node untouched.
func (n *Normalizer) repair(node *html.Node) (ok bool) {
	parent := node.Parent
	block := dom.NewBlock(n.kind)

	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("block repair panicked",
				zap.String("node", describe(node)),
				zap.String("panic", fmt.Sprint(r)),
			)
			ok = false
		}
	}()

	if err := n.replace(parent, block, node); err != nil {
		n.logger.Error("block repair failed", zap.String("node", describe(node)), zap.Error(err))
		return false
	}

	if node.Type == html.TextNode {
		block.AppendChild(&html.Node{Type: html.TextNode, Data: node.Data})
	} else {
		for c := node.FirstChild; c != nil; c = node.FirstChild {
			node.RemoveChild(c)
			block.AppendChild(c)
		}
	}

	n.doc.CaretToStart(block)
	n.logger.Debug("repaired non-block child",
		zap.String("node", describe(node)),
		zap.String("block", dom.BlockID(block)),
	)
	return true
}

// structural reports whether node is content the invariant applies to:
// elements and non-blank text.
func structural(node *html.Node) bool {
	switch node.Type {
	case html.ElementNode:
		return true
	case html.TextNode:
		return strings.TrimSpace(node.Data) != ""
	default:
		return false
	}
}

func describe(node *html.Node) string {
	if node.Type == html.TextNode {
		return "#text"
	}
	return "<" + node.Data + ">"
}
