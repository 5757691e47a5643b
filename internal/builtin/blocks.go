package builtin

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/dshills/blockstorm/internal/command"
	"github.com/dshills/blockstorm/internal/dom"
	"github.com/dshills/blockstorm/internal/event"
)

// target returns the block a command acts on: ctx.Target if it is inside
// the root, else the block holding the caret.
func target(ctx *command.Context) *html.Node {
	if ctx.Doc == nil {
		return nil
	}
	root := ctx.Doc.Root()
	if ctx.Target != nil {
		return dom.ContainingBlock(root, ctx.Target)
	}
	return ctx.Doc.CurrentBlock()
}

// insertParagraph inserts an empty paragraph after the target block, or
// at the end, and moves the caret into it.
func insertParagraph(ctx *command.Context) bool {
	doc := ctx.Doc
	if doc == nil {
		return false
	}
	p := dom.NewBlock(dom.DefaultKind)
	var ref *html.Node
	if cur := target(ctx); cur != nil {
		ref = cur.NextSibling
	}
	if err := doc.InsertBefore(doc.Root(), p, ref); err != nil {
		return false
	}
	doc.Collapse(p, 0)
	return true
}

// deleteBlock removes the target block. The caret moves to the end of the
// previous block, or the start of the next one.
func deleteBlock(ctx *command.Context) bool {
	doc := ctx.Doc
	b := target(ctx)
	if b == nil {
		return false
	}
	prev, next := b.PrevSibling, b.NextSibling
	if err := doc.RemoveChild(doc.Root(), b); err != nil {
		return false
	}
	doc.ClearBlockState(b)
	switch {
	case prev != nil:
		caretToEnd(doc, prev)
	case next != nil:
		doc.CaretToStart(next)
	default:
		doc.ClearSelection()
	}
	return true
}

func caretToEnd(doc *dom.Document, n *html.Node) {
	var last *html.Node
	dom.Walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			last = c
		}
	})
	if last == nil {
		doc.Collapse(n, dom.NodeLength(n))
		return
	}
	doc.Collapse(last, dom.NodeLength(last))
}

// replaceBlock replaces the target block with the markup in ctx.Content.
// The first element of the markup takes the block's place; the normalizer
// repairs it if it does not conform.
func replaceBlock(ctx *command.Context) bool {
	doc := ctx.Doc
	old := target(ctx)
	markup, ok := ctx.Content.(string)
	if old == nil || !ok {
		return false
	}
	repl, err := firstElement(doc, markup)
	if err != nil {
		return false
	}
	if err := doc.ReplaceChild(doc.Root(), repl, old); err != nil {
		return false
	}
	doc.ClearBlockState(old)
	doc.CaretToStart(repl)
	return true
}

func firstElement(doc *dom.Document, markup string) (*html.Node, error) {
	nodes, err := doc.ParseFragment(markup)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			return n, nil
		}
	}
	return nil, fmt.Errorf("no element in %q", markup)
}

// Source produces replacement markup for a placeholder.
type Source func() (string, error)

// replacePlaceholder starts an asynchronous replacement of the target
// block. The block is found again by id when the content is ready, so it
// may move or be edited meanwhile. ctx.Content is a Source or a string.
func (c *Core) replacePlaceholder(ctx *command.Context) bool {
	doc := ctx.Doc
	b := target(ctx)
	if b == nil {
		return false
	}
	id := dom.BlockID(b)
	if id == "" {
		return false
	}

	var src Source
	switch v := ctx.Content.(type) {
	case Source:
		src = v
	case func() (string, error):
		src = v
	case string:
		src = func() (string, error) { return v, nil }
	default:
		return false
	}

	c.sched.Post(func() {
		markup, err := src()
		if err != nil {
			c.logger.Warn("placeholder content failed", zap.String("block", id), zap.Error(err))
			return
		}
		placeholder := doc.FindBlock(id)
		if placeholder == nil {
			c.logger.Debug("placeholder gone", zap.String("block", id))
			return
		}
		next := &command.Context{Doc: doc, Target: placeholder, Content: markup}
		if reg, ok := event.RequestAs[*command.Registry](c.bus, event.ServiceCommands, c); ok {
			reg.Run(CmdReplaceBlock, next)
			return
		}
		replaceBlock(next)
	})
	return true
}

func (c *Core) closeOverlay(*command.Context) bool {
	s, ok := event.RequestAs[Popper](c.bus, event.ServiceOverlays, c)
	if !ok || s.Len() == 0 {
		return false
	}
	return s.Pop() != nil
}
