package builtin

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/blockstorm/internal/command"
	"github.com/dshills/blockstorm/internal/dom"
	"github.com/dshills/blockstorm/internal/event"
	"github.com/dshills/blockstorm/internal/loop"
	"github.com/dshills/blockstorm/internal/overlay"
)

type fakeHistory struct {
	undos, redos int
}

func (h *fakeHistory) Undo() bool { h.undos++; return true }
func (h *fakeHistory) Redo() bool { h.redos++; return true }

type harness struct {
	loop *loop.Loop
	bus  *event.Bus
	doc  *dom.Document
	reg  *command.Registry
	core *Core
}

func newHarness(t *testing.T, markup string) *harness {
	t.Helper()
	l := loop.New(loop.WithClock(loop.NewManualClock(time.Unix(0, 0))))
	doc, err := dom.Parse(markup, dom.WithScheduler(l))
	require.NoError(t, err)
	h := &harness{loop: l, bus: event.NewBus(), doc: doc, reg: command.NewRegistry()}
	h.core = New(h.bus, l)
	for _, c := range h.core.Commands() {
		h.reg.Register(c)
	}
	event.Provide(h.bus, event.ServiceCommands, h.reg)
	return h
}

func (h *harness) run(id string, ctx *command.Context) bool {
	if ctx == nil {
		ctx = &command.Context{}
	}
	ctx.Doc = h.doc
	return h.reg.Run(id, ctx)
}

const twoBlocks = `<p class="ce-block" data-block-type="paragraph" data-block-id="a">one</p>` +
	`<p class="ce-block" data-block-type="paragraph" data-block-id="b">two</p>`

func TestCommandsDeclared(t *testing.T) {
	h := newHarness(t, "")
	assert.Equal(t, "shortcuts", h.core.Target())

	ids := make([]string, 0, len(h.core.Commands()))
	for _, c := range h.core.Commands() {
		ids = append(ids, c.ID())
	}
	assert.Equal(t, []string{
		CmdUndo, CmdRedo, CmdInsertParagraph, CmdDeleteBlock,
		CmdReplaceBlock, CmdReplacePlaceholder, CmdCloseOverlay,
	}, ids)

	redo := h.core.Commands()[1].(command.ShortcutProvider).Shortcuts()
	require.Len(t, redo, 2)
	assert.Equal(t, "Mod+Shift+Z", redo[0].Chord)
	assert.Equal(t, "Mod+Y", redo[1].Chord)
}

func TestUndoRedoUseHistoryService(t *testing.T) {
	h := newHarness(t, "")
	assert.False(t, h.run(CmdUndo, nil), "no history service")

	hist := &fakeHistory{}
	event.Provide(h.bus, event.ServiceHistory, hist)
	assert.True(t, h.run(CmdUndo, nil))
	assert.True(t, h.run(CmdRedo, nil))
	assert.Equal(t, 1, hist.undos)
	assert.Equal(t, 1, hist.redos)
}

func TestInsertParagraph(t *testing.T) {
	h := newHarness(t, twoBlocks)
	h.doc.Collapse(h.doc.FindBlock("a").FirstChild, 1)

	require.True(t, h.run(CmdInsertParagraph, nil))
	blocks := h.doc.Blocks()
	require.Len(t, blocks, 3)
	assert.Equal(t, "a", dom.BlockID(blocks[0]))
	assert.Equal(t, "paragraph", dom.BlockKind(blocks[1]))
	assert.Equal(t, "b", dom.BlockID(blocks[2]))
	assert.Same(t, blocks[1], h.doc.CurrentBlock())

	h.doc.ClearSelection()
	require.True(t, h.run(CmdInsertParagraph, nil))
	assert.Len(t, h.doc.Blocks(), 4)
	assert.Same(t, h.doc.Root().LastChild, h.doc.CurrentBlock())
}

func TestDeleteBlock(t *testing.T) {
	h := newHarness(t, twoBlocks)
	b := h.doc.FindBlock("b")

	require.True(t, h.run(CmdDeleteBlock, &command.Context{Target: b}))
	require.Len(t, h.doc.Blocks(), 1)
	sel := h.doc.Selection()
	require.NotNil(t, sel)
	assert.Equal(t, "one", sel.Focus.Data)
	assert.Equal(t, 3, sel.FocusOffset)

	require.True(t, h.run(CmdDeleteBlock, nil))
	assert.Empty(t, h.doc.Blocks())
	assert.Nil(t, h.doc.Selection())
	assert.False(t, h.run(CmdDeleteBlock, nil), "nothing to delete")
}

func TestReplacePlaceholder(t *testing.T) {
	h := newHarness(t, twoBlocks)
	a := h.doc.FindBlock("a")

	src := Source(func() (string, error) {
		return `<blockquote class="ce-block" data-block-type="quote" data-block-id="q">done</blockquote>`, nil
	})
	require.True(t, h.run(CmdReplacePlaceholder, &command.Context{Target: a, Content: src}))
	assert.NotNil(t, h.doc.FindBlock("a"), "replacement is asynchronous")

	// The placeholder moves before the content arrives.
	require.NoError(t, h.doc.AppendChild(h.doc.Root(), a))
	h.loop.Drain()

	assert.Nil(t, h.doc.FindBlock("a"))
	blocks := h.doc.Blocks()
	require.Len(t, blocks, 2)
	assert.Equal(t, "b", dom.BlockID(blocks[0]))
	assert.Equal(t, "q", dom.BlockID(blocks[1]))
}

func TestReplacePlaceholderGoneOrFailed(t *testing.T) {
	h := newHarness(t, twoBlocks)
	a := h.doc.FindBlock("a")
	b := h.doc.FindBlock("b")

	require.True(t, h.run(CmdReplacePlaceholder, &command.Context{Target: a, Content: "<p>x</p>"}))
	require.NoError(t, h.doc.RemoveChild(h.doc.Root(), a))
	failing := func() (string, error) { return "", errors.New("offline") }
	require.True(t, h.run(CmdReplacePlaceholder, &command.Context{Target: b, Content: failing}))
	h.loop.Drain()

	blocks := h.doc.Blocks()
	require.Len(t, blocks, 1)
	assert.Equal(t, "b", dom.BlockID(blocks[0]))

	assert.False(t, h.run(CmdReplacePlaceholder, &command.Context{Target: b, Content: 42}))
}

func TestCloseOverlay(t *testing.T) {
	h := newHarness(t, "")
	assert.False(t, h.run(CmdCloseOverlay, nil), "no overlay service")

	stack := overlay.NewStack(h.loop)
	event.Provide(h.bus, event.ServiceOverlays, stack)
	assert.False(t, h.run(CmdCloseOverlay, nil), "empty stack")

	stack.Push(overlay.NewPanel("menu", overlay.Options{AllowOverlayOnTop: true}))
	stack.Push(overlay.NewPanel("tip", overlay.Options{}))
	require.True(t, h.run(CmdCloseOverlay, nil))
	assert.Equal(t, 1, stack.Len())
}
