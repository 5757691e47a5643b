package dom

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/dshills/blockstorm/internal/loop"
)

func TestParse_RendersChildren(t *testing.T) {
	doc, err := Parse(`<p class="ce-block" data-block-type="paragraph" data-block-id="a">hi</p><div>raw</div>`)
	require.NoError(t, err)

	assert.Len(t, doc.Children(), 2)
	assert.Equal(t, `<p class="ce-block" data-block-type="paragraph" data-block-id="a">hi</p><div>raw</div>`, doc.HTML())
}

func TestIsBlock(t *testing.T) {
	doc, err := Parse(`<p class="ce-block" data-block-type="paragraph" data-block-id="a"></p>` +
		`<p class="ce-block" data-block-type="paragraph"></p>` +
		`<p class="ce-block" data-block-type="unknown" data-block-id="b"></p>` +
		`<p data-block-type="paragraph" data-block-id="c"></p>`)
	require.NoError(t, err)

	got := make([]bool, 0, 4)
	for _, c := range doc.Children() {
		got = append(got, IsBlock(c))
	}
	assert.Equal(t, []bool{true, false, false, false}, got)
}

func TestNewBlock(t *testing.T) {
	b := NewTextBlock("header", "Title")

	assert.True(t, IsBlock(b))
	assert.Equal(t, "h2", b.Data)
	assert.Equal(t, "header", BlockKind(b))
	assert.NotEmpty(t, BlockID(b))
	assert.NotEqual(t, BlockID(b), BlockID(NewBlock("header")))
	assert.Equal(t, "Title", TextContent(b))
}

func TestIsTransient(t *testing.T) {
	doc, err := Parse(`<div data-transient=""></div><div class="x ce-transient"></div><div></div>`)
	require.NoError(t, err)

	kids := doc.Children()
	assert.True(t, IsTransient(kids[0]))
	assert.True(t, IsTransient(kids[1]))
	assert.False(t, IsTransient(kids[2]))
}

func TestPath_RoundTrip(t *testing.T) {
	doc, err := Parse(`<p>a</p><ul><li>one</li><li>two <b>bold</b></li></ul>`)
	require.NoError(t, err)

	bold := doc.Children()[1].LastChild.LastChild
	require.Equal(t, "b", bold.Data)

	p, err := PathOf(doc.Root(), bold)
	require.NoError(t, err)
	assert.Equal(t, Path{1, 1, 1}, p)

	n, err := NodeAt(doc.Root(), p)
	require.NoError(t, err)
	assert.Same(t, bold, n)

	_, err = NodeAt(doc.Root(), Path{5})
	assert.ErrorIs(t, err, ErrNodeNotFound)

	_, err = PathOf(doc.Root(), &html.Node{Type: html.TextNode})
	assert.ErrorIs(t, err, ErrNotDescendant)
}

func TestInsertBefore_Errors(t *testing.T) {
	doc, err := Parse(`<p>a</p><p>b</p>`)
	require.NoError(t, err)
	first := doc.Children()[0]

	err = doc.InsertBefore(first, doc.Root(), nil)
	assert.ErrorIs(t, err, ErrHierarchy)

	stray := &html.Node{Type: html.ElementNode, Data: "p"}
	err = doc.InsertBefore(doc.Root(), stray, &html.Node{Type: html.ElementNode, Data: "p"})
	assert.ErrorIs(t, err, ErrNotChild)
}

func TestObserver_BatchesRecords(t *testing.T) {
	clk := loop.NewManualClock(time.Unix(0, 0))
	l := loop.New(loop.WithClock(clk))
	doc := New(WithScheduler(l))

	var batches [][]MutationRecord
	obs := NewObserver(doc, func(recs []MutationRecord, _ *MutationObserver) {
		batches = append(batches, recs)
	})
	obs.Observe(doc.Root())

	a := NewTextBlock("paragraph", "a")
	b := NewTextBlock("paragraph", "b")
	require.NoError(t, doc.AppendChild(doc.Root(), a))
	require.NoError(t, doc.AppendChild(doc.Root(), b))
	assert.Empty(t, batches, "records must be delivered asynchronously")

	l.Drain()
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 2)
	assert.Same(t, a, batches[0][0].Added[0])
	assert.Same(t, a, batches[0][1].PreviousSibling)
}

func TestObserver_IgnoresNestedChanges(t *testing.T) {
	doc, err := Parse(`<p>a</p>`)
	require.NoError(t, err)

	calls := 0
	obs := NewObserver(doc, func([]MutationRecord, *MutationObserver) { calls++ })
	obs.Observe(doc.Root())

	p := doc.Children()[0]
	require.NoError(t, doc.AppendChild(p, &html.Node{Type: html.TextNode, Data: "x"}))
	assert.Zero(t, calls)
}

func TestObserver_DisconnectDropsPending(t *testing.T) {
	l := loop.New(loop.WithClock(loop.NewManualClock(time.Unix(0, 0))))
	doc := New(WithScheduler(l))

	calls := 0
	obs := NewObserver(doc, func([]MutationRecord, *MutationObserver) { calls++ })
	obs.Observe(doc.Root())
	require.NoError(t, doc.AppendChild(doc.Root(), NewBlock("paragraph")))
	obs.Disconnect()
	l.Drain()

	assert.Zero(t, calls)
	assert.False(t, obs.Observing())
}

func TestReplaceChildren_SingleRecord(t *testing.T) {
	doc, err := Parse(`<p>a</p><p>b</p>`)
	require.NoError(t, err)

	var recs []MutationRecord
	obs := NewObserver(doc, func(r []MutationRecord, _ *MutationObserver) { recs = append(recs, r...) })
	obs.Observe(doc.Root())

	doc.ReplaceChildren(doc.Root(), NewTextBlock("paragraph", "c"))
	require.Len(t, recs, 1)
	assert.Len(t, recs[0].Removed, 2)
	assert.Len(t, recs[0].Added, 1)
	assert.Equal(t, "c", TextContent(doc.Root()))
}

func TestSelection_Helpers(t *testing.T) {
	doc, err := Parse(`<p>hello</p><p><b></b></p>`)
	require.NoError(t, err)
	first, second := doc.Children()[0], doc.Children()[1]

	doc.CaretToStart(first)
	sel := doc.Selection()
	require.NotNil(t, sel)
	assert.True(t, sel.Collapsed())
	assert.Same(t, first.FirstChild, sel.Anchor)
	assert.Same(t, first, doc.CurrentBlock())

	doc.CaretToStart(second)
	assert.Same(t, second, doc.Selection().Anchor)

	assert.Equal(t, 5, ClampOffset(first.FirstChild, 99))
	assert.Equal(t, 0, ClampOffset(first.FirstChild, -3))
	assert.Equal(t, 1, NodeLength(second))
}
