package history

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/blockstorm/internal/command"
	"github.com/dshills/blockstorm/internal/dom"
	"github.com/dshills/blockstorm/internal/event"
	"github.com/dshills/blockstorm/internal/input/key"
	"github.com/dshills/blockstorm/internal/loop"
	"github.com/dshills/blockstorm/internal/native"
	"github.com/dshills/blockstorm/internal/normalize"
)

// TestHistory_RepairedBlockContentRoundTrips pastes block-level markup,
// lets the normalizer wrap it in a default block and checks that undo and
// redo restore the nested content intact.
func TestHistory_RepairedBlockContentRoundTrips(t *testing.T) {
	tests := []struct {
		name   string
		paste  string
		inside string
	}{
		{"list", `<div><ul><li>item</li><li>two</li></ul></div>`, "<ul><li>item</li><li>two</li></ul>"},
		{"table", `<div><table><tbody><tr><td>cell</td></tr></tbody></table></div>`, "<td>cell</td>"},
		{"nested div", `<div><div><p>inner</p><blockquote>q</blockquote></div></div>`, "<p>inner</p><blockquote>q</blockquote>"},
		{"bare list", `<ol><li>one</li></ol>`, "<ol><li>one</li></ol>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := loop.New(loop.WithClock(loop.NewManualClock(time.Unix(0, 0))))
			doc, err := dom.Parse(initial, dom.WithScheduler(l))
			require.NoError(t, err)
			norm := normalize.New(doc)
			norm.Start()

			bus := event.NewBus()
			m := New(l, WithPauser(norm), WithPlatform(key.PlatformOther))
			m.Attach(doc)
			m.Bind(bus)
			reg := command.NewRegistry()
			reg.Use(m)
			reg.Register(&command.Definition{Name: "append", Run: func(*command.Context) bool {
				return doc.AppendChild(doc.Root(), dom.NewTextBlock(dom.DefaultKind, "tail")) == nil
			}})
			sim := native.New(doc, bus, native.WithPlatform(key.PlatformOther))

			require.True(t, sim.Paste(tt.paste))
			l.Drain()
			for _, c := range doc.Children() {
				require.True(t, dom.IsBlock(c), "unrepaired child in %s", doc.HTML())
			}
			l.Advance(DefaultTypingDelay)
			repaired := doc.HTML()
			require.Contains(t, repaired, tt.inside)

			require.True(t, reg.Run("append", nil))
			l.Advance(DefaultCommandDelay)
			appended := doc.HTML()
			require.Equal(t, 2, m.UndoLen())

			require.True(t, m.Undo())
			assert.Equal(t, repaired, doc.HTML())
			assert.Len(t, doc.Blocks(), len(doc.Children()))

			require.True(t, m.Undo())
			assert.Equal(t, initial, doc.HTML())

			require.True(t, m.Redo())
			assert.Equal(t, repaired, doc.HTML())
			require.True(t, m.Redo())
			assert.Equal(t, appended, doc.HTML())
			assert.Equal(t, 1, strings.Count(doc.HTML(), tt.inside))
		})
	}
}

func TestMaterialize_KeepsEveryParsedNode(t *testing.T) {
	doc := dom.New()
	snap := Snapshot{{Kind: KindElement, Data: `<p class="ce-block" data-block-type="paragraph" data-block-id="x"><ul><li>item</li></ul></p>`}}

	nodes := Materialize(doc, snap, nil)
	require.Greater(t, len(nodes), 1, "the parser splits a list out of a p")
	var text strings.Builder
	for _, n := range nodes {
		text.WriteString(dom.TextContent(n))
	}
	assert.Equal(t, "item", text.String())
}
