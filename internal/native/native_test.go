package native

import (
	"testing"

	"github.com/dshills/blockstorm/internal/dom"
	"github.com/dshills/blockstorm/internal/event"
	"github.com/dshills/blockstorm/internal/input/key"
)

const twoBlocks = `<p class="ce-block" data-block-type="paragraph" data-block-id="a">hello</p>` +
	`<p class="ce-block" data-block-type="paragraph" data-block-id="b">world</p>`

type fixture struct {
	doc    *dom.Document
	sim    *Simulator
	inputs []string
}

func newFixture(t *testing.T, markup string) *fixture {
	t.Helper()
	doc, err := dom.Parse(markup)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	f := &fixture{doc: doc}
	bus := event.NewBus()
	bus.Subscribe(event.TopicInput, func(p any) {
		f.inputs = append(f.inputs, p.(*event.Input).InputType)
	})
	f.sim = New(doc, bus, WithPlatform(key.PlatformOther))
	return f
}

// caretIn places the caret in the first text node of block id.
func (f *fixture) caretIn(t *testing.T, id string, offset int) {
	t.Helper()
	b := f.doc.FindBlock(id)
	if b == nil {
		t.Fatalf("no block %q", id)
	}
	f.doc.Collapse(dom.FirstText(b), offset)
}

func TestKeyDown_Typing(t *testing.T) {
	f := newFixture(t, twoBlocks)
	f.caretIn(t, "a", 5)

	for _, k := range []string{"!", "?"} {
		if !f.sim.KeyDown(key.NewEvent(k, 0)) {
			t.Fatalf("KeyDown(%q) made no change", k)
		}
	}

	if got := dom.TextContent(f.doc.FindBlock("a")); got != "hello!?" {
		t.Errorf("text = %q", got)
	}
	if sel := f.doc.Selection(); sel.FocusOffset != 7 {
		t.Errorf("caret offset = %d, want 7", sel.FocusOffset)
	}
	if len(f.inputs) != 2 || f.inputs[0] != event.InputInsertText {
		t.Errorf("inputs = %v", f.inputs)
	}
}

func TestKeyDown_NoDefaultAction(t *testing.T) {
	tests := []struct {
		name string
		ev   func() *key.Event
	}{
		{"prevented", func() *key.Event {
			ev := key.NewEvent("a", 0)
			ev.PreventDefault()
			return ev
		}},
		{"composing", func() *key.Event {
			ev := key.NewEvent("a", 0)
			ev.IsComposing = true
			return ev
		}},
		{"command chord", func() *key.Event { return key.NewEvent("b", key.ModCtrl) }},
		{"named key", func() *key.Event { return key.NewEvent(key.Tab, 0) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, twoBlocks)
			f.caretIn(t, "a", 0)
			before := f.doc.HTML()
			if f.sim.KeyDown(tt.ev()) {
				t.Error("KeyDown reported a change")
			}
			if f.doc.HTML() != before || len(f.inputs) != 0 {
				t.Error("tree or inputs changed")
			}
		})
	}
}

func TestInsertText_WithoutSelectionAppendsBareText(t *testing.T) {
	f := newFixture(t, "")
	if !f.sim.InsertText("x") {
		t.Fatal("InsertText failed")
	}
	last := f.doc.Root().LastChild
	if last == nil || dom.IsBlock(last) || last.Data != "x" {
		t.Errorf("root = %s", f.doc.HTML())
	}
}

func TestDeleteBackward(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		block  string
		offset int
		want   string
	}{
		{"single rune", twoBlocks, "b", 5, `hello|worl`},
		{"grapheme cluster", `<p class="ce-block" data-block-type="paragraph" data-block-id="a">ok</p>` +
			`<p class="ce-block" data-block-type="paragraph" data-block-id="b">cafe` + "\u0301" + `</p>`, "b", 5, `ok|caf`},
		{"merge at block start", twoBlocks, "b", 0, `helloworld`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.markup)
			f.caretIn(t, tt.block, tt.offset)
			if !f.sim.KeyDown(key.NewEvent(key.Backspace, 0)) {
				t.Fatal("no change")
			}
			if got := texts(f.doc); got != tt.want {
				t.Errorf("blocks = %q, want %q", got, tt.want)
			}
			if f.inputs[0] != event.InputDeleteBackward {
				t.Errorf("input = %v", f.inputs)
			}
		})
	}
}

func TestDeleteBackward_AtDocumentStartIsNoop(t *testing.T) {
	f := newFixture(t, twoBlocks)
	f.caretIn(t, "a", 0)
	if f.sim.DeleteBackward() {
		t.Error("deleted at document start")
	}
	if len(f.inputs) != 0 {
		t.Errorf("inputs = %v", f.inputs)
	}
}

func TestDeleteForward_MergesNextBlock(t *testing.T) {
	f := newFixture(t, twoBlocks)
	f.caretIn(t, "a", 5)
	if !f.sim.KeyDown(key.NewEvent(key.Delete, 0)) {
		t.Fatal("no change")
	}
	if got := texts(f.doc); got != "helloworld" {
		t.Errorf("blocks = %q", got)
	}
	sel := f.doc.Selection()
	if sel.Focus.Data != "hello" || sel.FocusOffset != 5 {
		t.Errorf("caret at %q:%d, want seam", sel.Focus.Data, sel.FocusOffset)
	}
}

func TestInsertParagraph_SplitsIntoBareDiv(t *testing.T) {
	f := newFixture(t, twoBlocks)
	f.caretIn(t, "a", 2)
	if !f.sim.KeyDown(key.NewEvent(key.Enter, 0)) {
		t.Fatal("no change")
	}

	kids := f.doc.Children()
	if len(kids) != 3 {
		t.Fatalf("children = %d, want 3", len(kids))
	}
	div := kids[1]
	if div.Data != "div" || dom.IsBlock(div) {
		t.Errorf("inserted node = %s", f.doc.HTML())
	}
	if dom.TextContent(kids[0]) != "he" || dom.TextContent(div) != "llo" {
		t.Errorf("split = %q / %q", dom.TextContent(kids[0]), dom.TextContent(div))
	}
	if sel := f.doc.Selection(); dom.ContainingBlock(f.doc.Root(), sel.Focus) != div || sel.FocusOffset != 0 {
		t.Error("caret not at start of new div")
	}
	if f.inputs[0] != event.InputInsertParagraph {
		t.Errorf("input = %v", f.inputs)
	}
}

func TestPaste(t *testing.T) {
	t.Run("inline", func(t *testing.T) {
		f := newFixture(t, twoBlocks)
		f.caretIn(t, "a", 5)
		f.sim.SetClipboard(" <b>there</b>")
		if !f.sim.KeyDown(key.NewEvent("v", key.ModCtrl)) {
			t.Fatal("no change")
		}
		if got := dom.TextContent(f.doc.FindBlock("a")); got != "hello there" {
			t.Errorf("text = %q", got)
		}
	})
	t.Run("block level", func(t *testing.T) {
		f := newFixture(t, twoBlocks)
		f.caretIn(t, "a", 5)
		if !f.sim.Paste("<div>one</div><div>two</div>") {
			t.Fatal("no change")
		}
		if got := texts(f.doc); got != "hello|one|two|world" {
			t.Errorf("blocks = %q", got)
		}
		if f.inputs[0] != event.InputInsertFromPaste {
			t.Errorf("input = %v", f.inputs)
		}
	})
}

func TestCut(t *testing.T) {
	t.Run("within one node", func(t *testing.T) {
		f := newFixture(t, twoBlocks)
		txt := dom.FirstText(f.doc.FindBlock("a"))
		f.doc.SetSelection(dom.Selection{Anchor: txt, AnchorOffset: 4, Focus: txt, FocusOffset: 1})
		if !f.sim.KeyDown(key.NewEvent("x", key.ModCtrl)) {
			t.Fatal("no change")
		}
		if txt.Data != "ho" || f.sim.Clipboard() != "ell" {
			t.Errorf("text = %q clipboard = %q", txt.Data, f.sim.Clipboard())
		}
	})
	t.Run("across blocks", func(t *testing.T) {
		f := newFixture(t, twoBlocks)
		a := dom.FirstText(f.doc.FindBlock("a"))
		b := dom.FirstText(f.doc.FindBlock("b"))
		f.doc.SetSelection(dom.Selection{Anchor: a, AnchorOffset: 3, Focus: b, FocusOffset: 2})
		got, ok := f.sim.Cut()
		if !ok || got != "lowo" {
			t.Fatalf("Cut = %q, %v", got, ok)
		}
		if texts(f.doc) != "helrld" {
			t.Errorf("blocks = %q", texts(f.doc))
		}
		if f.inputs[0] != event.InputDeleteByCut {
			t.Errorf("input = %v", f.inputs)
		}
	})
}

// texts joins the text of each root child with "|".
func texts(doc *dom.Document) string {
	out := ""
	for i, c := range doc.Children() {
		if i > 0 {
			out += "|"
		}
		out += dom.TextContent(c)
	}
	return out
}
