package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dshills/blockstorm/internal/builtin"
	"github.com/dshills/blockstorm/internal/command"
	"github.com/dshills/blockstorm/internal/config"
	"github.com/dshills/blockstorm/internal/dom"
	"github.com/dshills/blockstorm/internal/event"
	"github.com/dshills/blockstorm/internal/input/key"
	"github.com/dshills/blockstorm/internal/loop"
	"github.com/dshills/blockstorm/internal/overlay"
	"github.com/dshills/blockstorm/internal/plugin"
)

const hello = `<p class="ce-block" data-block-type="paragraph" data-block-id="a">hello</p>`

func testConfig() *config.Config {
	c := config.Default()
	c.Keymap.Platform = "other"
	return c
}

func newEditor(t *testing.T, c *config.Config, markup string) *Editor {
	t.Helper()
	if c == nil {
		c = testConfig()
	}
	ed, err := New(context.Background(), Options{
		Config: c,
		Markup: markup,
		Clock:  loop.NewManualClock(time.Unix(0, 0)),
		Logger: zap.NewNop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { ed.Close() })
	return ed
}

// caretAtEnd puts the caret after the text of block id.
func caretAtEnd(ed *Editor, id string) {
	text := dom.FirstText(ed.Document().FindBlock(id))
	ed.Document().Collapse(text, len([]rune(text.Data)))
}

func TestEditor_BuiltinPluginsActive(t *testing.T) {
	ed := newEditor(t, nil, hello)

	statuses := ed.Plugins().Statuses()
	require.Len(t, statuses, 2)
	for _, st := range statuses {
		assert.Equal(t, plugin.StateActive, st.State, st.Name())
	}
	for _, id := range []string{builtin.CmdUndo, builtin.CmdRedo, builtin.CmdInsertParagraph, builtin.CmdCloseOverlay} {
		assert.True(t, ed.Commands().Has(id), id)
	}
}

func TestEditor_TypingThenUndo(t *testing.T) {
	ed := newEditor(t, nil, hello)
	caretAtEnd(ed, "a")

	ed.Type(" world")
	assert.Equal(t, 0, ed.History().UndoLen(), "transaction still open")

	ed.Wait(ed.Config().History.TypingDelay.Std())
	require.Equal(t, 1, ed.History().UndoLen())
	assert.Equal(t, "hello world", dom.TextContent(ed.Document().FindBlock("a")))

	require.True(t, ed.Undo())
	assert.Equal(t, hello, ed.HTML())
	require.True(t, ed.Redo())
	assert.Equal(t, "hello world", dom.TextContent(ed.Document().FindBlock("a")))
}

func TestEditor_UndoShortcut(t *testing.T) {
	ed := newEditor(t, nil, hello)
	caretAtEnd(ed, "a")
	ed.Type("!")
	ed.Settle()
	require.Equal(t, 1, ed.History().UndoLen())

	ev := key.NewEvent("z", key.ModCtrl)
	changed := ed.KeyDown(ev)
	assert.False(t, changed, "native action suppressed")
	assert.True(t, ev.DefaultPrevented())
	assert.Equal(t, hello, ed.HTML())

	ed.KeyDown(key.NewEvent("y", key.ModCtrl))
	assert.Equal(t, "hello!", dom.TextContent(ed.Document().FindBlock("a")))
}

func TestEditor_NativeEnterIsNormalized(t *testing.T) {
	ed := newEditor(t, nil, hello)
	caretAtEnd(ed, "a")

	ed.Type("\nnext")
	blocks := ed.Document().Blocks()
	require.Len(t, blocks, 2)
	assert.Equal(t, dom.DefaultKind, dom.BlockKind(blocks[1]))
	assert.Equal(t, "next", dom.TextContent(blocks[1]))
	assert.Len(t, ed.Document().Children(), 2, "no raw div left behind")

	ed.Settle()
	require.True(t, ed.Undo())
	assert.Equal(t, hello, ed.HTML())
}

func TestEditor_NativeInsertUsesBaseline(t *testing.T) {
	ed := newEditor(t, nil, hello)
	caretAtEnd(ed, "a")

	require.True(t, ed.NativeInsert("你好"))
	ed.Wait(ed.Config().History.TypingDelay.Std())
	require.Equal(t, 1, ed.History().UndoLen())

	require.True(t, ed.Undo())
	assert.Equal(t, hello, ed.HTML())
}

func TestEditor_EscapeClosesOverlay(t *testing.T) {
	ed := newEditor(t, nil, hello)
	panel := overlay.NewPanel("menu", overlay.Options{})
	ed.Overlays().Push(panel)
	require.Equal(t, 1, ed.Overlays().Len())

	ev := key.NewEvent(key.Escape, key.ModNone)
	ed.KeyDown(ev)
	assert.Equal(t, 0, ed.Overlays().Len())
	assert.True(t, ev.DefaultPrevented())

	ev = key.NewEvent(key.Escape, key.ModNone)
	ed.KeyDown(ev)
	assert.False(t, ev.DefaultPrevented(), "nothing to close")
}

func TestEditor_CloseOverlayCommand(t *testing.T) {
	ed := newEditor(t, nil, hello)
	ed.Overlays().Push(overlay.NewPanel("menu", overlay.Options{}))

	ok, err := ed.RunCommand(builtin.CmdCloseOverlay, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, ed.Overlays().Len())
}

func TestEditor_SelectionLockRestoredOnClose(t *testing.T) {
	ed := newEditor(t, nil, hello)
	text := dom.FirstText(ed.Document().FindBlock("a"))
	ed.Document().Collapse(text, 2)

	panel := overlay.NewPanel("link", overlay.Options{LockSelection: true})
	ed.Overlays().Push(panel)
	assert.True(t, ed.SelectionLock().Locked())

	ed.Document().ClearSelection()
	ed.Overlays().Pop()
	assert.False(t, ed.SelectionLock().Locked())

	sel := ed.Document().Selection()
	require.NotNil(t, sel)
	assert.Same(t, text, sel.Anchor)
	assert.Equal(t, 2, sel.AnchorOffset)
}

func TestEditor_RunCommandUnknown(t *testing.T) {
	ed := newEditor(t, nil, hello)
	_, err := ed.RunCommand("no.such", nil)
	assert.True(t, errors.Is(err, ErrUnknownCommand))
}

func TestEditor_ServicesAnswerRequests(t *testing.T) {
	ed := newEditor(t, nil, hello)

	got, ok := event.RequestAs[*overlay.Stack](ed.Bus(), event.ServiceOverlays, nil)
	require.True(t, ok)
	assert.Same(t, ed.Overlays(), got)

	reg, ok := event.RequestAs[*command.Registry](ed.Bus(), event.ServiceCommands, nil)
	require.True(t, ok)
	assert.Same(t, ed.Commands(), reg)

	lock, ok := event.RequestAs[*SelectionLock](ed.Bus(), event.ServiceSelectionLock, nil)
	require.True(t, ok)
	assert.Same(t, ed.SelectionLock(), lock)
}

func TestEditor_ApplyConfig(t *testing.T) {
	ed := newEditor(t, nil, hello)
	caretAtEnd(ed, "a")

	var seen *config.Config
	ed.Bus().Subscribe(event.TopicConfigChanged, func(p any) { seen, _ = p.(*config.Config) })

	c := testConfig()
	c.History.TypingDelay = config.Duration(50 * time.Millisecond)
	c.Locale = "fr"
	ed.ApplyConfig(c)
	assert.Same(t, c, seen)
	assert.Same(t, c, ed.Config())

	ed.Type("x")
	ed.Wait(50 * time.Millisecond)
	assert.Equal(t, 1, ed.History().UndoLen(), "shorter typing delay applies")
}

func TestEditor_RunOnce(t *testing.T) {
	ed := newEditor(t, nil, hello)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ed.Run(ctx) }()

	require.Eventually(t, func() bool { return ed.running.Load() }, time.Second, time.Millisecond)
	assert.ErrorIs(t, ed.Run(ctx), ErrAlreadyRunning)
	cancel()
	<-done
}

func TestEditor_InputRunsOnLoopWhileRunning(t *testing.T) {
	ed := newEditor(t, nil, hello)
	caretAtEnd(ed, "a")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ed.Run(ctx) }()
	require.Eventually(t, func() bool { return ed.running.Load() }, time.Second, time.Millisecond)

	release := make(chan struct{})
	ed.Loop().Post(func() { <-release })

	typed := make(chan struct{})
	go func() {
		ed.Type("!")
		ed.Settle()
		close(typed)
	}()
	require.Never(t, func() bool {
		select {
		case <-typed:
			return true
		default:
			return false
		}
	}, 50*time.Millisecond, 5*time.Millisecond, "input waits behind busy loop work")

	close(release)
	select {
	case <-typed:
	case <-time.After(2 * time.Second):
		t.Fatal("input never ran")
	}
	cancel()
	<-done

	assert.Equal(t, "hello!", dom.TextContent(ed.Document().FindBlock("a")))
	assert.Equal(t, 1, ed.History().UndoLen())
}

func TestEditor_BadMarkupFallsBack(t *testing.T) {
	ed := newEditor(t, nil, "loose text")
	blocks := ed.Document().Blocks()
	require.Len(t, blocks, 1)
	assert.Equal(t, "loose text", dom.TextContent(blocks[0]))
}

const echoLua = `
local bs = require("blockstorm")

Echo = {
  target = "shortcuts",
  commands = {
    {
      id = "echo.append",
      shortcuts = { { chord = "Mod+E" } },
      execute = function(ctx)
        bs.append_block("paragraph", "echo")
        return true
      end,
    },
  },
}
`

func TestEditor_LoadsLuaPlugin(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "echo")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, plugin.ManifestFile),
		[]byte(`{"name":"echo","path":"echo.lua","class":"Echo","active":true}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "echo.lua"), []byte(echoLua), 0644))

	c := testConfig()
	c.Plugins.Paths = []string{base}
	ed := newEditor(t, c, hello)

	require.Len(t, ed.Plugins().Statuses(), 3)
	assert.True(t, ed.Commands().Has("echo.append"))

	ev := key.NewEvent("e", key.ModCtrl)
	ed.KeyDown(ev)
	assert.True(t, ev.DefaultPrevented())
	blocks := ed.Document().Blocks()
	require.Len(t, blocks, 2)
	assert.Equal(t, "echo", dom.TextContent(blocks[1]))

	ed.Settle()
	require.True(t, ed.Undo())
	assert.Equal(t, hello, ed.HTML())
}

func TestEditor_DisabledPlugin(t *testing.T) {
	c := testConfig()
	c.Plugins.Disabled = []string{"core"}
	ed := newEditor(t, c, hello)

	assert.False(t, ed.Commands().Has(builtin.CmdUndo))
	assert.False(t, ed.Undo())
}

func TestEditor_WatchConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blockstorm.toml")
	require.NoError(t, os.WriteFile(path, []byte("locale = \"en\"\n[keymap]\nplatform = \"other\"\n"), 0644))

	ed := newEditor(t, nil, hello)
	require.NoError(t, ed.WatchConfig(path))

	require.NoError(t, os.WriteFile(path, []byte("locale = \"de\"\n[keymap]\nplatform = \"other\"\n[history]\nmax_entries = 5\n"), 0644))
	require.Eventually(t, func() bool {
		ed.Loop().Drain()
		return ed.Config().Locale == "de"
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 5, ed.Config().History.MaxEntries)

	assert.Error(t, ed.WatchConfig(filepath.Join(t.TempDir(), "missing", "c.toml")))
}

func TestEditor_PastedListSurvivesUndoRedo(t *testing.T) {
	ed := newEditor(t, nil, hello)
	caretAtEnd(ed, "a")

	ed.Native().SetClipboard(`<div><ul><li>item</li></ul></div>`)
	ed.KeyDown(key.NewEvent("v", key.ModCtrl))
	ed.Settle()
	for _, c := range ed.Document().Children() {
		require.True(t, dom.IsBlock(c), ed.HTML())
	}
	pasted := ed.HTML()
	require.Contains(t, pasted, "<ul><li>item</li></ul>")

	handled, err := ed.RunCommand(builtin.CmdInsertParagraph, nil)
	require.NoError(t, err)
	require.True(t, handled)
	ed.Settle()
	split := ed.HTML()

	require.True(t, ed.Undo())
	assert.Equal(t, pasted, ed.HTML())
	assert.Contains(t, ed.HTML(), "<ul><li>item</li></ul>")

	require.True(t, ed.Redo())
	assert.Equal(t, split, ed.HTML())
	assert.Contains(t, ed.HTML(), "item")
}
