package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dshills/blockstorm/internal/config"
	"github.com/dshills/blockstorm/internal/dom"
	"github.com/dshills/blockstorm/internal/plugin"
)

const helloDoc = `<p class="ce-block" data-block-type="paragraph" data-block-id="a">hello</p>`

func testConfig() *config.Config {
	c := config.Default()
	c.Keymap.Platform = "other"
	return c
}

func TestParseScript(t *testing.T) {
	src := `
doc: '<p>x</p>'
steps:
  - caret: {block: a, offset: -1}
  - type: "abc"
  - wait: 600ms
  - keys: ["Mod+Z", "Enter"]
  - command: block.delete
    block: a
  - undo: true
`
	s, err := ParseScript(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, "<p>x</p>", s.Doc)
	require.Len(t, s.Steps, 6)

	var actions []string
	for _, st := range s.Steps {
		a, err := st.Action()
		require.NoError(t, err)
		actions = append(actions, a)
	}
	assert.Equal(t, []string{"caret", "type", "wait", "keys", "command", "undo"}, actions)
	assert.Equal(t, "600ms", s.Steps[2].Wait.Std().String())
	assert.Equal(t, -1, s.Steps[0].Caret.Offset)
}

func TestParseScriptErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty step", "steps:\n  - {}\n"},
		{"two actions", "steps:\n  - {type: a, undo: true}\n"},
		{"unknown field", "steps:\n  - {press: a}\n"},
		{"bad duration", "steps:\n  - {wait: soon}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScript(strings.NewReader(tt.src))
			assert.Error(t, err)
		})
	}

	_, err := ParseScript(strings.NewReader("steps:\n  - {}\n"))
	assert.True(t, errors.Is(err, ErrInvalidStep))
}

func TestReplayTypingAndUndo(t *testing.T) {
	ed, err := newReplayEditor(context.Background(), testConfig(), helloDoc, zap.NewNop())
	require.NoError(t, err)
	defer ed.Close()

	s, err := ParseScript(strings.NewReader(`
steps:
  - caret: {block: a, offset: -1}
  - type: " world"
  - wait: 1s
  - type: "!"
`))
	require.NoError(t, err)
	require.NoError(t, Replay(ed, s))
	assert.Equal(t, "hello world!", dom.TextContent(ed.Document().FindBlock("a")))
	assert.Equal(t, 2, ed.History().UndoLen())

	undo, err := ParseScript(strings.NewReader("steps:\n  - keys: [\"Mod+Z\"]\n  - undo: true\n"))
	require.NoError(t, err)
	require.NoError(t, Replay(ed, undo))
	assert.Equal(t, helloDoc, ed.HTML())
	assert.Equal(t, 2, ed.History().RedoLen())
}

func TestReplayCommandStep(t *testing.T) {
	ed, err := newReplayEditor(context.Background(), testConfig(),
		helloDoc+`<p class="ce-block" data-block-type="paragraph" data-block-id="b">bye</p>`, zap.NewNop())
	require.NoError(t, err)
	defer ed.Close()

	s, err := ParseScript(strings.NewReader("steps:\n  - {command: block.delete, block: b}\n"))
	require.NoError(t, err)
	require.NoError(t, Replay(ed, s))
	assert.Equal(t, helloDoc, ed.HTML())
}

func TestReplayErrors(t *testing.T) {
	ed, err := newReplayEditor(context.Background(), testConfig(), helloDoc, zap.NewNop())
	require.NoError(t, err)
	defer ed.Close()

	for _, src := range []string{
		"steps:\n  - {command: no.such}\n",
		"steps:\n  - {caret: {block: zz}}\n",
		"steps:\n  - {click: zz}\n",
		"steps:\n  - {keys: [\"Hyper+x\"]}\n",
	} {
		s, err := ParseScript(strings.NewReader(src))
		require.NoError(t, err, src)
		assert.Error(t, Replay(ed, s), src)
	}
}

func TestPrintStatuses(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printStatuses(&buf, []plugin.Status{
		{Source: "builtin", Manifest: &plugin.Manifest{Name: "core"}, State: plugin.StateActive},
		{Source: "/p/bad/plugin.json", State: plugin.StateError, Err: plugin.ErrInvalidManifest},
	}))
	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "core")
	assert.Contains(t, out, "/p/bad/plugin.json")
	assert.Contains(t, out, plugin.ErrInvalidManifest.Error())
}

func TestRunReplayCommand(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(script, []byte(
		"doc: '"+helloDoc+"'\nsteps:\n  - caret: {block: a, offset: -1}\n  - type: \"!\"\n"), 0644))
	cfgPath := filepath.Join(dir, "c.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[log]\nlevel = \"error\"\n[keymap]\nplatform = \"other\"\n"), 0644))

	configPath, scriptPath, docPath, pluginPaths = cfgPath, script, "", []string{dir}
	defer func() { configPath, scriptPath, pluginPaths = "", "", nil }()

	var out bytes.Buffer
	replayCmd.SetOut(&out)
	replayCmd.SetContext(context.Background())
	require.NoError(t, runReplay(replayCmd, nil))
	assert.Contains(t, out.String(), "hello!")
	assert.Contains(t, out.String(), "undo: 1 redo: 0")
}
