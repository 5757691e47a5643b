package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/blockstorm/internal/app"
	"github.com/dshills/blockstorm/internal/command"
	"github.com/dshills/blockstorm/internal/config"
	"github.com/dshills/blockstorm/internal/dom"
	"github.com/dshills/blockstorm/internal/input/key"
	"github.com/dshills/blockstorm/internal/loop"
)

var (
	scriptPath string
	docPath    string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a scripted input session",
	Long: `Replay feeds the steps of a YAML script into a headless editor and
prints the resulting markup and history depth.

Time is simulated: wait steps advance the editor clock instantly.

Example script:

  doc: '<p class="ce-block" data-block-type="paragraph" data-block-id="a">hi</p>'
  steps:
    - caret: {block: a, offset: -1}
    - type: " there"
    - wait: 600ms
    - keys: ["Mod+Z"]`,
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().StringVarP(&scriptPath, "script", "s", "", "path to the YAML script (required)")
	replayCmd.Flags().StringVarP(&docPath, "doc", "d", "", "file holding the initial markup")
	_ = replayCmd.MarkFlagRequired("script")
}

func runReplay(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	f, err := os.Open(scriptPath)
	if err != nil {
		return err
	}
	script, err := ParseScript(f)
	f.Close()
	if err != nil {
		return err
	}
	if docPath != "" {
		data, err := os.ReadFile(docPath)
		if err != nil {
			return err
		}
		script.Doc = string(data)
	}

	ed, err := newReplayEditor(cmd.Context(), cfg, script.Doc, nil)
	if err != nil {
		return err
	}
	defer ed.Close()

	if err := Replay(ed, script); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), ed.HTML())
	fmt.Fprintf(cmd.OutOrStdout(), "undo: %d redo: %d\n", ed.History().UndoLen(), ed.History().RedoLen())
	return nil
}

// newReplayEditor builds an editor on a simulated clock.
func newReplayEditor(ctx context.Context, cfg *config.Config, markup string, logger *zap.Logger) (*app.Editor, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return app.New(ctx, app.Options{
		Config: cfg,
		Markup: markup,
		Clock:  loop.NewManualClock(time.Unix(0, 0)),
		Logger: logger,
	})
}

// Replay runs every step of s against ed and settles history at the end.
func Replay(ed *app.Editor, s *Script) error {
	for i, step := range s.Steps {
		if err := apply(ed, step); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	ed.Settle()
	return nil
}

func apply(ed *app.Editor, step Step) error {
	action, err := step.Action()
	if err != nil {
		return err
	}
	switch action {
	case "keys":
		for _, spec := range step.Keys {
			ev, err := key.ParseEvent(spec, ed.Platform())
			if err != nil {
				return err
			}
			ed.KeyDown(ev)
		}
	case "type":
		ed.Type(step.Type)
	case "insert":
		ed.NativeInsert(step.Insert)
	case "command":
		ctx := &command.Context{}
		if step.Content != "" {
			ctx.Content = step.Content
		}
		if step.Block != "" {
			if ctx.Target = ed.Document().FindBlock(step.Block); ctx.Target == nil {
				return fmt.Errorf("%s: no block %q", step.Command, step.Block)
			}
		}
		if _, err := ed.RunCommand(step.Command, ctx); err != nil {
			return fmt.Errorf("%s: %w", step.Command, err)
		}
	case "caret":
		return placeCaret(ed.Document(), step.Caret)
	case "click":
		block := ed.Document().FindBlock(step.Click)
		if block == nil {
			return fmt.Errorf("click: no block %q", step.Click)
		}
		ed.Click(block)
	case "wait":
		ed.Wait(step.Wait.Std())
	case "undo":
		ed.Undo()
	case "redo":
		ed.Redo()
	}
	return nil
}

func placeCaret(doc *dom.Document, c *Caret) error {
	block := doc.FindBlock(c.Block)
	if block == nil {
		return fmt.Errorf("caret: no block %q", c.Block)
	}
	node := dom.FirstText(block)
	if node == nil {
		node = block
	}
	off := c.Offset
	if off < 0 {
		off = dom.NodeLength(node)
	}
	doc.Collapse(node, dom.ClampOffset(node, off))
	return nil
}
