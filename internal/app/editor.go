// Package app assembles the editor: it constructs every service once,
// wires them together and exposes a headless input surface.
package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/dshills/blockstorm/internal/builtin"
	"github.com/dshills/blockstorm/internal/command"
	"github.com/dshills/blockstorm/internal/config"
	"github.com/dshills/blockstorm/internal/dom"
	"github.com/dshills/blockstorm/internal/event"
	"github.com/dshills/blockstorm/internal/history"
	"github.com/dshills/blockstorm/internal/input/key"
	"github.com/dshills/blockstorm/internal/loop"
	"github.com/dshills/blockstorm/internal/native"
	"github.com/dshills/blockstorm/internal/normalize"
	"github.com/dshills/blockstorm/internal/overlay"
	"github.com/dshills/blockstorm/internal/plugin"
)

// Editor is one editing session over a content root.
type Editor struct {
	config   *config.Config
	logger   *zap.Logger
	platform key.Platform

	loop       *loop.Loop
	bus        *event.Bus
	doc        *dom.Document
	normalizer *normalize.Normalizer
	native     *native.Simulator
	commands   *command.Registry
	overlays   *overlay.Stack
	history    *history.Manager
	lock       *SelectionLock
	plugins    *plugin.Runtime

	subs    []*event.Subscription
	watcher *config.Watcher

	// runMu orders posting input against Run shutting the loop down.
	runMu   sync.RWMutex
	running atomic.Bool
}

// Options configures an Editor.
type Options struct {
	// Config is the configuration. Nil uses config.Default().
	Config *config.Config

	// Markup is the initial content of the root.
	Markup string

	// Clock drives the loop. Nil uses the wall clock; tests and replays
	// pass a loop.ManualClock.
	Clock loop.Clock

	// Modules resolves non-Lua plugin paths. Built-in plugins are added to
	// it.
	Modules *plugin.Modules

	// Logger overrides the logger built from the config.
	Logger *zap.Logger
}

// New creates an editor and brings every component up.
func New(ctx context.Context, opts Options) (*Editor, error) {
	e := &Editor{config: opts.Config}
	if e.config == nil {
		e.config = config.Default()
	}
	b := newBootstrapper(e, opts)
	if err := b.bootstrap(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// Loop returns the editor's event loop.
func (e *Editor) Loop() *loop.Loop { return e.loop }

// Bus returns the event bus.
func (e *Editor) Bus() *event.Bus { return e.bus }

// Document returns the document.
func (e *Editor) Document() *dom.Document { return e.doc }

// Commands returns the command registry.
func (e *Editor) Commands() *command.Registry { return e.commands }

// Overlays returns the overlay stack.
func (e *Editor) Overlays() *overlay.Stack { return e.overlays }

// History returns the history manager.
func (e *Editor) History() *history.Manager { return e.history }

// SelectionLock returns the selection lock service.
func (e *Editor) SelectionLock() *SelectionLock { return e.lock }

// Plugins returns the plugin runtime.
func (e *Editor) Plugins() *plugin.Runtime { return e.plugins }

// Native returns the native editing simulator.
func (e *Editor) Native() *native.Simulator { return e.native }

// Config returns the active configuration.
func (e *Editor) Config() *config.Config { return e.config }

// Platform returns the platform chords resolve against.
func (e *Editor) Platform() key.Platform { return e.platform }

// HTML returns the markup of the root.
func (e *Editor) HTML() string { return e.doc.HTML() }

// exec runs fn as loop work. While Run is active fn is posted and the
// caller blocks until the loop goroutine ran it; otherwise fn runs on the
// calling goroutine and queued work is drained. Input methods must not be
// called from loop callbacks while Run is active.
func (e *Editor) exec(fn func()) {
	e.runMu.RLock()
	if !e.running.Load() {
		e.runMu.RUnlock()
		fn()
		e.loop.Drain()
		return
	}
	done := make(chan struct{})
	e.loop.Post(func() {
		defer close(done)
		fn()
		e.loop.Drain()
	})
	e.runMu.RUnlock()
	<-done
}

// KeyDown delivers a key-down event. Handlers run first; the native action
// applies unless one of them prevented it. Queued work is drained before
// returning. It reports whether the native action changed the document.
func (e *Editor) KeyDown(ev *key.Event) bool {
	changed := false
	e.exec(func() {
		e.bus.Emit(event.TopicKeyDown, ev)
		if !ev.DefaultPrevented() {
			changed = e.native.KeyDown(ev)
		}
	})
	return changed
}

// Type sends one key-down per grapheme of text. A newline is sent as
// Enter.
func (e *Editor) Type(text string) {
	for _, g := range key.Graphemes(text) {
		if g == "\n" {
			g = key.Enter
		}
		e.KeyDown(key.NewEvent(g, key.ModNone))
	}
}

// Click delivers a click on target.
func (e *Editor) Click(target *html.Node) {
	e.exec(func() {
		e.bus.Emit(event.TopicClick, &event.Click{Target: target})
	})
}

// NativeInsert inserts text the way input methods do: an input event with
// no preceding key-down.
func (e *Editor) NativeInsert(text string) bool {
	var ok bool
	e.exec(func() { ok = e.native.InsertText(text) })
	return ok
}

// RunCommand runs a registered command against the current document.
func (e *Editor) RunCommand(id string, ctx *command.Context) (bool, error) {
	if !e.commands.Has(id) {
		return false, ErrUnknownCommand
	}
	if ctx == nil {
		ctx = &command.Context{}
	}
	var handled bool
	e.exec(func() {
		ctx.Doc = e.doc
		if ctx.Selection == nil {
			ctx.Selection = e.doc.Selection()
		}
		handled = e.commands.Run(id, ctx)
	})
	return handled, nil
}

// Undo runs the undo command.
func (e *Editor) Undo() bool {
	ok, _ := e.RunCommand(builtin.CmdUndo, nil)
	return ok
}

// Redo runs the redo command.
func (e *Editor) Redo() bool {
	ok, _ := e.RunCommand(builtin.CmdRedo, nil)
	return ok
}

// Wait advances the loop clock by d, firing due timers. With the wall
// clock it only drains.
func (e *Editor) Wait(d time.Duration) {
	e.exec(func() { e.loop.Advance(d) })
}

// Settle commits any pending history transaction and drains the loop.
func (e *Editor) Settle() {
	e.exec(e.history.Flush)
}

// ApplyConfig switches to c. History, overlay and locale settings apply
// immediately; plugin and keymap changes need a restart.
func (e *Editor) ApplyConfig(c *config.Config) {
	if c == nil {
		return
	}
	old := e.config
	e.config = c
	e.history.SetDelays(c.History.TypingDelay.Std(), c.History.CommandDelay.Std())
	e.history.SetMaxEntries(c.History.MaxEntries)
	e.overlays.SetConfig(overlay.Config{GraceWindow: c.Overlay.GraceWindow.Std()})
	if old == nil || old.Locale != c.Locale {
		e.broadcastLocale()
	}
	if old != nil && old.Keymap.Platform != c.Keymap.Platform {
		e.logger.Info("keymap platform change applies after restart")
	}
	e.bus.Emit(event.TopicConfigChanged, c)
}

func (e *Editor) broadcastLocale() {
	if _, err := e.bus.BroadcastLocale(e.config.Locale); err != nil {
		e.logger.Warn("invalid locale", zap.String("locale", e.config.Locale), zap.Error(err))
	}
}

// WatchConfig reloads the config at path on change. Invalid files are
// logged and ignored.
func (e *Editor) WatchConfig(path string) error {
	w, err := config.Watch(path, e.loop, func(c *config.Config, err error) {
		if err != nil {
			e.logger.Warn("config reload failed", zap.String("path", path), zap.Error(err))
			return
		}
		e.logger.Info("config reloaded", zap.String("path", path))
		e.ApplyConfig(c)
	})
	if err != nil {
		return NewComponentError("config", "watch", err)
	}
	e.watcher = w
	return nil
}

// Run drives the loop until ctx is done. While it runs, the input methods
// hand their work to the loop goroutine.
func (e *Editor) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	err := e.loop.Run(ctx)

	// Work posted by exec before the flag drops still runs here.
	e.runMu.Lock()
	e.running.Store(false)
	e.loop.Drain()
	e.runMu.Unlock()
	return err
}

// Close releases every component.
func (e *Editor) Close() error {
	if e.watcher != nil {
		e.watcher.Close()
		e.watcher = nil
	}
	for _, s := range e.subs {
		s.Unsubscribe()
	}
	e.subs = nil
	err := e.plugins.Shutdown()
	e.history.Unbind()
	e.overlays.Detach()
	e.normalizer.Stop()
	_ = e.logger.Sync()
	return err
}
