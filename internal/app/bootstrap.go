package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dshills/blockstorm/internal/builtin"
	"github.com/dshills/blockstorm/internal/command"
	"github.com/dshills/blockstorm/internal/dom"
	"github.com/dshills/blockstorm/internal/event"
	"github.com/dshills/blockstorm/internal/history"
	"github.com/dshills/blockstorm/internal/input/key"
	"github.com/dshills/blockstorm/internal/loop"
	"github.com/dshills/blockstorm/internal/native"
	"github.com/dshills/blockstorm/internal/normalize"
	"github.com/dshills/blockstorm/internal/overlay"
	"github.com/dshills/blockstorm/internal/plugin"
	"github.com/dshills/blockstorm/internal/shortcut"
)

// Built-in plugin manifests. They resolve through the module registry.
var (
	shortcutManifest = &plugin.Manifest{
		Name:   "shortcuts",
		Path:   "builtin/shortcuts",
		Class:  "Dispatcher",
		Active: true,
	}
	coreManifest = &plugin.Manifest{
		Name:   "core",
		Path:   builtin.ModulePath,
		Class:  builtin.ClassName,
		Active: true,
	}
)

// bootstrapper handles component initialization with proper cleanup on failure.
type bootstrapper struct {
	ed        *Editor
	opts      Options
	initOrder []string
}

// newBootstrapper creates a new bootstrapper for the editor.
func newBootstrapper(ed *Editor, opts Options) *bootstrapper {
	return &bootstrapper{
		ed:        ed,
		opts:      opts,
		initOrder: make([]string, 0, 8),
	}
}

// bootstrap initializes all components in dependency order.
// On failure, it cleans up already-initialized components.
func (b *bootstrapper) bootstrap(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"logger", b.initLogger},
		{"loop", b.initLoop},
		{"document", b.initDocument},
		{"commands", b.initCommands},
		{"overlays", b.initOverlays},
		{"history", b.initHistory},
		{"services", b.initServices},
		{"plugins", b.initPlugins},
	}
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			b.cleanup()
			return NewComponentError(step.name, "init", fmt.Errorf("%w: %w", ErrInitialization, err))
		}
		b.initOrder = append(b.initOrder, step.name)
	}

	b.ed.broadcastLocale()
	b.ed.loop.Drain()
	b.ed.logger.Debug("editor ready", zap.Strings("components", b.initOrder))
	return nil
}

func (b *bootstrapper) initLogger(context.Context) error {
	if b.opts.Logger != nil {
		b.ed.logger = b.opts.Logger
		return nil
	}
	logger, err := NewLogger(b.ed.config.LogLevel())
	if err != nil {
		return err
	}
	b.ed.logger = logger
	return nil
}

func (b *bootstrapper) initLoop(context.Context) error {
	ed := b.ed
	ed.platform = key.ParsePlatform(ed.config.Keymap.Platform)
	ed.loop = loop.New(loop.WithClock(b.opts.Clock), loop.WithLogger(ed.logger.Named("loop")))
	ed.bus = event.NewBus(event.WithLogger(ed.logger.Named("event")))
	return nil
}

func (b *bootstrapper) initDocument(context.Context) error {
	ed := b.ed
	doc, err := dom.Parse(b.opts.Markup, dom.WithScheduler(ed.loop))
	if err != nil {
		return err
	}
	ed.doc = doc
	ed.normalizer = normalize.New(doc, normalize.WithLogger(ed.logger.Named("normalize")))
	if n := ed.normalizer.Normalize(); n > 0 {
		ed.logger.Debug("initial content repaired", zap.Int("nodes", n))
	}
	ed.normalizer.Start()
	ed.native = native.New(doc, ed.bus,
		native.WithPlatform(ed.platform),
		native.WithLogger(ed.logger.Named("native")),
	)
	return nil
}

func (b *bootstrapper) initCommands(context.Context) error {
	b.ed.commands = command.NewRegistry(command.WithLogger(b.ed.logger.Named("command")))
	return nil
}

func (b *bootstrapper) initOverlays(context.Context) error {
	ed := b.ed
	ed.overlays = overlay.NewStack(ed.loop,
		overlay.WithConfig(overlay.Config{GraceWindow: ed.config.Overlay.GraceWindow.Std()}),
		overlay.WithLogger(ed.logger.Named("overlay")),
	)
	ed.overlays.Attach(ed.bus)
	ed.lock = NewSelectionLock(ed.doc)
	ed.overlays.OnChange(ed.lock.track)
	return nil
}

func (b *bootstrapper) initHistory(context.Context) error {
	ed := b.ed
	h := ed.config.History
	ed.history = history.New(ed.loop,
		history.WithPauser(ed.normalizer),
		history.WithPlatform(ed.platform),
		history.WithDelays(h.TypingDelay.Std(), h.CommandDelay.Std()),
		history.WithMaxEntries(h.MaxEntries),
		history.WithLogger(ed.logger.Named("history")),
	)
	ed.history.Attach(ed.doc)
	ed.history.Bind(ed.bus)
	ed.commands.Use(ed.history)
	return nil
}

// initServices answers context requests so plugins reach shared services
// without importing the editor.
func (b *bootstrapper) initServices(context.Context) error {
	ed := b.ed
	ed.subs = append(ed.subs,
		event.Provide(ed.bus, event.ServiceOverlays, ed.overlays),
		event.Provide(ed.bus, event.ServiceCommands, ed.commands),
		event.Provide(ed.bus, event.ServiceHistory, ed.history),
		event.Provide(ed.bus, event.ServiceSelectionLock, ed.lock),
	)
	return nil
}

func (b *bootstrapper) initPlugins(ctx context.Context) error {
	ed := b.ed
	mods := b.opts.Modules
	if mods == nil {
		mods = plugin.NewModules()
	}
	mods.Register(shortcutManifest.Path, shortcutManifest.Class, func() any {
		return shortcut.New()
	})
	mods.Register(coreManifest.Path, coreManifest.Class, func() any {
		return builtin.New(ed.bus, ed.loop, builtin.WithLogger(ed.logger.Named("builtin")))
	})

	pc := ed.config.Plugins
	ed.plugins = plugin.NewRuntime(
		plugin.WithModules(mods),
		plugin.WithBuiltin(shortcutManifest, coreManifest),
		plugin.WithSearchPaths(pc.Paths...),
		plugin.WithDisabled(pc.Disabled...),
		plugin.WithLuaTimeout(pc.LuaTimeout.Std()),
		plugin.WithLogger(ed.logger.Named("plugin")),
	)
	return ed.plugins.Init(ctx, &plugin.Env{
		Doc:      ed.doc,
		Bus:      ed.bus,
		Commands: ed.commands,
		Overlays: ed.overlays,
		Platform: ed.platform,
		Logger:   ed.logger,
	})
}

// cleanup tears down initialized components in reverse order.
func (b *bootstrapper) cleanup() {
	ed := b.ed
	for i := len(b.initOrder) - 1; i >= 0; i-- {
		switch b.initOrder[i] {
		case "plugins":
			ed.plugins.Shutdown()
		case "services":
			for _, s := range ed.subs {
				s.Unsubscribe()
			}
			ed.subs = nil
		case "history":
			ed.history.Unbind()
		case "overlays":
			ed.overlays.Detach()
		case "document":
			ed.normalizer.Stop()
		}
	}
}
