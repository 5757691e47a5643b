package plugin

import (
	"errors"
	"fmt"
	"os"
	"time"

	glua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/dshills/blockstorm/internal/command"
	"github.com/dshills/blockstorm/internal/dom"
	plua "github.com/dshills/blockstorm/internal/plugin/lua"
)

// loadLua runs the module in a fresh sandboxed state and adapts the global
// table named by the manifest class. The returned state is owned by the
// caller.
func loadLua(m *Manifest, env *Env, timeout time.Duration, logger *zap.Logger) (any, *plua.State, error) {
	path := m.ModulePath()
	if _, err := os.Stat(path); err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrModuleNotFound, path)
	}

	state, err := plua.NewState(plua.WithExecutionTimeout(timeout))
	if err != nil {
		return nil, nil, err
	}
	state.Preload(plua.ModuleName, luaAPI(m.Name, env, logger))

	if err := state.DoFile(path); err != nil {
		state.Close()
		return nil, nil, fmt.Errorf("running %s: %w", path, err)
	}

	class, ok := state.GetGlobal(m.Class).(*glua.LTable)
	if !ok {
		state.Close()
		return nil, nil, fmt.Errorf("%w: %s in %s", ErrExportNotFound, m.Class, path)
	}

	b := state.Bridge()
	if target, ok := b.String(class, "target"); ok && target != "" {
		ext := &luaExtension{state: state, target: target}
		ext.setup, _ = b.Func(class, "setupExtension")
		if cmds, ok := b.Table(class, "commands"); ok {
			b.Each(cmds, func(i int, v glua.LValue) {
				t, ok := v.(*glua.LTable)
				if !ok {
					logger.Warn("lua command is not a table", zap.String("plugin", m.Name), zap.Int("index", i))
					return
				}
				cmd, err := newLuaCommand(state, t, logger)
				if err != nil {
					logger.Warn("invalid lua command", zap.String("plugin", m.Name), zap.Int("index", i), zap.Error(err))
					return
				}
				ext.commands = append(ext.commands, cmd)
			})
		}
		return ext, state, nil
	}

	if setup, ok := b.Func(class, "setup"); ok {
		return &luaPlugin{state: state, setup: setup}, state, nil
	}

	state.Close()
	return nil, nil, fmt.Errorf("%w: %s has neither target nor setup", ErrNotAPlugin, m.Class)
}

// luaAPI binds the blockstorm module to the editor.
func luaAPI(name string, env *Env, logger *zap.Logger) glua.LGFunction {
	return plua.API{
		Run: func(id string) bool {
			return env.Commands.Run(id, &command.Context{Doc: env.Doc, Selection: env.Doc.Selection()})
		},
		HTML: env.Doc.HTML,
		AppendBlock: func(kind, text string) string {
			b := dom.NewTextBlock(kind, text)
			if err := env.Doc.AppendChild(env.Doc.Root(), b); err != nil {
				return ""
			}
			return dom.BlockID(b)
		},
		Log: func(msg string) {
			logger.Info(msg, zap.String("plugin", name))
		},
	}.Loader()
}

// luaPlugin is a plain Lua plugin; Setup calls its setup function.
type luaPlugin struct {
	state *plua.State
	setup *glua.LFunction
}

func (p *luaPlugin) Setup(*Env, []any) error {
	_, err := p.state.Call(p.setup)
	return err
}

// luaExtension is a Lua class declaring a target. Its optional
// setupExtension function receives the host type once attached.
type luaExtension struct {
	state    *plua.State
	target   string
	setup    *glua.LFunction
	commands []command.Command
}

func (e *luaExtension) Target() string { return e.target }

func (e *luaExtension) SetupExtension(host Host) error {
	if e.setup == nil {
		return nil
	}
	_, err := e.state.Call(e.setup, glua.LString(host.HostType()))
	return err
}

func (e *luaExtension) Commands() []command.Command { return e.commands }

// luaCommand adapts a Lua command table.
type luaCommand struct {
	state     *plua.State
	id        string
	sort      int
	execute   *glua.LFunction
	when      *glua.LFunction
	shortcuts []command.Shortcut
	logger    *zap.Logger
}

func newLuaCommand(state *plua.State, t *glua.LTable, logger *zap.Logger) (*luaCommand, error) {
	b := state.Bridge()
	id, ok := b.String(t, "id")
	if !ok || id == "" {
		return nil, errors.New("missing id")
	}
	exec, ok := b.Func(t, "execute")
	if !ok {
		return nil, fmt.Errorf("command %s: missing execute", id)
	}
	c := &luaCommand{state: state, id: id, execute: exec, logger: logger}
	c.sort, _ = b.Int(t, "sort")
	c.when, _ = b.Func(t, "when")

	if list, ok := b.Table(t, "shortcuts"); ok {
		b.Each(list, func(_ int, v glua.LValue) {
			st, ok := v.(*glua.LTable)
			if !ok {
				return
			}
			chord, ok := b.String(st, "chord")
			if !ok || chord == "" {
				return
			}
			sc := command.Shortcut{Chord: chord}
			sc.Priority, _ = b.Int(st, "priority")
			if prevent, ok := b.Bool(st, "preventDefault"); ok && !prevent {
				sc.AllowDefault = true
			}
			if c.when != nil {
				sc.When = c.precondition
			}
			c.shortcuts = append(c.shortcuts, sc)
		})
	}
	return c, nil
}

func (c *luaCommand) ID() string { return c.id }

func (c *luaCommand) SortKey() int { return c.sort }

func (c *luaCommand) Shortcuts() []command.Shortcut { return c.shortcuts }

func (c *luaCommand) Execute(ctx *command.Context) bool {
	return c.call(c.execute, ctx)
}

func (c *luaCommand) precondition(ctx *command.Context) bool {
	return c.call(c.when, ctx)
}

func (c *luaCommand) call(fn *glua.LFunction, ctx *command.Context) bool {
	res, err := c.state.Call(fn, c.contextTable(ctx))
	if err != nil {
		c.logger.Warn("lua command failed", zap.String("id", c.id), zap.Error(err))
		return false
	}
	return len(res) > 0 && glua.LVAsBool(res[0])
}

// contextTable exposes the scalar parts of ctx to Lua.
func (c *luaCommand) contextTable(ctx *command.Context) glua.LValue {
	fields := map[string]any{}
	if ctx != nil {
		if ctx.Event != nil {
			fields["key"] = ctx.Event.Key
		}
		if ctx.URL != "" {
			fields["url"] = ctx.URL
		}
		if ctx.Latex != "" {
			fields["latex"] = ctx.Latex
			fields["displayMode"] = ctx.DisplayMode
		}
		if ctx.Target != nil {
			fields["target"] = dom.BlockID(ctx.Target)
		}
		if ctx.Doc != nil {
			if b := ctx.Doc.CurrentBlock(); b != nil {
				fields["block"] = dom.BlockID(b)
			}
		}
	}
	return c.state.Bridge().ToLuaValue(fields)
}
