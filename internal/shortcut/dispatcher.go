package shortcut

import (
	"sort"

	"go.uber.org/zap"

	"github.com/dshills/blockstorm/internal/command"
	"github.com/dshills/blockstorm/internal/event"
	"github.com/dshills/blockstorm/internal/input/key"
	"github.com/dshills/blockstorm/internal/plugin"
)

// HostType is the host name extensions target to contribute shortcuts.
const HostType = "shortcuts"

// Dispatcher is the shortcut host plugin.
type Dispatcher struct {
	keymap   *Keymap
	commands []command.Command
	env      *plugin.Env
	sub      *event.Subscription
	logger   *zap.Logger
}

// New creates a dispatcher.
func New() *Dispatcher {
	return &Dispatcher{keymap: NewKeymap(), logger: zap.NewNop()}
}

// HostType implements plugin.Host.
func (d *Dispatcher) HostType() string { return HostType }

// Keymap returns the dispatcher's bindings.
func (d *Dispatcher) Keymap() *Keymap { return d.keymap }

// Commands returns the contributed commands in sort order.
func (d *Dispatcher) Commands() []command.Command {
	return append([]command.Command(nil), d.commands...)
}

// AttachExtensions gathers commands from every extension that provides
// them, ordered by their sort key.
func (d *Dispatcher) AttachExtensions(exts []plugin.Extension) {
	var cmds []command.Command
	for _, ext := range exts {
		if p, ok := ext.(plugin.CommandProvider); ok {
			cmds = append(cmds, p.Commands()...)
		}
	}
	sort.SliceStable(cmds, func(i, j int) bool {
		return command.SortKeyOf(cmds[i]) < command.SortKeyOf(cmds[j])
	})
	d.commands = append(d.commands, cmds...)
}

// Setup registers the gathered commands, builds the keymap and starts
// listening for key-down events ahead of other handlers.
func (d *Dispatcher) Setup(env *plugin.Env, _ []any) error {
	d.env = env
	if env.Logger != nil {
		d.logger = env.Logger.Named("shortcut")
	}

	for _, cmd := range d.commands {
		env.Commands.Register(cmd)
		sp, ok := cmd.(command.ShortcutProvider)
		if !ok {
			continue
		}
		for _, sc := range sp.Shortcuts() {
			chord, err := key.Canonical(sc.Chord, env.Platform)
			if err != nil {
				d.logger.Warn("invalid shortcut", zap.String("command", cmd.ID()), zap.Error(err))
				continue
			}
			d.keymap.Add(Binding{
				Chord:        chord,
				Command:      cmd,
				Priority:     sc.Priority,
				When:         sc.When,
				AllowDefault: sc.AllowDefault,
			})
		}
	}

	d.sub = env.Bus.Subscribe(event.TopicKeyDown, d.handleKeyDown,
		event.WithPriority(event.PriorityCritical))
	return nil
}

// Close stops listening for key events.
func (d *Dispatcher) Close() error {
	d.sub.Unsubscribe()
	d.sub = nil
	return nil
}

func (d *Dispatcher) handleKeyDown(payload any) {
	ev, ok := payload.(*key.Event)
	if !ok || ev.IsComposition() {
		return
	}
	d.Dispatch(ev)
}

// Dispatch runs the command bound to ev's chord, if any. It reports
// whether a binding matched.
func (d *Dispatcher) Dispatch(ev *key.Event) bool {
	chord := key.FromEvent(ev).String()
	ctx := &command.Context{Event: ev}
	if d.env != nil {
		ctx.Doc = d.env.Doc
		ctx.Selection = d.env.Doc.Selection()
	}

	b, ok := d.keymap.Match(chord, ctx)
	if !ok {
		return false
	}
	if !b.AllowDefault {
		ev.PreventDefault()
		ev.StopPropagation()
	}
	d.logger.Debug("shortcut", zap.String("chord", chord), zap.String("command", b.Command.ID()))
	if d.env != nil {
		d.env.Commands.Run(b.Command.ID(), ctx)
	} else {
		b.Command.Execute(ctx)
	}
	return true
}
