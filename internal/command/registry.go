package command

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Registry maps command ids to commands.
type Registry struct {
	commands map[string]Command
	hooks    []Hook
	logger   *zap.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		commands: make(map[string]Command),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register stores cmd under its id. A later registration with the same id
// replaces the earlier one.
func (r *Registry) Register(cmd Command) {
	if cmd == nil {
		return
	}
	id := cmd.ID()
	if _, exists := r.commands[id]; exists {
		r.logger.Warn("command overwritten", zap.String("id", id))
	}
	r.commands[id] = cmd
}

// Unregister removes the command with id.
func (r *Registry) Unregister(id string) {
	delete(r.commands, id)
}

// Get returns the command registered under id.
func (r *Registry) Get(id string) (Command, bool) {
	cmd, ok := r.commands[id]
	return cmd, ok
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.commands[id]
	return ok
}

// IDs returns the registered ids, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.commands))
	for id := range r.commands {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Use installs a hook around every execution.
func (r *Registry) Use(h Hook) {
	if h != nil {
		r.hooks = append(r.hooks, h)
	}
}

// Run executes the command registered under id. It returns false when the
// id is unknown or the command did not handle the context.
func (r *Registry) Run(id string, ctx *Context) bool {
	cmd, ok := r.commands[id]
	if !ok {
		r.logger.Debug("unknown command", zap.String("id", id))
		return false
	}
	if ctx == nil {
		ctx = &Context{}
	}

	for _, h := range r.hooks {
		h.BeforeRun(id, ctx)
	}
	handled := r.execute(cmd, ctx)
	for i := len(r.hooks) - 1; i >= 0; i-- {
		r.hooks[i].AfterRun(id, ctx, handled)
	}
	return handled
}

func (r *Registry) execute(cmd Command, ctx *Context) (handled bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("command panicked",
				zap.String("id", cmd.ID()),
				zap.String("panic", fmt.Sprint(rec)),
			)
			handled = false
		}
	}()
	return cmd.Execute(ctx)
}
