package plugin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	plua "github.com/dshills/blockstorm/internal/plugin/lua"
)

// Runtime discovers, instantiates and wires plugins.
type Runtime struct {
	loader     *Loader
	modules    *Modules
	builtin    []*Manifest
	disabled   map[string]bool
	luaTimeout time.Duration
	logger     *zap.Logger

	instances []any
	statuses  []Status
	states    []*plua.State
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithSearchPaths sets the directories scanned for plugin manifests.
func WithSearchPaths(paths ...string) Option {
	return func(r *Runtime) {
		r.loader = NewLoader(WithPaths(paths...))
	}
}

// WithModules sets the registry resolving non-Lua module paths.
func WithModules(m *Modules) Option {
	return func(r *Runtime) {
		if m != nil {
			r.modules = m
		}
	}
}

// WithBuiltin adds in-process manifests. They load before discovered ones.
func WithBuiltin(manifests ...*Manifest) Option {
	return func(r *Runtime) {
		r.builtin = append(r.builtin, manifests...)
	}
}

// WithDisabled skips the named plugins even when their manifest is active.
func WithDisabled(names ...string) Option {
	return func(r *Runtime) {
		for _, n := range names {
			r.disabled[n] = true
		}
	}
}

// WithLuaTimeout bounds each call into a Lua plugin.
func WithLuaTimeout(d time.Duration) Option {
	return func(r *Runtime) {
		if d > 0 {
			r.luaTimeout = d
		}
	}
}

// WithLogger sets the runtime logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runtime) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRuntime creates a runtime.
func NewRuntime(opts ...Option) *Runtime {
	r := &Runtime{
		loader:     NewLoader(),
		modules:    NewModules(),
		disabled:   make(map[string]bool),
		luaTimeout: plua.DefaultExecutionTimeout,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Init discovers manifests, instantiates active ones and wires them.
// Failures of individual plugins are logged and skipped; Init only fails
// when discovery itself fails or ctx is done.
func (r *Runtime) Init(ctx context.Context, env *Env) error {
	if env == nil {
		return ErrNilEnv
	}

	found, err := r.loader.Discover(ctx)
	if err != nil {
		return fmt.Errorf("discovering plugins: %w", err)
	}
	statuses := make([]Status, 0, len(r.builtin)+len(found))
	for _, m := range r.builtin {
		statuses = append(statuses, Status{Source: "builtin", Manifest: m})
	}
	statuses = append(statuses, found...)

	seen := make(map[string]bool)
	owner := make(map[int]int) // instance index -> status index
	for i := range statuses {
		if err := ctx.Err(); err != nil {
			return err
		}
		st := &statuses[i]
		if st.Err != nil {
			r.logger.Warn("skipping plugin", zap.String("source", st.Source), zap.Error(st.Err))
			continue
		}
		m := st.Manifest
		switch {
		case !m.Active, r.disabled[m.Name]:
			st.State = StateSkipped
			r.logger.Debug("plugin not active", zap.String("plugin", m.Name))
			continue
		case seen[m.Name]:
			st.State = StateSkipped
			r.logger.Warn("duplicate plugin name", zap.String("plugin", m.Name), zap.String("source", st.Source))
			continue
		}
		seen[m.Name] = true

		inst, err := r.instantiate(m, env)
		if err != nil {
			st.State, st.Err = StateError, err
			r.logger.Warn("plugin failed to load", zap.Error(err))
			continue
		}
		st.State = StateLoaded
		owner[len(r.instances)] = i
		r.instances = append(r.instances, inst)
	}

	r.wire(env, func(idx int, err error) {
		st := &statuses[owner[idx]]
		if err != nil {
			le := &LoadError{Plugin: st.Name(), Stage: StageSetup, Err: err}
			st.State, st.Err = StateError, le
			r.logger.Warn("plugin setup failed", zap.Error(le))
			return
		}
		st.State = StateActive
	})
	r.statuses = statuses
	return nil
}

// instantiate loads the module of m and returns the class instance.
func (r *Runtime) instantiate(m *Manifest, env *Env) (inst any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &LoadError{Plugin: m.Name, Stage: StageExport, Err: fmt.Errorf("constructor panicked: %v", rec)}
		}
	}()

	if m.IsLua() {
		v, state, err := loadLua(m, env, r.luaTimeout, r.logger.With(zap.String("plugin", m.Name)))
		if err != nil {
			return nil, &LoadError{Plugin: m.Name, Stage: stageOf(err), Err: err}
		}
		r.states = append(r.states, state)
		return v, nil
	}

	ctor, err := r.modules.Lookup(m.Path, m.Class)
	if err != nil {
		return nil, &LoadError{Plugin: m.Name, Stage: stageOf(err), Err: err}
	}
	v := ctor()
	_, isPlugin := v.(Plugin)
	_, isExt := v.(Extension)
	if !isPlugin && !isExt {
		return nil, &LoadError{Plugin: m.Name, Stage: StageExport, Err: fmt.Errorf("%w: %T", ErrNotAPlugin, v)}
	}
	return v, nil
}

// wire attaches extensions to their hosts, then sets up every plugin that
// is not an extension. done reports the outcome per instance index.
func (r *Runtime) wire(env *Env, done func(idx int, err error)) {
	var (
		hosts []int
		exts  []int
	)
	for i, inst := range r.instances {
		if _, ok := inst.(Host); ok {
			hosts = append(hosts, i)
		}
		if _, ok := inst.(Extension); ok {
			exts = append(exts, i)
		}
	}

	attached := make(map[int]bool)
	for _, hi := range hosts {
		host := r.instances[hi].(Host)
		var matching []Extension
		var idx []int
		for _, ei := range exts {
			ext := r.instances[ei].(Extension)
			if ext.Target() == host.HostType() {
				matching = append(matching, ext)
				idx = append(idx, ei)
			}
		}
		if err := r.safely(func() { host.AttachExtensions(matching) }); err != nil {
			r.logger.Warn("attaching extensions failed", zap.String("host", host.HostType()), zap.Error(err))
			continue
		}
		for k, ext := range matching {
			attached[idx[k]] = true
			initer, ok := ext.(ExtensionInitializer)
			if !ok {
				done(idx[k], nil)
				continue
			}
			var setupErr error
			if err := r.safely(func() { setupErr = initer.SetupExtension(host) }); err != nil {
				setupErr = err
			}
			done(idx[k], setupErr)
		}
	}

	for _, ei := range exts {
		if !attached[ei] {
			r.logger.Debug("extension has no host", zap.String("target", r.instances[ei].(Extension).Target()))
		}
	}

	all := append([]any(nil), r.instances...)
	for i, inst := range r.instances {
		if _, ok := inst.(Extension); ok {
			continue
		}
		p, ok := inst.(Plugin)
		if !ok {
			continue
		}
		var setupErr error
		if err := r.safely(func() { setupErr = p.Setup(env, all) }); err != nil {
			setupErr = err
		}
		done(i, setupErr)
	}
}

func stageOf(err error) string {
	if errors.Is(err, ErrExportNotFound) || errors.Is(err, ErrNotAPlugin) {
		return StageExport
	}
	return StageModule
}

func (r *Runtime) safely(fn func()) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	fn()
	return nil
}

// Plugins returns the loaded instances in load order.
func (r *Runtime) Plugins() []any {
	return append([]any(nil), r.instances...)
}

// Statuses returns the outcome for every manifest seen by Init.
func (r *Runtime) Statuses() []Status {
	return append([]Status(nil), r.statuses...)
}

// Shutdown closes instances holding resources and every Lua state.
func (r *Runtime) Shutdown() error {
	var firstErr error
	for i := len(r.instances) - 1; i >= 0; i-- {
		if c, ok := r.instances[i].(Closer); ok {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	for _, s := range r.states {
		s.Close()
	}
	r.instances, r.states = nil, nil
	return firstErr
}
