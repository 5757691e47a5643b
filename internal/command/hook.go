package command

// Hook observes command execution.
type Hook interface {
	// BeforeRun is called before the command executes.
	BeforeRun(id string, ctx *Context)

	// AfterRun is called after the command executed, with its result.
	AfterRun(id string, ctx *Context, handled bool)
}

// HookFuncs adapts plain functions to Hook. Nil fields are skipped.
type HookFuncs struct {
	Before func(id string, ctx *Context)
	After  func(id string, ctx *Context, handled bool)
}

// BeforeRun implements Hook.
func (h HookFuncs) BeforeRun(id string, ctx *Context) {
	if h.Before != nil {
		h.Before(id, ctx)
	}
}

// AfterRun implements Hook.
func (h HookFuncs) AfterRun(id string, ctx *Context, handled bool) {
	if h.After != nil {
		h.After(id, ctx, handled)
	}
}
