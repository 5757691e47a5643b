package command

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRegistry_RunUnknown(t *testing.T) {
	r := NewRegistry()
	if r.Run("missing", nil) {
		t.Error("Run(missing) = true, want false")
	}
}

func TestRegistry_RunPassesContext(t *testing.T) {
	r := NewRegistry()

	var got *Context
	r.Register(&Definition{Name: "x", Run: func(ctx *Context) bool {
		got = ctx
		return true
	}})

	ctx := &Context{URL: "https://example.com"}
	if !r.Run("x", ctx) {
		t.Fatal("Run(x) = false")
	}
	if got != ctx {
		t.Error("command did not receive the given context")
	}
}

func TestRegistry_LastRegistrationWins(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	r := NewRegistry(WithLogger(zap.New(core)))

	r.Register(&Definition{Name: "x", Run: func(*Context) bool { return false }})
	r.Register(&Definition{Name: "x", Run: func(*Context) bool { return true }})

	if !r.Run("x", nil) {
		t.Error("second registration did not win")
	}
	if logs.FilterMessage("command overwritten").Len() != 1 {
		t.Errorf("expected one overwrite warning, got %d logs", logs.Len())
	}
}

func TestRegistry_HooksWrapExecution(t *testing.T) {
	r := NewRegistry()

	var order []string
	r.Use(HookFuncs{
		Before: func(id string, _ *Context) { order = append(order, "before-1:"+id) },
		After:  func(id string, _ *Context, _ bool) { order = append(order, "after-1") },
	})
	r.Use(HookFuncs{
		Before: func(id string, _ *Context) { order = append(order, "before-2") },
		After:  func(_ string, _ *Context, handled bool) {
			if handled {
				order = append(order, "after-2:handled")
			}
		},
	})
	r.Register(&Definition{Name: "x", Run: func(*Context) bool {
		order = append(order, "run")
		return true
	}})

	r.Run("x", nil)

	want := []string{"before-1:x", "before-2", "run", "after-2:handled", "after-1"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestRegistry_PanicReturnsFalse(t *testing.T) {
	r := NewRegistry()

	afterCalled := false
	r.Use(HookFuncs{After: func(string, *Context, bool) { afterCalled = true }})
	r.Register(&Definition{Name: "boom", Run: func(*Context) bool { panic("boom") }})

	if r.Run("boom", nil) {
		t.Error("panicking command reported handled")
	}
	if !afterCalled {
		t.Error("after hook skipped for panicking command")
	}
}

func TestRegistry_IDs(t *testing.T) {
	r := NewRegistry()
	r.Register(&Definition{Name: "b"})
	r.Register(&Definition{Name: "a"})
	r.Unregister("b")

	ids := r.IDs()
	if len(ids) != 1 || ids[0] != "a" {
		t.Errorf("IDs() = %v, want [a]", ids)
	}
}
