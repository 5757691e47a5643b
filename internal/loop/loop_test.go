package loop

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func newTestLoop() (*Loop, *ManualClock) {
	clk := NewManualClock(time.Unix(1000, 0))
	return New(WithClock(clk)), clk
}

func TestLoop_PostRunsInOrder(t *testing.T) {
	l, _ := newTestLoop()

	var got []int
	for i := 0; i < 3; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}

	if n := l.Drain(); n != 3 {
		t.Fatalf("Drain() = %d, want 3", n)
	}
	for i, v := range got {
		if v != i {
			t.Errorf("got[%d] = %d, want %d", i, v, i)
		}
	}
}

func TestLoop_MicrotasksBeforeTimers(t *testing.T) {
	l, _ := newTestLoop()

	var order []string
	l.AfterFunc(0, func() { order = append(order, "timer") })
	l.Post(func() { order = append(order, "task") })
	l.Drain()

	if len(order) != 2 || order[0] != "task" || order[1] != "timer" {
		t.Errorf("order = %v, want [task timer]", order)
	}
}

func TestLoop_TimerFiresOnlyWhenDue(t *testing.T) {
	l, clk := newTestLoop()

	fired := false
	l.AfterFunc(500*time.Millisecond, func() { fired = true })

	clk.Advance(499 * time.Millisecond)
	l.Drain()
	if fired {
		t.Fatal("timer fired before deadline")
	}

	clk.Advance(time.Millisecond)
	l.Drain()
	if !fired {
		t.Fatal("timer did not fire at deadline")
	}
}

func TestLoop_TimerStop(t *testing.T) {
	l, _ := newTestLoop()

	fired := false
	tm := l.AfterFunc(100*time.Millisecond, func() { fired = true })
	if !tm.Stop() {
		t.Fatal("Stop() = false on pending timer")
	}
	if tm.Stop() {
		t.Error("second Stop() = true")
	}

	l.Advance(time.Second)
	if fired {
		t.Error("stopped timer fired")
	}
	if l.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", l.Pending())
	}
}

func TestLoop_AdvanceFiresInDeadlineOrder(t *testing.T) {
	l, clk := newTestLoop()
	start := clk.Now()

	var seen []time.Duration
	l.AfterFunc(300*time.Millisecond, func() { seen = append(seen, clk.Now().Sub(start)) })
	l.AfterFunc(100*time.Millisecond, func() {
		seen = append(seen, clk.Now().Sub(start))
		l.AfterFunc(50*time.Millisecond, func() { seen = append(seen, clk.Now().Sub(start)) })
	})

	l.Advance(time.Second)

	want := []time.Duration{100 * time.Millisecond, 150 * time.Millisecond, 300 * time.Millisecond}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("seen[%d] = %v, want %v", i, seen[i], want[i])
		}
	}
	if got := clk.Now().Sub(start); got != time.Second {
		t.Errorf("clock advanced %v, want 1s", got)
	}
}

func TestLoop_PanicIsRecovered(t *testing.T) {
	l, _ := newTestLoop()

	ran := false
	l.Post(func() { panic("boom") })
	l.Post(func() { ran = true })
	l.Drain()

	if !ran {
		t.Error("task after panicking task did not run")
	}
}

func TestLoop_RunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := New()
	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	done := make(chan struct{})
	go func() {
		defer wg.Done()
		_ = l.Run(ctx)
	}()

	l.AfterFunc(5*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired under Run")
	}

	cancel()
	wg.Wait()
}
