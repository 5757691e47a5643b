package loop

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// FrameInterval is the delay used for frame deferrals.
const FrameInterval = 16 * time.Millisecond

// maxDrainSteps bounds a single Drain so a task that keeps re-posting itself
// cannot wedge the loop.
const maxDrainSteps = 100_000

// Loop is a single-threaded cooperative scheduler.
type Loop struct {
	mu     sync.Mutex
	clock  Clock
	tasks  []func()
	timers timerHeap
	seq    uint64
	wake   chan struct{}
	logger *zap.Logger
}

// Option configures a Loop.
type Option func(*Loop)

// WithClock sets the clock used for timer deadlines.
func WithClock(c Clock) Option {
	return func(l *Loop) {
		if c != nil {
			l.clock = c
		}
	}
}

// WithLogger sets the logger used to report panicking tasks.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a loop. Without options it uses the wall clock.
func New(opts ...Option) *Loop {
	l := &Loop{
		clock:  RealClock(),
		wake:   make(chan struct{}, 1),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Clock returns the loop clock.
func (l *Loop) Clock() Clock {
	return l.clock
}

// Now returns the current loop time.
func (l *Loop) Now() time.Time {
	return l.clock.Now()
}

// Post queues fn as a microtask. Safe to call from any goroutine.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()
	l.signal()
}

// AfterFunc schedules fn to run once d has elapsed on the loop clock.
func (l *Loop) AfterFunc(d time.Duration, fn func()) *Timer {
	if d < 0 {
		d = 0
	}
	l.mu.Lock()
	l.seq++
	t := &Timer{
		loop: l,
		when: l.clock.Now().Add(d),
		fn:   fn,
		seq:  l.seq,
	}
	heap.Push(&l.timers, t)
	l.mu.Unlock()
	l.signal()
	return t
}

// NextFrame schedules fn after one frame.
func (l *Loop) NextFrame(fn func()) *Timer {
	return l.AfterFunc(FrameInterval, fn)
}

// Pending reports the number of queued microtasks and armed timers.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks) + len(l.timers)
}

// Drain runs queued microtasks and due timers until nothing is ready.
// It returns the number of callbacks executed.
func (l *Loop) Drain() int {
	ran := 0
	for ran < maxDrainSteps {
		fn := l.next()
		if fn == nil {
			return ran
		}
		l.invoke(fn)
		ran++
	}
	l.logger.Warn("drain step limit reached", zap.Int("steps", ran))
	return ran
}

// Advance moves a manual clock forward by d, firing timers in deadline
// order so each callback observes its own deadline as the current time.
// With any other clock it only drains.
func (l *Loop) Advance(d time.Duration) {
	mc, ok := l.clock.(*ManualClock)
	if !ok {
		l.Drain()
		return
	}
	target := mc.Now().Add(d)
	for {
		l.Drain()
		next, ok := l.nextDeadline()
		if !ok || next.After(target) {
			break
		}
		mc.set(next)
	}
	mc.set(target)
	l.Drain()
}

// Run drives the loop until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.Drain()

		var timeout <-chan time.Time
		var tm *time.Timer
		if next, ok := l.nextDeadline(); ok {
			wait := next.Sub(l.clock.Now())
			if wait < 0 {
				wait = 0
			}
			tm = time.NewTimer(wait)
			timeout = tm.C
		}

		select {
		case <-ctx.Done():
			if tm != nil {
				tm.Stop()
			}
			return ctx.Err()
		case <-l.wake:
		case <-timeout:
		}
		if tm != nil {
			tm.Stop()
		}
	}
}

// next pops the next ready callback: microtasks first, then the earliest
// due timer.
func (l *Loop) next() func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.tasks) > 0 {
		fn := l.tasks[0]
		l.tasks[0] = nil
		l.tasks = l.tasks[1:]
		return fn
	}

	now := l.clock.Now()
	for len(l.timers) > 0 {
		t := l.timers[0]
		if t.when.After(now) {
			return nil
		}
		heap.Pop(&l.timers)
		if t.stopped {
			continue
		}
		t.fired = true
		return t.fn
	}
	return nil
}

func (l *Loop) nextDeadline() (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for len(l.timers) > 0 && l.timers[0].stopped {
		heap.Pop(&l.timers)
	}
	if len(l.timers) == 0 {
		return time.Time{}, false
	}
	return l.timers[0].when, true
}

// invoke runs fn, recovering and logging a panic so one failing callback
// never stops the loop.
func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("task panicked", zap.String("panic", fmt.Sprint(r)))
		}
	}()
	fn()
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Timer is a pending AfterFunc callback.
type Timer struct {
	loop    *Loop
	when    time.Time
	fn      func()
	seq     uint64
	index   int
	stopped bool
	fired   bool
}

// Stop cancels the timer. It returns false if the timer already fired or
// was already stopped.
func (t *Timer) Stop() bool {
	if t == nil {
		return false
	}
	t.loop.mu.Lock()
	defer t.loop.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	if t.index >= 0 && t.index < len(t.loop.timers) && t.loop.timers[t.index] == t {
		heap.Remove(&t.loop.timers, t.index)
	}
	return true
}

// Deadline returns the loop time at which the timer fires.
func (t *Timer) Deadline() time.Time {
	return t.when
}

// timerHeap orders timers by deadline, then by creation order.
type timerHeap []*Timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].when.Equal(h[j].when) {
		return h[i].seq < h[j].seq
	}
	return h[i].when.Before(h[j].when)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*Timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
