// Package loop provides the single-threaded cooperative scheduler every
// editing component runs on.
//
// All reactions to input (key presses, clicks, observer deliveries,
// debounced commits) execute on the goroutine that drives the loop, either
// through Drain (tests, headless replay) or Run (interactive use). Other
// goroutines may only hand work over with Post.
//
// Three kinds of deferred work exist:
//
//   - Microtasks (Post): run in FIFO order before any timer.
//   - Timers (AfterFunc): run once their deadline has passed on the loop clock.
//     Stop cancels a pending timer, which is how debounces are rescheduled.
//   - Frames (NextFrame): timers with a FrameInterval delay, used to let
//     native editing settle before inspecting the tree.
//
// The clock is injectable. Tests use a ManualClock and advance it explicitly:
//
//	clk := loop.NewManualClock(time.Unix(0, 0))
//	l := loop.New(loop.WithClock(clk))
//	l.AfterFunc(500*time.Millisecond, commit)
//	clk.Advance(500 * time.Millisecond)
//	l.Drain()
package loop
