package overlay

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dshills/blockstorm/internal/event"
	"github.com/dshills/blockstorm/internal/input/key"
	"github.com/dshills/blockstorm/internal/loop"
)

// Timers schedules grace-window expiry. *loop.Loop satisfies it.
type Timers interface {
	AfterFunc(d time.Duration, fn func()) *loop.Timer
}

// ChangeKind says whether an overlay opened or closed.
type ChangeKind uint8

const (
	Opened ChangeKind = iota
	Closed
)

// Change is reported to listeners after the stack changed.
type Change struct {
	Kind    ChangeKind
	Element Element
}

type entry struct {
	el    Element
	grace bool
	timer *loop.Timer
}

// Stack is a LIFO of open overlays. An element appears at most once.
type Stack struct {
	mu        sync.Mutex
	entries   []*entry
	layer     *html.Node
	timers    Timers
	config    Config
	listeners []func(Change)
	subs      []*event.Subscription
	logger    *zap.Logger
}

// Option configures a Stack.
type Option func(*Stack)

// WithConfig sets the configuration.
func WithConfig(c Config) Option {
	return func(s *Stack) {
		s.config = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Stack) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStack creates an empty stack. timers may be nil, in which case
// overlays are closable by outside clicks immediately.
func NewStack(timers Timers, opts ...Option) *Stack {
	layer := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Div,
		Data:     "div",
		Attr:     []html.Attribute{{Key: "class", Val: "ce-overlays"}},
	}
	s := &Stack{
		timers: timers,
		config: DefaultConfig(),
		layer:  layer,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Layer returns the node overlays mount into.
func (s *Stack) Layer() *html.Node {
	return s.layer
}

// SetConfig updates the configuration. Open overlays keep their current
// grace window.
func (s *Stack) SetConfig(c Config) {
	s.mu.Lock()
	s.config = c
	s.mu.Unlock()
}

// OnChange registers fn to be called after every open and close.
func (s *Stack) OnChange(fn func(Change)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Attach subscribes the Escape and outside-click handlers to bus.
func (s *Stack) Attach(bus *event.Bus) {
	s.Detach()
	s.subs = append(s.subs,
		bus.Subscribe(event.TopicKeyDown, s.handleKeyDown, event.WithPriority(event.PriorityHigh)),
		bus.Subscribe(event.TopicClick, s.handleClick, event.WithPriority(event.PriorityHigh)),
	)
}

// Detach removes the bus handlers installed by Attach.
func (s *Stack) Detach() {
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.subs = nil
}

// Push opens el after applying its stacking strategy. Pushing an element
// already on the stack moves it to the top.
func (s *Stack) Push(el Element) {
	if el == nil {
		return
	}
	if s.Peek() == el {
		return
	}
	s.Remove(el)

	opts := el.Options()
	switch opts.Strategy {
	case StrategyClearStack:
		for s.Len() > 0 {
			s.Pop()
		}
	case StrategyKeepStack:
	default:
		for {
			top := s.Peek()
			if top == nil || top.Options().AllowOverlayOnTop {
				break
			}
			s.Pop()
		}
	}

	e := &entry{el: el}
	s.mu.Lock()
	grace := s.config.GraceWindow
	if s.timers != nil && grace > 0 {
		e.grace = true
		e.timer = s.timers.AfterFunc(grace, func() {
			s.mu.Lock()
			e.grace = false
			s.mu.Unlock()
		})
	}
	s.entries = append(s.entries, e)
	s.mu.Unlock()

	el.Mount(s.layer)
	s.logger.Debug("overlay opened", zap.Stringer("strategy", opts.Strategy), zap.Int("depth", s.Len()))
	s.notify(Change{Kind: Opened, Element: el})
}

// Pop closes the top overlay and returns it, or nil when empty.
func (s *Stack) Pop() Element {
	s.mu.Lock()
	n := len(s.entries)
	if n == 0 {
		s.mu.Unlock()
		return nil
	}
	e := s.entries[n-1]
	s.entries[n-1] = nil
	s.entries = s.entries[:n-1]
	s.mu.Unlock()

	s.close(e)
	return e.el
}

// Remove closes el wherever it is in the stack. The last occurrence is
// removed; an absent element is ignored.
func (s *Stack) Remove(el Element) bool {
	s.mu.Lock()
	idx := -1
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].el == el {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	e := s.entries[idx]
	s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
	s.mu.Unlock()

	s.close(e)
	return true
}

// Peek returns the top overlay without removing it.
func (s *Stack) Peek() Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return nil
	}
	return s.entries[len(s.entries)-1].el
}

// Len returns the number of open overlays.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Elements returns the open overlays, bottom first.
func (s *Stack) Elements() []Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Element, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.el
	}
	return out
}

// InGrace reports whether the top overlay is still in its grace window.
func (s *Stack) InGrace() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return false
	}
	return s.entries[len(s.entries)-1].grace
}

func (s *Stack) close(e *entry) {
	if e.timer != nil {
		e.timer.Stop()
	}
	e.el.Unmount()
	s.logger.Debug("overlay closed", zap.Int("depth", s.Len()))
	s.notify(Change{Kind: Closed, Element: e.el})
}

func (s *Stack) notify(c Change) {
	s.mu.Lock()
	listeners := append([]func(Change){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(c)
	}
}

func (s *Stack) handleKeyDown(payload any) {
	ev, ok := payload.(*key.Event)
	if !ok || ev.Key != key.Escape {
		return
	}
	if s.Pop() != nil {
		ev.PreventDefault()
	}
}

func (s *Stack) handleClick(payload any) {
	click, ok := payload.(*event.Click)
	if !ok {
		return
	}
	s.mu.Lock()
	if len(s.entries) == 0 {
		s.mu.Unlock()
		return
	}
	top := s.entries[len(s.entries)-1]
	grace := top.grace
	s.mu.Unlock()

	if top.el.Contains(click.Target) {
		return
	}
	if grace || !top.el.Options().CloseOnOutsideClick {
		return
	}
	s.Remove(top.el)
}
