package history

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/blockstorm/internal/command"
	"github.com/dshills/blockstorm/internal/dom"
	"github.com/dshills/blockstorm/internal/event"
	"github.com/dshills/blockstorm/internal/input/key"
	"github.com/dshills/blockstorm/internal/loop"
)

// Command ids the Manager does not wrap in transactions.
const (
	CommandUndo = "history.undo"
	CommandRedo = "history.redo"
)

// Defaults.
const (
	DefaultTypingDelay  = 500 * time.Millisecond
	DefaultCommandDelay = 50 * time.Millisecond
	DefaultMaxEntries   = 100
)

// Timers schedules debounced commits. *loop.Loop satisfies it.
type Timers interface {
	AfterFunc(d time.Duration, fn func()) *loop.Timer
}

// Pauser suspends structural observers while fn restores a snapshot.
// *normalize.Normalizer satisfies it.
type Pauser interface {
	Suspend(fn func())
}

// State is the transaction state of a Manager.
type State uint8

const (
	StateIdle State = iota
	StateAccumulating
)

// String returns the string representation of the state.
func (s State) String() string {
	if s == StateAccumulating {
		return "accumulating"
	}
	return "idle"
}

// Change is one committed undo step.
type Change struct {
	Before          Snapshot
	After           Snapshot
	BeforeSelection *SelectionSnapshot
	AfterSelection  *SelectionSnapshot
	Source          string
}

type transaction struct {
	before    Snapshot
	beforeSel *SelectionSnapshot
	source    string
	command   bool
}

// Manager records transactions over a document and replays them.
type Manager struct {
	mu sync.Mutex

	doc      *dom.Document
	timers   Timers
	pauser   Pauser
	platform key.Platform
	logger   *zap.Logger

	typingDelay  time.Duration
	commandDelay time.Duration
	maxEntries   int

	undoStack []*Change
	redoStack []*Change

	tx    *transaction
	timer *loop.Timer

	// baseline is the tree as of the last commit or restore. It stands in
	// as the before-snapshot when an input event arrives with no
	// transaction open, since the tree has already changed by then.
	baseline    Snapshot
	baselineSel *SelectionSnapshot

	subs []*event.Subscription
}

// Option configures a Manager.
type Option func(*Manager)

// WithPauser sets the observer suspended during restores.
func WithPauser(p Pauser) Option {
	return func(m *Manager) {
		m.pauser = p
	}
}

// WithPlatform sets the platform used to recognize Mod+V and Mod+X.
func WithPlatform(p key.Platform) Option {
	return func(m *Manager) {
		m.platform = p
	}
}

// WithDelays sets the typing and command debounce delays.
func WithDelays(typing, cmd time.Duration) Option {
	return func(m *Manager) {
		m.setDelays(typing, cmd)
	}
}

// WithMaxEntries caps the undo stack.
func WithMaxEntries(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxEntries = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a Manager that schedules commits on timers.
func New(timers Timers, opts ...Option) *Manager {
	m := &Manager{
		timers:       timers,
		platform:     key.DetectPlatform(),
		logger:       zap.NewNop(),
		typingDelay:  DefaultTypingDelay,
		commandDelay: DefaultCommandDelay,
		maxEntries:   DefaultMaxEntries,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Attach binds the manager to doc and resets both stacks.
func (m *Manager) Attach(doc *dom.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelTimerLocked()
	m.doc = doc
	m.tx = nil
	m.undoStack = nil
	m.redoStack = nil
	m.baseline = Capture(doc, m.logger)
	m.baselineSel = CaptureSelection(doc)
}

// Bind subscribes the typing triggers to bus.
func (m *Manager) Bind(bus *event.Bus) {
	m.Unbind()
	m.subs = append(m.subs,
		bus.Subscribe(event.TopicKeyDown, m.handleKeyDown, event.WithPriority(event.PriorityNormal)),
		bus.Subscribe(event.TopicInput, m.handleInput, event.WithPriority(event.PriorityNormal)),
	)
}

// Unbind removes the subscriptions installed by Bind.
func (m *Manager) Unbind() {
	for _, sub := range m.subs {
		sub.Unsubscribe()
	}
	m.subs = nil
}

// SetDelays changes the debounce delays. A pending commit keeps its
// current deadline.
func (m *Manager) SetDelays(typing, cmd time.Duration) {
	m.mu.Lock()
	m.setDelays(typing, cmd)
	m.mu.Unlock()
}

func (m *Manager) setDelays(typing, cmd time.Duration) {
	if typing > 0 {
		m.typingDelay = typing
	}
	if cmd > 0 {
		m.commandDelay = cmd
	}
}

// SetMaxEntries changes the cap, evicting the oldest entries if needed.
func (m *Manager) SetMaxEntries(n int) {
	if n <= 0 {
		return
	}
	m.mu.Lock()
	m.maxEntries = n
	m.evictLocked()
	m.mu.Unlock()
}

// State reports whether a transaction is open.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tx != nil {
		return StateAccumulating
	}
	return StateIdle
}

// CanUndo returns true if undo is available.
func (m *Manager) CanUndo() bool {
	return m.UndoLen() > 0
}

// CanRedo returns true if redo is available.
func (m *Manager) CanRedo() bool {
	return m.RedoLen() > 0
}

// UndoLen returns the number of undo entries.
func (m *Manager) UndoLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undoStack)
}

// RedoLen returns the number of redo entries.
func (m *Manager) RedoLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redoStack)
}

// UndoStack returns a copy of the undo entries, oldest first.
func (m *Manager) UndoStack() []*Change {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Change(nil), m.undoStack...)
}

// RedoStack returns a copy of the redo entries, oldest first.
func (m *Manager) RedoStack() []*Change {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Change(nil), m.redoStack...)
}

// BeforeRun implements command.Hook. A pending typing transaction is
// committed and a command transaction is opened, or extended if one from
// a previous command is still pending.
func (m *Manager) BeforeRun(id string, _ *command.Context) {
	if id == CommandUndo || id == CommandRedo {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.doc == nil {
		return
	}
	if m.tx != nil && m.tx.command {
		m.cancelTimerLocked()
		return
	}
	m.flushLocked()
	m.openLocked(Capture(m.doc, m.logger), CaptureSelection(m.doc), id, true)
}

// AfterRun implements command.Hook.
func (m *Manager) AfterRun(id string, _ *command.Context, _ bool) {
	if id == CommandUndo || id == CommandRedo {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tx == nil {
		return
	}
	m.scheduleLocked(m.commandDelay)
}

// Flush commits the pending transaction immediately.
func (m *Manager) Flush() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushLocked()
}

// Undo reverts the most recent completed change. It returns false when
// there is nothing to undo.
func (m *Manager) Undo() bool {
	m.mu.Lock()
	m.flushLocked()
	n := len(m.undoStack)
	if n == 0 || m.doc == nil {
		m.mu.Unlock()
		return false
	}
	ch := m.undoStack[n-1]
	m.undoStack = m.undoStack[:n-1]
	m.redoStack = append(m.redoStack, ch)
	m.mu.Unlock()

	m.restore(ch.Before, ch.BeforeSelection)
	m.logger.Debug("undo", zap.String("source", ch.Source), zap.Int("remaining", n-1))
	return true
}

// Redo reapplies the most recently undone change. It returns false when
// there is nothing to redo.
func (m *Manager) Redo() bool {
	m.mu.Lock()
	m.flushLocked()
	n := len(m.redoStack)
	if n == 0 || m.doc == nil {
		m.mu.Unlock()
		return false
	}
	ch := m.redoStack[n-1]
	m.redoStack = m.redoStack[:n-1]
	m.undoStack = append(m.undoStack, ch)
	m.mu.Unlock()

	m.restore(ch.After, ch.AfterSelection)
	m.logger.Debug("redo", zap.String("source", ch.Source), zap.Int("remaining", n-1))
	return true
}

func (m *Manager) restore(snap Snapshot, sel *SelectionSnapshot) {
	apply := func() {
		nodes := Materialize(m.doc, snap, m.logger)
		m.doc.ReplaceChildren(m.doc.Root(), nodes...)
		m.doc.PruneBlockStates()
	}
	if m.pauser != nil {
		m.pauser.Suspend(apply)
	} else {
		apply()
	}
	if !RestoreSelection(m.doc, sel) && sel != nil {
		m.logger.Debug("selection not restored")
	}

	m.mu.Lock()
	m.baseline = snap
	m.baselineSel = sel
	m.mu.Unlock()
}

func (m *Manager) handleKeyDown(payload any) {
	ev, ok := payload.(*key.Event)
	if !ok || !m.qualifies(ev) {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.doc == nil {
		return
	}
	if m.tx == nil {
		m.openLocked(Capture(m.doc, m.logger), CaptureSelection(m.doc), "typing", false)
	} else if m.tx.command {
		m.flushLocked()
		m.openLocked(Capture(m.doc, m.logger), CaptureSelection(m.doc), "typing", false)
	}
	m.scheduleLocked(m.typingDelay)
}

func (m *Manager) handleInput(payload any) {
	in, ok := payload.(*event.Input)
	if !ok || in.IsComposing {
		return
	}
	switch in.InputType {
	case event.InputHistoryUndo, event.InputHistoryRedo, event.InputCompositionText:
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.doc == nil {
		return
	}
	if m.tx == nil {
		m.openLocked(m.baseline, m.baselineSel, in.InputType, false)
	}
	if !m.tx.command {
		m.scheduleLocked(m.typingDelay)
	}
}

// qualifies reports whether ev is an editing keystroke.
func (m *Manager) qualifies(ev *key.Event) bool {
	if ev.IsComposition() {
		return false
	}
	switch ev.Key {
	case key.Backspace, key.Delete, key.Enter:
		return true
	}
	if ev.HasPrimary(m.platform) {
		k := key.NormalizeKey(ev.Key)
		return k == "v" || k == "x"
	}
	return ev.IsPrintable()
}

func (m *Manager) openLocked(before Snapshot, sel *SelectionSnapshot, source string, cmd bool) {
	m.tx = &transaction{before: before, beforeSel: sel, source: source, command: cmd}
}

func (m *Manager) scheduleLocked(d time.Duration) {
	m.cancelTimerLocked()
	if m.timers == nil {
		return
	}
	var t *loop.Timer
	t = m.timers.AfterFunc(d, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.timer != t {
			return
		}
		m.timer = nil
		m.commitLocked()
	})
	m.timer = t
}

func (m *Manager) cancelTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Manager) flushLocked() {
	m.cancelTimerLocked()
	m.commitLocked()
}

func (m *Manager) commitLocked() {
	tx := m.tx
	if tx == nil {
		return
	}
	m.tx = nil

	after := Capture(m.doc, m.logger)
	afterSel := CaptureSelection(m.doc)
	m.baseline, m.baselineSel = after, afterSel

	if tx.before.Equal(after) {
		m.logger.Debug("discarded no-op transaction", zap.String("source", tx.source))
		return
	}
	m.undoStack = append(m.undoStack, &Change{
		Before:          tx.before,
		After:           after,
		BeforeSelection: tx.beforeSel,
		AfterSelection:  afterSel,
		Source:          tx.source,
	})
	m.redoStack = nil
	m.evictLocked()
	m.logger.Debug("committed", zap.String("source", tx.source), zap.Int("depth", len(m.undoStack)))
}

func (m *Manager) evictLocked() {
	if excess := len(m.undoStack) - m.maxEntries; excess > 0 {
		m.undoStack = append([]*Change(nil), m.undoStack[excess:]...)
	}
}
