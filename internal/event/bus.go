package event

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Topic names an event stream.
type Topic string

// Document-level topics.
const (
	TopicKeyDown         Topic = "dom.keydown"
	TopicInput           Topic = "dom.input"
	TopicClick           Topic = "dom.click"
	TopicSelectionChange Topic = "dom.selectionchange"
	TopicLocaleChanged   Topic = "locale.changed"
	TopicContextRequest  Topic = "context.request"
	TopicConfigChanged   Topic = "config.changed"
)

// Priority orders handlers on a topic. Higher runs first.
type Priority int

// Standard priorities.
const (
	PriorityCritical Priority = 100
	PriorityHigh     Priority = 75
	PriorityNormal   Priority = 50
	PriorityLow      Priority = 25
)

// Handler receives an event payload.
type Handler func(payload any)

// Stoppable is implemented by payloads whose propagation can be halted.
type Stoppable interface {
	PropagationStopped() bool
}

// Bus dispatches events synchronously.
type Bus struct {
	mu     sync.RWMutex
	subs   map[Topic][]*Subscription
	seq    uint64
	logger *zap.Logger
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithLogger sets the logger used for handler panics.
func WithLogger(logger *zap.Logger) BusOption {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBus creates a bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		subs:   make(map[Topic][]*Subscription),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscription is a registered handler.
type Subscription struct {
	bus      *Bus
	topic    Topic
	handler  Handler
	priority Priority
	seq      uint64
}

// SubscriptionOption configures a subscription.
type SubscriptionOption func(*Subscription)

// WithPriority sets the handler priority.
func WithPriority(p Priority) SubscriptionOption {
	return func(s *Subscription) {
		s.priority = p
	}
}

// Subscribe registers h for topic.
func (b *Bus) Subscribe(topic Topic, h Handler, opts ...SubscriptionOption) *Subscription {
	s := &Subscription{bus: b, topic: topic, handler: h, priority: PriorityNormal}
	for _, opt := range opts {
		opt(s)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	s.seq = b.seq
	list := append(b.subs[topic], s)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].priority > list[j].priority
	})
	b.subs[topic] = list
	return s
}

// Unsubscribe removes the subscription. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.bus == nil {
		return
	}
	b := s.bus
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.subs[s.topic]
	for i, other := range list {
		if other == s {
			b.subs[s.topic] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	s.bus = nil
}

// Emit delivers payload to every handler on topic.
func (b *Bus) Emit(topic Topic, payload any) {
	b.mu.RLock()
	list := append([]*Subscription(nil), b.subs[topic]...)
	b.mu.RUnlock()

	stop, _ := payload.(Stoppable)
	for _, s := range list {
		if s.bus == nil {
			continue
		}
		b.call(s, payload)
		if stop != nil && stop.PropagationStopped() {
			return
		}
	}
}

// Count returns the number of handlers on topic.
func (b *Bus) Count(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

func (b *Bus) call(s *Subscription, payload any) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("topic", string(s.topic)),
				zap.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	s.handler(payload)
}
