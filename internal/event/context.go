package event

// Service keys answered by the editor.
const (
	ServiceOverlays      = "overlay.stack"
	ServiceCommands      = "command.registry"
	ServiceHistory       = "history"
	ServiceSelectionLock = "selection.lock"
)

// ContextRequest asks the nearest provider for a scoped service.
type ContextRequest struct {
	Key    string
	Accept func(value any)
	Origin any

	stopped bool
}

// PropagationStopped implements Stoppable.
func (r *ContextRequest) PropagationStopped() bool {
	return r.stopped
}

// Provide answers context requests for key with value. The highest
// priority provider answers; among equal priorities the first one wins.
func Provide(b *Bus, key string, value any, opts ...SubscriptionOption) *Subscription {
	return b.Subscribe(TopicContextRequest, func(payload any) {
		req, ok := payload.(*ContextRequest)
		if !ok || req.Key != key {
			return
		}
		req.stopped = true
		if req.Accept != nil {
			req.Accept(value)
		}
	}, opts...)
}

// Request asks for the service registered under key.
func Request(b *Bus, key string, origin any) (any, bool) {
	var (
		got   any
		found bool
	)
	b.Emit(TopicContextRequest, &ContextRequest{
		Key:    key,
		Origin: origin,
		Accept: func(v any) {
			got = v
			found = true
		},
	})
	return got, found
}

// RequestAs is Request with a type assertion.
func RequestAs[T any](b *Bus, key string, origin any) (T, bool) {
	var zero T
	v, ok := Request(b, key, origin)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}
