// Package event provides the synchronous, priority-ordered event bus the
// editor uses for document-level listeners and cross-cutting notifications.
//
// Handlers for a topic run in priority order (higher first), ties in
// subscription order. A payload implementing Stoppable halts delivery once
// a handler stops it, which is how a capturing shortcut handler keeps a
// key press from reaching later listeners.
//
// Two custom protocols ride on the bus:
//
//   - locale.changed broadcasts a new language tag.
//   - context.request lets a component ask for a scoped service by key
//     without importing its provider:
//
//	event.Provide(bus, "overlay.stack", stack)
//	stack, ok := event.RequestAs[*overlay.Stack](bus, "overlay.stack", nil)
package event
