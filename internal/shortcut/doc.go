// Package shortcut provides the shortcut dispatcher, a host plugin that
// turns key-down events into command executions.
//
// Extensions targeting the "shortcuts" host contribute commands. Each
// command's shortcuts become bindings in a keymap keyed by canonical chord.
// Bindings sharing a chord are tried in descending priority; the first one
// whose precondition holds runs its command and, unless it allows the
// default, consumes the event.
package shortcut
