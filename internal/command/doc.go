// Package command provides the command registry.
//
// A command is a stateless unit identified by a string id; everything it
// needs travels in the Context it is executed with. Commands are invoked
// either by id from UI code (menus, toolbars) or through a shortcut
// binding, so the same logic serves both paths.
//
// Hooks wrap every execution. The history manager installs one to turn
// each command into an undo transaction.
package command
