// Package native applies the default editing actions a contenteditable
// host performs on its own: inserting characters at the caret, deleting
// backward and forward, splitting a block on Enter, paste and cut.
//
// These edits bypass the command registry on purpose. They are the
// uncontrolled mutations the normalizer repairs and the history manager
// coalesces, and each one is announced afterwards with an event.Input on
// the bus.
//
// Enter inserts a bare <div> as a sibling of the current block, exactly as
// a browser does; it is up to the normalizer to turn it into a block.
package native
