// Package history provides undo/redo for the editable content root.
//
// History is built on structural snapshots rather than inverse operations:
// the root's children can be changed by native editing, by the normalizer
// and by commands, and only a snapshot captures all three.
//
// # Snapshots
//
// A Snapshot is the ordered list of the root's children. Text and comment
// nodes keep their raw data; elements are rendered to markup. Blocks that
// carry state outside their markup (see dom.BlockState) have it written to
// the data-ce-state attribute before rendering, and read back and stripped
// when the snapshot is restored.
//
// # Transactions
//
// The Manager is idle until a qualifying event opens a transaction, which
// records the before-snapshot and selection. Two triggers exist:
//
//   - typing: printable keys, Backspace, Delete, Enter, Mod+V and Mod+X,
//     and input events, commit after the typing delay, which restarts on
//     every further keystroke so a burst of typing is one undo step;
//   - commands: the Manager is a command.Hook. A pending typing
//     transaction is committed first, then the command runs inside its own
//     transaction that commits after the much shorter command delay.
//     Commands issued within that delay share one transaction.
//
// Commit compares the after-snapshot with the before-snapshot and drops
// transactions that changed nothing.
//
// # Undo and Redo
//
// Both flush any pending transaction first, so they always act on the most
// recent completed change:
//
//	m := history.New(l, history.WithPauser(normalizer))
//	m.Attach(doc)
//	m.Bind(bus)
//	registry.Use(m)
//
//	m.Undo()
//	m.Redo()
//
// Restores replace the root's children wholesale with the normalizer
// suspended, then resolve the stored selection paths against the new
// tree, clamping offsets and dropping the selection if a path no longer
// resolves.
package history
