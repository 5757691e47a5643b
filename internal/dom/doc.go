// Package dom holds the editable content root and the structural contract
// every editing component relies on.
//
// The tree is a golang.org/x/net/html node tree. All structural changes go
// through Document so they can be reported to MutationObservers, which
// receive their records asynchronously, batched, on the editor loop. This
// mirrors the environment the editor runs in: the tree may be changed at
// any time by code that does not coordinate with the observers.
//
// Blocks are direct children of the root that carry the ClassBlock class,
// a unique AttrBlockID and a recognized AttrBlockType. Nodes marked
// transient (AttrTransient or ClassTransient) are UI scaffolding and are
// never treated as content.
package dom
