package dom

import "errors"

// Document errors.
var (
	// ErrNotChild is returned when a reference node is not a child of the given parent.
	ErrNotChild = errors.New("dom: node is not a child of parent")

	// ErrHierarchy is returned when an insertion would make a node its own ancestor.
	ErrHierarchy = errors.New("dom: insertion would create a cycle")

	// ErrNodeNotFound is returned when a path does not resolve to a node.
	ErrNodeNotFound = errors.New("dom: node not found")

	// ErrNotDescendant is returned when a node is outside the root it is resolved against.
	ErrNotDescendant = errors.New("dom: node is not a descendant of root")
)
