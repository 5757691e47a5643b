package dom

import (
	"fmt"

	"golang.org/x/net/html"
)

// Path is a chain of child indices from a root to a node.
type Path []int

// PathOf computes the path from root to target by walking parents.
func PathOf(root, target *html.Node) (Path, error) {
	var rev Path
	for cur := target; cur != root; cur = cur.Parent {
		if cur == nil || cur.Parent == nil {
			return nil, ErrNotDescendant
		}
		rev = append(rev, indexInParent(cur))
	}
	p := make(Path, len(rev))
	for i, idx := range rev {
		p[len(rev)-1-i] = idx
	}
	return p, nil
}

// NodeAt resolves p against root.
func NodeAt(root *html.Node, p Path) (*html.Node, error) {
	cur := root
	for step, idx := range p {
		cur = childAt(cur, idx)
		if cur == nil {
			return nil, fmt.Errorf("%w: path %v failed at step %d", ErrNodeNotFound, p, step)
		}
	}
	return cur, nil
}

func childAt(parent *html.Node, index int) *html.Node {
	if index < 0 {
		return nil
	}
	i := 0
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if i == index {
			return c
		}
		i++
	}
	return nil
}

func indexInParent(n *html.Node) int {
	i := 0
	for c := n.Parent.FirstChild; c != nil && c != n; c = c.NextSibling {
		i++
	}
	return i
}
