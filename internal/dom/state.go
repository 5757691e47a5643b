package dom

import "golang.org/x/net/html"

// BlockState is the data a stateful custom block keeps outside its markup.
type BlockState struct {
	Props map[string]any
	State map[string]any
}

// Empty reports whether the state carries nothing.
func (s BlockState) Empty() bool {
	return len(s.Props) == 0 && len(s.State) == 0
}

// SetBlockState attaches state to n, marking it as a stateful block.
func (d *Document) SetBlockState(n *html.Node, s BlockState) {
	d.states[n] = s
}

// BlockState returns the state attached to n.
func (d *Document) BlockState(n *html.Node) (BlockState, bool) {
	s, ok := d.states[n]
	return s, ok
}

// ClearBlockState removes the state attached to n.
func (d *Document) ClearBlockState(n *html.Node) {
	delete(d.states, n)
}

// PruneBlockStates drops state for nodes no longer under the root.
func (d *Document) PruneBlockStates() {
	for n := range d.states {
		if !Contains(d.root, n) {
			delete(d.states, n)
		}
	}
}
