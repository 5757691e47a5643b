package event

import "golang.org/x/net/html"

// Input types reported after native editing changed the tree.
const (
	InputInsertText        = "insertText"
	InputInsertParagraph   = "insertParagraph"
	InputInsertFromPaste   = "insertFromPaste"
	InputDeleteBackward    = "deleteContentBackward"
	InputDeleteForward     = "deleteContentForward"
	InputDeleteByCut       = "deleteByCut"
	InputHistoryUndo       = "historyUndo"
	InputHistoryRedo       = "historyRedo"
	InputCompositionText   = "insertCompositionText"
	InputInsertReplacement = "insertReplacementText"
)

// Input is emitted on TopicInput after the tree changed natively.
type Input struct {
	InputType   string
	Data        string
	IsComposing bool
}

// Click is emitted on TopicClick.
type Click struct {
	Target *html.Node

	stopped bool
}

// StopPropagation halts delivery to later handlers.
func (c *Click) StopPropagation() {
	c.stopped = true
}

// PropagationStopped implements Stoppable.
func (c *Click) PropagationStopped() bool {
	return c.stopped
}
