package dom

import "golang.org/x/net/html"

// MutationRecord describes one child-list change.
type MutationRecord struct {
	Target          *html.Node
	Added           []*html.Node
	Removed         []*html.Node
	PreviousSibling *html.Node
	NextSibling     *html.Node
}

// MutationCallback receives a batch of records.
type MutationCallback func(records []MutationRecord, obs *MutationObserver)

// MutationObserver watches direct-child changes of one target node.
// Records are queued as they happen and delivered in a single batch on the
// document's scheduler.
type MutationObserver struct {
	doc       *Document
	callback  MutationCallback
	target    *html.Node
	pending   []MutationRecord
	scheduled bool
}

// NewObserver creates an observer bound to d. It observes nothing until
// Observe is called.
func NewObserver(d *Document, cb MutationCallback) *MutationObserver {
	return &MutationObserver{doc: d, callback: cb}
}

// Observe starts watching the direct children of target.
func (o *MutationObserver) Observe(target *html.Node) {
	if o.target != nil {
		o.target = target
		return
	}
	o.target = target
	o.doc.observers = append(o.doc.observers, o)
}

// Disconnect stops observation and drops undelivered records.
func (o *MutationObserver) Disconnect() {
	if o.target == nil {
		return
	}
	o.target = nil
	o.pending = nil
	obs := o.doc.observers
	for i, other := range obs {
		if other == o {
			o.doc.observers = append(obs[:i:i], obs[i+1:]...)
			break
		}
	}
}

// Observing reports whether the observer is connected.
func (o *MutationObserver) Observing() bool {
	return o.target != nil
}

// TakeRecords returns and clears undelivered records.
func (o *MutationObserver) TakeRecords() []MutationRecord {
	recs := o.pending
	o.pending = nil
	return recs
}

func (o *MutationObserver) enqueue(rec MutationRecord) {
	o.pending = append(o.pending, rec)
	if o.scheduled {
		return
	}
	o.scheduled = true
	o.doc.sched.Post(o.deliver)
}

func (o *MutationObserver) deliver() {
	o.scheduled = false
	recs := o.TakeRecords()
	if len(recs) == 0 || o.callback == nil {
		return
	}
	o.callback(recs, o)
}

// record fans a mutation out to the observers watching its target.
func (d *Document) record(rec MutationRecord) {
	for _, o := range d.observers {
		if o.target == rec.Target {
			o.enqueue(rec)
		}
	}
}
