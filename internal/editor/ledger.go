package editor

import (
	"handyman/internal/model"
	"handyman/internal/tree"
)

// Entry is one dirty node. Snapshot is nil for provisional nodes.
type Entry struct {
	Node     *tree.Node
	IsNew    bool
	Snapshot *model.Fields

	// gen changes on every commit so a save can tell whether the node was
	// edited again while the batch was in flight.
	gen uint64
}

// Ledger is the ordered set of nodes with committed-but-unpersisted edits.
// A node appears at most once.
type Ledger struct {
	entries []*Entry
	byRef   map[string]*Entry
	gen     uint64
}

func newLedger() *Ledger {
	return &Ledger{byRef: map[string]*Entry{}}
}

func (l *Ledger) Len() int { return len(l.entries) }

func (l *Ledger) Get(ref string) (*Entry, bool) {
	e, ok := l.byRef[ref]
	return e, ok
}

func (l *Ledger) Entries() []*Entry {
	return append([]*Entry(nil), l.entries...)
}

func (l *Ledger) add(e *Entry) {
	if _, ok := l.byRef[e.Node.Ref]; ok {
		return
	}
	e.gen = l.nextGen()
	l.entries = append(l.entries, e)
	l.byRef[e.Node.Ref] = e
}

func (l *Ledger) touch(e *Entry) {
	e.gen = l.nextGen()
}

func (l *Ledger) remove(ref string) {
	if _, ok := l.byRef[ref]; !ok {
		return
	}
	delete(l.byRef, ref)
	out := l.entries[:0]
	for _, e := range l.entries {
		if e.Node.Ref != ref {
			out = append(out, e)
		}
	}
	l.entries = out
}

func (l *Ledger) clear() {
	l.entries = nil
	l.byRef = map[string]*Entry{}
}

func (l *Ledger) nextGen() uint64 {
	l.gen++
	return l.gen
}

// pending is one ledger entry as it was sent in a batch.
type pending struct {
	entry  *Entry
	gen    uint64
	fields model.Fields
}

// batch serializes every entry's current fields, menus first so a store
// applying in order sees parents before children.
func (l *Ledger) batch(id string) (model.Batch, []pending) {
	b := model.Batch{ID: id, Changes: make([]model.Change, 0, len(l.entries))}
	sent := make([]pending, 0, len(l.entries))
	for _, pass := range []model.NodeType{model.NodeMenu, model.NodeOffering} {
		for _, e := range l.entries {
			if e.Node.Type != pass {
				continue
			}
			ch := model.Change{Type: e.Node.Type, Fields: e.Node.Fields.Clone(), New: e.IsNew}
			if e.Snapshot != nil {
				orig := e.Snapshot.Clone()
				ch.Original = &orig
			}
			b.Changes = append(b.Changes, ch)
			sent = append(sent, pending{entry: e, gen: e.gen, fields: ch.Fields})
		}
	}
	return b, sent
}
