// Package editor is the in-place editing state machine.
//
// A Session is either Closed or Open on exactly one node. The focus token
// (the handyman) is the only trigger: dropping it on a node opens that node,
// dropping it on the home slot commits, dropping it on the toolbar commits
// and closes. Committed edits collect in the Ledger until SaveAll persists
// them or RevertAll undoes them.
//
// Every method is safe for concurrent use. SaveAll releases the session lock
// while the persister runs, so the page stays usable during a save.
package editor

import (
	"context"
	"errors"
	"sync"
	"time"

	"handyman/internal/model"
	"handyman/internal/schema"
	"handyman/internal/tree"

	"github.com/google/uuid"
)

type Options struct {
	Observer   Observer
	NewBatchID func() string
}

type Session struct {
	mu sync.Mutex

	tree       *tree.Tree
	schemas    schema.Provider
	persister  Persister
	obs        Observer
	newBatchID func() string

	token   TokenLocation
	surface *Surface
	ledger  *Ledger
	saving  bool
}

func New(t *tree.Tree, schemas schema.Provider, p Persister, opts Options) *Session {
	if t == nil {
		t = tree.New()
	}
	if opts.Observer == nil {
		opts.Observer = NoopObserver{}
	}
	if opts.NewBatchID == nil {
		opts.NewBatchID = uuid.NewString
	}
	return &Session{
		tree:       t,
		schemas:    schemas,
		persister:  p,
		obs:        opts.Observer,
		newBatchID: opts.NewBatchID,
		token:      TokenToolbar,
		ledger:     newLedger(),
	}
}

// EntryView is a read-only copy of one ledger entry.
type EntryView struct {
	Ref      string
	Type     model.NodeType
	IsNew    bool
	Display  string
	Snapshot *model.Fields
}

// View is a consistent copy of the session state.
type View struct {
	Token         TokenLocation
	Open          string
	Surface       *Surface
	Missing       []string
	Ledger        []EntryView
	ReviewVisible bool
	Saving        bool
}

func (s *Session) State() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Read calls fn with the tree and state while holding the session lock.
// fn must not retain the tree or call back into the session.
func (s *Session) Read(fn func(t *tree.Tree, v View)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.tree, s.viewLocked())
}

func (s *Session) viewLocked() View {
	v := View{
		Token:         s.token,
		Surface:       s.surface.clone(),
		ReviewVisible: s.reviewVisibleLocked(),
		Saving:        s.saving,
	}
	if s.surface != nil {
		v.Open = s.surface.Node.Ref
		v.Missing = s.surface.MissingRequired()
	}
	for _, e := range s.ledger.entries {
		ev := EntryView{Ref: e.Node.Ref, Type: e.Node.Type, IsNew: e.IsNew, Display: e.Node.Display()}
		if e.Snapshot != nil {
			snap := e.Snapshot.Clone()
			ev.Snapshot = &snap
		}
		v.Ledger = append(v.Ledger, ev)
	}
	return v
}

// ReviewVisible reports whether Save All / Revert All should be shown.
func (s *Session) ReviewVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reviewVisibleLocked()
}

func (s *Session) reviewVisibleLocked() bool {
	return s.surface == nil && s.ledger.Len() > 0
}

// Open drops the token on the node with ref. Any open node, including the
// same one, is committed first. seed fills fields the node has no value for.
func (s *Session) Open(ref string, seed map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.tree.Find(ref)
	if !ok {
		return NotFoundError{Kind: "node", ID: ref}
	}
	return s.openLocked(n, seed)
}

func (s *Session) openLocked(n *tree.Node, seed map[string]string) error {
	sc, err := s.schemas.Schema(n.Type)
	if err != nil {
		return err
	}
	if s.surface != nil {
		s.commitLocked()
	}
	s.surface = newSurface(n, sc, seed)
	s.token = TokenSurface
	s.obs.ObserveTransition(Event{Name: "open", Ref: n.Ref, Fields: map[string]any{"type": string(n.Type)}})
	return nil
}

// Commit writes the surface into the open node without moving the token.
func (s *Session) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.surface == nil {
		return ErrNoSession
	}
	s.commitLocked()
	return nil
}

func (s *Session) commitLocked() {
	n := s.surface.Node
	before := n.Fields.Clone()
	for _, in := range s.surface.Inputs {
		n.Fields.Set(in.Name, in.Value)
	}
	// Link fields follow the tree: a renamed menu carries its children, and
	// a typed link on the node itself is put back.
	relinked := s.tree.Relink()
	link := tree.LinkField(n)
	_ = s.surface.set(link, n.Fields.Get(link))
	first := false
	if e, ok := s.ledger.Get(n.Ref); ok {
		s.ledger.touch(e)
	} else {
		e := &Entry{Node: n, IsNew: n.IsNew}
		if !n.IsNew {
			e.Snapshot = &before
		}
		s.ledger.add(e)
		first = true
	}
	s.obs.ObserveTransition(Event{Name: "commit", Ref: n.Ref, Fields: map[string]any{"first": first, "dirty": s.ledger.Len(), "relinked": len(relinked)}})
}

// DropOnToolbar commits and closes the open node. With nothing open the
// token just moves.
func (s *Session) DropOnToolbar() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.surface != nil {
		s.commitLocked()
		ref := s.surface.Node.Ref
		s.surface = nil
		s.obs.ObserveTransition(Event{Name: "close", Ref: ref, Fields: map[string]any{"review": s.reviewVisibleLocked()}})
	}
	s.token = TokenToolbar
	return nil
}

// DropOnHome commits the open node and keeps the surface open.
func (s *Session) DropOnHome() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.surface != nil {
		s.commitLocked()
	}
	s.token = TokenHome
	return nil
}

// DropOnSurface moves the token into the open surface. Nothing is committed.
func (s *Session) DropOnSurface() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.surface == nil {
		return ErrNoSession
	}
	s.token = TokenSurface
	return nil
}

func (s *Session) SetInput(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.surface == nil {
		return ErrNoSession
	}
	return s.surface.set(name, value)
}

// AddOffering creates a provisional offering in the open menu and opens it.
func (s *Session) AddOffering() (*tree.Node, error) {
	return s.addChild(model.NodeOffering)
}

// AddSubmenu creates a provisional sub-menu of the open menu and opens it.
func (s *Session) AddSubmenu() (*tree.Node, error) {
	return s.addChild(model.NodeMenu)
}

func (s *Session) addChild(typ model.NodeType) (*tree.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.surface == nil {
		return nil, ErrNoSession
	}
	menu := s.surface.Node
	if !menu.IsMenu() {
		return nil, ErrNotMenu
	}
	sc, err := s.schemas.Schema(typ)
	if err != nil {
		return nil, err
	}
	var n *tree.Node
	if typ == model.NodeOffering {
		n, err = s.tree.InsertOffering(menu, sc.NewFields())
	} else {
		n, err = s.tree.InsertSubmenu(menu, sc.NewFields())
	}
	if err != nil {
		return nil, err
	}
	s.ledger.add(&Entry{Node: n, IsNew: true})
	s.obs.ObserveTransition(Event{Name: "add", Ref: n.Ref, Fields: map[string]any{"type": string(typ), "under": menu.Ref}})
	// Opening commits the menu first, which relinks n to the key as typed.
	if err := s.openLocked(n, nil); err != nil {
		return nil, err
	}
	return n, nil
}

// SaveAll sends every ledger entry to the persister as one batch. The ledger
// is cleared only when the persister succeeds. Entries committed again while
// the save was in flight stay dirty, with the saved values as their new
// snapshot.
func (s *Session) SaveAll(ctx context.Context) error {
	s.mu.Lock()
	if s.saving {
		s.mu.Unlock()
		return ErrSaveInFlight
	}
	if s.surface != nil {
		s.mu.Unlock()
		return ErrSessionOpen
	}
	if s.ledger.Len() == 0 {
		s.mu.Unlock()
		return nil
	}
	if s.persister == nil {
		s.mu.Unlock()
		return errors.New("editor: no persister configured")
	}
	id := s.newBatchID()
	b, sent := s.ledger.batch(id)
	s.saving = true
	s.mu.Unlock()

	start := time.Now()
	err := s.persister.Save(ctx, b)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saving = false
	ev := Event{Name: "save", Duration: time.Since(start), Fields: map[string]any{"batch": id, "changes": len(b.Changes)}}
	if err != nil {
		ev.Err = err
		s.obs.ObserveTransition(ev)
		return SaveError{BatchID: id, Err: err}
	}
	for _, p := range sent {
		p.entry.Node.IsNew = false
		if p.entry.gen == p.gen {
			s.ledger.remove(p.entry.Node.Ref)
			continue
		}
		saved := p.fields.Clone()
		p.entry.Snapshot = &saved
		p.entry.IsNew = false
	}
	ev.Fields["dirty"] = s.ledger.Len()
	s.obs.ObserveTransition(ev)
	return nil
}

// RevertAll removes provisional nodes and restores every other dirty node
// to its snapshot, then clears the ledger.
func (s *Session) RevertAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saving {
		return ErrSaveInFlight
	}
	if s.surface != nil {
		return ErrSessionOpen
	}
	entries := s.ledger.entries
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.IsNew {
			s.tree.Remove(e.Node)
			continue
		}
		if e.Snapshot != nil {
			e.Node.Fields = e.Snapshot.Clone()
		}
	}
	s.tree.Relink()
	n := len(entries)
	s.ledger.clear()
	s.obs.ObserveTransition(Event{Name: "revert", Fields: map[string]any{"entries": n}})
	return nil
}
