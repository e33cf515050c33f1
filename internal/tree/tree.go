// Package tree holds the in-memory catalog: menus, their sub-menus and their
// offerings, indexed for parent -> children and menu -> offerings lookups.
//
// The indices are structural (node pointers). A node's link field (parent for
// menus, menu for offerings) is derived from that structure: Relink rewrites
// it from the parent's current key, so renaming a menu carries its children.
package tree

import (
	"errors"
	"fmt"
	"strings"

	"handyman/internal/model"
	"handyman/internal/schema"

	"github.com/google/uuid"
)

type Node struct {
	// Ref is a session-local handle. Offerings have no key of their own, so
	// adapters address every node by Ref.
	Ref    string
	Type   model.NodeType
	Fields model.Fields
	Parent *Node
	IsNew  bool

	children  []*Node
	offerings []*Node
}

func (n *Node) IsMenu() bool { return n != nil && n.Type == model.NodeMenu }

// Key is the menu key ("" for offerings).
func (n *Node) Key() string {
	if !n.IsMenu() {
		return ""
	}
	return n.Fields.Get(model.FieldMenu)
}

// Display is the card text: "<key>: <text>" for menus, "<text>" for offerings.
func (n *Node) Display() string {
	if n.IsMenu() {
		return n.Fields.Get(model.FieldMenu) + ": " + n.Fields.Get(model.FieldText)
	}
	return n.Fields.Get(model.FieldText)
}

// LinkField names the field holding the key of n's structural parent.
func LinkField(n *Node) string {
	if n.IsMenu() {
		return model.FieldParent
	}
	return model.FieldMenu
}

// ParentKey is the key n's link field should hold.
func ParentKey(n *Node) string {
	if n.Parent == nil {
		return ""
	}
	return n.Parent.Key()
}

type Tree struct {
	roots []*Node
	byRef map[string]*Node
}

func New() *Tree {
	return &Tree{byRef: map[string]*Node{}}
}

// Build creates the tree from a loaded catalog. Each node's fields are
// exactly the schema's declared fields for its type.
func Build(cat model.Catalog, schemas schema.Provider) (*Tree, error) {
	if errs := cat.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid catalog: %w", errors.Join(errs...))
	}
	menuSchema, err := schemas.Schema(model.NodeMenu)
	if err != nil {
		return nil, err
	}
	offSchema, err := schemas.Schema(model.NodeOffering)
	if err != nil {
		return nil, err
	}

	t := New()
	byKey := map[string]*Node{}
	menus := make([]*Node, 0, len(cat.Menus))
	for _, r := range cat.Menus {
		n := t.newNode(model.NodeMenu, menuSchema.FieldsFrom(r))
		byKey[strings.TrimSpace(r.String(model.FieldMenu))] = n
		menus = append(menus, n)
	}
	for i, r := range cat.Menus {
		n := menus[i]
		parentKey := strings.TrimSpace(r.String(model.FieldParent))
		if parentKey == "" {
			t.roots = append(t.roots, n)
			continue
		}
		p := byKey[parentKey]
		n.Parent = p
		p.children = append(p.children, n)
	}
	for _, r := range cat.Offerings {
		n := t.newNode(model.NodeOffering, offSchema.FieldsFrom(r))
		m := byKey[strings.TrimSpace(r.String(model.FieldMenu))]
		n.Parent = m
		m.offerings = append(m.offerings, n)
	}
	return t, nil
}

func (t *Tree) newNode(typ model.NodeType, fields model.Fields) *Node {
	n := &Node{Ref: uuid.NewString(), Type: typ, Fields: fields}
	t.byRef[n.Ref] = n
	return n
}

func (t *Tree) Len() int { return len(t.byRef) }

func (t *Tree) Find(ref string) (*Node, bool) {
	n, ok := t.byRef[strings.TrimSpace(ref)]
	return n, ok
}

func (t *Tree) Roots() []*Node {
	return append([]*Node(nil), t.roots...)
}

// ChildrenOf returns the sub-menus of parent in insertion order. A nil
// parent returns the root menus.
func (t *Tree) ChildrenOf(parent *Node) []*Node {
	if parent == nil {
		return t.Roots()
	}
	return append([]*Node(nil), parent.children...)
}

func (t *Tree) OfferingsOf(menu *Node) []*Node {
	if menu == nil {
		return nil
	}
	return append([]*Node(nil), menu.offerings...)
}

// MenuByKey finds a menu by its current key.
func (t *Tree) MenuByKey(key string) (*Node, bool) {
	key = strings.TrimSpace(key)
	var found *Node
	t.Walk(func(n *Node, _ int) bool {
		if n.IsMenu() && strings.TrimSpace(n.Key()) == key {
			found = n
			return false
		}
		return true
	})
	return found, found != nil
}

func (t *Tree) Depth(n *Node) int {
	d := 0
	for p := menuOf(n).Parent; p != nil; p = p.Parent {
		d++
	}
	return d
}

// menuOf returns n for menus and the containing menu for offerings.
func menuOf(n *Node) *Node {
	if n.IsMenu() {
		return n
	}
	return n.Parent
}

// Walk visits nodes in render order: a menu, its provisional sub-menus, its
// offerings, then its other sub-menus. Returning false from fn stops the walk.
func (t *Tree) Walk(fn func(n *Node, depth int) bool) {
	var visit func(m *Node, depth int) bool
	visit = func(m *Node, depth int) bool {
		if !fn(m, depth) {
			return false
		}
		for _, c := range m.children {
			if c.IsNew && !visit(c, depth+1) {
				return false
			}
		}
		for _, o := range m.offerings {
			if !fn(o, depth) {
				return false
			}
		}
		for _, c := range m.children {
			if !c.IsNew && !visit(c, depth+1) {
				return false
			}
		}
		return true
	}
	for _, r := range t.roots {
		if !visit(r, 0) {
			return
		}
	}
}

// InsertOffering adds a provisional offering as the first offering of menu.
// Its menu field is set from menu's key.
func (t *Tree) InsertOffering(menu *Node, fields model.Fields) (*Node, error) {
	if !menu.IsMenu() {
		return nil, fmt.Errorf("insert offering: %w", ErrNotMenu)
	}
	if _, ok := t.byRef[menu.Ref]; !ok {
		return nil, fmt.Errorf("insert offering: %w", ErrDetached)
	}
	n := t.newNode(model.NodeOffering, fields)
	n.Parent = menu
	n.IsNew = true
	n.Fields.Set(model.FieldMenu, menu.Key())
	menu.offerings = append([]*Node{n}, menu.offerings...)
	return n, nil
}

// InsertSubmenu adds a provisional menu as the first sub-menu of parent.
// Walk shows it directly under parent's card until it is saved.
func (t *Tree) InsertSubmenu(parent *Node, fields model.Fields) (*Node, error) {
	if !parent.IsMenu() {
		return nil, fmt.Errorf("insert sub-menu: %w", ErrNotMenu)
	}
	if _, ok := t.byRef[parent.Ref]; !ok {
		return nil, fmt.Errorf("insert sub-menu: %w", ErrDetached)
	}
	n := t.newNode(model.NodeMenu, fields)
	n.Parent = parent
	n.IsNew = true
	n.Fields.Set(model.FieldParent, parent.Key())
	parent.children = append([]*Node{n}, parent.children...)
	return n, nil
}

// Relink sets every node's link field to its parent's key and returns the
// nodes whose field changed.
func (t *Tree) Relink() []*Node {
	var changed []*Node
	t.Walk(func(n *Node, _ int) bool {
		field, want := LinkField(n), ParentKey(n)
		if n.Fields.Get(field) == want {
			return true
		}
		if want == "" && !n.Fields.Has(field) {
			return true
		}
		n.Fields.Set(field, want)
		changed = append(changed, n)
		return true
	})
	return changed
}

// Remove detaches n and everything below it. Removing a node that is no
// longer in the tree is a no-op.
func (t *Tree) Remove(n *Node) {
	if n == nil {
		return
	}
	if _, ok := t.byRef[n.Ref]; !ok {
		return
	}
	switch {
	case !n.IsMenu():
		n.Parent.offerings = without(n.Parent.offerings, n)
	case n.Parent == nil:
		t.roots = without(t.roots, n)
	default:
		n.Parent.children = without(n.Parent.children, n)
	}
	t.forget(n)
}

func (t *Tree) forget(n *Node) {
	delete(t.byRef, n.Ref)
	for _, o := range n.offerings {
		delete(t.byRef, o.Ref)
	}
	for _, c := range n.children {
		t.forget(c)
	}
}

func without(xs []*Node, n *Node) []*Node {
	out := xs[:0:0]
	for _, x := range xs {
		if x != n {
			out = append(out, x)
		}
	}
	return out
}

// Catalog flattens the tree back into records, menus and offerings in
// render order.
func (t *Tree) Catalog() model.Catalog {
	cat := model.Catalog{Menus: []model.Record{}, Offerings: []model.Record{}}
	t.Walk(func(n *Node, _ int) bool {
		r := model.Record{}
		for _, name := range n.Fields.Names() {
			r[name] = n.Fields.Get(name)
		}
		if n.IsMenu() {
			cat.Menus = append(cat.Menus, r)
		} else {
			cat.Offerings = append(cat.Offerings, r)
		}
		return true
	})
	return cat
}
