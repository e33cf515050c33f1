package tree

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotMenu  = errors.New("node is not a menu")
	ErrDetached = errors.New("node is not in the tree")
)

// Check verifies the index invariants: every non-root menu sits in exactly
// one children bucket (its parent's), every offering in exactly one
// offerings bucket, every indexed node is reachable, and every link field
// names the key of the node's parent.
func (t *Tree) Check() error {
	var errs []error
	seen := map[*Node]int{}

	for _, r := range t.roots {
		if r.Parent != nil {
			errs = append(errs, fmt.Errorf("root menu %s has a parent", r.Ref))
		}
	}
	t.Walk(func(n *Node, _ int) bool {
		seen[n]++
		field := LinkField(n)
		if got, want := strings.TrimSpace(n.Fields.Get(field)), strings.TrimSpace(ParentKey(n)); got != want {
			errs = append(errs, fmt.Errorf("%s %s: %s is %q, parent key is %q", n.Type, n.Ref, field, got, want))
		}
		if n.IsMenu() {
			for _, c := range n.children {
				if c.Parent != n {
					errs = append(errs, fmt.Errorf("menu %s listed under %s but its parent differs", c.Ref, n.Ref))
				}
			}
			for _, o := range n.offerings {
				if o.Parent != n {
					errs = append(errs, fmt.Errorf("offering %s listed under %s but its menu differs", o.Ref, n.Ref))
				}
				if o.IsMenu() {
					errs = append(errs, fmt.Errorf("menu %s listed as an offering", o.Ref))
				}
			}
		}
		return true
	})

	for n, count := range seen {
		if count != 1 {
			errs = append(errs, fmt.Errorf("node %s indexed %d times", n.Ref, count))
		}
		if t.byRef[n.Ref] != n {
			errs = append(errs, fmt.Errorf("node %s reachable but not registered", n.Ref))
		}
	}
	if len(seen) != len(t.byRef) {
		errs = append(errs, fmt.Errorf("%d registered nodes, %d reachable", len(t.byRef), len(seen)))
	}
	return errors.Join(errs...)
}
