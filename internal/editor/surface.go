package editor

import (
	"fmt"
	"strings"

	"handyman/internal/schema"
	"handyman/internal/tree"
)

type Action string

const (
	ActionAddOffering Action = "add-offering"
	ActionAddSubmenu  Action = "add-submenu"
)

type Input struct {
	Name     string `json:"name"`
	Title    string `json:"title,omitempty"`
	Value    string `json:"value"`
	Required bool   `json:"required,omitempty"`
}

// Surface is the edit buffer for the one open node. Values live here until
// the session commits them into the node.
type Surface struct {
	Node    *tree.Node
	Inputs  []Input
	Actions []Action
}

// newSurface builds one input per schema field. Each input starts from the
// node's current value, then the caller's seed, then "".
func newSurface(n *tree.Node, sc schema.Schema, seed map[string]string) *Surface {
	s := &Surface{Node: n}
	for _, f := range sc.Fields {
		v := n.Fields.Get(f.Name)
		if v == "" {
			v = seed[f.Name]
		}
		s.Inputs = append(s.Inputs, Input{Name: f.Name, Title: f.Title, Value: v, Required: f.Required})
	}
	if n.IsMenu() {
		s.Actions = []Action{ActionAddOffering, ActionAddSubmenu}
	}
	return s
}

func (s *Surface) Value(name string) (string, bool) {
	for _, in := range s.Inputs {
		if in.Name == name {
			return in.Value, true
		}
	}
	return "", false
}

func (s *Surface) set(name, value string) error {
	for i := range s.Inputs {
		if s.Inputs[i].Name == name {
			s.Inputs[i].Value = value
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// MissingRequired lists required inputs that are blank. It is advisory only.
func (s *Surface) MissingRequired() []string {
	var out []string
	for _, in := range s.Inputs {
		if in.Required && strings.TrimSpace(in.Value) == "" {
			out = append(out, in.Name)
		}
	}
	return out
}

func (s *Surface) clone() *Surface {
	if s == nil {
		return nil
	}
	return &Surface{
		Node:    s.Node,
		Inputs:  append([]Input(nil), s.Inputs...),
		Actions: append([]Action(nil), s.Actions...),
	}
}
