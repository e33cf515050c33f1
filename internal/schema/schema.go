// Package schema describes, per node type, which fields a node has and which
// of them are required. Schema documents use the JSON-schema subset
// {"properties": {...}, "required": [...]}; property order is significant and
// drives the order of inputs in the editor.
package schema

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"handyman/internal/model"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/*.json
var defaultsFS embed.FS

var ErrUnknownType = errors.New("unknown node type")

type Field struct {
	Name     string
	Title    string
	Required bool
}

type Schema struct {
	Type   model.NodeType
	Fields []Field
}

// Provider supplies the schema for a node type.
type Provider interface {
	Schema(t model.NodeType) (Schema, error)
}

func (s Schema) Names() []string {
	out := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		out = append(out, f.Name)
	}
	return out
}

func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (s Schema) Required() []string {
	var out []string
	for _, f := range s.Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// NewFields returns a blank field mapping with exactly the declared fields.
func (s Schema) NewFields() model.Fields {
	return model.NewFields(s.Names()...)
}

// FieldsFrom builds the node's field mapping from a raw record. Keys not
// declared by the schema are dropped; missing ones default to "".
func (s Schema) FieldsFrom(r model.Record) model.Fields {
	f := s.NewFields()
	for _, name := range s.Names() {
		f.Set(name, r.String(name))
	}
	return f
}

// Document renders the schema in the form served by the schema endpoint.
func (s Schema) Document() map[string]any {
	props := map[string]any{}
	for _, f := range s.Fields {
		p := map[string]any{"type": "string"}
		if f.Title != "" {
			p["title"] = f.Title
		}
		props[f.Name] = p
	}
	required := s.Required()
	if required == nil {
		required = []string{}
	}
	return map[string]any{
		"title":      string(s.Type),
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// Parse reads a JSON or YAML schema document.
func Parse(t model.NodeType, b []byte) (Schema, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return Schema{}, fmt.Errorf("schema %s: %w", t, err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return Schema{}, fmt.Errorf("schema %s: expected an object", t)
	}

	sc := Schema{Type: t}
	var required []string
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i].Value, root.Content[i+1]
		switch key {
		case "properties":
			if val.Kind != yaml.MappingNode {
				return Schema{}, fmt.Errorf("schema %s: properties must be an object", t)
			}
			for j := 0; j+1 < len(val.Content); j += 2 {
				name := strings.TrimSpace(val.Content[j].Value)
				if name == "" {
					return Schema{}, fmt.Errorf("schema %s: empty property name", t)
				}
				sc.Fields = append(sc.Fields, Field{Name: name, Title: scalarValue(val.Content[j+1], "title")})
			}
		case "required":
			if val.Kind != yaml.SequenceNode {
				return Schema{}, fmt.Errorf("schema %s: required must be a list", t)
			}
			for _, n := range val.Content {
				required = append(required, strings.TrimSpace(n.Value))
			}
		}
	}

	for _, name := range required {
		found := false
		for i := range sc.Fields {
			if sc.Fields[i].Name == name {
				sc.Fields[i].Required = true
				found = true
			}
		}
		if !found {
			return Schema{}, fmt.Errorf("schema %s: required field %q is not a declared property", t, name)
		}
	}
	return sc, nil
}

func scalarValue(m *yaml.Node, key string) string {
	if m == nil || m.Kind != yaml.MappingNode {
		return ""
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key && m.Content[i+1].Kind == yaml.ScalarNode {
			return m.Content[i+1].Value
		}
	}
	return ""
}

// Set is an in-memory Provider.
type Set struct {
	byType map[model.NodeType]Schema
}

func NewSet(schemas ...Schema) *Set {
	s := &Set{byType: map[model.NodeType]Schema{}}
	for _, sc := range schemas {
		s.byType[sc.Type] = sc
	}
	return s
}

func (s *Set) Schema(t model.NodeType) (Schema, error) {
	sc, ok := s.byType[t]
	if !ok {
		return Schema{}, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	return sc, nil
}

// Defaults returns the built-in menu and offering schemas.
func Defaults() *Set {
	set := NewSet()
	for _, t := range model.NodeTypes {
		b, err := defaultsFS.ReadFile("defaults/" + string(t) + ".json")
		if err != nil {
			panic(err)
		}
		sc, err := Parse(t, b)
		if err != nil {
			panic(err)
		}
		set.byType[t] = sc
	}
	return set
}

// DefaultDocument returns the raw built-in schema document for t.
func DefaultDocument(t model.NodeType) ([]byte, error) {
	b, err := defaultsFS.ReadFile("defaults/" + string(t) + ".json")
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	return b, nil
}

// LoadDir reads <type>.json, <type>.yaml or <type>.yml from dir for each node
// type. Types without a file keep the built-in schema. An empty dir means
// built-ins only.
func LoadDir(dir string) (*Set, error) {
	set := Defaults()
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return set, nil
	}
	for _, t := range model.NodeTypes {
		for _, ext := range []string{".json", ".yaml", ".yml"} {
			p := filepath.Join(dir, string(t)+ext)
			b, err := os.ReadFile(p)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					continue
				}
				return nil, err
			}
			sc, err := Parse(t, b)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", p, err)
			}
			set.byType[t] = sc
			break
		}
	}
	return set, nil
}
