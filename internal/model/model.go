package model

import (
	"fmt"
	"strings"
)

type NodeType string

const (
	NodeMenu     NodeType = "menu"
	NodeOffering NodeType = "offering"
)

// NodeTypes lists every node variant in render order.
var NodeTypes = []NodeType{NodeMenu, NodeOffering}

func ParseNodeType(s string) (NodeType, bool) {
	switch NodeType(strings.ToLower(strings.TrimSpace(s))) {
	case NodeMenu:
		return NodeMenu, true
	case NodeOffering:
		return NodeOffering, true
	default:
		return "", false
	}
}

// Field names that carry structure. Everything else is plain content.
const (
	FieldMenu   = "menu"
	FieldParent = "parent"
	FieldText   = "text"
)

// Record is one raw menu or offering entry as stored in the catalog file.
type Record map[string]any

// String returns the record value for key as a string ("" when absent).
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Catalog is the full node list returned by the load endpoint.
type Catalog struct {
	Menus     []Record `json:"menus" toml:"menus" yaml:"menus"`
	Offerings []Record `json:"offerings" toml:"offerings" yaml:"offerings"`
}
