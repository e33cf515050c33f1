package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	changeKeyType     = "type"
	changeKeyOriginal = "_original"
	changeKeyNew      = "_new"
)

// Change is one ledger entry as sent to the save endpoint:
// {"type": "...", <fields...>, "_original": {...}, "_new": true}.
//
// Original is the pre-edit snapshot and is nil for provisional nodes.
type Change struct {
	Type     NodeType
	Fields   Fields
	Original *Fields
	New      bool
}

type Batch struct {
	ID      string   `json:"id,omitempty"`
	Changes []Change `json:"changes"`
}

func (c Change) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	if err := writeJSONPair(&b, changeKeyType, string(c.Type)); err != nil {
		return nil, err
	}
	for _, n := range c.Fields.names {
		if n == changeKeyType || n == changeKeyOriginal || n == changeKeyNew {
			continue
		}
		b.WriteByte(',')
		if err := writeJSONPair(&b, n, c.Fields.values[n]); err != nil {
			return nil, err
		}
	}
	if c.Original != nil {
		b.WriteByte(',')
		if err := writeJSONPair(&b, changeKeyOriginal, *c.Original); err != nil {
			return nil, err
		}
	}
	if c.New {
		b.WriteByte(',')
		if err := writeJSONPair(&b, changeKeyNew, true); err != nil {
			return nil, err
		}
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

func (c *Change) UnmarshalJSON(b []byte) error {
	*c = Change{}
	dec := json.NewDecoder(bytes.NewReader(b))
	err := decodeOrderedRaw(dec, func(name string, raw json.RawMessage) error {
		switch name {
		case changeKeyType:
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return fmt.Errorf("change type: %w", err)
			}
			t, ok := ParseNodeType(s)
			if !ok {
				return fmt.Errorf("change type: unknown node type %q", s)
			}
			c.Type = t
		case changeKeyOriginal:
			if isJSONNull(raw) {
				return nil
			}
			var orig Fields
			if err := json.Unmarshal(raw, &orig); err != nil {
				return fmt.Errorf("change original: %w", err)
			}
			c.Original = &orig
		case changeKeyNew:
			var v bool
			if err := json.Unmarshal(raw, &v); err != nil {
				return fmt.Errorf("change new flag: %w", err)
			}
			c.New = v
		default:
			c.Fields.Set(name, rawString(raw))
		}
		return nil
	})
	if err != nil {
		return err
	}
	if c.Type == "" {
		return errors.New("change: missing type")
	}
	return nil
}

func decodeOrderedRaw(dec *json.Decoder, fn func(name string, raw json.RawMessage) error) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("expected JSON object")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return errors.New("expected object key")
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if err := fn(name, raw); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}

func decodeOrderedStrings(dec *json.Decoder, fn func(name, value string) error) error {
	return decodeOrderedRaw(dec, func(name string, raw json.RawMessage) error {
		return fn(name, rawString(raw))
	})
}

// rawString flattens a JSON value to the string stored in a field.
func rawString(raw json.RawMessage) string {
	if isJSONNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

func isJSONNull(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}
