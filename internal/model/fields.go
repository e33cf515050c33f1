package model

import (
	"bytes"
	"encoding/json"
)

// Fields is an ordered field-name -> value mapping.
// The zero value is an empty mapping ready to use.
type Fields struct {
	names  []string
	values map[string]string
}

func NewFields(names ...string) Fields {
	f := Fields{}
	for _, n := range names {
		f.Set(n, "")
	}
	return f
}

func (f *Fields) Set(name, value string) {
	if f.values == nil {
		f.values = map[string]string{}
	}
	if _, ok := f.values[name]; !ok {
		f.names = append(f.names, name)
	}
	f.values[name] = value
}

func (f Fields) Get(name string) string {
	return f.values[name]
}

func (f Fields) Has(name string) bool {
	_, ok := f.values[name]
	return ok
}

func (f Fields) Len() int { return len(f.names) }

func (f Fields) Names() []string {
	return append([]string(nil), f.names...)
}

// Map returns an unordered copy of the values.
func (f Fields) Map() map[string]string {
	out := make(map[string]string, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

func (f Fields) Clone() Fields {
	out := Fields{names: append([]string(nil), f.names...)}
	if f.values != nil {
		out.values = f.Map()
	}
	return out
}

// Equal reports whether both mappings hold the same names in the same order
// with the same values.
func (f Fields) Equal(o Fields) bool {
	if len(f.names) != len(o.names) {
		return false
	}
	for i, n := range f.names {
		if o.names[i] != n || o.values[n] != f.values[n] {
			return false
		}
	}
	return true
}

func (f Fields) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, n := range f.names {
		if i > 0 {
			b.WriteByte(',')
		}
		if err := writeJSONPair(&b, n, f.values[n]); err != nil {
			return nil, err
		}
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

func (f *Fields) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	return decodeOrderedStrings(dec, func(name, value string) error {
		f.Set(name, value)
		return nil
	})
}

func writeJSONPair(b *bytes.Buffer, name string, value any) error {
	k, err := json.Marshal(name)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return err
	}
	b.Write(k)
	b.WriteByte(':')
	b.Write(v)
	return nil
}
