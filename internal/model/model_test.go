package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFields_KeepsInsertionOrder(t *testing.T) {
	f := NewFields("menu", "parent", "text")
	f.Set("text", "Plumbing")
	f.Set("extra", "x")

	assert.Equal(t, []string{"menu", "parent", "text", "extra"}, f.Names())
	assert.Equal(t, "Plumbing", f.Get("text"))
	assert.Equal(t, "", f.Get("missing"))
	assert.False(t, f.Has("missing"))

	b, err := json.Marshal(f)
	require.NoError(t, err)
	assert.Equal(t, `{"menu":"","parent":"","text":"Plumbing","extra":"x"}`, string(b))
}

func TestFields_CloneIsIndependent(t *testing.T) {
	f := NewFields("menu", "text")
	f.Set("text", "a")
	c := f.Clone()
	c.Set("text", "b")

	assert.Equal(t, "a", f.Get("text"))
	assert.Equal(t, "b", c.Get("text"))
	assert.False(t, f.Equal(c))
	c.Set("text", "a")
	assert.True(t, f.Equal(c))
}

func TestChange_JSONShape(t *testing.T) {
	fields := NewFields("menu", "text")
	fields.Set("menu", "M1")
	fields.Set("text", "Plumbing Services")
	orig := fields.Clone()
	orig.Set("text", "Plumbing")

	b, err := json.Marshal(Batch{Changes: []Change{
		{Type: NodeMenu, Fields: fields, Original: &orig},
		{Type: NodeOffering, Fields: NewFields("menu", "text"), New: true},
	}})
	require.NoError(t, err)
	assert.Equal(t,
		`{"changes":[{"type":"menu","menu":"M1","text":"Plumbing Services","_original":{"menu":"M1","text":"Plumbing"}},{"type":"offering","menu":"","text":"","_new":true}]}`,
		string(b))

	var back Batch
	require.NoError(t, json.Unmarshal(b, &back))
	require.Len(t, back.Changes, 2)
	assert.Equal(t, NodeMenu, back.Changes[0].Type)
	assert.True(t, back.Changes[0].Fields.Equal(fields))
	require.NotNil(t, back.Changes[0].Original)
	assert.Equal(t, "Plumbing", back.Changes[0].Original.Get("text"))
	assert.True(t, back.Changes[1].New)
	assert.Nil(t, back.Changes[1].Original)
}

func TestChange_UnmarshalRejectsUnknownType(t *testing.T) {
	var c Change
	err := json.Unmarshal([]byte(`{"type":"widget","text":"x"}`), &c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown node type")

	err = json.Unmarshal([]byte(`{"text":"x"}`), &c)
	require.Error(t, err)
}

func TestChange_NonStringValuesAreFlattened(t *testing.T) {
	var c Change
	require.NoError(t, json.Unmarshal([]byte(`{"type":"offering","menu":"M1","price":12,"link":null}`), &c))
	assert.Equal(t, "12", c.Fields.Get("price"))
	assert.Equal(t, "", c.Fields.Get("link"))
	assert.True(t, c.Fields.Has("link"))
}

func TestCatalogValidate(t *testing.T) {
	ok := Catalog{
		Menus: []Record{
			{"menu": "Home", "text": "Welcome"},
			{"menu": "Local", "parent": "Home"},
		},
		Offerings: []Record{{"menu": "Local", "text": "Walks"}},
	}
	assert.Empty(t, ok.Validate())

	bad := Catalog{
		Menus: []Record{
			{"menu": "A", "parent": "B"},
			{"menu": "B", "parent": "A"},
			{"menu": "A"},
			{"menu": "C", "parent": "Nowhere"},
		},
		Offerings: []Record{{"menu": "Ghost", "text": "x"}, {"text": "y"}},
	}
	errs := bad.Validate()
	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	joined := strings.Join(msgs, "\n")
	assert.Contains(t, joined, `duplicate menu key "A"`)
	assert.Contains(t, joined, `parent "Nowhere" does not reference a menu`)
	assert.Contains(t, joined, `menu "Ghost" does not reference a menu`)
	assert.Contains(t, joined, "offerings[1]: menu is required")
	assert.Contains(t, joined, "parent cycle")
	assert.Equal(t, 1, strings.Count(joined, "parent cycle"))
}
