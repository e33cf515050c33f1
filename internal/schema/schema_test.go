package schema

import (
	"os"
	"path/filepath"
	"testing"

	"handyman/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults_DeclareOrderedFields(t *testing.T) {
	set := Defaults()

	menu, err := set.Schema(model.NodeMenu)
	require.NoError(t, err)
	assert.Equal(t, []string{"menu", "parent", "text"}, menu.Names())
	assert.Equal(t, []string{"menu", "text"}, menu.Required())

	off, err := set.Schema(model.NodeOffering)
	require.NoError(t, err)
	assert.Equal(t, []string{"menu", "text", "image", "link"}, off.Names())
	f, ok := off.Field("link")
	require.True(t, ok)
	assert.Equal(t, "Link", f.Title)
	assert.False(t, f.Required)
}

func TestParse_PreservesPropertyOrder(t *testing.T) {
	doc := []byte(`{"properties": {"zeta": {}, "alpha": {"title": "A"}, "mid": {}}, "required": ["mid"]}`)
	sc, err := Parse(model.NodeOffering, doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, sc.Names())
	assert.Equal(t, []string{"mid"}, sc.Required())
}

func TestParse_YAML(t *testing.T) {
	doc := []byte("properties:\n  menu:\n    title: Menu\n  text: {}\nrequired: [menu]\n")
	sc, err := Parse(model.NodeMenu, doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"menu", "text"}, sc.Names())
	assert.Equal(t, []string{"menu"}, sc.Required())
}

func TestParse_RejectsUndeclaredRequired(t *testing.T) {
	_, err := Parse(model.NodeMenu, []byte(`{"properties": {"menu": {}}, "required": ["text"]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required field "text"`)

	_, err = Parse(model.NodeMenu, []byte(`[1, 2]`))
	require.Error(t, err)
}

func TestFieldsFrom_DefaultsMissingToEmpty(t *testing.T) {
	sc, err := Defaults().Schema(model.NodeOffering)
	require.NoError(t, err)

	f := sc.FieldsFrom(model.Record{"menu": "Local", "text": "Walks", "rating": 5})
	assert.Equal(t, []string{"menu", "text", "image", "link"}, f.Names())
	assert.Equal(t, "Walks", f.Get("text"))
	assert.Equal(t, "", f.Get("image"))
	assert.False(t, f.Has("rating"))
}

func TestLoadDir_OverridesPerType(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "offering.yaml"),
		[]byte("properties:\n  menu: {}\n  text: {}\n  price: {}\nrequired: [menu]\n"), 0o644))

	set, err := LoadDir(dir)
	require.NoError(t, err)

	off, err := set.Schema(model.NodeOffering)
	require.NoError(t, err)
	assert.Equal(t, []string{"menu", "text", "price"}, off.Names())

	menu, err := set.Schema(model.NodeMenu)
	require.NoError(t, err)
	assert.Equal(t, []string{"menu", "parent", "text"}, menu.Names())

	_, err = set.Schema("widget")
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestDocument(t *testing.T) {
	sc, err := Defaults().Schema(model.NodeMenu)
	require.NoError(t, err)
	doc := sc.Document()
	assert.Equal(t, []string{"menu", "text"}, doc["required"])
	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, props, 3)
}
