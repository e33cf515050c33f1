package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"handyman/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fields(kv ...string) model.Fields {
	f := model.NewFields()
	for i := 0; i+1 < len(kv); i += 2 {
		f.Set(kv[i], kv[i+1])
	}
	return f
}

func ptr(f model.Fields) *model.Fields { return &f }

func plumbingCatalog() model.Catalog {
	return model.Catalog{
		Menus: []model.Record{
			{"menu": "M1", "text": "Plumbing"},
			{"menu": "Drains", "parent": "M1", "text": "Drain clearing"},
		},
		Offerings: []model.Record{
			{"menu": "M1", "text": "Leak repair", "link": "https://example.com/leak"},
			{"menu": "Drains", "text": "CCTV survey"},
		},
	}
}

func TestFormatFor(t *testing.T) {
	for path, want := range map[string]Format{
		"site_structure.toml": FormatTOML,
		"a/b/cat.YAML":        FormatYAML,
		"cat.yml":             FormatYAML,
		"cat.json":            FormatJSON,
	} {
		got, err := FormatFor(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}
	_, err := FormatFor("cat.ini")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestCodec_RoundTripsEveryFormat(t *testing.T) {
	for _, f := range []Format{FormatTOML, FormatYAML, FormatJSON} {
		t.Run(string(f), func(t *testing.T) {
			b, err := Encode(f, plumbingCatalog())
			require.NoError(t, err)
			got, err := Decode(f, b)
			require.NoError(t, err)
			require.Len(t, got.Menus, 2)
			require.Len(t, got.Offerings, 2)
			assert.Equal(t, "Drains", got.Menus[1].String("menu"))
			assert.Equal(t, "M1", got.Menus[1].String("parent"))
			assert.Equal(t, "https://example.com/leak", got.Offerings[0].String("link"))
		})
	}
}

func TestDecode_TOMLArrayTables(t *testing.T) {
	src := `
[[menus]]
menu = "Home"
text = "Welcome"

[[menus]]
menu = "Local"
parent = "Home"
text = "Local delights"

[[offerings]]
menu = "Local"
text = "Castle"
image = "castle"
link = "https://example.com"
`
	cat, err := Decode(FormatTOML, []byte(src))
	require.NoError(t, err)
	assert.Empty(t, cat.Validate())
	assert.Equal(t, "Home", cat.Menus[1].String("parent"))
	assert.Equal(t, "castle", cat.Offerings[0].String("image"))
}

func TestApplyBatch_EditsByOriginal(t *testing.T) {
	b := model.Batch{Changes: []model.Change{
		{
			Type:     model.NodeOffering,
			Fields:   fields("menu", "M1", "text", "Leak repair (24h)", "image", "", "link", "https://example.com/leak"),
			Original: ptr(fields("menu", "M1", "text", "Leak repair", "image", "", "link", "https://example.com/leak")),
		},
		{
			Type:     model.NodeMenu,
			Fields:   fields("menu", "M1", "parent", "", "text", "Plumbing Services"),
			Original: ptr(fields("menu", "M1", "parent", "", "text", "Plumbing")),
		},
	}}
	got, err := ApplyBatch(plumbingCatalog(), b)
	require.NoError(t, err)

	assert.Equal(t, "Plumbing Services", got.Menus[0].String("text"))
	_, hasParent := got.Menus[0]["parent"]
	assert.False(t, hasParent, "blank optional fields stay absent")
	assert.Equal(t, "Leak repair (24h)", got.Offerings[0].String("text"))
	_, hasImage := got.Offerings[0]["image"]
	assert.False(t, hasImage)
	assert.Len(t, got.Offerings, 2)
}

func TestApplyBatch_RenameRepointsChildren(t *testing.T) {
	b := model.Batch{Changes: []model.Change{
		{
			Type:     model.NodeMenu,
			Fields:   fields("menu", "Plumbing", "parent", "", "text", "Plumbing"),
			Original: ptr(fields("menu", "M1", "parent", "", "text", "Plumbing")),
		},
		{
			Type:     model.NodeOffering,
			Fields:   fields("menu", "M1", "text", "Leak repair", "image", "leak", "link", "https://example.com/leak"),
			Original: ptr(fields("menu", "M1", "text", "Leak repair", "image", "", "link", "https://example.com/leak")),
		},
	}}
	cat := plumbingCatalog()
	got, err := ApplyBatch(cat, b)
	require.NoError(t, err)

	assert.Equal(t, "Plumbing", got.Menus[0].String("menu"))
	assert.Equal(t, "Plumbing", got.Menus[1].String("parent"))
	assert.Equal(t, "Plumbing", got.Offerings[0].String("menu"))
	assert.Equal(t, "leak", got.Offerings[0].String("image"))
	assert.Equal(t, "M1", cat.Menus[0].String("menu"), "input catalog is not mutated")
}

func TestApplyBatch_ChildSnapshotCarryingNewKey(t *testing.T) {
	b := model.Batch{Changes: []model.Change{
		{
			Type:     model.NodeMenu,
			Fields:   fields("menu", "M9", "parent", "", "text", "Plumbing"),
			Original: ptr(fields("menu", "M1", "parent", "", "text", "Plumbing")),
		},
		{
			Type:     model.NodeOffering,
			Fields:   fields("menu", "M9", "text", "Leak repair and drains", "image", "", "link", "https://example.com/leak"),
			Original: ptr(fields("menu", "M9", "text", "Leak repair", "image", "", "link", "https://example.com/leak")),
		},
	}}
	got, err := ApplyBatch(plumbingCatalog(), b)
	require.NoError(t, err)

	require.Len(t, got.Offerings, 2, "the edited offering is updated in place")
	assert.Equal(t, "M9", got.Offerings[0].String("menu"))
	assert.Equal(t, "Leak repair and drains", got.Offerings[0].String("text"))
	assert.Equal(t, "M9", got.Menus[1].String("parent"))
}

func TestApplyBatch_ChainedRenamesMoveEachMenusChildren(t *testing.T) {
	cat := model.Catalog{
		Menus: []model.Record{
			{"menu": "A", "text": "First"},
			{"menu": "B", "text": "Second"},
		},
		Offerings: []model.Record{
			{"menu": "A", "text": "under A"},
			{"menu": "B", "text": "under B"},
		},
	}
	b := model.Batch{Changes: []model.Change{
		{Type: model.NodeMenu, Fields: fields("menu", "C", "text", "Second"), Original: ptr(fields("menu", "B", "text", "Second"))},
		{Type: model.NodeMenu, Fields: fields("menu", "B", "text", "First"), Original: ptr(fields("menu", "A", "text", "First"))},
	}}
	got, err := ApplyBatch(cat, b)
	require.NoError(t, err)

	assert.Equal(t, "B", got.Offerings[0].String("menu"))
	assert.Equal(t, "C", got.Offerings[1].String("menu"))
}

func TestApplyBatch_AppendsNewRecords(t *testing.T) {
	b := model.Batch{Changes: []model.Change{
		{Type: model.NodeOffering, New: true, Fields: fields("menu", "Boilers", "text", "Annual service", "image", "", "link", "")},
		{Type: model.NodeMenu, New: true, Fields: fields("menu", "Boilers", "parent", "M1", "text", "Boiler work")},
	}}
	got, err := ApplyBatch(plumbingCatalog(), b)
	require.NoError(t, err)
	require.Len(t, got.Menus, 3)
	require.Len(t, got.Offerings, 3)
	assert.Equal(t, model.Record{"menu": "Boilers", "parent": "M1", "text": "Boiler work"}, got.Menus[2])
	assert.Equal(t, model.Record{"menu": "Boilers", "text": "Annual service"}, got.Offerings[2])
}

func TestApplyBatch_RejectsDanglingResult(t *testing.T) {
	b := model.Batch{Changes: []model.Change{
		{Type: model.NodeMenu, New: true, Fields: fields("menu", "", "parent", "M1", "text", "")},
	}}
	_, err := ApplyBatch(plumbingCatalog(), b)
	assert.ErrorContains(t, err, "catalog invalid after batch")
}

func writeCatalog(t *testing.T, name string) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := FormatFor(path)
	require.NoError(t, err)
	b, err := Encode(f, plumbingCatalog())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o644))
	j, err := OpenJournal(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	s, err := New(path, Options{Journal: j})
	require.NoError(t, err)
	return s
}

func TestStore_SaveWritesFileAndJournal(t *testing.T) {
	ctx := context.Background()
	s := writeCatalog(t, "site_structure.toml")

	var hooked string
	s.afterSave = func(_ context.Context, path string, _ model.Batch) error {
		hooked = path
		return nil
	}

	b := model.Batch{ID: "b1", Changes: []model.Change{{
		Type:     model.NodeMenu,
		Fields:   fields("menu", "M1", "parent", "", "text", "Plumbing Services"),
		Original: ptr(fields("menu", "M1", "parent", "", "text", "Plumbing")),
	}}}
	require.NoError(t, s.Save(ctx, b))
	assert.Equal(t, s.Path, hooked)

	cat, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Plumbing Services", cat.Menus[0].String("text"))
	_, err = os.Stat(s.Path + ".bak")
	assert.NoError(t, err)

	entries, err := s.journal.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b1", entries[0].BatchID)
	assert.Equal(t, JournalOK, entries[0].Status)
	assert.Equal(t, 1, entries[0].Changes)
	assert.Equal(t, "Plumbing Services", entries[0].Batch.Changes[0].Fields.Get("text"))
}

func TestStore_FailedSaveLeavesFileAndIsJournaled(t *testing.T) {
	ctx := context.Background()
	s := writeCatalog(t, "catalog.yaml")
	before, err := os.ReadFile(s.Path)
	require.NoError(t, err)

	b := model.Batch{ID: "bad", Changes: []model.Change{
		{Type: model.NodeOffering, New: true, Fields: fields("menu", "Nowhere", "text", "Lost")},
	}}
	require.Error(t, s.Save(ctx, b))

	after, err := os.ReadFile(s.Path)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	e, err := s.journal.Get(ctx, "bad")
	require.NoError(t, err)
	assert.Equal(t, JournalFailed, e.Status)
	assert.Contains(t, e.Error, "Nowhere")

	_, err = s.journal.Get(ctx, "missing")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	_, ok := Discover(nested)
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(filepath.Join(root, DefaultCatalogName), []byte(""), 0o644))
	got, ok := Discover(nested)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, DefaultCatalogName), got)
}

func TestConfig_DefaultsAndSave(t *testing.T) {
	t.Setenv("HANDYMAN_CONFIG_DIR", t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, &GlobalConfig{}, cfg)

	cfg.Catalog = "/srv/site_structure.toml"
	cfg.AutoCommit = true
	require.NoError(t, SaveConfig(cfg))

	got, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}
