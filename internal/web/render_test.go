package web

import (
	"strings"
	"testing"

	"handyman/internal/editor"
	"handyman/internal/model"
	"handyman/internal/schema"
	"handyman/internal/tree"
)

func TestBuildPage_IndentsByDepthInRenderOrder(t *testing.T) {
	cat := model.Catalog{
		Menus: []model.Record{
			{"menu": "Home", "text": "Welcome"},
			{"menu": "Local", "parent": "Home", "text": "Local delights"},
		},
		Offerings: []model.Record{
			{"menu": "Local", "text": "**Castle** Inn", "link": "javascript:alert(1)"},
		},
	}
	tr, err := tree.Build(cat, schema.Defaults())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	ed := editor.New(tr, schema.Defaults(), nil, editor.Options{})

	var vm pageVM
	ed.Read(func(t *tree.Tree, v editor.View) { vm = buildPage(t, v) })

	if len(vm.Cards) != 3 {
		t.Fatalf("expected 3 cards, got %d", len(vm.Cards))
	}
	var indents []int
	for _, c := range vm.Cards {
		indents = append(indents, c.Indent)
	}
	if indents[0] != 0 || indents[1] != indentPerDepth || indents[2] != indentPerDepth {
		t.Fatalf("unexpected indents: %v", indents)
	}
	if vm.Cards[1].Title != "Local: Local delights" {
		t.Fatalf("unexpected menu title %q", vm.Cards[1].Title)
	}
	off := vm.Cards[2]
	if string(off.Body) != "<strong>Castle</strong> Inn" {
		t.Fatalf("unexpected offering body %q", off.Body)
	}
	if off.Link != "" {
		t.Fatalf("unsafe link should be dropped, got %q", off.Link)
	}
	if vm.Surface != nil || vm.Toolbar.Token != "toolbar" {
		t.Fatalf("expected closed session: %+v", vm.Toolbar)
	}
}

func TestRenderInlineMarkdown_NoRawHTML(t *testing.T) {
	got := string(renderInlineMarkdown(`<script>alert(1)</script> hi`))
	if strings.Contains(got, "<script>") {
		t.Fatalf("raw HTML passed through: %q", got)
	}
	if renderInlineMarkdown("   ") != "" {
		t.Fatalf("expected empty output for blank text")
	}
}

func TestFieldSignals_ClearsOtherTypesFields(t *testing.T) {
	cat := model.Catalog{Menus: []model.Record{{"menu": "M1", "text": "Plumbing"}}}
	tr, err := tree.Build(cat, schema.Defaults())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	ed := editor.New(tr, schema.Defaults(), nil, editor.Options{})
	m1, _ := tr.MenuByKey("M1")
	if err := ed.Open(m1.Ref, nil); err != nil {
		t.Fatalf("open: %v", err)
	}
	sig := fieldSignals(ed.State(), []string{"menu", "parent", "text", "image", "link"})
	if sig["text"] != "Plumbing" || sig["menu"] != "M1" {
		t.Fatalf("unexpected signals: %v", sig)
	}
	if v, ok := sig["image"]; !ok || v != nil {
		t.Fatalf("expected image cleared, got %v", sig)
	}
}
