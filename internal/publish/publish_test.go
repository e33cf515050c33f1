package publish

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"handyman/internal/model"
	"handyman/internal/schema"
	"handyman/internal/tree"
)

func kendal(t *testing.T) *tree.Tree {
	t.Helper()
	cat := model.Catalog{
		Menus: []model.Record{
			{"menu": "Home", "text": "Welcome"},
			{"menu": "Eating Out", "parent": "Home", "text": "Places to eat"},
			{"menu": "What's On", "parent": "Home", "text": "Events"},
		},
		Offerings: []model.Record{
			{"menu": "Eating Out", "text": "Castle Inn", "image": "castle_inn", "link": "https://example.com/castle"},
			{"menu": "What's On", "text": "Quiz night"},
		},
	}
	tr, err := tree.Build(cat, schema.Defaults())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return tr
}

func TestSlugify(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"Home":        "home",
		"Eating Out":  "eating_out",
		"What's On":   "whats_on",
		" Local Walks": "local_walks",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Fatalf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderSiteMarkdown_NestsMenusAndListsOfferings(t *testing.T) {
	t.Parallel()
	md := RenderSiteMarkdown(kendal(t), RenderOptions{Title: "Kendal"})

	for _, want := range []string{
		"# Kendal",
		"- [Home](#home)\n  - [Eating Out](#eating_out)\n  - [What's On](#whats_on)\n",
		"## Eating Out\n\nPlaces to eat\n\n- ![](images/castle_inn.png) [Castle Inn](https://example.com/castle)\n",
		"- Quiz night\n",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("expected %q in:\n%s", want, md)
		}
	}
}

func TestRenderMenuHTML_Nested(t *testing.T) {
	t.Parallel()
	html, err := RenderMenuHTML(kendal(t))
	if err != nil {
		t.Fatalf("RenderMenuHTML: %v", err)
	}
	if strings.Count(html, "<ul>") != 2 {
		t.Fatalf("expected a nested list, got:\n%s", html)
	}
	if !strings.Contains(html, `<a href="#whats_on">What&#39;s On</a>`) {
		t.Fatalf("expected escaped sub-menu link, got:\n%s", html)
	}
}

func TestRenderOfferingsHTML_CardsPerMenu(t *testing.T) {
	t.Parallel()
	html, err := RenderOfferingsHTML(kendal(t), RenderOptions{ImageDir: "static/img/"})
	if err != nil {
		t.Fatalf("RenderOfferingsHTML: %v", err)
	}
	if got := strings.Count(html, `class="category-card"`); got != 3 {
		t.Fatalf("expected 3 category cards, got %d:\n%s", got, html)
	}
	if !strings.Contains(html, `<img src="static/img/castle_inn.png" alt="Castle Inn">`) {
		t.Fatalf("expected offering image, got:\n%s", html)
	}
}

func TestWriteSite_WritesFilesAndRespectsOverwrite(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	tr := kendal(t)

	res, err := WriteSite(tr, dir, WriteOptions{Home: "Home"})
	if err != nil {
		t.Fatalf("WriteSite: %v", err)
	}
	if len(res.Written) != 3 {
		t.Fatalf("expected 3 files, got %v", res.Written)
	}
	if _, err := os.Stat(filepath.Join(dir, "_generated", MenuPartial)); err != nil {
		t.Fatalf("expected menu partial: %v", err)
	}

	if _, err := WriteSite(tr, dir, WriteOptions{}); err == nil || !strings.Contains(err.Error(), "--overwrite") {
		t.Fatalf("expected overwrite error, got %v", err)
	}
	if _, err := WriteSite(tr, dir, WriteOptions{Overwrite: true}); err != nil {
		t.Fatalf("WriteSite overwrite: %v", err)
	}
}

func TestValidate_RequiresHomeMenu(t *testing.T) {
	t.Parallel()
	if err := Validate(kendal(t), "Start"); err == nil {
		t.Fatalf("expected missing home error")
	}
	if err := Validate(tree.New(), ""); err == nil {
		t.Fatalf("expected empty tree error")
	}
}
