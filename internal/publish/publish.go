// Package publish renders a catalog tree as a static site outline: nested
// navigation and offering cards as HTML partials, plus a markdown outline.
package publish

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"handyman/internal/tree"
)

const (
	MenuPartial      = "menu_content.html"
	OfferingsPartial = "offerings_content.html"
	OutlineFile      = "site.md"
)

type WriteOptions struct {
	Render    RenderOptions
	Overwrite bool
	// Home, when set, must name an existing menu.
	Home string
}

type WriteResult struct {
	Written []string `json:"written"`
}

// Validate checks that the tree has something to publish.
func Validate(t *tree.Tree, home string) error {
	if t == nil || len(t.Roots()) == 0 {
		return errors.New("catalog has no root menu")
	}
	home = strings.TrimSpace(home)
	if home == "" {
		return nil
	}
	if _, ok := t.MenuByKey(home); !ok {
		return fmt.Errorf("catalog must contain a %q menu", home)
	}
	return nil
}

// WriteSite writes the generated partials under <toDir>/_generated and the
// markdown outline under toDir.
func WriteSite(t *tree.Tree, toDir string, opt WriteOptions) (WriteResult, error) {
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return WriteResult{}, errors.New("missing --to")
	}
	toDir = filepath.Clean(toDir)
	if err := Validate(t, opt.Home); err != nil {
		return WriteResult{}, err
	}

	menuHTML, err := RenderMenuHTML(t)
	if err != nil {
		return WriteResult{}, fmt.Errorf("render menu: %w", err)
	}
	offeringsHTML, err := RenderOfferingsHTML(t, opt.Render)
	if err != nil {
		return WriteResult{}, fmt.Errorf("render offerings: %w", err)
	}

	genDir := filepath.Join(toDir, "_generated")
	if err := os.MkdirAll(genDir, 0o755); err != nil {
		return WriteResult{}, err
	}
	files := []struct {
		path string
		body string
	}{
		{filepath.Join(genDir, MenuPartial), menuHTML},
		{filepath.Join(genDir, OfferingsPartial), offeringsHTML},
		{filepath.Join(toDir, OutlineFile), RenderSiteMarkdown(t, opt.Render)},
	}
	var written []string
	for _, f := range files {
		if err := writeFile(f.path, []byte(f.body), opt.Overwrite); err != nil {
			return WriteResult{Written: written}, err
		}
		written = append(written, f.path)
	}
	return WriteResult{Written: written}, nil
}

func writeFile(path string, b []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New("file exists (use --overwrite): " + path)
		}
	}
	return os.WriteFile(path, b, 0o644)
}
