package publish

import (
	"bytes"
	"fmt"
	"strings"

	"handyman/internal/model"
	"handyman/internal/tree"
)

type RenderOptions struct {
	// Title heads the outline; "Site" when empty.
	Title string
	// ImageDir prefixes offering images, which are stored as bare names.
	ImageDir string
}

func (o RenderOptions) title() string {
	if t := strings.TrimSpace(o.Title); t != "" {
		return t
	}
	return "Site"
}

func (o RenderOptions) imagePath(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	dir := strings.TrimSuffix(strings.TrimSpace(o.ImageDir), "/")
	if dir == "" {
		dir = "images"
	}
	return dir + "/" + name + ".png"
}

// Slugify turns a menu key into an anchor: lower case, spaces to
// underscores, apostrophes dropped.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = strings.ReplaceAll(s, " ", "_")
	return strings.ReplaceAll(s, "'", "")
}

// RenderSiteMarkdown renders the navigation outline followed by one section
// per menu holding its offerings.
func RenderSiteMarkdown(t *tree.Tree, opt RenderOptions) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n\n", opt.title())

	buf.WriteString("## Menu\n\n")
	var nav func(menus []*tree.Node, depth int)
	nav = func(menus []*tree.Node, depth int) {
		for _, m := range menus {
			key := m.Key()
			fmt.Fprintf(&buf, "%s- [%s](#%s)\n", strings.Repeat("  ", depth), key, Slugify(key))
			nav(t.ChildrenOf(m), depth+1)
		}
	}
	nav(t.Roots(), 0)

	t.Walk(func(n *tree.Node, _ int) bool {
		if !n.IsMenu() {
			return true
		}
		fmt.Fprintf(&buf, "\n<a id=\"%s\"></a>\n## %s\n", Slugify(n.Key()), n.Key())
		if text := strings.TrimSpace(n.Fields.Get(model.FieldText)); text != "" {
			fmt.Fprintf(&buf, "\n%s\n", text)
		}
		offs := t.OfferingsOf(n)
		if len(offs) > 0 {
			buf.WriteString("\n")
		}
		for _, o := range offs {
			renderOfferingLine(&buf, o, opt)
		}
		return true
	})
	return buf.String()
}

func renderOfferingLine(buf *bytes.Buffer, o *tree.Node, opt RenderOptions) {
	text := strings.TrimSpace(o.Fields.Get(model.FieldText))
	link := strings.TrimSpace(o.Fields.Get("link"))
	buf.WriteString("- ")
	if img := opt.imagePath(o.Fields.Get("image")); img != "" {
		fmt.Fprintf(buf, "![](%s) ", img)
	}
	if link != "" {
		fmt.Fprintf(buf, "[%s](%s)\n", text, link)
		return
	}
	buf.WriteString(text + "\n")
}
