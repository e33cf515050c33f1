package publish

import (
	"bytes"
	"html/template"
	"strings"

	"handyman/internal/model"
	"handyman/internal/tree"
)

type navItem struct {
	Key      string
	Slug     string
	Children []navItem
}

type sectionVM struct {
	Key       string
	Slug      string
	Text      string
	Offerings []offeringVM
}

type offeringVM struct {
	Text  string
	Link  string
	Image string
}

var partials = template.Must(template.New("partials").Parse(`
{{- define "menu" -}}
<ul>
{{- range . }}
<li><a href="#{{ .Slug }}">{{ .Key }}</a>
{{- if .Children }}
{{ template "menu" .Children }}
{{- end }}
</li>
{{- end }}
</ul>
{{ end -}}

{{- define "offerings" -}}
{{- range . }}
<div class="category-card" data-category="{{ .Slug }}">
  <h2>{{ .Key }}</h2>
  <p>{{ .Text }}</p>
</div>
{{- range .Offerings }}
<div class="offering-card">
  <a href="{{ .Link }}" target="_blank">
    {{- if .Image }}
    <img src="{{ .Image }}" alt="{{ .Text }}">
    {{- end }}
    <p>{{ .Text }}</p>
  </a>
</div>
{{- end }}
{{- end }}
{{ end -}}
`))

func buildNav(t *tree.Tree, menus []*tree.Node) []navItem {
	out := make([]navItem, 0, len(menus))
	for _, m := range menus {
		out = append(out, navItem{Key: m.Key(), Slug: Slugify(m.Key()), Children: buildNav(t, t.ChildrenOf(m))})
	}
	return out
}

// RenderMenuHTML renders the nested navigation list.
func RenderMenuHTML(t *tree.Tree) (string, error) {
	var buf bytes.Buffer
	if err := partials.ExecuteTemplate(&buf, "menu", buildNav(t, t.Roots())); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderOfferingsHTML renders a category card per menu, each followed by
// its offering cards.
func RenderOfferingsHTML(t *tree.Tree, opt RenderOptions) (string, error) {
	var sections []sectionVM
	t.Walk(func(n *tree.Node, _ int) bool {
		if !n.IsMenu() {
			return true
		}
		sec := sectionVM{Key: n.Key(), Slug: Slugify(n.Key()), Text: n.Fields.Get(model.FieldText)}
		for _, o := range t.OfferingsOf(n) {
			sec.Offerings = append(sec.Offerings, offeringVM{
				Text:  strings.TrimSpace(o.Fields.Get(model.FieldText)),
				Link:  strings.TrimSpace(o.Fields.Get("link")),
				Image: opt.imagePath(o.Fields.Get("image")),
			})
		}
		sections = append(sections, sec)
		return true
	})
	var buf bytes.Buffer
	if err := partials.ExecuteTemplate(&buf, "offerings", sections); err != nil {
		return "", err
	}
	return buf.String(), nil
}
