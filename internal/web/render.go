package web

import (
	"html/template"
	"strings"

	"handyman/internal/editor"
	"handyman/internal/model"
	"handyman/internal/tree"
)

// indentPerDepth is the card indentation in pixels per tree level.
const indentPerDepth = 20

type cardVM struct {
	Ref    string
	Type   string
	Depth  int
	Indent int
	Title  string
	Body   template.HTML
	Image  string
	Link   string
	IsMenu bool
	IsNew  bool
	Dirty  bool
	Open   bool
}

type surfaceVM struct {
	Ref       string
	Type      string
	Title     string
	Inputs    []inputVM
	Actions   []editor.Action
	TokenHere bool
}

type inputVM struct {
	editor.Input
	Signal  string
	Missing bool
}

type toolbarVM struct {
	Token         string
	ReviewVisible bool
	Saving        bool
	Dirty         int
}

type pageVM struct {
	Title   string
	Cards   []cardVM
	Toolbar toolbarVM
	Surface *surfaceVM
	Signals string
}

// buildPage derives the whole page from the tree and session state. It is
// pure, so any action can re-render everything safely.
func buildPage(t *tree.Tree, v editor.View) pageVM {
	dirty := map[string]bool{}
	for _, e := range v.Ledger {
		dirty[e.Ref] = true
	}
	var cards []cardVM
	t.Walk(func(n *tree.Node, depth int) bool {
		c := cardVM{
			Ref:    n.Ref,
			Type:   string(n.Type),
			Depth:  depth,
			Indent: depth * indentPerDepth,
			IsMenu: n.IsMenu(),
			IsNew:  n.IsNew,
			Dirty:  dirty[n.Ref],
			Open:   n.Ref == v.Open,
		}
		if n.IsMenu() {
			c.Title = n.Display()
		} else {
			c.Body = renderInlineMarkdown(n.Display())
			c.Image = n.Fields.Get("image")
			c.Link = safeLink(n.Fields.Get("link"))
		}
		cards = append(cards, c)
		return true
	})

	return pageVM{
		Title: "Handyman",
		Cards: cards,
		Toolbar: toolbarVM{
			Token:         string(v.Token),
			ReviewVisible: v.ReviewVisible,
			Saving:        v.Saving,
			Dirty:         len(v.Ledger),
		},
		Surface: buildSurface(v),
	}
}

func buildSurface(v editor.View) *surfaceVM {
	if v.Surface == nil {
		return nil
	}
	missing := map[string]bool{}
	for _, name := range v.Missing {
		missing[name] = true
	}
	n := v.Surface.Node
	sv := &surfaceVM{
		Ref:       n.Ref,
		Type:      string(n.Type),
		Title:     surfaceTitle(n),
		Actions:   v.Surface.Actions,
		TokenHere: v.Token == editor.TokenSurface,
	}
	for _, in := range v.Surface.Inputs {
		sv.Inputs = append(sv.Inputs, inputVM{Input: in, Signal: "fields." + in.Name, Missing: missing[in.Name]})
	}
	return sv
}

func surfaceTitle(n *tree.Node) string {
	label := "Offering"
	if n.IsMenu() {
		label = "Menu"
	}
	if n.IsNew {
		return "New " + strings.ToLower(label)
	}
	return label + ": " + n.Display()
}

// fieldSignals is the `fields` signal for the open surface. Fields of the
// other node type are sent as nil so the browser drops them.
func fieldSignals(v editor.View, schemas []string) map[string]any {
	out := map[string]any{}
	for _, name := range schemas {
		out[name] = nil
	}
	if v.Surface != nil {
		for _, in := range v.Surface.Inputs {
			out[in.Name] = in.Value
		}
	}
	return out
}

func safeLink(s string) string {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "/") {
		return s
	}
	return ""
}

// allFieldNames lists every field any node type declares, in schema order.
func allFieldNames(s *Server) []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range model.NodeTypes {
		sc, err := s.schemas.Schema(t)
		if err != nil {
			continue
		}
		for _, name := range sc.Names() {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}
