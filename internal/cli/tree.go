package cli

import (
	"io"
	"os"
	"strings"

	"handyman/internal/model"
	"handyman/internal/tree"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var (
	treeMenuStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	treeTextStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	treeOfferingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	treeBranchStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type treeOptions struct {
	Offerings bool
	Width     int
}

func newTreeCmd(app *App) *cobra.Command {
	var opts treeOptions

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the menu tree",
		Long: strings.TrimSpace(`
Print menus nested under their parents. With --format given explicitly the
tree is written as structured data: each parent key mapped to its sub-menus,
roots under "".
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, _, err := loadTree(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if cmd.Flags().Changed("format") {
				return writeOut(cmd, app, map[string]any{"data": menuTreeData(t)})
			}
			applyColorProfile(cmd.OutOrStdout())
			_, err = io.WriteString(cmd.OutOrStdout(), renderTree(t, opts))
			return err
		},
	}

	cmd.Flags().BoolVar(&opts.Offerings, "offerings", true, "Include offerings under each menu")
	cmd.Flags().IntVar(&opts.Width, "width", 0, "Truncate lines to this many columns (0 = no limit)")
	return cmd
}

// applyColorProfile disables styling for non-terminals and NO_COLOR, and
// otherwise follows termenv's environment detection.
func applyColorProfile(w io.Writer) {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" || !isTerminal(w) {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	lipgloss.SetColorProfile(termenv.EnvColorProfile())
}

func renderTree(t *tree.Tree, opts treeOptions) string {
	var b strings.Builder
	line := func(s string) {
		if opts.Width > 0 {
			s = ansi.Truncate(s, opts.Width, "…")
		}
		b.WriteString(s)
		b.WriteByte('\n')
	}

	var visit func(m *tree.Node, prefix string, last bool, root bool)
	visit = func(m *tree.Node, prefix string, last bool, root bool) {
		branch, childPrefix := "", ""
		if !root {
			branch, childPrefix = "├── ", "│   "
			if last {
				branch, childPrefix = "└── ", "    "
			}
		}
		label := treeMenuStyle.Render(m.Key())
		if text := strings.TrimSpace(m.Fields.Get(model.FieldText)); text != "" {
			label += " " + treeTextStyle.Render(text)
		}
		line(prefix + treeBranchStyle.Render(branch) + label)

		next := prefix + childPrefix
		var offs []*tree.Node
		if opts.Offerings {
			offs = t.OfferingsOf(m)
		}
		kids := t.ChildrenOf(m)
		for i, o := range offs {
			mark := "├── "
			if i == len(offs)-1 && len(kids) == 0 {
				mark = "└── "
			}
			line(next + treeBranchStyle.Render(mark) + treeOfferingStyle.Render("• "+o.Display()))
		}
		for i, c := range kids {
			visit(c, next, i == len(kids)-1, false)
		}
	}
	for _, r := range t.Roots() {
		visit(r, "", true, true)
	}
	return b.String()
}

// menuTreeData maps each parent key to its sub-menu keys, roots under "".
func menuTreeData(t *tree.Tree) map[string][]string {
	out := map[string][]string{}
	t.Walk(func(n *tree.Node, _ int) bool {
		if !n.IsMenu() {
			return true
		}
		parent := ""
		if n.Parent != nil {
			parent = n.Parent.Key()
		}
		out[parent] = append(out[parent], n.Key())
		return true
	})
	return out
}
