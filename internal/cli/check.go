package cli

import (
	"strings"

	"handyman/internal/publish"
	"handyman/internal/store"
	"handyman/internal/tree"

	"github.com/spf13/cobra"
)

type checkReport struct {
	Catalog   string   `json:"catalog"`
	Menus     int      `json:"menus"`
	Offerings int      `json:"offerings"`
	Issues    []string `json:"issues"`
}

func (r checkReport) OK() bool { return len(r.Issues) == 0 }

func newCheckCmd(app *App) *cobra.Command {
	var fail bool
	var home string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the catalog structure",
		Long: strings.TrimSpace(`
Check that menu keys are unique, every parent and offering menu resolves,
there are no parent cycles, and at least one root menu exists. With --home,
also require a menu with that key.
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(app, store.Options{})
			if err != nil {
				return writeErr(cmd, err)
			}
			schemas, err := loadSchemas(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			cat, err := st.Load(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}

			report := checkReport{Catalog: st.Path, Menus: len(cat.Menus), Offerings: len(cat.Offerings), Issues: []string{}}
			for _, e := range cat.Validate() {
				report.Issues = append(report.Issues, e.Error())
			}
			if report.OK() {
				t, err := tree.Build(cat, schemas)
				if err != nil {
					report.Issues = append(report.Issues, err.Error())
				} else {
					if err := t.Check(); err != nil {
						report.Issues = append(report.Issues, err.Error())
					}
					if err := publish.Validate(t, home); err != nil {
						report.Issues = append(report.Issues, err.Error())
					}
				}
			}

			hints := []string{}
			if !report.OK() {
				hints = append(hints, "fix the catalog file, then run `handyman check` again")
			}
			if err := writeOut(cmd, app, map[string]any{
				"data":   report,
				"meta":   map[string]any{"ok": report.OK(), "issues": len(report.Issues)},
				"_hints": hints,
			}); err != nil {
				return err
			}
			if fail && !report.OK() {
				return errCheckFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fail, "fail", false, "Exit with non-zero status if issues are found")
	cmd.Flags().StringVar(&home, "home", "", "Require a menu with this key (e.g. Home)")
	return cmd
}
