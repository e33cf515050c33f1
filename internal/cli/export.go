package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"handyman/internal/publish"
	"handyman/internal/store"

	"github.com/spf13/cobra"
)

func newExportCmd(app *App) *cobra.Command {
	var as string
	var to string
	var overwrite bool
	var title string
	var home string
	var imageDir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the catalog as data, a markdown outline, or site partials",
		Long: strings.TrimSpace(`
Export the catalog in one of:
  json, yaml, toml  the catalog records (to stdout, or to the --to file)
  markdown          a navigation outline with offerings per menu
  site              _generated/menu_content.html, _generated/offerings_content.html
                    and site.md under the --to directory
`),
		Example: strings.TrimSpace(`
handyman export --as json > static/data/structure.json
handyman export --as yaml --to site.yaml
handyman export --as site --to ./public --home Home --overwrite
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, _, err := loadTree(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			render := publish.RenderOptions{Title: title, ImageDir: imageDir}

			kind := strings.ToLower(strings.TrimSpace(as))
			switch kind {
			case "site":
				res, err := publish.WriteSite(t, to, publish.WriteOptions{Render: render, Overwrite: overwrite, Home: home})
				if err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, map[string]any{"data": res})
			case "markdown", "md":
				return emit(cmd, app, to, []byte(publish.RenderSiteMarkdown(t, render)), overwrite)
			}

			f, err := store.ParseFormat(kind)
			if err != nil {
				return writeErr(cmd, fmt.Errorf("export: unknown --as %q (json|yaml|toml|markdown|site)", as))
			}
			b, err := store.Encode(f, t.Catalog())
			if err != nil {
				return writeErr(cmd, err)
			}
			return emit(cmd, app, to, b, overwrite)
		},
	}

	cmd.Flags().StringVar(&as, "as", "json", "Export kind (json|yaml|toml|markdown|site)")
	cmd.Flags().StringVar(&to, "to", "", "Output file (directory for --as site); default stdout")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing files")
	cmd.Flags().StringVar(&title, "title", "", "Outline title (markdown/site)")
	cmd.Flags().StringVar(&home, "home", "", "Require a menu with this key (site)")
	cmd.Flags().StringVar(&imageDir, "image-dir", "images", "Prefix for offering images (markdown/site)")
	return cmd
}

// emit writes b to stdout, or to path and reports it.
func emit(cmd *cobra.Command, app *App, path string, b []byte, overwrite bool) error {
	path = strings.TrimSpace(path)
	if path == "" {
		_, err := cmd.OutOrStdout().Write(b)
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return writeErr(cmd, errors.New("file exists (use --overwrite): "+path))
		}
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return writeErr(cmd, err)
	}
	return writeOut(cmd, app, map[string]any{"data": map[string]any{"written": []string{path}}})
}
