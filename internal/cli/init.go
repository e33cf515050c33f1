package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"handyman/internal/model"
	"handyman/internal/schema"
	"handyman/internal/store"

	"github.com/spf13/cobra"
)

func newInitCmd(app *App) *cobra.Command {
	var dir string
	var force bool
	var withSchemas bool
	var setDefault bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a sample catalog (and optionally the default schemas)",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir = strings.TrimSpace(dir)
			if dir == "" {
				dir = "."
			}
			path := strings.TrimSpace(app.Catalog)
			if path == "" {
				path = filepath.Join(dir, store.DefaultCatalogName)
			}
			if !force {
				if _, err := os.Stat(path); err == nil {
					return writeErr(cmd, errors.New("catalog exists (use --force): "+path))
				}
			}

			st, err := store.New(path, store.Options{Logger: app.logger})
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := st.Write(cmd.Context(), store.SampleCatalog()); err != nil {
				return writeErr(cmd, err)
			}
			written := []string{st.Path}

			if withSchemas {
				schemaDir := filepath.Join(dir, "schemas")
				if err := os.MkdirAll(schemaDir, 0o755); err != nil {
					return writeErr(cmd, err)
				}
				for _, t := range model.NodeTypes {
					b, err := schema.DefaultDocument(t)
					if err != nil {
						return writeErr(cmd, err)
					}
					p := filepath.Join(schemaDir, string(t)+".json")
					if err := os.WriteFile(p, b, 0o644); err != nil {
						return writeErr(cmd, fmt.Errorf("writing schema: %w", err))
					}
					written = append(written, p)
				}
			}

			if setDefault {
				cfg := app.cfg
				if cfg == nil {
					cfg = &store.GlobalConfig{}
				}
				cfg.Catalog = st.Path
				if err := store.SaveConfig(cfg); err != nil {
					return writeErr(cmd, err)
				}
			}

			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"catalog": st.Path,
					"written": written,
				},
				"_hints": []string{"handyman serve --catalog " + st.Path},
			})
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "Directory to initialize")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing catalog")
	cmd.Flags().BoolVar(&withSchemas, "write-schemas", false, "Also write the default schemas to <dir>/schemas")
	cmd.Flags().BoolVar(&setDefault, "set-default", false, "Record the catalog as the default in config.json")
	return cmd
}
