package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"handyman/internal/format"
	"handyman/internal/schema"
	"handyman/internal/store"
	"handyman/internal/tree"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

type App struct {
	Catalog  string
	Schemas  string
	Format   string
	Pretty   bool
	LogLevel string

	cfg    *store.GlobalConfig
	logger *slog.Logger
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "handyman",
		Short:        "Edit a site's menus and offerings in the browser",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Create a sample catalog in the current directory
  handyman init

  # Edit it in the browser
  handyman serve --open

  # Shortcut for: handyman serve --catalog site_structure.toml
  handyman site_structure.toml

  # Inspect and export
  handyman tree
  handyman check
  handyman export --as site --to ./public
`),
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := store.LoadConfig()
		if err != nil {
			return writeErr(cmd, fmt.Errorf("loading config: %w", err))
		}
		app.cfg = cfg

		var level slog.Level
		if err := level.UnmarshalText([]byte(app.LogLevel)); err != nil {
			return writeErr(cmd, fmt.Errorf("invalid --log-level %q", app.LogLevel))
		}
		app.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

		if !cmd.Flags().Changed("pretty") && os.Getenv("HANDYMAN_PRETTY") == "" {
			app.Pretty = isTerminal(cmd.OutOrStdout())
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.Catalog, "catalog", envOr("HANDYMAN_CATALOG", ""), "Catalog file (.toml, .yaml, .json); default: config, then ./site_structure.toml or a parent dir")
	cmd.PersistentFlags().StringVar(&app.Schemas, "schemas", envOr("HANDYMAN_SCHEMAS", ""), "Directory with menu/offering schema documents (default: built-in)")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("HANDYMAN_FORMAT", "json"), "Output format (json|yaml|toml)")
	cmd.PersistentFlags().BoolVar(&app.Pretty, "pretty", os.Getenv("HANDYMAN_PRETTY") != "", "Pretty-print JSON output (default: when stdout is a terminal)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("HANDYMAN_LOG_LEVEL", "info"), "Log level (debug|info|warn|error)")

	cmd.AddCommand(newInitCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newTreeCmd(app))
	cmd.AddCommand(newCheckCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newPreviewCmd(app))
	cmd.AddCommand(newSchemaCmd(app))
	cmd.AddCommand(newHistoryCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

// resolveCatalog picks the catalog file:
// 1) --catalog / HANDYMAN_CATALOG
// 2) config.json catalog
// 3) site_structure.toml in the working dir or a parent
func resolveCatalog(app *App) (string, error) {
	if p := strings.TrimSpace(app.Catalog); p != "" {
		return p, nil
	}
	if app.cfg != nil && strings.TrimSpace(app.cfg.Catalog) != "" {
		app.Catalog = app.cfg.Catalog
		return app.Catalog, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if p, ok := store.Discover(wd); ok {
		app.Catalog = p
		return p, nil
	}
	return "", errors.New("no catalog found; pass --catalog or run `handyman init`")
}

func schemasDir(app *App) string {
	if d := strings.TrimSpace(app.Schemas); d != "" {
		return d
	}
	if app.cfg != nil {
		return strings.TrimSpace(app.cfg.Schemas)
	}
	return ""
}

func loadSchemas(app *App) (*schema.Set, error) {
	return schema.LoadDir(schemasDir(app))
}

func openStore(app *App, opts store.Options) (*store.Store, error) {
	path, err := resolveCatalog(app)
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = app.logger
	}
	return store.New(path, opts)
}

// loadTree reads the catalog and builds the node tree.
func loadTree(ctx context.Context, app *App) (*tree.Tree, *store.Store, error) {
	st, err := openStore(app, store.Options{})
	if err != nil {
		return nil, nil, err
	}
	schemas, err := loadSchemas(app)
	if err != nil {
		return nil, nil, err
	}
	cat, err := st.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	t, err := tree.Build(cat, schemas)
	if err != nil {
		return nil, nil, err
	}
	return t, st, nil
}

func journalPath(app *App, flag string) (string, error) {
	if p := strings.TrimSpace(flag); p != "" {
		return p, nil
	}
	if app.cfg != nil && strings.TrimSpace(app.cfg.Journal) != "" {
		return app.cfg.Journal, nil
	}
	return store.DefaultJournalPath()
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.Pretty)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
