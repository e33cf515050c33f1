package cli

import (
	"fmt"
	"strconv"
	"strings"

	"handyman/internal/store"

	"github.com/spf13/cobra"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change ~/.handyman/config.json",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := store.ConfigPath()
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": app.cfg,
				"meta": map[string]any{"path": path},
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set catalog, schemas, addr, journal or autoCommit",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.cfg
			if cfg == nil {
				cfg = &store.GlobalConfig{}
			}
			if err := setConfigKey(cfg, args[0], args[1]); err != nil {
				return writeErr(cmd, err)
			}
			if err := store.SaveConfig(cfg); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": cfg})
		},
	})
	return cmd
}

func setConfigKey(cfg *store.GlobalConfig, key, value string) error {
	value = strings.TrimSpace(value)
	switch strings.TrimSpace(key) {
	case "catalog":
		cfg.Catalog = value
	case "schemas":
		cfg.Schemas = value
	case "addr":
		cfg.Addr = value
	case "journal":
		cfg.Journal = value
	case "autoCommit":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("autoCommit: %w", err)
		}
		cfg.AutoCommit = b
	default:
		return errNotFound("config key", key)
	}
	return nil
}
