package cli

import (
	"errors"
	"os"
	"strings"

	"handyman/internal/store"

	"github.com/spf13/cobra"
)

func newHistoryCmd(app *App) *cobra.Command {
	var journal string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded saves from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := openJournalForRead(cmd, app, journal)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer j.Close()

			entries, err := j.List(cmd.Context(), limit)
			if err != nil {
				return writeErr(cmd, err)
			}
			// The listing omits batch bodies; use `history show`.
			rows := make([]map[string]any, 0, len(entries))
			for _, e := range entries {
				row := map[string]any{
					"batchId": e.BatchID,
					"catalog": e.Catalog,
					"savedAt": e.SavedAt,
					"status":  e.Status,
					"changes": e.Changes,
				}
				if e.Error != "" {
					row["error"] = e.Error
				}
				rows = append(rows, row)
			}
			return writeOut(cmd, app, map[string]any{
				"data": rows,
				"meta": map[string]any{"count": len(rows), "limit": limit},
			})
		},
	}
	cmd.PersistentFlags().StringVar(&journal, "journal", "", "Save journal path (default: config journal, then ~/.handyman/journal.sqlite)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries (0 = all)")

	show := &cobra.Command{
		Use:   "show <batch-id>",
		Short: "Show one recorded save, including its changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := openJournalForRead(cmd, app, journal)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer j.Close()

			id := strings.TrimSpace(args[0])
			e, err := j.Get(cmd.Context(), id)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return writeErr(cmd, errNotFound("batch", id))
				}
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": e})
		},
	}
	cmd.AddCommand(show)
	return cmd
}

func openJournalForRead(cmd *cobra.Command, app *App, flag string) (*store.Journal, error) {
	path, err := journalPath(app, flag)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.New("no save journal at " + path + "; run `handyman serve` and save first")
		}
		return nil, err
	}
	return store.OpenJournal(cmd.Context(), path)
}
