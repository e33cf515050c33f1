package cli

import (
	"strings"

	"handyman/internal/model"

	"github.com/spf13/cobra"
)

func newSchemaCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema [type]",
		Short: "Show the field schema for menus and offerings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := loadSchemas(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			types := model.NodeTypes
			if len(args) == 1 {
				t, ok := model.ParseNodeType(args[0])
				if !ok {
					return writeErr(cmd, errNotFound("node type", strings.TrimSpace(args[0])))
				}
				types = []model.NodeType{t}
			}
			data := map[string]any{}
			for _, t := range types {
				sc, err := set.Schema(t)
				if err != nil {
					return writeErr(cmd, err)
				}
				data[string(t)] = sc.Document()
			}
			return writeOut(cmd, app, map[string]any{
				"data": data,
				"meta": map[string]any{"dir": schemasDir(app)},
			})
		},
	}
	return cmd
}
