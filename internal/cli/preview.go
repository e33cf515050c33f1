package cli

import (
	"fmt"
	"os"
	"strings"

	"handyman/internal/publish"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

func newPreviewCmd(app *App) *cobra.Command {
	var width int
	var style string
	var title string

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render the site outline in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, _, err := loadTree(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			md := publish.RenderSiteMarkdown(t, publish.RenderOptions{Title: title})
			out, err := renderTerminalMarkdown(md, previewStyle(cmd, style), width)
			if err != nil {
				return writeErr(cmd, err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}

	cmd.Flags().IntVar(&width, "width", 80, "Wrap width")
	cmd.Flags().StringVar(&style, "style", envOr("HANDYMAN_MARKDOWN_STYLE", ""), "Glamour style (dark|light|notty|ascii); default: dark on a terminal, notty otherwise")
	cmd.Flags().StringVar(&title, "title", "", "Outline title")
	return cmd
}

func previewStyle(cmd *cobra.Command, style string) string {
	if s := strings.TrimSpace(style); s != "" {
		return s
	}
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" || !isTerminal(cmd.OutOrStdout()) {
		return "notty"
	}
	return "dark"
}

// renderTerminalMarkdown uses a fixed style: auto-detection can block on
// terminal background queries.
func renderTerminalMarkdown(md string, style string, width int) (string, error) {
	if width < 10 {
		width = 10
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	out, err := r.Render(md)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n"), nil
}
