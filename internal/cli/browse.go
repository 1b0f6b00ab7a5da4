package cli

import (
	"io"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mrlokans/shelf/internal/entrypoint"
	"github.com/mrlokans/shelf/internal/tui"
)

var browseLogFile string

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the catalog in the terminal",
	Long: `Open a terminal browser over the catalog: authors, then an author's
books, then a book's chapters. The view follows changes made elsewhere.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Log lines would tear the alternate screen.
		if browseLogFile != "" {
			f, err := tea.LogToFile(browseLogFile, "browse")
			if err != nil {
				return err
			}
			defer f.Close()
		} else {
			log.SetOutput(io.Discard)
		}

		ctx := cmd.Context()
		return withApp(ctx, func(app *entrypoint.App) error {
			return tui.Run(ctx, app.Catalog, cfg.Library.AutoSelect)
		})
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)

	browseCmd.Flags().StringVar(&browseLogFile, "log-file", "", "Write logs to this file while browsing")
}
