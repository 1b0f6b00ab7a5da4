// Package cli implements the shelf command line.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrlokans/shelf/internal/config"
	"github.com/mrlokans/shelf/internal/entrypoint"
)

// Build information, set by main from ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

var (
	// Global flags
	envFile string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "shelf",
	Short: "BookLibrary - browse and curate authors, books and chapters",
	Long: `shelf serves a small library catalog of authors, their books and the
books' chapters. Visitors browse; an admin adds, edits and removes entries.

Commands:
  - serve   web UI, JSON API and live event stream
  - browse  terminal browser over the same catalog
  - seed    load a sample catalog
  - sweep   remove records left behind by an interrupted delete
  - user    manage accounts for AUTH_MODE=local`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}
		cfg = config.NewConfig()
		return cfg.Validate()
	},
}

// Execute runs the root command
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (%s)", Version, Commit)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before reading configuration")
}

// withApp opens the configured store for the duration of fn.
func withApp(ctx context.Context, fn func(*entrypoint.App) error) error {
	app, err := entrypoint.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}
