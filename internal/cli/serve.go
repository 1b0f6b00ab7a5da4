package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrlokans/shelf/internal/entrypoint"
)

var (
	servePort int32
	serveHost string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web UI and JSON API",
	Long: `Serve the web UI, the JSON API and the live event stream until
interrupted. Flags override PORT and HOST from the environment.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("port") {
			cfg.HTTP.Port = servePort
		}
		if cmd.Flags().Changed("host") {
			cfg.HTTP.Host = serveHost
		}
		return entrypoint.Run(cfg, Version)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int32Var(&servePort, "port", 8188, "Port to listen on")
	serveCmd.Flags().StringVar(&serveHost, "host", "0.0.0.0", "Interface to bind")
}
