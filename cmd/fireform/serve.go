package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/fireform/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the FireForm server",
	Long: `Start the FireForm HTTP server.

The server waits (up to llm.ready_timeout_seconds) for the inference service
in the background; extraction endpoints answer 503 until it responds.
Changes to the llm section of the config file are applied without a restart.

The server provides:
  - /health        - Basic server health check
  - /ready         - Readiness check (includes the inference service)
  - /api/extract   - Extract fields from a transcript
  - /api/fill      - Fill a PDF form
  - /api/render    - Render a LaTeX template
  - /api/templates - Manage stored templates
  - /swagger.json  - OpenAPI spec

Examples:
  fireform serve                    # Start on default port 8080
  fireform serve --port 3000        # Start on custom port
  fireform serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := loadEnv(os.Stdout)
		if err != nil {
			return err
		}
		if err := e.home.EnsureExists(); err != nil {
			return err
		}
		if e.config.ConfigFile() != "" {
			e.config.WatchConfig()
			e.logger.Info("watching config", "file", e.config.ConfigFile())
		}

		srv, err := server.New(server.Config{
			Host:          serveHost,
			Port:          servePort,
			ConfigManager: e.config,
			Home:          e.home,
			Logger:        e.logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default: server.host)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default: server.port)")

	rootCmd.AddCommand(serveCmd)
}
