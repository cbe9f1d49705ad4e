package main

import (
	"fmt"

	"github.com/artpar/hoops/bootstrap"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Start the hoops API server.

The server will:
  - Load configuration from hoops.yaml (or --config)
  - Or load configuration from HOOPS_* environment variables
  - Open and migrate the database
  - Serve every registered resource until SIGINT or SIGTERM

A config file is watched for changes and reloaded on SIGHUP.

Environment variables (for container deployments):
  HOOPS_DATABASE_DRIVER     - sqlite or postgres (default: sqlite)
  HOOPS_DATABASE_DSN        - Database path or URL (default: hoops.db)
  HOOPS_SERVER_PORT         - Server port (default: 8080)
  HOOPS_AUTH_ENABLED        - Require OAuth signatures
  HOOPS_LOG_LEVEL           - Log level: debug, info, warn, error

Examples:
  hoops serve
  hoops serve --config /etc/hoops/config.yaml
  HOOPS_API_SAMPLE_RESOURCES=true hoops serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	holder, logger, err := bootstrap.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if holder.Path() == "" {
		logger.Info().Msg("running with environment variables (no config file)")
	}

	app, err := bootstrap.NewWithOptions(holder, logger, bootstrap.Options{Version: version})
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Run (blocks until shutdown)
	return app.Run()
}
