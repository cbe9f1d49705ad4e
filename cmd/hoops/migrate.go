package main

import (
	"fmt"

	"github.com/artpar/hoops/adapters/sqldb"
	"github.com/artpar/hoops/config"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long: `Create or upgrade the database schema.

Migrations are embedded in the binary and applied in order. Applied
versions are recorded and skipped on later runs. hoops serve migrates
on startup as well.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	db, cfg, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "%s Database %s (%s) is up to date\n", checkMark, cfg.DSN, cfg.Driver)
	return nil
}

// openDatabase opens and migrates the configured database. The config
// file is optional; HOOPS_* variables are used without one.
func openDatabase() (*sqldb.DB, config.DatabaseConfig, error) {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return nil, config.DatabaseConfig{}, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := sqldb.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, cfg.Database, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, cfg.Database, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, cfg.Database, nil
}
