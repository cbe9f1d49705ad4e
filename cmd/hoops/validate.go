package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/artpar/hoops/adapters/sqldb"
	"github.com/artpar/hoops/config"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration before deployment",
	Long: `Validate the hoops configuration file.

Checks:
  - YAML syntax is valid
  - Values are in range
  - Database answers (optional)

Examples:
  hoops validate
  hoops validate --config /etc/hoops/config.yaml --check-database`,
	RunE: runValidate,
}

var validateCheckDatabase bool

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateCheckDatabase, "check-database", false, "check that the database answers")
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Validating %s...\n\n", cfgFile)

	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Fprintf(out, "  %s Config file exists\n", crossMark)
		return fmt.Errorf("config file not found: %s", cfgFile)
	}
	fmt.Fprintf(out, "  %s Config file exists\n", checkMark)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(out, "  %s Config valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Fprintf(out, "  %s Config valid\n", checkMark)

	fmt.Fprintf(out, "  %s Listen: %s\n", checkMark, cfg.Server.Addr())
	fmt.Fprintf(out, "  %s Database: %s (%s)\n", checkMark, cfg.Database.DSN, cfg.Database.Driver)
	fmt.Fprintf(out, "  %s Auth: %s\n", checkMark, authSummary(cfg.Auth))
	fmt.Fprintf(out, "  %s Default format: %s\n", checkMark, cfg.API.DefaultFormat)

	if validateCheckDatabase {
		if err := checkDatabase(cfg.Database); err != nil {
			fmt.Fprintf(out, "  %s Database reachable\n", crossMark)
			fmt.Fprintf(out, "      Error: %v\n", err)
		} else {
			fmt.Fprintf(out, "  %s Database reachable\n", checkMark)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration is valid.")
	return nil
}

func authSummary(cfg config.AuthConfig) string {
	if !cfg.Enabled {
		return "disabled"
	}
	return fmt.Sprintf("oauth 1.0a, skew %s, nonce store %s", cfg.Skew, cfg.NonceStore)
}

func checkDatabase(cfg config.DatabaseConfig) error {
	db, err := sqldb.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return db.HealthCheck(ctx)
}

var checkMark, crossMark = marks(os.Stdout)

// marks returns the status marks, colored when f is a terminal.
func marks(f *os.File) (check, cross string) {
	if term.IsTerminal(int(f.Fd())) {
		return "\033[32m✓\033[0m", "\033[31m✗\033[0m"
	}
	return "✓", "✗"
}
