package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	envFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hoops",
	Short: "Declarative CRUD resources over HTTP",
	Long: `hoops serves declared resources over HTTP with validation,
content negotiation, OAuth 1.0a signatures and a uniform response envelope.

Quick start:
  hoops migrate      # Create the database schema
  hoops serve        # Start the API server

Management:
  hoops credentials  # Manage OAuth consumer credentials
  hoops sign         # Sign a request URL for testing
  hoops validate     # Validate configuration`,
	SilenceUsage:      true,
	PersistentPreRunE: loadEnvFile,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "hoops.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "file of HOOPS_* variables loaded before the config")
}

// loadEnvFile loads envFile into the process environment. Variables that
// are already set win. A missing default file is not an error.
func loadEnvFile(cmd *cobra.Command, args []string) error {
	if envFile == "" {
		return nil
	}
	err := godotenv.Load(envFile)
	if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("env-file") {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", envFile, err)
	}
	return nil
}
