// Package main is the entry point for the alertpop CLI.
//
// alertpop polls an alerts server and shows each pending alert once, in the
// terminal, as desktop notifications, or on a local web page.
//
// Usage:
//
//	alertpop watch -c alertpop.yaml      # Show alerts until interrupted
//	alertpop list -c alertpop.yaml       # Print pending alerts once
//	alertpop ack -c alertpop.yaml 12 13  # Acknowledge alerts by id
//	alertpop mock --seed                 # Run an in-memory alerts server
//	alertpop validate -c alertpop.yaml   # Validate configuration
//	alertpop version                     # Show version info
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/jpalmerr/alertpop/config"
	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const defaultEnvFile = ".env"

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "alertpop",
	Short: "Pop-up alerts for pending server notifications",
	Long: `alertpop polls an alerts server for pending notifications and shows
each one exactly once as a transient card. Normal-priority cards go away
after 15 seconds; high-priority cards stay until dismissed. Dismissing a
card acknowledges it on the server.

Quick start:
  1. Create a config file (alertpop.yaml)
  2. Run: alertpop watch -c alertpop.yaml

Example config:
  server:
    base_url: https://ats.example.com
  session:
    cookie: role
    value: ${ALERTPOP_ROLE:-}
  display:
    sound: chime
    web:
      enabled: true`,
	SilenceUsage:      true,
	PersistentPreRunE: loadEnvFile,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this alertpop binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "alertpop %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().String("env-file", "", "dotenv file to load before reading config (default .env if present)")
	rootCmd.AddCommand(versionCmd)
}

// loadEnvFile loads variables from --env-file, or from .env when it exists.
// Variables already set in the environment win.
func loadEnvFile(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("env-file")
	if path == "" {
		if err := godotenv.Load(defaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", defaultEnvFile, err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// addConfigFlag registers the required -c/--config flag on cmd.
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = cmd.MarkFlagRequired("config")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
