package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// validateCmd validates a config file without polling.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate an alertpop configuration file without contacting the server.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  alertpop validate -c alertpop.yaml
  alertpop validate --config /etc/alertpop/alertpop.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	addConfigFlag(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var surfaces []string
	if cfg.Display.TerminalEnabled() {
		surfaces = append(surfaces, "terminal")
	}
	if cfg.Display.Desktop {
		surfaces = append(surfaces, "desktop")
	}
	if cfg.Display.Web.Enabled {
		surfaces = append(surfaces, fmt.Sprintf("web :%d", cfg.Display.Web.Port))
	}

	session := "none"
	if cfg.Session.Cookie != "" {
		session = cfg.Session.Cookie
		if cfg.Session.Value == "" {
			session += " (empty, alerts disabled)"
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Server:        %s\n", cfg.Server.BaseURL)
	fmt.Fprintf(out, "  Poll interval: %s\n", cfg.PollInterval.Duration())
	fmt.Fprintf(out, "  Auto-dismiss:  %s\n", cfg.AutoDismiss.Duration())
	fmt.Fprintf(out, "  Session:       %s\n", session)
	fmt.Fprintf(out, "  Display:       %v\n", surfaces)
	fmt.Fprintf(out, "  Custom kinds:  %d\n", len(cfg.Kinds))

	return nil
}
