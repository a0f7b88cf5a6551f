package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/jpalmerr/alertpop"
	"github.com/jpalmerr/alertpop/config"
	"github.com/spf13/cobra"
)

// listCmd prints pending alerts once.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print pending alerts",
	Long: `Fetch pending alerts from the server once and print them.

Nothing is acknowledged. Use --json for machine-readable output.

Example:
  alertpop list -c alertpop.yaml
  alertpop list -c alertpop.yaml --json`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	addConfigFlag(listCmd)
	listCmd.Flags().Bool("json", false, "print alerts as JSON")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, closeLog := newLogger(cfg.Log, cmd.ErrOrStderr())
	defer func() { _ = closeLog() }()

	src, err := config.BuildSource(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build source: %w", err)
	}
	defer src.Close()

	alerts, err := src.Pending(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to fetch alerts: %w", err)
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(alerts)
	}

	if len(alerts) == 0 {
		fmt.Fprintln(out, "No pending alerts")
		return nil
	}

	labels := config.BuildLabels(cfg)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tPRIORITY\tAGE\tMESSAGE")
	for _, a := range alerts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			a.ID, labels.Kind(a.Kind).Label, a.Priority, age(a), a.Message)
	}
	return tw.Flush()
}

func age(a alertpop.Alert) string {
	if a.CreatedAt.IsZero() {
		return "-"
	}
	return alertpop.FormatAge(time.Now(), a.CreatedAt)
}
