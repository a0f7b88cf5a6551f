package main

import (
	"errors"
	"fmt"

	"github.com/jpalmerr/alertpop/config"
	"github.com/spf13/cobra"
)

// ackCmd acknowledges alerts by id.
var ackCmd = &cobra.Command{
	Use:   "ack ID...",
	Short: "Acknowledge alerts by id",
	Long: `Mark one or more alerts as read on the server.

Every id is attempted; the command fails if any acknowledgement failed.

Example:
  alertpop ack -c alertpop.yaml 12 13`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAck,
}

func init() {
	rootCmd.AddCommand(ackCmd)
	addConfigFlag(ackCmd)
}

func runAck(cmd *cobra.Command, args []string) error {
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

	var errs []error
	for _, id := range args {
		if err := src.Acknowledge(cmd.Context(), id); err != nil {
			errs = append(errs, fmt.Errorf("alert %s: %w", id, err))
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "acknowledged %s\n", id)
	}
	return errors.Join(errs...)
}
