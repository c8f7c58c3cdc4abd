package main

import (
	"fmt"

	"github.com/hyperjump/kaiwa/internal/cli"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status and store statistics",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	format, err := outputFlag()
	if err != nil {
		return err
	}
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	c := newClient(cfg)
	st, err := c.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}
	stats, err := c.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("stats failed: %w", err)
	}
	if format == cli.OutputText {
		cmd.Printf("Status:           %s\n", st.Status)
	}
	return cli.WriteStats(cmd.OutOrStdout(), stats, format)
}
