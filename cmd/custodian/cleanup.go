package main

import (
	"giftpoints/custodian/pkg/cli"
	"giftpoints/custodian/pkg/config"
	"giftpoints/custodian/pkg/telemetry/logging"

	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Run retention once",
	Long: `Delete expired records once, auditing each record first.

The run shares its lock with the scheduler, so it fails with exit code 3 while
a scheduled run is in progress.

Examples:
  custodian cleanup
  custodian cleanup -o json`,
	Args: cobra.NoArgs,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	out, err := formatter()
	if err != nil {
		return err
	}

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	a, err := newApp(ctx, config.GetConfig())
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.pruner.Run(logging.WithTrigger(ctx, logging.TriggerManual))
	if err != nil {
		return cli.NewCommandError("cleanup", err)
	}

	view := cli.RetentionReport(*report)
	return out.FormatTo(cmd.OutOrStdout(), &view)
}
