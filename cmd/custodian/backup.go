package main

import (
	"fmt"

	"giftpoints/custodian/pkg/cli"
	"giftpoints/custodian/pkg/config"
	"giftpoints/custodian/pkg/telemetry/logging"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Create, list and restore backups",
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Take a backup now",
	Args:  cobra.NoArgs,
	RunE:  runBackupCreate,
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups, newest first",
	Args:  cobra.NoArgs,
	RunE:  runBackupList,
}

var restoreFlags struct {
	actor string
	yes   bool
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <name>",
	Short: "Replace the record store contents with a backup",
	Long: `Replace every collection captured in the named backup with its records.

Each collection is emptied and refilled; collections that could not be read
when the backup was taken are left untouched. An audit entry is recorded
before each collection is replaced.

Examples:
  custodian backup restore backup_2024-06-15_02-00-00.json --yes --actor alice`,
	Args: cobra.ExactArgs(1),
	RunE: runBackupRestore,
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupCreateCmd, backupListCmd, backupRestoreCmd)

	backupRestoreCmd.Flags().StringVar(&restoreFlags.actor, "actor", "", "person performing the restore, recorded in audit entries")
	backupRestoreCmd.Flags().BoolVarP(&restoreFlags.yes, "yes", "y", false, "confirm replacing the current data")
}

func runBackupCreate(cmd *cobra.Command, args []string) error {
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

	result, err := a.backups.Create(logging.WithTrigger(ctx, logging.TriggerManual))
	if err != nil {
		return cli.NewCommandError("backup create", err)
	}

	view := cli.BackupResult(*result)
	return out.FormatTo(cmd.OutOrStdout(), &view)
}

func runBackupList(cmd *cobra.Command, args []string) error {
	out, err := formatter()
	if err != nil {
		return err
	}

	// Listing reads the backup directory only.
	cfg := config.GetConfig()
	infos, err := newManagerForListing(cfg).List()
	if err != nil {
		return cli.NewCommandError("backup list", err)
	}
	return out.FormatTo(cmd.OutOrStdout(), cli.BackupList(infos))
}

func runBackupRestore(cmd *cobra.Command, args []string) error {
	if !restoreFlags.yes {
		return fmt.Errorf("restore replaces the current data; re-run with --yes to confirm")
	}

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

	ctx = logging.WithTrigger(ctx, logging.TriggerManual)
	if restoreFlags.actor != "" {
		ctx = logging.WithActor(ctx, restoreFlags.actor)
	}

	result, err := a.backups.Restore(ctx, args[0])
	if err != nil {
		return cli.NewCommandError("backup restore", err)
	}

	view := cli.RestoreResult(*result)
	return out.FormatTo(cmd.OutOrStdout(), &view)
}
