/*
Package cli provides the output formatting, exit codes and signal handling
shared by the custodian commands.

Output Formatting:

Command results render as aligned text tables or JSON:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, cli.BackupList(infos)); err != nil {
		return err
	}

Exit Codes:

ExitCode maps command errors to process exit codes so scripts can tell a
busy lock (3) or a missing manifest (4) from a generic failure (1).

Signal Handling:

	ctx, stop := cli.SetupSignalHandler()
	defer stop()
*/
package cli
