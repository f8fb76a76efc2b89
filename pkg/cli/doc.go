/*
Package cli provides command-line interface utilities for ganymede.

The cli package includes output formatters, tabular report rendering, and
common CLI helpers used by the ganymede command.

Output Formatting:

The cli package supports multiple output formats (text, JSON) for displaying
command results:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, result); err != nil {
		return err
	}

Tables:

Status and metrics reports are structured tables; the row/column schema is
part of the control-plane contract and the Table type preserves it:

	table := cli.NewTable("Worker", "pid", "run state", "answer")
	table.AddRow("0", "1234", "RUNNING", "ok")
	table.WriteTo(os.Stdout)

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx := cli.SetupSignalHandler()
*/
package cli
