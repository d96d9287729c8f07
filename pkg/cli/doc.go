/*
Package cli provides the building blocks of the synesis command.

Output Formatting:

Diagnostics are printed as text with source excerpts, or as a JSON report
for editors and CI:

	format, err := cli.ParseFormat(flagValue)
	if err != nil {
		return cli.UsageError(err)
	}
	if err := cli.WriteDiagnostics(os.Stdout, res, format, 2); err != nil {
		return err
	}

Exit Codes:

Commands return errors; ExitCode maps them to the process status. 0 means
success, 1 a failed compilation and 2 a usage, configuration or project
layout error:

	os.Exit(cli.ExitCode(rootCmd.Execute()))

Progress Reporting:

	progress := cli.NewProgressReporter(os.Stderr, "Compiling")
	progress.Start(int64(len(projects)))
	for i, p := range projects {
		compile(p)
		progress.Update(int64(i + 1))
	}
	progress.Finish()

Signal Handling:

	ctx, stop := cli.SetupSignalHandler()
	defer stop()
*/
package cli
