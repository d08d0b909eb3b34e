package main

import (
	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded crawl runs",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

var (
	runsJob   string
	runsLimit int
)

func init() {
	runsCmd.Flags().StringVar(&runsJob, "job", "", "Only show runs of this job")
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "Maximum number of runs to show")

	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if e.store == nil {
		return errNoStore
	}

	runs, err := e.store.ListRuns(cmd.Context(), runsJob, runsLimit)
	if err != nil {
		return err
	}
	e.printer.PrintRuns(runs)
	return nil
}
