package main

import (
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check what the ingredients table holds",
	Long:  "Print the number of ingredients in DATABASE_URL, how many carry an energy value, and a few sample rows.",
	Args:  cobra.NoArgs,
	RunE:  runVerify,
}

var verifySample int

func init() {
	verifyCmd.Flags().IntVarP(&verifySample, "sample", "n", 5, "Number of sample rows to show")

	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if e.store == nil {
		return errNoStore
	}

	report, err := e.store.ReportIngredients(cmd.Context(), verifySample)
	if err != nil {
		return err
	}
	e.printer.PrintIngredientReport(report)
	return nil
}
