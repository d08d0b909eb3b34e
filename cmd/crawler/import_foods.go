package main

import (
	"github.com/spf13/cobra"

	"github.com/singerliu226/AI-resipe/internal/ingestion"
)

var importFoodsCmd = &cobra.Command{
	Use:   "import-foods [csv]",
	Short: "Load a nutrition CSV into the ingredients table",
	Long: "Read a nutrition CSV (default: " + nutritionFile + " in the output directory) and upsert " +
		"every named row into the ingredients table of DATABASE_URL.",
	Args: cobra.MaximumNArgs(1),
	RunE: runImportFoods,
}

func init() {
	rootCmd.AddCommand(importFoodsCmd)
}

func runImportFoods(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if e.store == nil {
		return errNoStore
	}

	path := e.cfg.OutputPath(nutritionFile)
	if len(args) == 1 {
		path = args[0]
	}

	summary, err := ingestion.ImportFoods(cmd.Context(), path, e.store, e.logger)
	if err != nil {
		return err
	}
	e.printer.PrintImport(path, summary)
	return nil
}
