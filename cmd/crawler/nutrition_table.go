package main

import (
	"github.com/spf13/cobra"

	"github.com/singerliu226/AI-resipe/internal/fallback"
	"github.com/singerliu226/AI-resipe/internal/pipeline"
	"github.com/singerliu226/AI-resipe/internal/sources"
	"github.com/singerliu226/AI-resipe/internal/types"
)

var nutritionTableCmd = &cobra.Command{
	Use:   "nutrition-table",
	Short: "Collect nutrition data from a published spreadsheet",
	Long: "Download the nutrition workbook (NUTRITION_XLS_URL or spreadsheet_url overrides the default), " +
		"map its headers onto the nutrition columns and write " + nutritionFile + ".",
	Args: cobra.NoArgs,
	RunE: runNutritionTable,
}

func init() {
	rootCmd.AddCommand(nutritionTableCmd)
}

func runNutritionTable(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	chain := fallback.New[types.NutritionRecord](e.logger,
		sources.NewSpreadsheet(e.cfg.SpreadsheetURL, e.client(), e.logger),
	)
	return e.runJob(cmd.Context(), pipeline.FromChain("nutrition-table", e.cfg.OutputPath(nutritionFile), chain))
}
