package main

import (
	"github.com/spf13/cobra"

	"github.com/singerliu226/AI-resipe/internal/fallback"
	"github.com/singerliu226/AI-resipe/internal/pipeline"
	"github.com/singerliu226/AI-resipe/internal/sources"
	"github.com/singerliu226/AI-resipe/internal/types"
)

const nutritionFile = "nutrition_cn.csv"

var nutritionCmd = &cobra.Command{
	Use:   "nutrition",
	Short: "Collect the Chinese food composition table",
	Long: "Collect the Chinese food composition table from the GitHub dataset, " +
		"falling back to the Foodwake table when it yields nothing, and write " + nutritionFile + ".",
	Args: cobra.NoArgs,
	RunE: runNutrition,
}

func init() {
	rootCmd.AddCommand(nutritionCmd)
}

func runNutrition(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	client := e.client()

	primary := sources.NewNutritionGit(client, e.logger)
	primary.Token = e.cfg.GitHubToken
	primary.Concurrency = e.cfg.Concurrency

	chain := fallback.New[types.NutritionRecord](e.logger,
		primary,
		sources.NewFoodwake(client, e.logger),
	)
	return e.runJob(cmd.Context(), pipeline.FromChain("nutrition", e.cfg.OutputPath(nutritionFile), chain))
}
