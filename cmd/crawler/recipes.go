package main

import (
	"github.com/spf13/cobra"

	"github.com/singerliu226/AI-resipe/internal/fallback"
	"github.com/singerliu226/AI-resipe/internal/pipeline"
	"github.com/singerliu226/AI-resipe/internal/sources"
	"github.com/singerliu226/AI-resipe/internal/types"
)

const recipesFile = "recipes.csv"

var recipesCmd = &cobra.Command{
	Use:   "recipes",
	Short: "Collect recipes from TheMealDB",
	Long:  "Query TheMealDB search API once per initial letter a-z and write " + recipesFile + ".",
	Args:  cobra.NoArgs,
	RunE:  runRecipes,
}

func init() {
	rootCmd.AddCommand(recipesCmd)
}

func runRecipes(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	api := sources.NewMealDB(e.client(), e.logger)
	api.Concurrency = e.cfg.Concurrency

	chain := fallback.New[types.APIRecipeRecord](e.logger, api)
	return e.runJob(cmd.Context(), pipeline.FromChain("recipes", e.cfg.OutputPath(recipesFile), chain))
}
