package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/singerliu226/AI-resipe/internal/crawling"
	"github.com/singerliu226/AI-resipe/internal/fallback"
	"github.com/singerliu226/AI-resipe/internal/pipeline"
	"github.com/singerliu226/AI-resipe/internal/sources"
	"github.com/singerliu226/AI-resipe/internal/types"
)

const recipesCNFile = "recipes_cn.csv"

var recipesCNCmd = &cobra.Command{
	Use:   "recipes-cn [pages]",
	Short: "Scrape Chinese recipes from the explore listing",
	Long: fmt.Sprintf("Scrape recipe pages linked from the first [pages] explore listing pages "+
		"(default %d) and write %s.", sources.DefaultListingPages, recipesCNFile),
	Args: cobra.MaximumNArgs(1),
	RunE: runRecipesCN,
}

func init() {
	rootCmd.AddCommand(recipesCNCmd)
}

// parsePages reads the optional page count argument.
func parsePages(args []string) (int, error) {
	if len(args) == 0 {
		return sources.DefaultListingPages, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("pages must be a positive integer, got %q", args[0])
	}
	return n, nil
}

func runRecipesCN(cmd *cobra.Command, args []string) error {
	pages, err := parsePages(args)
	if err != nil {
		return err
	}

	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	scraper := sources.NewXiachufang(pages, e.pageGetter(), e.logger)
	scraper.Concurrency = e.cfg.Concurrency
	scraper.Politeness = crawling.Politeness{Min: e.cfg.PolitenessMin, Max: e.cfg.PolitenessMax}

	chain := fallback.New[types.RecipeRecord](e.logger, scraper)
	return e.runJob(cmd.Context(), pipeline.FromChain("recipes-cn", e.cfg.OutputPath(recipesCNFile), chain))
}
