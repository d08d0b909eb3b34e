// Package main provides the entry point for the recipe and nutrition crawler.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "crawler",
	Short: "Recipe and nutrition dataset crawler",
	Long: "Crawler collects Chinese food nutrition tables and recipe datasets from public sources, " +
		"falling back between sources, and writes each dataset to a CSV file.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	configPath string
	logLevel   string
	outDir     string
	deadline   string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a JSON5 config file (default: ./crawler.json5 when present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: DEBUG, INFO, WARN or ERROR")
	rootCmd.PersistentFlags().StringVarP(&outDir, "out", "o", "", "Output directory for CSV files")
	rootCmd.PersistentFlags().StringVar(&deadline, "deadline", "", "Overall run deadline, e.g. 10m (0 disables)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
