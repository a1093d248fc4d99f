package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/trade-hire/internal/config"
	"github.com/jonathan/trade-hire/internal/db"
	"github.com/jonathan/trade-hire/internal/observability"
)

var (
	statsLimit int
	statsJSON  bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show extraction run statistics from the database",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().IntVar(&statsLimit, "limit", 20, "Maximum number of tasks to show")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Print JSON instead of a table")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	stats, err := database.ListRunStats(ctx, statsLimit)
	if err != nil {
		return err
	}
	if statsJSON {
		return writeJSON(cmd.OutOrStdout(), stats)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintRunStats(stats)
	return nil
}
