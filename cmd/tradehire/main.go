// Package main is the tradehire command: the extraction API server and batch extraction tools.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "tradehire",
	Short: "Structured profile extraction for the trades hiring marketplace",
	Long: "tradehire turns resumes, company websites and free-text job descriptions into " +
		"structured profile and posting records, and serves the same pipeline over HTTP.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to JSON config file (values override the environment)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
