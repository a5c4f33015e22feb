// Package main provides the entry point for the contact_agent CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "contact_agent",
	Short: "Contact extraction from paginated people-search results",
	Long: `contact_agent walks the pages of a people-search result listing, extracts one
structured contact per profile card and exports the de-duplicated dataset as JSON.

Runs can drive a live Chrome tab, replay saved page snapshots, or be served over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
