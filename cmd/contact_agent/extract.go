package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/contact-extractor/internal/browser"
	"github.com/jonathan/contact-extractor/internal/config"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract contacts from a live result listing",
	Long: `Opens the result listing in Chrome, walks its pages and extracts one contact per profile card.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runExtract,
}

var (
	extractFlags      runFlags
	extractURL        string
	extractHeadless   bool
	extractChromePath string
)

func init() {
	extractFlags.register(extractCmd)
	extractCmd.Flags().StringVarP(&extractURL, "url", "u", "", "URL of the first result page")
	extractCmd.Flags().BoolVar(&extractHeadless, "headless", true, "Run Chrome without a window")
	extractCmd.Flags().StringVar(&extractChromePath, "chrome-path", "", "Path to the Chrome/Chromium binary (optional)")

	rootCmd.AddCommand(extractCmd)
}

// applyBrowserFlags copies the explicitly set browser flags onto cfg.
func applyBrowserFlags(cmd *cobra.Command, cfg *config.Config, url string, headless bool, chromePath string) {
	if cmd.Flags().Changed("url") {
		cfg.URL = url
	}
	if cmd.Flags().Changed("headless") {
		cfg.Headless = &headless
	}
	if cmd.Flags().Changed("chrome-path") {
		cfg.ChromePath = chromePath
	}
}

func runExtract(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(extractFlags.configPath, func(c *config.Config) {
		extractFlags.apply(cmd, c)
		applyBrowserFlags(cmd, c, extractURL, extractHeadless, extractChromePath)
	})
	if err != nil {
		return err
	}
	if cfg.URL == "" {
		return fmt.Errorf("--url must be provided (via flag or config)")
	}

	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := commandContext(cmd)
	defer stop()

	page, err := browser.Launch(ctx, browser.Options{
		Headless:   cfg.IsHeadless(),
		ChromePath: cfg.ChromePath,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer page.Close()

	if err := page.Navigate(ctx, cfg.URL); err != nil {
		return err
	}

	_, err = executeRun(ctx, os.Stdout, page, runnerOptions(cfg, logger), runRequest{
		Config:    cfg,
		SourceURL: cfg.URL,
		OutPath:   extractFlags.out,
	})
	return err
}
