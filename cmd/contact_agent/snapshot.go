package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/contact-extractor/internal/browser"
	"github.com/jonathan/contact-extractor/internal/config"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Save annotated snapshots of a live result listing",
	Long: `Runs a live extraction and saves the annotated markup of every visited page as
page-001.html, page-002.html, ... in --dir. The directory can be replayed later with
'contact_agent replay --snapshots <dir>'.`,
	RunE: runSnapshot,
}

var (
	snapshotFlags      runFlags
	snapshotDir        string
	snapshotURL        string
	snapshotHeadless   bool
	snapshotChromePath string
)

func init() {
	snapshotFlags.register(snapshotCmd)
	snapshotCmd.Flags().StringVarP(&snapshotDir, "dir", "d", "", "Directory to write snapshots to (required)")
	snapshotCmd.Flags().StringVarP(&snapshotURL, "url", "u", "", "URL of the first result page")
	snapshotCmd.Flags().BoolVar(&snapshotHeadless, "headless", true, "Run Chrome without a window")
	snapshotCmd.Flags().StringVar(&snapshotChromePath, "chrome-path", "", "Path to the Chrome/Chromium binary (optional)")

	if err := snapshotCmd.MarkFlagRequired("dir"); err != nil {
		panic(fmt.Sprintf("failed to mark dir flag as required: %v", err))
	}

	rootCmd.AddCommand(snapshotCmd)
}

// snapshotPath is the file a page's snapshot is written to.
func snapshotPath(dir string, page int) string {
	return filepath.Join(dir, fmt.Sprintf("page-%03d.html", page))
}

// snapshotWriter returns an OnSnapshot hook saving every page into dir.
// Write failures are logged and do not stop the run.
func snapshotWriter(dir string, logger *zap.Logger) func(page int, html, pageURL string) {
	return func(page int, html, pageURL string) {
		path := snapshotPath(dir, page)
		if err := os.WriteFile(path, []byte(html), 0644); err != nil {
			logger.Warn("failed to write snapshot", zap.Int("page", page), zap.String("path", path), zap.Error(err))
			return
		}
		logger.Info("saved snapshot", zap.Int("page", page), zap.String("path", path), zap.String("url", pageURL))
	}
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(snapshotFlags.configPath, func(c *config.Config) {
		snapshotFlags.apply(cmd, c)
		applyBrowserFlags(cmd, c, snapshotURL, snapshotHeadless, snapshotChromePath)
	})
	if err != nil {
		return err
	}
	if cfg.URL == "" {
		return fmt.Errorf("--url must be provided (via flag or config)")
	}

	if err := os.MkdirAll(snapshotDir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
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

	report, err := executeRun(ctx, os.Stdout, page, runnerOptions(cfg, logger), runRequest{
		Config:     cfg,
		SourceURL:  cfg.URL,
		OutPath:    snapshotFlags.out,
		OnSnapshot: snapshotWriter(snapshotDir, logger),
	})
	if err != nil {
		return err
	}

	fmt.Printf("Saved %d snapshots to %s\n", report.TotalPages, snapshotDir)
	return nil
}
