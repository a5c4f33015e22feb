package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/contact-extractor/internal/browser"
	"github.com/jonathan/contact-extractor/internal/config"
	"github.com/jonathan/contact-extractor/internal/db"
	"github.com/jonathan/contact-extractor/internal/pipeline"
	"github.com/jonathan/contact-extractor/internal/server"
	"github.com/jonathan/contact-extractor/internal/server/ratelimit"
	"github.com/jonathan/contact-extractor/internal/snapshot"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the run control HTTP server",
	Long: `Start an HTTP server exposing run control over one page: /ping, /extract, /extract/stream and /runs/{id}.

The page is a live Chrome tab opened on --url, or the snapshots in --snapshots when replaying offline.
Runs are stored when a database URL is configured. Run starts are rate limited per client
(RATE_LIMIT_* environment variables).`,
	RunE: runServe,
}

var (
	serveConfigPath  string
	servePort        int
	serveURL         string
	serveSnapshots   string
	serveHeadless    bool
	serveChromePath  string
	serveVerbose     bool
	serveDatabaseURL string
)

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	serveCmd.Flags().IntVar(&servePort, "port", config.DefaultPort, "Port to listen on")
	serveCmd.Flags().StringVarP(&serveURL, "url", "u", "", "URL of the first result page")
	serveCmd.Flags().StringVarP(&serveSnapshots, "snapshots", "s", "", "Serve runs over a directory of .html snapshots instead of a live page")
	serveCmd.Flags().BoolVar(&serveHeadless, "headless", true, "Run Chrome without a window")
	serveCmd.Flags().StringVar(&serveChromePath, "chrome-path", "", "Path to the Chrome/Chromium binary (optional)")
	serveCmd.Flags().BoolVarP(&serveVerbose, "verbose", "v", false, "Print detailed debug information")
	serveCmd.Flags().StringVar(&serveDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(serveConfigPath, func(c *config.Config) {
		if cmd.Flags().Changed("port") {
			c.Port = servePort
		}
		if cmd.Flags().Changed("verbose") {
			c.Verbose = serveVerbose
		}
		if cmd.Flags().Changed("db-url") {
			c.DatabaseURL = serveDatabaseURL
		}
		applyBrowserFlags(cmd, c, serveURL, serveHeadless, serveChromePath)
	})
	if err != nil {
		return err
	}
	if cfg.URL == "" && serveSnapshots == "" {
		return fmt.Errorf("either --url or --snapshots must be provided")
	}

	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := commandContext(cmd)
	defer stop()

	var page pipeline.Page
	opts := runnerOptions(cfg, logger)
	if serveSnapshots != "" {
		sources, err := snapshot.LoadDir(serveSnapshots)
		if err != nil {
			return err
		}
		replayPage, err := snapshot.New(sources, logger)
		if err != nil {
			return err
		}
		page = replayPage
		opts = replayOptions(cfg, logger)
	} else {
		livePage, err := browser.Launch(ctx, browser.Options{
			Headless:   cfg.IsHeadless(),
			ChromePath: cfg.ChromePath,
			Logger:     logger,
		})
		if err != nil {
			return err
		}
		defer livePage.Close()

		if err := livePage.Navigate(ctx, cfg.URL); err != nil {
			return err
		}
		page = livePage
	}

	limiter := ratelimit.NewLimiter(ratelimit.LoadConfig())
	defer limiter.Stop()

	srvCfg := server.Config{
		Port:      cfg.Port,
		SourceURL: cfg.URL,
		Limiter:   limiter,
		Logger:    logger,
	}
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return err
		}
		defer database.Close()

		if err := database.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		srvCfg.Store = database
		logger.Info("run persistence enabled")
	}

	srv := server.New(pipeline.NewRunner(page, opts), srvCfg)
	return srv.Start(ctx)
}
