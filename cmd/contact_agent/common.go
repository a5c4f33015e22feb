package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/contact-extractor/internal/config"
	"github.com/jonathan/contact-extractor/internal/db"
	"github.com/jonathan/contact-extractor/internal/observability"
	"github.com/jonathan/contact-extractor/internal/pipeline"
	"github.com/jonathan/contact-extractor/internal/schemas"
	"github.com/jonathan/contact-extractor/internal/types"
)

// eventBuffer sizes the stream between a run and the progress printer.
const eventBuffer = 64

// persistTimeout bounds saving a finished run.
const persistTimeout = 30 * time.Second

// runFlags holds the flags shared by the commands that execute a run.
type runFlags struct {
	configPath  string
	pages       int
	out         string
	verbose     bool
	databaseURL string
}

func (f *runFlags) register(cmd *cobra.Command) {
	// Config file flag (processed first)
	cmd.Flags().StringVar(&f.configPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	cmd.Flags().IntVarP(&f.pages, "pages", "p", 0, "Maximum number of result pages to visit (0 = until there is no next page)")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "Path to output contacts JSON file (optional)")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Print detailed debug information")

	// Database URL for run persistence
	cmd.Flags().StringVar(&f.databaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
}

// apply copies the flags that were explicitly set onto cfg.
func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("pages") {
		cfg.PageLimit = f.pages
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = f.verbose
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = f.databaseURL
	}
}

// resolveConfig loads the config file when one is given, lets apply override
// it with command-line values and fills in defaults. DATABASE_URL is used when
// no database URL was configured.
func resolveConfig(configPath string, apply func(*config.Config)) (config.Config, error) {
	var cfg config.Config
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	if apply != nil {
		apply(&cfg)
	}
	cfg = cfg.MergeWithDefaults(config.Default())

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// newLogger builds a development logger in verbose mode and a production
// logger otherwise.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// commandContext returns the command's context, cancelled on SIGINT or SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// runnerOptions translates cfg into runner options for a live page.
func runnerOptions(cfg config.Config, logger *zap.Logger) pipeline.Options {
	opts := pipeline.DefaultOptions()
	if cfg.ProfileLinkPattern != "" {
		opts.ProfileLinkPattern = cfg.ProfileLinkPattern
	}
	if len(cfg.NextPageSelectors) > 0 {
		opts.NextPageSelectors = slices.Clone(cfg.NextPageSelectors)
	}
	opts.ScrollSettle = cfg.ScrollSettle()
	opts.ScrollIntoViewSettle = cfg.ScrollIntoViewSettle()
	opts.ClickSettle = cfg.ClickSettle()
	opts.PollInterval = cfg.PollInterval()
	opts.PollAttempts = cfg.PollAttempts
	opts.Logger = logger
	return opts
}

// runRequest describes one run started from the command line.
type runRequest struct {
	Config    config.Config
	SourceURL string
	OutPath   string
	// OnSnapshot receives the markup of every visited page.
	OnSnapshot func(page int, html, pageURL string)
}

// executeRun runs an extraction over page while printing its progress to w.
// A successful run is summarized, exported to req.OutPath when set and
// persisted when a database is configured. A failed run is persisted too.
func executeRun(ctx context.Context, w io.Writer, page pipeline.Page, opts pipeline.Options, req runRequest) (*pipeline.Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	printer := observability.NewPrinter(w)
	runner := pipeline.NewRunner(page, opts)
	stream := pipeline.NewEventStream(eventBuffer)

	started := time.Now()
	var report *pipeline.Report

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stream.Close()
		var err error
		report, err = runner.Run(gctx, pipeline.RunOptions{
			PageLimit:  req.Config.PageLimit,
			OnEvent:    stream.Send,
			OnSnapshot: req.OnSnapshot,
		})
		return err
	})
	g.Go(func() error {
		for ev := range stream.Events() {
			if ev.Type == pipeline.EventProgress {
				printer.PrintProgress(ev.Percent, ev.Message)
			}
		}
		return nil
	})
	runErr := g.Wait()

	if runErr != nil {
		if err := persistRun(ctx, logger, req, report, started, runErr); err != nil {
			logger.Warn("failed to persist run", zap.Error(err))
		}
		return report, fmt.Errorf("extraction failed: %w", runErr)
	}

	printReport(printer, report)

	if req.OutPath != "" {
		dataset := newDataset(report, req.SourceURL, time.Now())
		if err := writeDataset(req.OutPath, dataset, printer); err != nil {
			return report, err
		}
		_, _ = fmt.Fprintf(w, "Wrote %d contacts to %s\n", dataset.TotalContacts, req.OutPath)
	}

	if err := persistRun(ctx, logger, req, report, started, nil); err != nil {
		return report, err
	}
	return report, nil
}

// printReport outputs per-page summaries, the first contacts and the totals.
func printReport(printer *observability.Printer, report *pipeline.Report) {
	total := 0
	for i, stats := range report.Pages {
		total += stats.Extracted
		printer.PrintPageSummary(i+1, stats, total)
	}
	printer.PrintContacts(report.Contacts)
	printer.PrintRunSummary(types.RunSummary{
		RunID:         report.RunID.String(),
		TotalPages:    report.TotalPages,
		TotalContacts: len(report.Contacts),
	})
}

// newDataset builds the exported form of a finished run.
func newDataset(report *pipeline.Report, sourceURL string, extractedAt time.Time) types.Dataset {
	contacts := report.Contacts
	if contacts == nil {
		contacts = []types.ContactRecord{}
	}
	return types.Dataset{
		RunID:         report.RunID.String(),
		SourceURL:     sourceURL,
		PageLimit:     report.PageLimit,
		TotalPages:    report.TotalPages,
		TotalContacts: len(contacts),
		ExtractedAt:   extractedAt.UTC(),
		Contacts:      contacts,
	}
}

// writeDataset validates dataset against the contacts schema when the schema
// can be found, then writes it as indented JSON.
func writeDataset(path string, dataset types.Dataset, printer *observability.Printer) error {
	if schemaPath := schemas.ResolveSchemaPath(schemas.ContactsSchema); schemaPath != "" {
		if err := schemas.ValidateValue(schemaPath, dataset); err != nil {
			var validationErr *schemas.ValidationError
			if errors.As(err, &validationErr) {
				printer.PrintValidationErrors(validationErr.Errors)
			}
			return fmt.Errorf("exported dataset is invalid: %w", err)
		}
	}

	data, err := json.MarshalIndent(dataset, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// persistRun stores the run when a database URL is configured.
func persistRun(ctx context.Context, logger *zap.Logger, req runRequest, report *pipeline.Report, started time.Time, runErr error) error {
	if req.Config.DatabaseURL == "" || report == nil || report.RunID == uuid.Nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	database, err := db.Connect(ctx, req.Config.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	run := db.NewRun(report.RunID, req.SourceURL, report.PageLimit, report.TotalPages, started, runErr)
	if err := database.SaveRun(ctx, run, report.Contacts); err != nil {
		return fmt.Errorf("failed to persist run: %w", err)
	}
	return nil
}
