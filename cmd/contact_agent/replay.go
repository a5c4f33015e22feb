package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/contact-extractor/internal/config"
	"github.com/jonathan/contact-extractor/internal/fetch"
	"github.com/jonathan/contact-extractor/internal/pipeline"
	"github.com/jonathan/contact-extractor/internal/snapshot"
)

var replayCmd = &cobra.Command{
	Use:   "replay [snapshot.html ...]",
	Short: "Extract contacts from saved page snapshots",
	Long: `Replays annotated page snapshots in order, as if each were the next result page, and extracts
their contacts exactly as a live run would.

Snapshots come from the given files, from every .html file in --snapshots (ordered by name)
or are downloaded from --urls.`,
	RunE: runReplay,
}

var (
	replayFlags runFlags
	replayDir   string
	replayURLs  []string
)

func init() {
	replayFlags.register(replayCmd)
	replayCmd.Flags().StringVarP(&replayDir, "snapshots", "s", "", "Directory of .html snapshots")
	replayCmd.Flags().StringSliceVar(&replayURLs, "urls", nil, "Snapshot URLs to download, in page order")

	rootCmd.AddCommand(replayCmd)
}

// snapshotSources names where replayed snapshots come from. Exactly one
// field is set.
type snapshotSources struct {
	Files []string
	Dir   string
	URLs  []string
}

// load reads the snapshots.
func (s snapshotSources) load(ctx context.Context) ([]snapshot.Source, error) {
	set := 0
	if len(s.Files) > 0 {
		set++
	}
	if s.Dir != "" {
		set++
	}
	if len(s.URLs) > 0 {
		set++
	}
	switch {
	case set == 0:
		return nil, fmt.Errorf("snapshot files, --snapshots or --urls must be provided")
	case set > 1:
		return nil, fmt.Errorf("snapshot files, --snapshots and --urls are mutually exclusive; provide only one")
	}

	switch {
	case len(s.Files) > 0:
		return snapshot.LoadFiles(s.Files)
	case s.Dir != "":
		return snapshot.LoadDir(s.Dir)
	default:
		return snapshot.LoadURLs(ctx, s.URLs, fetch.DefaultOptions())
	}
}

// replayOptions are runner options for snapshots, which render instantly:
// no settle time and a single poll per navigation.
func replayOptions(cfg config.Config, logger *zap.Logger) pipeline.Options {
	opts := runnerOptions(cfg, logger)
	opts.ScrollSettle = 0
	opts.ScrollIntoViewSettle = 0
	opts.ClickSettle = 0
	opts.PollInterval = 0
	opts.PollAttempts = 1
	return opts
}

// replay runs an extraction over the snapshots named by sources.
func replay(ctx context.Context, w io.Writer, cfg config.Config, sources snapshotSources, outPath string, logger *zap.Logger) (*pipeline.Report, error) {
	loaded, err := sources.load(ctx)
	if err != nil {
		return nil, err
	}

	page, err := snapshot.New(loaded, logger)
	if err != nil {
		return nil, err
	}

	// Without a configured URL the first snapshot's recorded address is used.
	sourceURL := cfg.URL
	if sourceURL == "" {
		if _, pageURL, err := page.Snapshot(ctx); err == nil {
			sourceURL = pageURL
		}
	}

	return executeRun(ctx, w, page, replayOptions(cfg, logger), runRequest{
		Config:    cfg,
		SourceURL: sourceURL,
		OutPath:   outPath,
	})
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(replayFlags.configPath, func(c *config.Config) {
		replayFlags.apply(cmd, c)
	})
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := commandContext(cmd)
	defer stop()

	sources := snapshotSources{Files: args, Dir: replayDir, URLs: replayURLs}
	_, err = replay(ctx, os.Stdout, cfg, sources, replayFlags.out, logger)
	return err
}
