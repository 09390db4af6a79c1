package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/nao1215/wikiscope/internal/config"
	"github.com/nao1215/wikiscope/internal/database"
	"github.com/nao1215/wikiscope/internal/model"
	"github.com/nao1215/wikiscope/internal/pipeline"
	"github.com/nao1215/wikiscope/internal/report"
	"github.com/spf13/cobra"
)

// searchOptions holds search flags that do not belong in the configuration file.
type searchOptions struct {
	skipEntity bool
	skipImages bool
}

// NewSearchCmd creates the search command.
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query...]",
		Short: "Look up a topic and aggregate everything known about it",
		Long: `Search looks up each query on Wikipedia and aggregates:
- The article summary (first sentences of the best matching article)
- Page metadata (page ID, total edits, size in bytes)
- The linked Wikidata item (label and description)
- Recent edit history (revisions analyzed, unique contributors)
- Matching images from Wikimedia Commons

Panels are printed as soon as their data arrives. With --json, --markdown
or --output the finished report is written instead.

Examples:
  # Look up a single topic
  wikiscope search "Albert Einstein"

  # Look up several topics, four at a time
  wikiscope search --batch 4 Paris London Tokyo

  # Use the German Wikipedia
  wikiscope search --lang de Berlin

  # Fetch metadata, Wikidata, history and images concurrently
  wikiscope search --concurrent "Marie Curie"

  # Write a Markdown report
  wikiscope search --markdown -o reports/einstein.md "Albert Einstein"`,
		Args: cobra.ArbitraryArgs,
		RunE: runSearchCmd,
	}

	addClientFlags(cmd)

	// Lookup behavior flags
	cmd.Flags().Bool("concurrent", false,
		"Run the enrichment stages concurrently once the article is known")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent lookups when several queries are given")
	cmd.Flags().Bool("no-entity", false,
		"Skip the Wikidata stage")
	cmd.Flags().Bool("no-images", false,
		"Skip the Wikimedia Commons stage")
	cmd.Flags().Bool("no-history", false,
		"Do not save lookups to the history database")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runSearchCmd executes the search command.
func runSearchCmd(cmd *cobra.Command, args []string) error {
	cfg, opts, err := buildSearchConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.ValidateSearch(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newLogger(os.Stderr, cfg)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	client, err := newClient(cfg, logger, nil)
	if err != nil {
		return err
	}

	var db *database.LookupDB
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Debug("database opened", "path", db.Path())
	}

	return runSearch(ctx, cmd.OutOrStdout(), cfg, opts, client, db, logger)
}

// buildSearchConfig creates a Config from the configuration file and flags.
func buildSearchConfig(cmd *cobra.Command, args []string) (*config.Config, searchOptions, error) {
	var opts searchOptions

	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return nil, opts, err
	}

	flags := cmd.Flags()
	if flags.Changed("concurrent") {
		if cfg.ConcurrentEnrichment, err = flags.GetBool("concurrent"); err != nil {
			return nil, opts, err
		}
	}
	if flags.Changed("batch") {
		if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
			return nil, opts, err
		}
	}

	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, opts, err
	}
	cfg.SaveToDB = !noHistory

	if opts.skipEntity, err = flags.GetBool("no-entity"); err != nil {
		return nil, opts, err
	}
	if opts.skipImages, err = flags.GetBool("no-images"); err != nil {
		return nil, opts, err
	}

	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, opts, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, opts, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, opts, err
	}

	return cfg, opts, nil
}

// streaming reports whether panels are printed live instead of a final report.
func streaming(cfg *config.Config) bool {
	return !cfg.JSONReport && !cfg.MarkdownReport && cfg.ReportFile == ""
}

// newPipeline creates the lookup pipeline for cfg.
func newPipeline(source pipeline.Source, cfg *config.Config, opts searchOptions, logger *slog.Logger, observer pipeline.Observer) *pipeline.Pipeline {
	pipelineOpts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithConcurrentEnrichment(cfg.ConcurrentEnrichment),
	}
	if observer != nil {
		pipelineOpts = append(pipelineOpts, pipeline.WithObserver(observer))
	}
	if cfg.StageTimeout > 0 {
		pipelineOpts = append(pipelineOpts, pipeline.WithStageTimeout(cfg.StageTimeout))
	}

	p := pipeline.DefaultPipeline(source, pipelineOpts,
		pipeline.WithPipelineStepLogger(logger),
		pipeline.WithPipelineSkipEntity(opts.skipEntity),
		pipeline.WithPipelineSkipImages(opts.skipImages),
	)
	logger.Debug("pipeline ready",
		"steps", p.StepNames(),
		"concurrent", p.Concurrent(),
		"stageTimeout", cfg.StageTimeout,
	)
	return p
}

// runSearch looks up every query in cfg. db may be nil.
// It returns an error if any lookup failed; not-found lookups are not errors.
func runSearch(ctx context.Context, out io.Writer, cfg *config.Config, opts searchOptions, source pipeline.Source, db *database.LookupDB, logger *slog.Logger) error {
	logger.Info("starting search",
		"queries", cfg.Queries,
		"concurrent", cfg.ConcurrentEnrichment,
		"batchSize", cfg.BatchSize,
		"saveToDB", db != nil,
	)

	var lookups []*model.Lookup
	var err error
	if len(cfg.Queries) > 1 && cfg.BatchSize > 1 {
		lookups, err = runBatchSearch(ctx, out, cfg, opts, source, db, logger)
	} else {
		lookups, err = runSequentialSearch(ctx, out, cfg, opts, source, db, logger)
	}
	if err != nil {
		return err
	}

	if !streaming(cfg) {
		if err := outputReport(cfg, out, lookups); err != nil {
			return err
		}
	}

	failed := 0
	for _, l := range lookups {
		if l.Outcome.Status == model.StatusFailed {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d lookups failed", failed, len(lookups))
	}
	return nil
}

// runSequentialSearch looks up queries one at a time, printing panels live
// when no report format was requested.
func runSequentialSearch(ctx context.Context, out io.Writer, cfg *config.Config, opts searchOptions, source pipeline.Source, db *database.LookupDB, logger *slog.Logger) ([]*model.Lookup, error) {
	p := newPipeline(source, cfg, opts, logger, nil)

	var renderer pipeline.Renderer
	var stream *report.StreamRenderer
	if streaming(cfg) {
		stream = report.NewStreamRenderer(out)
		renderer = stream
	}
	runner := pipeline.NewRunner(p, renderer, pipeline.WithRunnerLogger(logger))

	lookups := make([]*model.Lookup, 0, len(cfg.Queries))
	for _, query := range cfg.Queries {
		select {
		case <-ctx.Done():
			return lookups, ctx.Err()
		default:
		}

		if stream != nil {
			fmt.Fprintf(out, "Looking up %q...\n\n", query)
		}

		lookup, err := runner.Run(ctx, query)
		if errors.Is(err, model.ErrEmptyQuery) {
			logger.Warn("skipping empty query")
			continue
		}
		if err != nil {
			logger.Error("lookup failed", "query", query, "error", err)
		}

		if stream != nil {
			if err := stream.Err(); err != nil {
				return lookups, fmt.Errorf("failed to write output: %w", err)
			}
			fmt.Fprintf(out, "Lookup completed in %s\n\n", lookup.Elapsed.Round(time.Millisecond))
		}

		saveLookup(ctx, db, lookup, logger)
		lookups = append(lookups, lookup)
	}

	return lookups, nil
}

// runBatchSearch looks up queries concurrently using BatchProcessor.
// Lookups are returned in query order.
func runBatchSearch(ctx context.Context, out io.Writer, cfg *config.Config, opts searchOptions, source pipeline.Source, db *database.LookupDB, logger *slog.Logger) ([]*model.Lookup, error) {
	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			return newPipeline(source, cfg, opts, logger, nil)
		},
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	// Without live output the finished batch is reported at once.
	if !streaming(cfg) {
		lookups, err := bp.ProcessBatch(ctx, cfg.Queries)
		done := finishedLookups(lookups)
		for _, l := range done {
			saveLookup(ctx, db, l, logger)
		}
		return done, err
	}

	fmt.Fprintf(out, "Starting batch lookup of %d queries (concurrency: %d)...\n",
		len(cfg.Queries), cfg.BatchSize)

	lookups := make([]*model.Lookup, len(cfg.Queries))
	writer := report.NewSimpleWriter(out)

	var mu sync.Mutex
	err := bp.ProcessBatchWithCallback(ctx, cfg.Queries, func(lookup *model.Lookup, index int) {
		saveLookup(ctx, db, lookup, logger)

		mu.Lock()
		defer mu.Unlock()
		lookups[index] = lookup

		fmt.Fprintf(out, "\n[%d/%d] Lookup completed: %s\n", index+1, len(cfg.Queries), lookup.Query)
		if _, err := writer.Write(lookup); err != nil {
			logger.Error("report failed", "query", lookup.Query, "error", err)
		}
	})

	return finishedLookups(lookups), err
}

// finishedLookups drops the holes a cancelled batch leaves.
func finishedLookups(lookups []*model.Lookup) []*model.Lookup {
	done := make([]*model.Lookup, 0, len(lookups))
	for _, l := range lookups {
		if l != nil {
			done = append(done, l)
		}
	}
	return done
}

// outputReport writes the finished lookups in the requested format, to
// cfg.ReportFile when one is set.
func outputReport(cfg *config.Config, out io.Writer, lookups []*model.Lookup) error {
	if cfg.ReportFile == "" {
		return writeReport(cfg, out, nil, lookups)
	}
	f, err := createOutputFile(cfg.ReportFile)
	if err != nil {
		return err
	}
	return writeReport(cfg, out, f, lookups)
}

// writeReport writes lookups to file, or to out when file is nil, and
// closes file. A text report written to a file is also printed to out.
func writeReport(cfg *config.Config, out io.Writer, file io.WriteCloser, lookups []*model.Lookup) (err error) {
	newWriter := func(w io.Writer) report.Writer {
		switch {
		case cfg.JSONReport:
			return report.NewJSONWriter(w, report.WithPrettyPrint(), report.WithVersion(getVersion()))
		case cfg.MarkdownReport:
			return report.NewMarkdownWriter(w)
		default:
			return report.NewSimpleWriter(w, report.WithShowStages(cfg.Verbose))
		}
	}

	writer := newWriter(out)
	if file != nil {
		defer func() {
			if cerr := file.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("failed to close report file: %w", cerr)
			}
		}()

		writer = newWriter(file)
		if !cfg.JSONReport && !cfg.MarkdownReport {
			writer = report.NewMultiWriter(newWriter(out), writer)
		}
	}

	if len(lookups) == 1 {
		_, err = writer.Write(lookups[0])
	} else {
		_, err = writer.WriteAll(lookups)
	}
	return err
}

// saveLookup stores a finished lookup if db is not nil.
// Storage errors are logged; they never fail the lookup.
func saveLookup(ctx context.Context, db *database.LookupDB, lookup *model.Lookup, logger *slog.Logger) {
	if db == nil || lookup == nil {
		return
	}
	if err := db.SaveLookup(ctx, lookup); err != nil {
		logger.Error("failed to save lookup", "query", lookup.Query, "error", err)
		return
	}
	logger.Debug("lookup saved to database", "id", lookup.ID, "title", lookup.Title)
}
