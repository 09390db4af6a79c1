package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/wikiscope/internal/model"
	"golang.org/x/sync/errgroup"
)

// BatchProcessor handles concurrent lookups of multiple queries.
// It uses errgroup to manage goroutines and respect concurrency limits.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each lookup.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of concurrent lookups.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores finished lookups in input order.
	results []*model.Lookup
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent lookups.
// Default is 4 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
// pipelineFactory is called once per lookup.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     4,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// lookupOne runs a single query. Blank queries yield a failed lookup
// without any request.
func (bp *BatchProcessor) lookupOne(ctx context.Context, input string) *model.Lookup {
	query, err := model.NormalizeQuery(input)
	if err != nil {
		lookup := model.NewLookup(input)
		lookup.Outcome = model.Failed(model.StageNone, err)
		return lookup
	}

	lookup := model.NewLookup(query)
	if err := bp.pipelineFactory().Execute(ctx, lookup); err != nil {
		bp.logger.Warn("lookup failed",
			"query", query,
			"error", err,
		)
	}
	return lookup
}

// ProcessBatch looks up multiple queries concurrently.
// It returns one lookup per query in input order, including failed ones.
// The error is non-nil only if the batch was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, queries []string) ([]*model.Lookup, error) {
	bp.logger.Info("starting batch processing",
		"total_queries", len(queries),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	bp.results = make([]*model.Lookup, len(queries))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, query := range queries {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			lookup := bp.lookupOne(ctx, query)

			bp.mu.Lock()
			bp.results[i] = lookup
			bp.mu.Unlock()

			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch processing complete",
		"total_queries", len(queries),
		"elapsed", time.Since(startTime),
	)

	return bp.results, err
}

// ProcessBatchWithCallback looks up multiple queries and calls callback for
// each finished lookup with the index of its query. The callback is called
// from worker goroutines and must be safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	queries []string,
	callback func(lookup *model.Lookup, index int),
) error {
	bp.logger.Info("starting batch processing with callback",
		"total_queries", len(queries),
		"concurrency", bp.concurrency,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, query := range queries {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			callback(bp.lookupOne(ctx, query), i)
			return nil
		})
	}

	return g.Wait()
}
