package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/wplinks/internal/config"
	"github.com/nao1215/wplinks/internal/model"
)

// BatchProcessor analyzes multiple sites concurrently.
// Each site gets its own pipeline from the factory; sites never share
// clients or state, so per-site rate limits stay independent.
type BatchProcessor struct {
	// pipelineFactory creates a fresh pipeline for one site.
	pipelineFactory func(site config.Site) *Pipeline

	// concurrency is the maximum number of sites analyzed at once.
	concurrency int

	// logger receives batch-level diagnostics.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithBatchConcurrency sets the maximum number of concurrent sites.
func WithBatchConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor.
func NewBatchProcessor(pipelineFactory func(site config.Site) *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     2,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch analyzes all sites and returns their reports in input
// order. A site whose pipeline fails still yields a report carrying the
// error; the other sites continue. The returned error is non-nil only
// when the whole batch was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, sites []config.Site) ([]*model.SiteReport, error) {
	return bp.process(ctx, sites, nil)
}

// ProcessBatchWithCallback analyzes all sites and calls the callback as
// each site completes. The callback runs in the completing goroutine and
// must be safe for concurrent use when it touches shared state.
func (bp *BatchProcessor) ProcessBatchWithCallback(ctx context.Context, sites []config.Site, callback func(report *model.SiteReport, index int)) error {
	_, err := bp.process(ctx, sites, callback)
	return err
}

func (bp *BatchProcessor) process(ctx context.Context, sites []config.Site, callback func(*model.SiteReport, int)) ([]*model.SiteReport, error) {
	bp.logger.Info("starting batch analysis",
		"totalSites", len(sites),
		"concurrency", bp.concurrency,
	)
	start := time.Now()

	results := make([]*model.SiteReport, len(sites))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, site := range sites {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			report := model.NewSiteReport(site.DisplayName(), site.URL)
			p := bp.pipelineFactory(site)

			if err := p.Execute(gctx, report); err != nil {
				// The error is recorded on the report; other sites
				// keep running.
				bp.logger.Warn("site analysis failed",
					"site", report.Site,
					"error", err,
				)
			}

			mu.Lock()
			results[i] = report
			mu.Unlock()

			if callback != nil {
				callback(report, i)
			}
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch analysis complete",
		"totalSites", len(sites),
		"elapsed", time.Since(start),
	)

	return results, err
}
