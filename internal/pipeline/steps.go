package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/wplinks/internal/crawler"
	"github.com/nao1215/wplinks/internal/graph"
	"github.com/nao1215/wplinks/internal/model"
	"github.com/nao1215/wplinks/internal/resolver"
	"github.com/nao1215/wplinks/internal/wordpress"
)

// ErrNoArticles is returned by the discover step when the site's first
// directory page yields nothing. An unreachable or empty posts endpoint is
// a hard failure for that site, not a zero-article result.
var ErrNoArticles = errors.New("no articles found on site")

// DiscoverStep builds the article directory for the site.
type DiscoverStep struct {
	builder *crawler.DirectoryBuilder
}

// NewDiscoverStep creates the directory-discovery step.
func NewDiscoverStep(builder *crawler.DirectoryBuilder) *DiscoverStep {
	return &DiscoverStep{builder: builder}
}

// Name returns the step name.
func (s *DiscoverStep) Name() string { return "discover_articles" }

// Do fetches the paginated directory into the report.
func (s *DiscoverStep) Do(ctx context.Context, report *model.SiteReport) error {
	articles, partial, err := s.builder.Build(ctx)
	if err != nil {
		return err
	}
	if len(articles) == 0 {
		return ErrNoArticles
	}

	report.Articles = articles
	report.PartialDirectory = partial
	return nil
}

// LinkStep fetches each article's content, extracts raw references, and
// resolves them into the report's outgoing-link map.
type LinkStep struct {
	// client fetches per-article content.
	client *wordpress.Client

	// extractor produces raw references from content and ACF data.
	extractor *crawler.Extractor

	// resolver converts raw references to canonical IDs.
	resolver *resolver.Resolver

	// ignoreNonPosts is the keep-rule policy: when true, resolved IDs
	// outside the article set are dropped with a warning.
	ignoreNonPosts bool

	// concurrency bounds the per-article fan-out. 1 means sequential.
	concurrency int

	// logger receives extraction diagnostics.
	logger *slog.Logger
}

// LinkStepOption configures a LinkStep.
type LinkStepOption func(*LinkStep)

// WithLinkIgnoreNonPosts sets the keep-rule policy.
func WithLinkIgnoreNonPosts(ignore bool) LinkStepOption {
	return func(s *LinkStep) {
		s.ignoreNonPosts = ignore
	}
}

// WithLinkConcurrency bounds the per-article fan-out.
// Resolution calls for the same slug are not coalesced; an occasional
// duplicate lookup is cheaper than cross-article coordination.
func WithLinkConcurrency(n int) LinkStepOption {
	return func(s *LinkStep) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLinkLogger sets the logger for extraction diagnostics.
func WithLinkLogger(logger *slog.Logger) LinkStepOption {
	return func(s *LinkStep) {
		s.logger = logger
	}
}

// NewLinkStep creates the link extraction and resolution step.
func NewLinkStep(client *wordpress.Client, extractor *crawler.Extractor, res *resolver.Resolver, opts ...LinkStepOption) *LinkStep {
	s := &LinkStep{
		client:         client,
		extractor:      extractor,
		resolver:       res,
		ignoreNonPosts: true,
		concurrency:    1,
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *LinkStep) Name() string { return "extract_links" }

// Do processes every article in directory order.
//
// Per-article failures degrade to "no links from this article": a post
// whose content cannot be fetched contributes an empty outgoing sequence
// and the pipeline continues. The final report order does not depend on
// completion order, so the bounded fan-out cannot change the output.
func (s *LinkStep) Do(ctx context.Context, report *model.SiteReport) error {
	known := report.ArticleIDs()

	var mu sync.Mutex
	var dropped int

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, article := range report.Articles {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			targets := s.linksFor(gctx, article, known, &dropped, &mu)

			mu.Lock()
			report.Outgoing[article.ID] = targets
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	report.DroppedRefs = dropped
	return nil
}

// linksFor fetches one article and returns its resolved, filtered targets.
func (s *LinkStep) linksFor(ctx context.Context, article model.Article, known map[int]bool, dropped *int, mu *sync.Mutex) []int {
	post, err := s.client.Post(ctx, article.ID)
	if err != nil {
		s.logger.Warn("could not fetch article content, treating as no links",
			"article", article.ID,
			"error", err,
		)
		return []int{}
	}
	if post.Content.Rendered == "" {
		s.logger.Warn("article has no rendered content", "article", article.ID)
	}
	if post.ACF == nil {
		s.logger.Debug("article has no ACF data", "article", article.ID)
	}

	targets := []int{}
	for _, ref := range s.extractor.Extract(post) {
		id, ok := s.resolver.Resolve(ctx, ref)
		if !ok {
			s.logger.Warn("dropping unresolvable reference",
				"article", article.ID,
				"ref", ref.String(),
			)
			mu.Lock()
			*dropped++
			mu.Unlock()
			continue
		}

		// Keep-rule: a resolved ID stays in the graph when it is a known
		// article, or when the ignore-non-posts policy is disabled (then
		// page and category IDs are recorded as outbound links even
		// though they never become row subjects).
		if !known[id] && s.ignoreNonPosts {
			s.logger.Warn("resolved ID is not an article, dropping",
				"article", article.ID,
				"ref", ref.String(),
				"resolved", id,
			)
			mu.Lock()
			*dropped++
			mu.Unlock()
			continue
		}

		targets = append(targets, id)
	}

	return targets
}

// AggregateStep derives incoming links and the sorted report rows.
type AggregateStep struct {
	aggregator *graph.Aggregator
}

// NewAggregateStep creates the aggregation step.
func NewAggregateStep(aggregator *graph.Aggregator) *AggregateStep {
	return &AggregateStep{aggregator: aggregator}
}

// Name returns the step name.
func (s *AggregateStep) Name() string { return "aggregate" }

// Do computes the incoming map and report rows.
func (s *AggregateStep) Do(_ context.Context, report *model.SiteReport) error {
	report.Incoming, report.Rows = s.aggregator.Aggregate(report.Articles, report.Outgoing)
	return nil
}
