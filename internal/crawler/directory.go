package crawler

import (
	"context"
	"log/slog"

	"github.com/nao1215/wplinks/internal/model"
	"github.com/nao1215/wplinks/internal/wordpress"
)

// DirectoryBuilder produces the complete, deduplicated article directory
// for one site by walking the paginated posts listing.
type DirectoryBuilder struct {
	// client fetches directory pages.
	client *wordpress.Client

	// perPage is the pagination page size.
	perPage int

	// logger receives pagination diagnostics.
	logger *slog.Logger
}

// DirectoryOption configures a DirectoryBuilder.
type DirectoryOption func(*DirectoryBuilder)

// WithDirectoryPerPage sets the pagination page size.
func WithDirectoryPerPage(perPage int) DirectoryOption {
	return func(b *DirectoryBuilder) {
		if perPage > 0 {
			b.perPage = perPage
		}
	}
}

// WithDirectoryLogger sets the logger for pagination diagnostics.
func WithDirectoryLogger(logger *slog.Logger) DirectoryOption {
	return func(b *DirectoryBuilder) {
		b.logger = logger
	}
}

// NewDirectoryBuilder creates a DirectoryBuilder using the given client.
func NewDirectoryBuilder(client *wordpress.Client, opts ...DirectoryOption) *DirectoryBuilder {
	b := &DirectoryBuilder{
		client:  client,
		perPage: 100,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Build walks pages 1..total sequentially and returns the article set in
// API page order, deduplicated by ID.
//
// Failure semantics: a failure on page 1 is an error (nothing to analyze);
// a failure or malformed body on a later page stops the walk and keeps the
// pages already fetched. The second return
// reports whether the directory is partial.
func (b *DirectoryBuilder) Build(ctx context.Context) ([]model.Article, bool, error) {
	first, err := b.client.PostsPage(ctx, 1, b.perPage)
	if err != nil {
		return nil, false, err
	}
	if len(first.Posts) == 0 {
		b.logger.Warn("no posts found on the first page")
		return nil, false, nil
	}

	seen := make(map[int]bool)
	articles := make([]model.Article, 0, len(first.Posts))
	appendPosts := func(posts []wordpress.Ref) {
		for _, p := range posts {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			articles = append(articles, model.Article{ID: p.ID, Slug: p.Slug})
		}
	}
	appendPosts(first.Posts)

	for page := 2; page <= first.TotalPages; page++ {
		select {
		case <-ctx.Done():
			return articles, true, ctx.Err()
		default:
		}

		pg, err := b.client.PostsPage(ctx, page, b.perPage)
		if err != nil {
			b.logger.Warn("pagination stopped early, keeping pages fetched so far",
				"page", page,
				"totalPages", first.TotalPages,
				"articles", len(articles),
				"error", err,
			)
			return articles, true, nil
		}
		if len(pg.Posts) == 0 {
			b.logger.Warn("empty page before reported total, stopping",
				"page", page,
				"totalPages", first.TotalPages,
			)
			return articles, true, nil
		}
		appendPosts(pg.Posts)
	}

	return articles, false, nil
}
