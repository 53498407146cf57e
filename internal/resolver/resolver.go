package resolver

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nao1215/wplinks/internal/model"
	"github.com/nao1215/wplinks/internal/wordpress"
)

// Resolver resolves raw references to canonical post IDs for one site.
type Resolver struct {
	// client performs the slug lookups. Retries with backoff happen
	// inside the client; the resolver never retries on its own.
	client *wordpress.Client

	// ignoreNonPosts disables the pages and categories fallbacks.
	// A slug resolving only to a page or category then yields not-found.
	ignoreNonPosts bool

	// logger receives resolution diagnostics.
	logger *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithIgnoreNonPosts sets the disambiguation policy. When true, slugs are
// only matched against posts; pages and categories are never queried.
func WithIgnoreNonPosts(ignore bool) ResolverOption {
	return func(r *Resolver) {
		r.ignoreNonPosts = ignore
	}
}

// WithResolverLogger sets the logger for resolution diagnostics.
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a Resolver using the given client.
func NewResolver(client *wordpress.Client, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		client:         client,
		ignoreNonPosts: true,
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve converts one raw reference to a canonical ID.
// The second return is false when nothing matched or every lookup
// exhausted its retries.
//
// Lookup order is posts, then pages, then categories; the post match wins
// when a slug hypothetically exists in more than one collection. The
// WordPress API does not contractually forbid that, so the precedence is
// explicit here rather than an accident of short-circuiting.
func (r *Resolver) Resolve(ctx context.Context, ref model.RawRef) (int, bool) {
	// Already canonical: no network call.
	if ref.IsID() {
		return ref.ID(), true
	}

	slug := ref.Slug()

	if id, ok := r.lookup(ctx, slug, r.client.PostBySlug); ok {
		return id, true
	}

	if !r.ignoreNonPosts {
		if id, ok := r.lookup(ctx, slug, r.client.PageBySlug); ok {
			return id, true
		}
		if id, ok := r.lookup(ctx, slug, r.client.CategoryBySlug); ok {
			return id, true
		}
	}

	r.logger.Warn("could not resolve slug", "slug", slug)
	return 0, false
}

// lookup runs one slug query and folds failures into not-found.
func (r *Resolver) lookup(ctx context.Context, slug string, fn func(context.Context, string) (wordpress.Ref, bool, error)) (int, bool) {
	ref, found, err := fn(ctx, slug)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			r.logger.Warn("slug lookup failed", "slug", slug, "error", err)
		}
		return 0, false
	}
	if !found {
		return 0, false
	}
	return ref.ID, true
}
