// Package wordpress provides a read-only client for the WordPress REST API.
//
// The client covers the small slice of the API that link analysis needs:
// paginated post listings, single-post content with ACF metadata, and
// slug-filtered lookups of posts, pages, and categories. Every request goes
// through one retry policy with exponential backoff and a shared rate
// limiter; a request that exhausts its retries reports ErrUnavailable
// rather than propagating transport errors to callers.
package wordpress
