package wordpress

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// fastRetry keeps retry tests quick.
var fastRetry = RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond}

// newTestClient creates a client pointed at a test server with fast
// retries and an effectively unlimited rate.
func newTestClient(srv *httptest.Server, opts ...Option) *Client {
	base := []Option{
		WithHTTPClient(srv.Client()),
		WithRetryPolicy(fastRetry),
		WithRateLimit(10000),
	}
	return NewClient(srv.URL, append(base, opts...)...)
}

// TestClientPostsPage tests directory page fetching.
func TestClientPostsPage(t *testing.T) {
	t.Parallel()

	t.Run("parses posts and total pages header", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/wp-json/wp/v2/posts" {
				t.Errorf("unexpected path %q", r.URL.Path)
			}
			if got := r.URL.Query().Get("per_page"); got != "100" {
				t.Errorf("got per_page %q, expected %q", got, "100")
			}
			if got := r.URL.Query().Get("page"); got != "2" {
				t.Errorf("got page %q, expected %q", got, "2")
			}
			w.Header().Set("X-WP-TotalPages", "7")
			fmt.Fprint(w, `[{"id":1,"slug":"first"},{"id":2,"slug":"second"}]`)
		}))
		defer srv.Close()

		page, err := newTestClient(srv).PostsPage(context.Background(), 2, 100)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(page.Posts) != 2 {
			t.Fatalf("got %d posts, expected 2", len(page.Posts))
		}
		if page.Posts[0].Slug != "first" || page.Posts[1].ID != 2 {
			t.Errorf("unexpected posts: %+v", page.Posts)
		}
		if page.TotalPages != 7 {
			t.Errorf("got %d total pages, expected 7", page.TotalPages)
		}
	})

	t.Run("missing total pages header defaults to 1", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `[{"id":1,"slug":"only"}]`)
		}))
		defer srv.Close()

		page, err := newTestClient(srv).PostsPage(context.Background(), 1, 100)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if page.TotalPages != 1 {
			t.Errorf("got %d total pages, expected 1", page.TotalPages)
		}
	})

	t.Run("non-list body yields ErrMalformedResponse", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"error":"unexpected"}`)
		}))
		defer srv.Close()

		_, err := newTestClient(srv).PostsPage(context.Background(), 1, 100)
		if !errors.Is(err, ErrMalformedResponse) {
			t.Errorf("got error %v, expected ErrMalformedResponse", err)
		}
	})
}

// TestClientPost tests single post fetching with content and ACF data.
func TestClientPost(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wp-json/wp/v2/posts/10" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		fmt.Fprint(w, `{
			"id": 10,
			"slug": "tenth",
			"content": {"rendered": "<p>hello</p>"},
			"acf": {"related-posts": [1, 2]}
		}`)
	}))
	defer srv.Close()

	post, err := newTestClient(srv).Post(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if post.ID != 10 || post.Slug != "tenth" {
		t.Errorf("unexpected post identity: %+v", post)
	}
	if post.Content.Rendered != "<p>hello</p>" {
		t.Errorf("got content %q", post.Content.Rendered)
	}
	if post.ACF == nil {
		t.Fatal("expected ACF data")
	}
	if _, ok := post.ACF["related-posts"]; !ok {
		t.Error("expected related-posts field in ACF data")
	}
}

// TestClientSlugLookups tests the slug query endpoints.
func TestClientSlugLookups(t *testing.T) {
	t.Parallel()

	t.Run("first match wins", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("slug"); got != "my-post" {
				t.Errorf("got slug %q, expected %q", got, "my-post")
			}
			fmt.Fprint(w, `[{"id":5,"slug":"my-post"},{"id":6,"slug":"my-post"}]`)
		}))
		defer srv.Close()

		ref, found, err := newTestClient(srv).PostBySlug(context.Background(), "my-post")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !found {
			t.Fatal("expected a match")
		}
		if ref.ID != 5 {
			t.Errorf("got ID %d, expected 5", ref.ID)
		}
	})

	t.Run("empty list means not found", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `[]`)
		}))
		defer srv.Close()

		_, found, err := newTestClient(srv).PageBySlug(context.Background(), "nothing")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if found {
			t.Error("expected no match")
		}
	})

	t.Run("routes to the right collections", func(t *testing.T) {
		t.Parallel()

		var paths []string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			paths = append(paths, r.URL.Path)
			fmt.Fprint(w, `[]`)
		}))
		defer srv.Close()

		c := newTestClient(srv)
		ctx := context.Background()
		_, _, _ = c.PostBySlug(ctx, "s")
		_, _, _ = c.PageBySlug(ctx, "s")
		_, _, _ = c.CategoryBySlug(ctx, "s")

		want := []string{
			"/wp-json/wp/v2/posts",
			"/wp-json/wp/v2/pages",
			"/wp-json/wp/v2/categories",
		}
		if len(paths) != len(want) {
			t.Fatalf("got %d requests, expected %d", len(paths), len(want))
		}
		for i, p := range want {
			if paths[i] != p {
				t.Errorf("request %d: got %q, expected %q", i, paths[i], p)
			}
		}
	})
}

// TestClientRetry tests the retry-with-backoff behavior.
func TestClientRetry(t *testing.T) {
	t.Parallel()

	t.Run("retries until success", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			fmt.Fprint(w, `[{"id":1,"slug":"ok"}]`)
		}))
		defer srv.Close()

		page, err := newTestClient(srv).PostsPage(context.Background(), 1, 100)
		if err != nil {
			t.Fatalf("unexpected error after retries: %v", err)
		}
		if len(page.Posts) != 1 {
			t.Errorf("got %d posts, expected 1", len(page.Posts))
		}
		if got := calls.Load(); got != 3 {
			t.Errorf("got %d attempts, expected 3", got)
		}
	})

	t.Run("exhausted retries yield ErrUnavailable", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := newTestClient(srv).PostsPage(context.Background(), 1, 100)
		if !errors.Is(err, ErrUnavailable) {
			t.Fatalf("got error %v, expected ErrUnavailable", err)
		}
		if got := calls.Load(); got != 3 {
			t.Errorf("got %d attempts, expected 3", got)
		}
	})

	t.Run("cancellation stops retrying", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := newTestClient(srv, WithRetryPolicy(RetryPolicy{Attempts: 5, BaseDelay: time.Hour}))

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := c.PostsPage(ctx, 1, 100)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("got error %v, expected context.DeadlineExceeded", err)
		}
	})
}

// TestClientHeaders tests request header defaults.
func TestClientHeaders(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "wplinks-test" {
			t.Errorf("got User-Agent %q, expected %q", got, "wplinks-test")
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("got Accept %q, expected %q", got, "application/json")
		}
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	c := newTestClient(srv, WithUserAgent("wplinks-test"))
	if _, err := c.PostsPage(context.Background(), 1, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestClientBaseURL tests trailing slash trimming.
func TestClientBaseURL(t *testing.T) {
	t.Parallel()

	c := NewClient("https://example.com/")
	if got := c.BaseURL(); got != "https://example.com" {
		t.Errorf("got base URL %q, expected %q", got, "https://example.com")
	}
}
