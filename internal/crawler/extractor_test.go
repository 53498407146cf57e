package crawler

import (
	"testing"

	"github.com/nao1215/wplinks/internal/model"
	"github.com/nao1215/wplinks/internal/wordpress"
)

// mustExtractor creates an Extractor or fails the test.
func mustExtractor(t *testing.T, baseURL string, opts ...ExtractorOption) *Extractor {
	t.Helper()
	e, err := NewExtractor(baseURL, opts...)
	if err != nil {
		t.Fatalf("failed to create extractor: %v", err)
	}
	return e
}

// slugs converts refs to their slug values for assertions.
func slugs(refs []model.RawRef) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.Slug()
	}
	return out
}

// TestExtractorAnchors tests slug extraction from rendered HTML.
func TestExtractorAnchors(t *testing.T) {
	t.Parallel()

	e := mustExtractor(t, "https://example.com")

	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "same-origin absolute link",
			content: `<p><a href="https://example.com/my-article/">read</a></p>`,
			want:    []string{"my-article"},
		},
		{
			name:    "protocol and www differences are ignored",
			content: `<a href="http://www.example.com/other-post">x</a>`,
			want:    []string{"other-post"},
		},
		{
			name:    "protocol-relative link",
			content: `<a href="//example.com/rel-proto/">x</a>`,
			want:    []string{"rel-proto"},
		},
		{
			name:    "foreign host is skipped",
			content: `<a href="https://other.com/foreign">x</a>`,
			want:    nil,
		},
		{
			name:    "relative link is skipped",
			content: `<a href="/category/news/">x</a>`,
			want:    nil,
		},
		{
			name:    "binary asset links are skipped",
			content: `<a href="https://example.com/files/report.pdf">pdf</a><a href="https://example.com/img/photo.JPG">img</a>`,
			want:    nil,
		},
		{
			name:    "nested path keeps the last segment",
			content: `<a href="https://example.com/2024/05/deep-post/">x</a>`,
			want:    []string{"deep-post"},
		},
		{
			name:    "mailto is skipped",
			content: `<a href="mailto:hi@example.com">mail</a>`,
			want:    nil,
		},
		{
			name:    "document order with duplicates preserved",
			content: `<a href="https://example.com/a">1</a><a href="https://example.com/b">2</a><a href="https://example.com/a">3</a>`,
			want:    []string{"a", "b", "a"},
		},
		{
			name:    "malformed markup still yields links",
			content: `<div><a href="https://example.com/broken">x<div></a>`,
			want:    []string{"broken"},
		},
		{
			name:    "empty content",
			content: "",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := slugs(e.Anchors(tt.content))
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, expected %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("ref %d: got %q, expected %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

// TestExtractorAnchorsCyrillic tests NFC normalization of non-ASCII slugs.
func TestExtractorAnchorsCyrillic(t *testing.T) {
	t.Parallel()

	e := mustExtractor(t, "https://example.com")

	refs := e.Anchors(`<a href="https://example.com/%D0%BF%D1%80%D0%B8%D0%B2%D0%B5%D1%82/">x</a>`)
	if len(refs) != 1 {
		t.Fatalf("got %d refs, expected 1", len(refs))
	}
	if refs[0].Slug() != "привет" {
		t.Errorf("got slug %q, expected %q", refs[0].Slug(), "привет")
	}
}

// TestExtractorRelated tests ACF related-posts field normalization.
func TestExtractorRelated(t *testing.T) {
	t.Parallel()

	e := mustExtractor(t, "https://example.com")

	ids := func(refs []model.RawRef) []int {
		out := make([]int, len(refs))
		for i, r := range refs {
			if !r.IsID() {
				t.Fatalf("expected numeric ref, got slug %q", r.Slug())
			}
			out[i] = r.ID()
		}
		return out
	}

	tests := []struct {
		name string
		acf  map[string]any
		want []int
	}{
		{
			name: "comma-separated string",
			acf:  map[string]any{"related-posts": "10, 20,30"},
			want: []int{10, 20, 30},
		},
		{
			name: "list of JSON numbers",
			acf:  map[string]any{"related-posts": []any{float64(1), float64(2)}},
			want: []int{1, 2},
		},
		{
			name: "mixed list of numbers and digit strings",
			acf:  map[string]any{"related-posts": []any{float64(7), "8"}},
			want: []int{7, 8},
		},
		{
			name: "non-numeric elements are dropped",
			acf:  map[string]any{"related-posts": []any{"abc", float64(5), float64(2.5), float64(-3)}},
			want: []int{5},
		},
		{
			name: "field absent",
			acf:  map[string]any{"other": "value"},
			want: nil,
		},
		{
			name: "unexpected field shape",
			acf:  map[string]any{"related-posts": map[string]any{"id": 1}},
			want: nil,
		},
		{
			name: "nil ACF block",
			acf:  nil,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ids(e.Related(tt.acf))
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, expected %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("ref %d: got %d, expected %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

// TestExtractorRelatedCustomField tests the field name override.
func TestExtractorRelatedCustomField(t *testing.T) {
	t.Parallel()

	e := mustExtractor(t, "https://example.com", WithRelatedField("recommended"))

	refs := e.Related(map[string]any{
		"related-posts": "1,2",
		"recommended":   "3",
	})
	if len(refs) != 1 || refs[0].ID() != 3 {
		t.Errorf("expected only the custom field to be read, got %v", refs)
	}
}

// TestExtractorExtract tests source ordering: anchors before related IDs.
func TestExtractorExtract(t *testing.T) {
	t.Parallel()

	e := mustExtractor(t, "https://example.com")

	post := &wordpress.Post{
		ID:      1,
		Slug:    "source",
		Content: wordpress.Rendered{Rendered: `<a href="https://example.com/linked">x</a>`},
		ACF:     map[string]any{"related-posts": []any{float64(42)}},
	}

	refs := e.Extract(post)
	if len(refs) != 2 {
		t.Fatalf("got %d refs, expected 2", len(refs))
	}
	if refs[0].IsID() || refs[0].Slug() != "linked" {
		t.Errorf("expected anchor slug first, got %v", refs[0])
	}
	if !refs[1].IsID() || refs[1].ID() != 42 {
		t.Errorf("expected related ID second, got %v", refs[1])
	}
}

// TestNormalizeHost tests origin comparison normalization.
func TestNormalizeHost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"example.com", "example.com"},
		{"WWW.Example.COM", "example.com"},
		{"example.com:8080", "example.com"},
		{"www.example.com:443", "example.com"},
	}

	for _, tt := range tests {
		if got := normalizeHost(tt.in); got != tt.want {
			t.Errorf("normalizeHost(%q): got %q, expected %q", tt.in, got, tt.want)
		}
	}
}
