package crawler

import (
	"log/slog"
	"net/url"
	"path"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"

	"github.com/nao1215/wplinks/internal/model"
	"github.com/nao1215/wplinks/internal/wordpress"
)

// skippedExtensions are file extensions whose links are binary assets,
// not article references.
var skippedExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// Extractor produces raw outbound references from one article's rendered
// content and ACF metadata.
//
// Design decision: We parse the rendered HTML with golang.org/x/net/html
// rather than regex because it correctly handles the malformed markup that
// WordPress themes and page builders routinely emit.
type Extractor struct {
	// host is the site host, lowercased, without the "www." prefix.
	host string

	// relatedField is the ACF field holding curated related posts.
	relatedField string

	// logger receives extraction diagnostics.
	logger *slog.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithRelatedField sets the ACF field name for curated related posts.
func WithRelatedField(field string) ExtractorOption {
	return func(e *Extractor) {
		if field != "" {
			e.relatedField = field
		}
	}
}

// WithExtractorLogger sets the logger for extraction diagnostics.
func WithExtractorLogger(logger *slog.Logger) ExtractorOption {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// NewExtractor creates an Extractor for the site at baseURL.
func NewExtractor(baseURL string, opts ...ExtractorOption) (*Extractor, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	e := &Extractor{
		host:         normalizeHost(u.Host),
		relatedField: "related-posts",
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Extract merges both extraction sources for one post: content anchors
// first, then the curated related-posts IDs.
func (e *Extractor) Extract(post *wordpress.Post) []model.RawRef {
	refs := e.Anchors(post.Content.Rendered)
	return append(refs, e.Related(post.ACF)...)
}

// Anchors scans rendered HTML for same-origin anchor links and returns the
// slug candidates, in document order. The origin match is protocol-agnostic
// and ignores an optional "www." prefix; links to binary assets (pdf, jpg,
// jpeg, png, gif) are skipped. Malformed content yields an empty list.
func (e *Extractor) Anchors(content string) []model.RawRef {
	if content == "" {
		return nil
	}

	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		e.logger.Warn("failed to parse article content", "error", err)
		return nil
	}

	var refs []model.RawRef
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if slug, ok := e.slugFromHref(attr(n, "href")); ok {
				refs = append(refs, model.SlugRef(slug))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return refs
}

// slugFromHref converts one href into a slug candidate.
// Only absolute (or protocol-relative) URLs pointing at the site's own
// host qualify; relative links in rendered content are theme navigation,
// not editorial article links.
func (e *Extractor) slugFromHref(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}

	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if u.Host == "" || normalizeHost(u.Host) != e.host {
		return "", false
	}

	p := strings.TrimRight(u.Path, "/")
	if p == "" {
		return "", false
	}
	if skippedExtensions[strings.ToLower(path.Ext(p))] {
		return "", false
	}

	// Last non-empty path segment is the slug.
	slug := p[strings.LastIndex(p, "/")+1:]
	if slug == "" {
		return "", false
	}

	// url.Parse already percent-decoded the path; NFC normalization makes
	// non-ASCII slugs (Cyrillic is common on these sites) compare equal to
	// the directory's form.
	return norm.NFC.String(slug), true
}

// Related reads the curated related-posts field from the ACF block and
// normalizes it to canonical post IDs.
//
// The field arrives in one of three shapes: a comma-separated string of
// IDs, a list of numbers and/or digit strings, or absent. Elements that do
// not coerce to a non-negative integer are silently dropped.
func (e *Extractor) Related(acf map[string]any) []model.RawRef {
	if acf == nil {
		return nil
	}

	var refs []model.RawRef
	switch v := acf[e.relatedField].(type) {
	case string:
		for _, part := range strings.Split(v, ",") {
			if id, ok := coerceID(strings.TrimSpace(part)); ok {
				refs = append(refs, model.IDRef(id))
			}
		}
	case []any:
		for _, elem := range v {
			if id, ok := coerceID(elem); ok {
				refs = append(refs, model.IDRef(id))
			}
		}
	default:
		return nil
	}

	return refs
}

// coerceID converts a loosely-typed ACF element to a non-negative post ID.
func coerceID(v any) (int, bool) {
	switch t := v.(type) {
	case string:
		if t == "" {
			return 0, false
		}
		id, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil || id < 0 {
			return 0, false
		}
		return id, true
	case float64:
		// encoding/json decodes all numbers as float64.
		id := int(t)
		if float64(id) != t || id < 0 {
			return 0, false
		}
		return id, true
	case int:
		if t < 0 {
			return 0, false
		}
		return t, true
	default:
		return 0, false
	}
}

// normalizeHost lowercases a host and strips the optional "www." prefix
// and port so origin comparison is protocol- and prefix-agnostic.
func normalizeHost(host string) string {
	host = strings.ToLower(host)
	if h, _, ok := strings.Cut(host, ":"); ok {
		host = h
	}
	return strings.TrimPrefix(host, "www.")
}

// attr retrieves an attribute value from an HTML node.
func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
