package wordpress

// Ref is the minimal identity of a content item: its canonical numeric ID
// and URL slug. Directory listings and slug lookups both decode into Ref.
type Ref struct {
	// ID is the canonical WordPress object ID.
	ID int `json:"id"`

	// Slug is the URL path segment.
	Slug string `json:"slug"`
}

// Rendered is the WordPress "rendered" content wrapper.
type Rendered struct {
	// Rendered is the server-side rendered HTML.
	Rendered string `json:"rendered"`
}

// Post is a single post fetched by ID, carrying the rendered content and
// the raw ACF metadata block.
//
// Design decision: ACF stays a map[string]any here because the field shapes
// are site-defined and loosely typed. The extractor normalizes the one
// field it cares about immediately; the variant never travels further.
type Post struct {
	// ID is the post ID.
	ID int `json:"id"`

	// Slug is the post slug.
	Slug string `json:"slug"`

	// Content holds the rendered HTML body.
	Content Rendered `json:"content"`

	// ACF is the Advanced Custom Fields block, if the site exposes one.
	ACF map[string]any `json:"acf"`
}

// PostsPage is one page of the post directory plus the total page count
// signal read from the X-WP-TotalPages response header.
type PostsPage struct {
	// Posts are the page's entries in API order.
	Posts []Ref

	// TotalPages is the total page count reported by the API.
	// Defaults to 1 when the header is absent or unparseable.
	TotalPages int
}
