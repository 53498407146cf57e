package model

import "strconv"

// Article is a published post discovered during directory traversal.
// The ID is assigned by WordPress and stable across runs; the slug is
// unique within a site. Articles are immutable once discovered.
type Article struct {
	// ID is the WordPress post ID.
	ID int `json:"id"`

	// Slug is the URL path segment identifying the post.
	Slug string `json:"slug"`
}

// RawRef is a single outbound reference extracted from one article's
// content, before resolution. It is either a slug (from an anchor href)
// or an already-canonical numeric ID (from the related-posts field).
//
// Design decision: We model the two shapes as one tagged value rather than
// separate slices because the pipeline processes extracted references in
// order, and the resolver decides per reference whether a lookup is needed.
type RawRef struct {
	// slug is set when the reference came from an anchor href.
	slug string

	// id is set when the reference is already a numeric post ID.
	id int

	// numeric reports which of the two fields is valid.
	numeric bool
}

// SlugRef creates a RawRef holding a slug that still needs resolution.
func SlugRef(slug string) RawRef {
	return RawRef{slug: slug}
}

// IDRef creates a RawRef holding an already-canonical numeric ID.
func IDRef(id int) RawRef {
	return RawRef{id: id, numeric: true}
}

// IsID reports whether the reference is already a numeric ID.
func (r RawRef) IsID() bool { return r.numeric }

// ID returns the numeric ID. Valid only when IsID is true.
func (r RawRef) ID() int { return r.id }

// Slug returns the slug. Valid only when IsID is false.
func (r RawRef) Slug() string { return r.slug }

// String returns a display form of the reference for log messages.
func (r RawRef) String() string {
	if r.numeric {
		return strconv.Itoa(r.id)
	}
	return r.slug
}

// LinkMap maps an article ID to the ordered sequence of resolved outbound
// article IDs. Duplicates are permitted and insertion order is preserved;
// a post that links to the same target twice counts twice.
type LinkMap map[int][]int

// IncomingMap maps an article ID to the IDs of articles referencing it.
// It is always derived from a LinkMap, never constructed independently.
type IncomingMap map[int][]int

// TotalLinks returns the total number of link entries across all sources.
func (m LinkMap) TotalLinks() int {
	total := 0
	for _, targets := range m {
		total += len(targets)
	}
	return total
}
