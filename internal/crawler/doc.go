// Package crawler discovers the article directory and extracts raw link
// references from article content.
//
// Discovery walks the paginated posts listing and tolerates mid-pagination
// failures by keeping the pages already fetched. Extraction merges two
// independent sources per article: same-origin anchors in the rendered HTML
// and the curated related-posts ACF field. Anchors yield slugs that still
// need resolution; the ACF field yields canonical post IDs directly.
package crawler
