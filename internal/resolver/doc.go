// Package resolver converts raw extracted references into canonical
// WordPress post IDs.
//
// Numeric references pass through untouched. Slugs are looked up against
// posts first; when the ignore-non-posts policy is disabled, pages and
// categories are consulted as fallbacks, in that order. An unresolvable
// reference is reported as not found, never as an error; the caller logs
// and drops it.
package resolver
