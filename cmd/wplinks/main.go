// Package main provides the entry point for the wplinks CLI.
//
// wplinks analyzes the internal link structure of WordPress sites through
// the public REST API. It discovers all published articles, extracts
// article-to-article links from rendered content and ACF related-post
// fields, and reports which articles attract the most internal links.
//
// Usage:
//
//	wplinks analyze https://example.com
//	wplinks analyze --csv https://example.com https://other.example
//
// See --help for all available options.
package main

// main is the entry point for wplinks.
func main() {
	Execute()
}
