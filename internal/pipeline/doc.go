// Package pipeline orchestrates the analysis of one or more sites.
//
// A Pipeline runs ordered steps (discover, extract links, aggregate)
// against a SiteReport. BatchProcessor runs multiple sites concurrently;
// a failure inside one site's pipeline is recorded on that site's report
// and never stops the other sites.
package pipeline
