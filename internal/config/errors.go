package config

import "errors"

// Configuration validation errors returned by Config.Validate and
// Site.Validate. Package-level sentinels let callers use errors.Is while
// keeping the messages human-readable.
var (
	// ErrNoSites is returned when neither the config file nor the command
	// line provides a site to analyze.
	ErrNoSites = errors.New("no sites specified: provide a base URL or use a .wplinks config file")

	// ErrEmptySiteURL is returned when a site entry has no base URL.
	ErrEmptySiteURL = errors.New("site has no base URL")

	// ErrInvalidSiteURL is returned when a site base URL is not an
	// absolute http or https URL.
	ErrInvalidSiteURL = errors.New("site base URL must be absolute http(s)")

	// ErrInvalidPerPage is returned when the page size is outside 1..100.
	// The WordPress REST API rejects per_page values above 100.
	ErrInvalidPerPage = errors.New("invalid per-page: must be between 1 and 100")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidAttempts is returned when the retry budget is not positive.
	ErrInvalidAttempts = errors.New("invalid attempts: must be positive")

	// ErrInvalidRate is returned when the request rate is not positive.
	ErrInvalidRate = errors.New("invalid rate: must be positive")

	// ErrInvalidConcurrency is returned when the article fan-out is not
	// positive. Use 1 for sequential processing.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidBatchSize is returned when the site batch size is not
	// positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
