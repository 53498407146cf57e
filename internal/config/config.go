package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. These match the WordPress REST API limits
// and conservative politeness settings for public sites.
const (
	// DefaultPerPage is the page size for directory pagination.
	// 100 is the maximum the WordPress REST API allows per request.
	DefaultPerPage = 100

	// DefaultRelatedField is the ACF field holding curated related posts.
	DefaultRelatedField = "related-posts"

	// DefaultTimeout is the per-request connection timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultAttempts is the retry budget per request. With exponential
	// backoff starting at one second this yields delays of 1s, 2s, 4s.
	DefaultAttempts = 3

	// DefaultRequestsPerSecond limits the request rate against one site.
	// Sequential analysis rarely reaches this, but the limiter also bounds
	// the concurrent extraction fan-out.
	DefaultRequestsPerSecond = 5

	// DefaultConcurrency is the per-site article fan-out. 1 keeps the
	// original strictly sequential behavior; higher values enable the
	// bounded worker pool.
	DefaultConcurrency = 1

	// DefaultBatchSize is the number of sites analyzed concurrently.
	DefaultBatchSize = 2

	// DefaultUserAgent identifies wplinks in HTTP requests so site
	// operators can spot analyzer traffic in their logs.
	DefaultUserAgent = "wplinks/1.0 (+https://github.com/nao1215/wplinks)"

	// DefaultCSVPattern names per-site CSV exports. The {site} placeholder
	// is replaced with the site name.
	DefaultCSVPattern = "links_{site}.csv"

	// AppName is the application name used for XDG directory paths.
	AppName = "wplinks"
)

// Config holds all options for an analysis run.
// It is populated from CLI flags and passed through the application via
// dependency injection rather than global state.
type Config struct {
	// Sites lists the sites to analyze, in order.
	Sites []Site

	// PerPage is the directory pagination page size (max 100).
	PerPage int

	// RelatedField is the default ACF field name for curated links.
	// Individual sites may override it.
	RelatedField string

	// IgnoreNonPosts is the default disambiguation policy: when true,
	// slugs that resolve only to pages or categories are dropped.
	// Individual sites may override it.
	IgnoreNonPosts bool

	// Timeout is the per-request connection timeout.
	Timeout time.Duration

	// Attempts is the retry budget per request.
	Attempts int

	// RequestsPerSecond caps the request rate per site.
	RequestsPerSecond float64

	// Concurrency is the per-site article fan-out (1 = sequential).
	Concurrency int

	// BatchSize is the number of sites analyzed concurrently.
	BatchSize int

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the explicit path to the .wplinks file, if any.
	ConfigFilePath string

	// CSVExport enables per-site CSV export using CSVPattern.
	CSVExport bool

	// CSVPattern is the file name pattern for CSV exports.
	CSVPattern string

	// JSONReport enables JSON report output on stdout.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output on stdout.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile redirects stdout report output to a file.
	ReportFile string

	// DBDir is the directory for the SQLite run store. Empty disables
	// persistence.
	DBDir string

	// SaveToDB indicates whether runs are persisted.
	SaveToDB bool

	// UserAgent is the User-Agent header for all requests.
	UserAgent string
}

// NewConfig creates a Config with default values.
// Defaults are non-zero, so relying on zero values would misconfigure the
// client; this constructor also documents the defaults in one place.
func NewConfig() *Config {
	return &Config{
		PerPage:           DefaultPerPage,
		RelatedField:      DefaultRelatedField,
		IgnoreNonPosts:    true,
		Timeout:           DefaultTimeout,
		Attempts:          DefaultAttempts,
		RequestsPerSecond: DefaultRequestsPerSecond,
		Concurrency:       DefaultConcurrency,
		BatchSize:         DefaultBatchSize,
		CSVPattern:        DefaultCSVPattern,
		UserAgent:         DefaultUserAgent,
	}
}

// XDGDataDir returns the XDG data directory for wplinks.
// On Linux: ~/.local/share/wplinks
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for wplinks.
// On Linux: ~/.config/wplinks
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
// It runs once after CLI parsing, before any network traffic.
func (c *Config) Validate() error {
	if len(c.Sites) == 0 {
		return ErrNoSites
	}
	for _, s := range c.Sites {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	if c.PerPage <= 0 || c.PerPage > 100 {
		return ErrInvalidPerPage
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Attempts <= 0 {
		return ErrInvalidAttempts
	}
	if c.RequestsPerSecond <= 0 {
		return ErrInvalidRate
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}
