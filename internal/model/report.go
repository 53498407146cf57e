package model

import (
	"strconv"
	"strings"
	"time"
)

// Row is one line of the per-article link report.
// Rows are ordered by IncomingCount descending; ties keep the original
// directory-discovery order.
type Row struct {
	// ID is the article's WordPress post ID.
	ID int `json:"post_id"`

	// Slug is the article's URL slug.
	Slug string `json:"post_slug"`

	// OutgoingCount is the number of resolved outbound links.
	OutgoingCount int `json:"outgoing_count"`

	// Outgoing lists the outbound target IDs in extraction order.
	Outgoing []int `json:"outgoing_links"`

	// IncomingCount is the number of articles linking here.
	IncomingCount int `json:"incoming_count"`

	// Incoming lists the IDs of articles linking here.
	Incoming []int `json:"incoming_links"`
}

// OutgoingList returns the outbound IDs as a comma-separated string.
// This is the display form used by the CSV and text writers.
func (r Row) OutgoingList() string { return joinIDs(r.Outgoing) }

// IncomingList returns the inbound IDs as a comma-separated string.
func (r Row) IncomingList() string { return joinIDs(r.Incoming) }

// joinIDs renders a sequence of IDs as "1, 2, 3".
func joinIDs(ids []int) string {
	if len(ids) == 0 {
		return ""
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ", ")
}

// SiteReport accumulates the result of analyzing one site.
// It is created empty by NewSiteReport and filled in by pipeline steps;
// a step failure is recorded here rather than aborting other sites.
type SiteReport struct {
	// Site is the short site name used in file names and logs.
	Site string `json:"site"`

	// BaseURL is the site's base URL (scheme + host, no trailing slash).
	BaseURL string `json:"base_url"`

	// DateAnalyzed is when the analysis started.
	DateAnalyzed time.Time `json:"date_analyzed"`

	// Elapsed is the total analysis duration.
	Elapsed time.Duration `json:"elapsed"`

	// Articles is the full directory in API page order.
	Articles []Article `json:"articles"`

	// Outgoing maps each article ID to its resolved outbound link IDs.
	Outgoing LinkMap `json:"outgoing"`

	// Incoming maps each article ID to the IDs of articles linking to it.
	Incoming IncomingMap `json:"incoming"`

	// Rows is the final report, sorted by incoming count descending.
	Rows []Row `json:"rows"`

	// PartialDirectory is true when pagination stopped early and the
	// article set covers only the pages fetched before the failure.
	PartialDirectory bool `json:"partial_directory,omitempty"`

	// DroppedRefs counts references that could not be resolved or were
	// filtered by the ignore-non-posts policy.
	DroppedRefs int `json:"dropped_refs,omitempty"`

	// PerformedSteps lists the pipeline steps that ran, in order.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Error holds a fatal per-site error. It is not serialized; the
	// message is carried in ErrorMessage instead.
	Error error `json:"-"`

	// ErrorMessage is the string form of Error for serialized reports.
	ErrorMessage string `json:"error,omitempty"`
}

// NewSiteReport creates an empty report for the given site.
func NewSiteReport(site, baseURL string) *SiteReport {
	return &SiteReport{
		Site:         site,
		BaseURL:      strings.TrimRight(baseURL, "/"),
		DateAnalyzed: time.Now(),
		Outgoing:     make(LinkMap),
		Incoming:     make(IncomingMap),
	}
}

// ArticleIDs returns the set of known article IDs for membership checks.
func (r *SiteReport) ArticleIDs() map[int]bool {
	ids := make(map[int]bool, len(r.Articles))
	for _, a := range r.Articles {
		ids[a.ID] = true
	}
	return ids
}

// TotalOutgoing returns the total outbound link count across all rows.
func (r *SiteReport) TotalOutgoing() int { return r.Outgoing.TotalLinks() }

// SetError records a fatal per-site error on the report.
func (r *SiteReport) SetError(err error) {
	r.Error = err
	if err != nil {
		r.ErrorMessage = err.Error()
	}
}
