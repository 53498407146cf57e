package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/wplinks/internal/model"
)

// timeRound is the display precision for elapsed durations.
const timeRound = 10 * time.Millisecond

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with plain ASCII
// formatting so output pipes cleanly to files and other tools.
type SimpleWriter struct {
	baseWriter

	// limit caps the number of rows shown. Zero means no limit.
	limit int

	// verbose enables the full link lists per row.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithRowLimit caps the number of report rows shown.
func WithRowLimit(limit int) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.limit = limit
	}
}

// WithVerbose enables verbose output with full link lists.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		limit:      0,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.SiteReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeRows(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with site information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.SiteReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         WPLINKS REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Site:           %s\n", report.Site))
	sb.WriteString(fmt.Sprintf("Base URL:       %s\n", report.BaseURL))
	sb.WriteString(fmt.Sprintf("Analyzed:       %s\n", report.DateAnalyzed.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Elapsed:        %s\n", report.Elapsed.Round(timeRound)))

	switch {
	case report.ErrorMessage != "":
		sb.WriteString(fmt.Sprintf("Status:         ERROR - %s\n", report.ErrorMessage))
	case report.PartialDirectory:
		sb.WriteString("Status:         PARTIAL (pagination stopped early)\n")
	default:
		sb.WriteString("Status:         Complete\n")
	}

	sb.WriteString("\n")
}

// writeSummary writes the article and link count summary section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.SiteReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Articles:      %d\n", len(report.Articles)))
	sb.WriteString(fmt.Sprintf("  Links:         %d\n", report.TotalOutgoing()))
	sb.WriteString(fmt.Sprintf("  Dropped refs:  %d\n", report.DroppedRefs))
	sb.WriteString("\n")
}

// writeRows writes the per-article link table, most linked-to first.
func (w *SimpleWriter) writeRows(sb *strings.Builder, report *model.SiteReport) {
	if len(report.Rows) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("ARTICLES BY INCOMING LINKS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  %8s  %4s  %4s  %s\n", "ID", "IN", "OUT", "SLUG"))

	rows := report.Rows
	if w.limit > 0 && len(rows) > w.limit {
		rows = rows[:w.limit]
	}

	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("  %8d  %4d  %4d  %s\n", row.ID, row.IncomingCount, row.OutgoingCount, row.Slug))
		if w.verbose {
			if row.IncomingCount > 0 {
				sb.WriteString(fmt.Sprintf("            in:  %s\n", row.IncomingList()))
			}
			if row.OutgoingCount > 0 {
				sb.WriteString(fmt.Sprintf("            out: %s\n", row.OutgoingList()))
			}
		}
	}

	if w.limit > 0 && len(report.Rows) > w.limit {
		sb.WriteString(fmt.Sprintf("  ... %d more rows\n", len(report.Rows)-w.limit))
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by wplinks\n")
	sb.WriteString("https://github.com/nao1215/wplinks\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
