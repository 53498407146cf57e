package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/wplinks/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: the nao1215/markdown library gives type-safe fluent
// generation of tables and GitHub-flavored alerts.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.SiteReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeRows(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with site information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.SiteReport) {
	md.H1("Internal Link Report: " + report.Site)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Base URL", "`" + report.BaseURL + "`"},
			{"Analyzed", report.DateAnalyzed.Format("2006-01-02 15:04:05 MST")},
			{"Elapsed", report.Elapsed.Round(timeRound).String()},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.SiteReport) string {
	if report.ErrorMessage != "" {
		return "❌ Error - " + report.ErrorMessage
	}
	if report.PartialDirectory {
		return "⚠️ Partial (pagination stopped early)"
	}
	return "✅ Complete"
}

// writeSummary writes the count summary section with an alert for
// degraded runs.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.SiteReport) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Articles", strconv.Itoa(len(report.Articles))},
			{"Internal links", strconv.Itoa(report.TotalOutgoing())},
			{"Dropped references", strconv.Itoa(report.DroppedRefs)},
		},
	})
	md.PlainText("")

	switch {
	case report.ErrorMessage != "":
		md.Cautionf("Analysis failed: %s", report.ErrorMessage)
		md.PlainText("")
	case report.PartialDirectory:
		md.Warningf("The article directory is incomplete; counts cover only the %d articles fetched before pagination failed.", len(report.Articles))
		md.PlainText("")
	case report.DroppedRefs > 0:
		md.Notef("%d reference(s) could not be resolved to known articles and were dropped.", report.DroppedRefs)
		md.PlainText("")
	}
}

// writeRows writes the per-article link table.
func (w *MarkdownWriter) writeRows(md *markdown.Markdown, report *model.SiteReport) {
	md.H2("Articles by Incoming Links")
	md.PlainText("")

	if len(report.Rows) == 0 {
		md.PlainText("No articles found.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Rows))
	for i, r := range report.Rows {
		rows[i] = []string{
			strconv.Itoa(r.ID),
			"`" + r.Slug + "`",
			strconv.Itoa(r.IncomingCount),
			dashIfEmpty(r.IncomingList()),
			strconv.Itoa(r.OutgoingCount),
			dashIfEmpty(r.OutgoingList()),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"ID", "Slug", "In", "Incoming", "Out", "Outgoing"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [wplinks](https://github.com/nao1215/wplinks)*")
}

// dashIfEmpty substitutes "-" for empty table cells.
func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
