package report

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/wplinks/internal/model"
)

// csvHeader is the fixed column order of the CSV export.
var csvHeader = []string{
	"post_id",
	"post_slug",
	"outgoing_count",
	"outgoing_links",
	"incoming_count",
	"incoming_links",
}

// CSVWriter outputs reports as semicolon-separated values.
// The semicolon separator keeps the comma-joined link lists inside a
// single cell without quoting tricks in common spreadsheet tools.
type CSVWriter struct {
	baseWriter

	// comma is the field separator. Defaults to ';'.
	comma rune
}

// CSVWriterOption configures a CSVWriter.
type CSVWriterOption func(*CSVWriter)

// WithSeparator overrides the field separator.
func WithSeparator(comma rune) CSVWriterOption {
	return func(w *CSVWriter) {
		w.comma = comma
	}
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer, opts ...CSVWriterOption) *CSVWriter {
	w := &CSVWriter{
		baseWriter: newBaseWriter(output),
		comma:      ';',
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report rows in CSV format, header first.
func (w *CSVWriter) Write(report *model.SiteReport) (int, error) {
	var sb strings.Builder

	cw := csv.NewWriter(&sb)
	cw.Comma = w.comma

	if err := cw.Write(csvHeader); err != nil {
		return 0, err
	}

	for _, row := range report.Rows {
		record := []string{
			strconv.Itoa(row.ID),
			row.Slug,
			strconv.Itoa(row.OutgoingCount),
			row.OutgoingList(),
			strconv.Itoa(row.IncomingCount),
			row.IncomingList(),
		}
		if err := cw.Write(record); err != nil {
			return 0, err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, err
	}

	return w.output.Write([]byte(sb.String()))
}

// FileName expands a CSV file name pattern for a site.
// The "{site}" placeholder is replaced by the site's short name.
func FileName(pattern, site string) string {
	return strings.ReplaceAll(pattern, "{site}", site)
}
