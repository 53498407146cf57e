// Package report provides output formatting for link analysis results.
//
// The package supports multiple output formats:
//   - Simple: human-readable text for terminal display
//   - CSV: semicolon-separated values for spreadsheet import
//   - Markdown: documentation-friendly tables
//   - JSON: machine-readable format for tool integration
package report
