// Package log provides slog logger construction for wplinks.
//
// Components never touch the process-wide default logger; they receive a
// *slog.Logger explicitly. This keeps diagnostics injectable and lets tests
// capture warnings with CaptureHandler.
package log
