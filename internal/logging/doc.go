// Package logging assembles structured slog loggers and formatting helpers used
// across epgmerge.
//
// It owns the console/JSON handlers, level and output plumbing (including the
// rotating log file), and context helpers so an import pass can tag every line
// with its run id and source. The package also provides a no-op logger for
// tests and wiring code that cannot fail.
package logging
