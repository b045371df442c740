// Package feedstore persists candidate events parsed from programme-guide
// feeds in SQLite.
//
// The import pass reads the rows of one source that fall into its window,
// and records correlations between feed events and broadcast events through a
// Pass. A Pass opens its transaction on the first write and commits once at
// the end, so an aborted pass leaves no partial correlations behind.
package feedstore
