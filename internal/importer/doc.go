// Package importer runs import passes: it reads the feed rows of one source
// inside the import window, maps each row onto its target channels, and
// reconciles it against each channel's schedule under the schedule lock.
//
// A pass keeps its feed store writes in one transaction that is committed at
// the end and rolled back when the pass is stopped. Configuration gaps such as
// unmapped feed channels or unknown target channels are reported once per
// cause and never abort the pass; only an unusable feed store does.
//
// Enrich is the reverse direction: it walks an existing schedule and fills in
// descriptions from cached feed rows.
package importer
