// Package main hosts the epgmerge CLI entrypoint and command graph.
//
// The Cobra-based command tree runs import and enrich passes, inspects and
// seeds the schedule and feed stores, and scaffolds configuration. It
// centralizes configuration resolution and logging setup so subcommands can
// focus on user experience instead of wiring.
//
// Keep this package lean: the merge logic lives in internal/reconcile and the
// pass orchestration in internal/importer.
package main
