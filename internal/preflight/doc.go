// Package preflight provides readiness checks for the stores, paths and
// settings epgmerge depends on.
//
// The CLI "epgmerge check" command runs RunAll and prints one line per check.
// Checks never create anything: a missing feed store is reported, not made.
package preflight
