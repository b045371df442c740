// Package epg defines the records exchanged by the merge engine: schedule
// events as known to the live broadcast side, candidate events produced from
// the programme-guide feed, and the per-channel merge policy.
//
// A Schedule keeps its events sorted by start time. Mutations made through the
// ScheduleEvent setters mark the event dirty so stores can persist only what
// changed.
package epg
