// Package reconcile merges candidate events from the programme-guide feed
// into a channel schedule.
//
// An Engine locates the schedule event a candidate describes (broadcast id,
// feed id, exact start, then a title scan around the start time), inserts the
// candidate into a free slot when the channel policy allows it, synthesizes
// the enriched description and applies only real changes to the schedule
// event. Descriptions produced here end in epg.Sentinel so later passes can
// recognize and skip them.
package reconcile
