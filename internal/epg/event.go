package epg

import (
	"fmt"
	"time"
)

// EventID is a broadcast or feed assigned event identifier. Zero means absent.
type EventID uint32

// Sentinel terminates every description produced by the merge engine. Its
// UTF-8 encoding ends in 0xA0, and so does every single-byte charset
// rendering of it.
const Sentinel = "\u00a0"

const sentinelLastByte = 0xA0

// HasSentinel reports whether text ends with the enrichment sentinel byte.
func HasSentinel(text string) bool {
	return len(text) > 0 && text[len(text)-1] == sentinelLastByte
}

// ScheduleEvent is an entry in a channel's programme schedule.
type ScheduleEvent struct {
	// RowID is the store identity; zero until the event is persisted.
	RowID          int64
	EventID        EventID
	Start          time.Time
	Duration       time.Duration
	Title          string
	Subtitle       string
	Description    string
	ParentalRating int
	// Enriched is set when Description was produced by the merge engine.
	Enriched bool

	dirty bool
}

// End returns the event's end time.
func (e *ScheduleEvent) End() time.Time {
	return e.Start.Add(e.Duration)
}

// WasEnriched reports whether the description was rendered in an earlier run,
// either via the explicit flag or the trailing sentinel.
func (e *ScheduleEvent) WasEnriched() bool {
	if e == nil {
		return false
	}
	return e.Enriched || HasSentinel(e.Description)
}

func (e *ScheduleEvent) SetSubtitle(subtitle string) {
	if e.Subtitle == subtitle {
		return
	}
	e.Subtitle = subtitle
	e.dirty = true
}

// SetDescription replaces the description wholesale.
func (e *ScheduleEvent) SetDescription(description string, enriched bool) {
	if e.Description == description && e.Enriched == enriched {
		return
	}
	e.Description = description
	e.Enriched = enriched
	e.dirty = true
}

func (e *ScheduleEvent) SetDuration(d time.Duration) {
	if d < 0 {
		d = 0
	}
	if e.Duration == d {
		return
	}
	e.Duration = d
	e.dirty = true
}

func (e *ScheduleEvent) SetParentalRating(rating int) {
	if e.ParentalRating == rating {
		return
	}
	e.ParentalRating = rating
	e.dirty = true
}

// Dirty reports whether the event is unsaved or was modified since load.
func (e *ScheduleEvent) Dirty() bool {
	return e.dirty || e.RowID == 0
}

// MarkClean is called by stores after persisting the event.
func (e *ScheduleEvent) MarkClean() {
	e.dirty = false
}

// Window renders the event interval for log output.
func (e *ScheduleEvent) Window() string {
	return FormatWindow(e.Start, e.End())
}

func (e *ScheduleEvent) String() string {
	return fmt.Sprintf("'%s'@%s", e.Title, e.Window())
}

const windowLayout = "Jan 02 15:04"

// FormatWindow renders an interval as "Jan 02 15:04-Jan 02 16:04" in local time.
func FormatWindow(start, end time.Time) string {
	return start.Local().Format(windowLayout) + "-" + end.Local().Format(windowLayout)
}
