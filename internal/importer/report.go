package importer

import (
	"log/slog"

	"epgmerge/internal/logging"
)

type cause int

const (
	causeNoMapping cause = iota
	causeNoChannel
	causeNoSchedule
)

func (c cause) eventType() string {
	switch c {
	case causeNoMapping:
		return "no_mapping"
	case causeNoChannel:
		return "channel_not_found"
	default:
		return "no_schedule"
	}
}

type reportKey struct {
	cause cause
	key   string
}

// reporter logs configuration gaps once per cause and key within a pass.
type reporter struct {
	logger *slog.Logger
	seen   map[reportKey]struct{}
}

func newReporter(logger *slog.Logger) *reporter {
	return &reporter{logger: logger, seen: make(map[reportKey]struct{})}
}

// once logs msg unless the same cause was already reported for key. It
// returns true when the message was logged.
func (r *reporter) once(c cause, key, msg string, attrs ...logging.Attr) bool {
	k := reportKey{cause: c, key: key}
	if _, ok := r.seen[k]; ok {
		return false
	}
	r.seen[k] = struct{}{}
	attrs = append(attrs, logging.String(logging.FieldErrorHint, hintFor(c)))
	logging.ErrorWithContext(r.logger, msg, c.eventType(), attrs...)
	return true
}

func hintFor(c cause) string {
	switch c {
	case causeNoMapping:
		return "add a [[channels]] entry for this feed channel"
	case causeNoChannel:
		return "register the channel with 'epgmerge schedule add-channel'"
	default:
		return "enable append_events to create missing schedules"
	}
}
