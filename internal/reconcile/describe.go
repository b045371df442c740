package reconcile

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"epgmerge/internal/epg"
)

// Synthesis is the result of building a description for a candidate.
type Synthesis struct {
	// Text is the display description ending in epg.Sentinel, or empty when
	// there is nothing to write.
	Text string
	// FromExisting is set when the base text was taken over from the schedule
	// event instead of the feed.
	FromExisting bool
	// AlreadyEnriched is set when the only base available is a description
	// this engine already produced; Text is empty in that case.
	AlreadyEnriched bool
}

var fold = cases.Fold()

func equalFold(a, b string) bool {
	return fold.String(a) == fold.String(b)
}

// Synthesize builds the description for c. The base text is the feed
// description (when the policy uses long texts or appends events), else the
// cached broadcast description, else the schedule event's own text. The
// enabled structured fields follow, one "Label: value" line each. Broadcast
// text is already display text and is never converted again.
func (e *Engine) Synthesize(c *epg.CandidateEvent, existing *epg.ScheduleEvent, p epg.Policy) Synthesis {
	var (
		base         string
		display      bool
		fromExisting bool
	)
	switch {
	case (p.UseDescription || p.AppendEvents) && c.Description != "":
		base = c.Description
	case c.EITDescription != "":
		base = c.EITDescription
		display = true
	case existing != nil && existing.Description != "":
		if existing.WasEnriched() {
			return Synthesis{AlreadyEnriched: true}
		}
		base = existing.Description
		display = true
		fromExisting = true
	}

	var b strings.Builder
	if base != "" && !display {
		b.WriteString(base)
		b.WriteByte('\n')
	}
	e.writeFields(&b, c, p)

	rendered := strings.TrimSuffix(b.String(), "\n")
	text := e.conv.Convert(rendered)
	if display {
		text = base
		if rendered != "" {
			text += "\n" + e.conv.Convert(rendered)
		}
	}
	if text == "" {
		return Synthesis{}
	}
	return Synthesis{Text: text + e.conv.Convert(epg.Sentinel), FromExisting: fromExisting}
}

func (e *Engine) writeFields(b *strings.Builder, c *epg.CandidateEvent, p epg.Policy) {
	if p.UseCredits {
		e.writeCredits(b, c.Credits, p)
	}
	if p.UseCountryYear {
		if c.Country != "" {
			e.writeLine(b, "country", c.Country)
		}
		if c.Year != 0 {
			e.writeLine(b, "year", strconv.Itoa(c.Year))
		}
	}
	if p.UseOrigTitle && c.OrigTitle != "" {
		e.writeLine(b, "originaltitle", c.OrigTitle)
	}
	if p.UseCategories {
		for i, cat := range c.Categories {
			if i > 0 && equalFold(cat, c.Categories[i-1]) {
				continue
			}
			e.writeLine(b, "category", cat)
		}
	}
	if p.UseVideo && len(c.Video) > 0 {
		e.writeVideo(b, c.Video)
	}
	if p.UseAudio && c.Audio != "" {
		e.writeAudio(b, c.Audio)
	}
	if p.UseSeason {
		if c.Season != 0 {
			e.writeLine(b, "season", strconv.Itoa(c.Season))
		}
		if c.Episode != 0 {
			e.writeLine(b, "episode", strconv.Itoa(c.Episode))
		}
	}
	if p.UseRating && (p.RatingAsText || !e.nativeRating) {
		for _, r := range c.Ratings {
			b.WriteString(r.Key)
			b.WriteString(": ")
			b.WriteString(r.Value)
			b.WriteByte('\n')
		}
	}
	if p.UseStarRating && len(c.StarRatings) > 0 {
		e.writeStarRatings(b, c.StarRatings)
	}
	if p.UseReview {
		for _, r := range c.Reviews {
			e.writeLine(b, "review", r)
		}
	}
}

// writeLine appends "Label: value" when key has a label.
func (e *Engine) writeLine(b *strings.Builder, key, value string) {
	label, ok := e.labels.Label(key)
	if !ok {
		return
	}
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteByte('\n')
}

func creditAllowed(role string, p epg.Policy) bool {
	switch strings.ToLower(role) {
	case "actor":
		return p.CreditsActors
	case "director":
		return p.CreditsDirectors
	default:
		return p.CreditsOthers
	}
}

// writeCredits renders one line per credit, or in list mode one line per run
// of credits sharing a role.
func (e *Engine) writeCredits(b *strings.Builder, credits []epg.Pair, p epg.Policy) {
	var (
		role  string
		names []string
	)
	flush := func() {
		if len(names) == 0 {
			return
		}
		label, _ := e.labels.Label(role)
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(strings.Join(names, ", "))
		b.WriteByte('\n')
		names = names[:0]
	}

	for _, credit := range credits {
		if !creditAllowed(credit.Key, p) {
			continue
		}
		if _, ok := e.labels.Label(credit.Key); !ok {
			continue
		}
		if !p.CreditsList {
			e.writeLine(b, credit.Key, credit.Value)
			continue
		}
		if len(names) > 0 && !strings.EqualFold(credit.Key, role) {
			flush()
		}
		role = credit.Key
		names = append(names, credit.Value)
	}
	if p.CreditsList {
		flush()
	}
}

// writeVideo renders all video descriptors on one line. A "colour: no"
// descriptor maps to the black-and-white label; other colour values are
// omitted.
func (e *Engine) writeVideo(b *strings.Builder, video []epg.Pair) {
	label, ok := e.labels.Label("video")
	if !ok {
		return
	}
	parts := make([]string, 0, len(video))
	for _, v := range video {
		if strings.EqualFold(v.Key, "colour") {
			if !strings.EqualFold(v.Value, "no") {
				continue
			}
			if bw, ok := e.labels.Label("blacknwhite"); ok {
				parts = append(parts, bw)
			}
			continue
		}
		if v.Value != "" {
			parts = append(parts, v.Value)
		}
	}
	if len(parts) == 0 {
		return
	}
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(strings.Join(parts, ", "))
	b.WriteByte('\n')
}

func (e *Engine) writeAudio(b *strings.Builder, audio string) {
	if strings.EqualFold(audio, "mono") || strings.EqualFold(audio, "stereo") {
		e.writeLine(b, "audio", audio)
		return
	}
	value, ok := e.labels.Label(audio)
	if !ok {
		return
	}
	e.writeLine(b, "audio", value)
}

func (e *Engine) writeStarRatings(b *strings.Builder, ratings []epg.Pair) {
	label, ok := e.labels.Label("starrating")
	if !ok {
		return
	}
	parts := make([]string, 0, len(ratings))
	for _, r := range ratings {
		if r.Key == "" || r.Key == "*" {
			parts = append(parts, r.Value)
			continue
		}
		parts = append(parts, r.Key+" "+r.Value)
	}
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(strings.Join(parts, ", "))
	b.WriteByte('\n')
}
