package feedstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"epgmerge/internal/epg"
	"epgmerge/internal/sqlstore"
)

const candidateColumns = "src, srcidx, channel_id, event_id, start_time, duration, title, orig_title, short_text, description, country, year, credits, category, review, rating, star_rating, video, audio, season, episode, parental_rating, mixing, eit_event_id, eit_description"

func scanCandidate(scanner interface{ Scan(dest ...any) error }) (*epg.CandidateEvent, error) {
	var (
		src            string
		srcIdx         int
		channelID      string
		eventID        int64
		startTime      int64
		duration       int64
		title          string
		origTitle      sql.NullString
		shortText      sql.NullString
		description    sql.NullString
		country        sql.NullString
		year           sql.NullInt64
		credits        sql.NullString
		category       sql.NullString
		review         sql.NullString
		rating         sql.NullString
		starRating     sql.NullString
		video          sql.NullString
		audio          sql.NullString
		season         sql.NullInt64
		episode        sql.NullInt64
		parental       sql.NullInt64
		mixing         int64
		eitEventID     sql.NullInt64
		eitDescription sql.NullString
	)

	if err := scanner.Scan(
		&src,
		&srcIdx,
		&channelID,
		&eventID,
		&startTime,
		&duration,
		&title,
		&origTitle,
		&shortText,
		&description,
		&country,
		&year,
		&credits,
		&category,
		&review,
		&rating,
		&starRating,
		&video,
		&audio,
		&season,
		&episode,
		&parental,
		&mixing,
		&eitEventID,
		&eitDescription,
	); err != nil {
		return nil, err
	}

	ev := &epg.CandidateEvent{
		Source:         src,
		SourceIndex:    srcIdx,
		ChannelID:      channelID,
		EventID:        epg.EventID(eventID),
		EITEventID:     epg.EventID(eitEventID.Int64),
		Start:          time.Unix(startTime, 0).UTC(),
		Duration:       time.Duration(duration) * time.Second,
		Title:          title,
		OrigTitle:      origTitle.String,
		Subtitle:       shortText.String,
		Description:    description.String,
		EITDescription: eitDescription.String,
		Country:        country.String,
		Year:           int(year.Int64),
		Season:         int(season.Int64),
		Episode:        int(episode.Int64),
		Audio:          audio.String,
		ParentalRating: int(parental.Int64),
		Mixing:         mixing != 0,
	}

	decoders := []struct {
		column string
		raw    sql.NullString
		dest   any
	}{
		{"credits", credits, &ev.Credits},
		{"category", category, &ev.Categories},
		{"review", review, &ev.Reviews},
		{"rating", rating, &ev.Ratings},
		{"star_rating", starRating, &ev.StarRatings},
		{"video", video, &ev.Video},
	}
	for _, d := range decoders {
		if !d.raw.Valid || d.raw.String == "" {
			continue
		}
		if err := json.Unmarshal([]byte(d.raw.String), d.dest); err != nil {
			return nil, fmt.Errorf("decode %s: %w", d.column, err)
		}
	}
	return ev, nil
}

func putArgs(ev *epg.CandidateEvent) ([]any, error) {
	lists := []struct {
		column string
		value  any
		empty  bool
	}{
		{"credits", ev.Credits, len(ev.Credits) == 0},
		{"category", ev.Categories, len(ev.Categories) == 0},
		{"review", ev.Reviews, len(ev.Reviews) == 0},
		{"rating", ev.Ratings, len(ev.Ratings) == 0},
		{"star_rating", ev.StarRatings, len(ev.StarRatings) == 0},
		{"video", ev.Video, len(ev.Video) == 0},
	}
	encoded := make([]any, len(lists))
	for i, l := range lists {
		if l.empty {
			continue
		}
		data, err := json.Marshal(l.value)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", l.column, err)
		}
		encoded[i] = string(data)
	}

	mixing := 0
	if ev.Mixing {
		mixing = 1
	}
	return []any{
		ev.Source,
		ev.SourceIndex,
		ev.ChannelID,
		int64(ev.EventID),
		ev.Start.Unix(),
		int64(ev.Duration / time.Second),
		ev.Title,
		sqlstore.NullableString(ev.OrigTitle),
		sqlstore.NullableString(ev.Subtitle),
		sqlstore.NullableString(ev.Description),
		sqlstore.NullableString(ev.Country),
		sqlstore.NullableInt(int64(ev.Year)),
		encoded[0],
		encoded[1],
		encoded[2],
		encoded[3],
		encoded[4],
		encoded[5],
		sqlstore.NullableString(ev.Audio),
		sqlstore.NullableInt(int64(ev.Season)),
		sqlstore.NullableInt(int64(ev.Episode)),
		sqlstore.NullableInt(int64(ev.ParentalRating)),
		mixing,
	}, nil
}
