package epg

import "strings"

// Policy selects which candidate fields are merged into a channel's schedule.
type Policy struct {
	AppendEvents   bool `toml:"append_events"`
	UseSubtitle    bool `toml:"use_subtitle"`
	UseDescription bool `toml:"use_description"`

	UseCredits       bool `toml:"use_credits"`
	CreditsActors    bool `toml:"credits_actors"`
	CreditsDirectors bool `toml:"credits_directors"`
	CreditsOthers    bool `toml:"credits_others"`
	// CreditsList groups consecutive credits of one role on a single line.
	CreditsList bool `toml:"credits_list"`

	UseCountryYear bool `toml:"use_country_year"`
	UseOrigTitle   bool `toml:"use_orig_title"`
	UseCategories  bool `toml:"use_categories"`
	UseVideo       bool `toml:"use_video"`
	UseAudio       bool `toml:"use_audio"`
	UseSeason      bool `toml:"use_season"`

	UseRating bool `toml:"use_rating"`
	// RatingAsText renders content ratings into the description even when
	// the schedule has a native rating field.
	RatingAsText bool `toml:"rating_as_text"`

	UseStarRating bool `toml:"use_star_rating"`
	UseReview     bool `toml:"use_review"`
}

// LabelLookup resolves a semantic key such as "country" or "actor" to its
// display label. A missing label suppresses the field.
type LabelLookup interface {
	Label(key string) (string, bool)
}

// Labels is a map-backed LabelLookup with case-insensitive keys.
type Labels map[string]string

func (l Labels) Label(key string) (string, bool) {
	if l == nil {
		return "", false
	}
	if v, ok := l[key]; ok {
		return v, v != ""
	}
	v, ok := l[strings.ToLower(key)]
	return v, ok && v != ""
}

// Converter renders internal UTF-8 text as display text for the schedule.
type Converter interface {
	Convert(s string) string
}

// ConverterFunc adapts a plain function to Converter.
type ConverterFunc func(string) string

func (f ConverterFunc) Convert(s string) string { return f(s) }

// Identity leaves text unchanged.
var Identity Converter = ConverterFunc(func(s string) string { return s })
