package config

const (
	defaultFeedDB        = "~/.local/share/epgmerge/epg.db"
	defaultScheduleDB    = "~/.local/share/epgmerge/schedule.db"
	defaultLockFile      = "~/.local/share/epgmerge/schedule.lock"
	defaultLogDir        = "~/.local/share/epgmerge/logs"
	defaultDaysInAdvance = 7
	defaultCharset       = "utf-8"
	defaultLockAttempts  = 300
	defaultLockDelayMS   = 200
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
	defaultLogMaxSizeMB  = 10
	defaultLogMaxBackups = 5
	defaultLogMaxAgeDays = 60
)

// defaultLabels are the English display labels for description fields.
// Entries in [labels] override or extend them; an empty value disables a field.
var defaultLabels = map[string]string{
	"actor":         "Actors",
	"director":      "Director",
	"writer":        "Writer",
	"adapter":       "Adapter",
	"producer":      "Producer",
	"composer":      "Composer",
	"editor":        "Editor",
	"presenter":     "Presenter",
	"commentator":   "Commentator",
	"guest":         "Guest",
	"country":       "Country",
	"year":          "Year",
	"originaltitle": "Original title",
	"category":      "Category",
	"video":         "Video",
	"blacknwhite":   "black & white",
	"audio":         "Audio",
	"dolby":         "Dolby",
	"dolby digital": "Dolby Digital",
	"surround":      "Surround",
	"bilingual":     "bilingual",
	"season":        "Season",
	"episode":       "Episode",
	"starrating":    "Rating",
	"review":        "Review",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	labels := make(map[string]string, len(defaultLabels))
	for k, v := range defaultLabels {
		labels[k] = v
	}
	return Config{
		Paths: Paths{
			FeedDB:     defaultFeedDB,
			ScheduleDB: defaultScheduleDB,
			LockFile:   defaultLockFile,
			LogDir:     defaultLogDir,
		},
		Import: Import{
			DaysInAdvance:        defaultDaysInAdvance,
			Charset:              defaultCharset,
			NativeParentalRating: true,
			LockAttempts:         defaultLockAttempts,
			LockDelayMS:          defaultLockDelayMS,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
		Labels: labels,
	}
}
