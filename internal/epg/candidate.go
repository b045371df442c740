package epg

import "time"

// Pair is a typed value such as a credit (role, name), a content rating
// (system, value) or a video descriptor (kind, value).
type Pair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// CandidateEvent is a programme description taken from the feed store. The
// merge engine never mutates it.
type CandidateEvent struct {
	Source      string
	SourceIndex int
	ChannelID   string

	// EventID is the feed-native identifier.
	EventID EventID
	// EITEventID is the broadcast identifier this feed row was correlated with.
	EITEventID EventID

	Start    time.Time
	Duration time.Duration

	Title     string
	OrigTitle string
	Subtitle  string
	// Description is the feed-native long text.
	Description string
	// EITDescription is a broadcast description cached for this row.
	EITDescription string

	Country string
	Year    int
	Season  int
	Episode int

	Credits     []Pair
	Categories  []string
	Ratings     []Pair
	StarRatings []Pair
	Reviews     []string
	Video       []Pair
	Audio       string

	ParentalRating int

	// Mixing marks EventID as shared between several feed sources for the
	// same channel and therefore not usable for identity matching.
	Mixing bool
}

// End returns the candidate's end time.
func (c *CandidateEvent) End() time.Time {
	return c.Start.Add(c.Duration)
}

// Window renders the candidate interval for log output.
func (c *CandidateEvent) Window() string {
	return FormatWindow(c.Start, c.End())
}
