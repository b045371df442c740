package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"epgmerge/internal/epg"
	"epgmerge/internal/feedstore"
)

// feedRecord is the JSON shape accepted by "feed put".
type feedRecord struct {
	Channel        string     `json:"channel"`
	EventID        uint32     `json:"event_id"`
	Start          time.Time  `json:"start"`
	Duration       int        `json:"duration"`
	Title          string     `json:"title"`
	OrigTitle      string     `json:"orig_title,omitempty"`
	Subtitle       string     `json:"subtitle,omitempty"`
	Description    string     `json:"description,omitempty"`
	Country        string     `json:"country,omitempty"`
	Year           int        `json:"year,omitempty"`
	Season         int        `json:"season,omitempty"`
	Episode        int        `json:"episode,omitempty"`
	Credits        []epg.Pair `json:"credits,omitempty"`
	Categories     []string   `json:"categories,omitempty"`
	Ratings        []epg.Pair `json:"ratings,omitempty"`
	StarRatings    []epg.Pair `json:"star_ratings,omitempty"`
	Reviews        []string   `json:"reviews,omitempty"`
	Video          []epg.Pair `json:"video,omitempty"`
	Audio          string     `json:"audio,omitempty"`
	ParentalRating int        `json:"parental_rating,omitempty"`
	Mixing         bool       `json:"mixing,omitempty"`
}

func (r feedRecord) candidate(source string, srcIdx int) epg.CandidateEvent {
	return epg.CandidateEvent{
		Source:         source,
		SourceIndex:    srcIdx,
		ChannelID:      r.Channel,
		EventID:        epg.EventID(r.EventID),
		Start:          r.Start,
		Duration:       time.Duration(r.Duration) * time.Second,
		Title:          r.Title,
		OrigTitle:      r.OrigTitle,
		Subtitle:       r.Subtitle,
		Description:    r.Description,
		Country:        r.Country,
		Year:           r.Year,
		Season:         r.Season,
		Episode:        r.Episode,
		Credits:        r.Credits,
		Categories:     r.Categories,
		Ratings:        r.Ratings,
		StarRatings:    r.StarRatings,
		Reviews:        r.Reviews,
		Video:          r.Video,
		Audio:          r.Audio,
		ParentalRating: r.ParentalRating,
		Mixing:         r.Mixing,
	}
}

func newFeedCommand(ctx *commandContext) *cobra.Command {
	feedCmd := &cobra.Command{
		Use:   "feed",
		Short: "Inspect and load the feed store",
	}

	feedCmd.AddCommand(newFeedPutCommand(ctx))
	feedCmd.AddCommand(newFeedListCommand(ctx))

	return feedCmd
}

func newFeedPutCommand(ctx *commandContext) *cobra.Command {
	var source string
	var srcIdx int

	cmd := &cobra.Command{
		Use:   "put FILE",
		Short: "Store feed records from a JSON array (use - for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(source) == "" {
				source = cfg.Import.Source
			}
			if source == "" {
				return errors.New("--source is required when import.source is not set")
			}

			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				file, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open feed file: %w", err)
				}
				defer file.Close()
				in = file
			}
			var records []feedRecord
			if err := json.NewDecoder(in).Decode(&records); err != nil {
				return fmt.Errorf("decode feed file: %w", err)
			}

			events := make([]epg.CandidateEvent, 0, len(records))
			for i, r := range records {
				if r.Channel == "" || r.Title == "" || r.Start.IsZero() {
					return fmt.Errorf("record %d: channel, title and start are required", i)
				}
				events = append(events, r.candidate(source, srcIdx))
			}

			return ctx.withFeeds(cmd.Context(), true, func(store *feedstore.Store) error {
				if err := store.Put(cmd.Context(), events); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Stored %d feed events for %s\n", len(events), source)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Feed source name (defaults to import.source)")
	cmd.Flags().IntVar(&srcIdx, "srcidx", 0, "Source priority, lower wins")
	return cmd
}

func newFeedListCommand(ctx *commandContext) *cobra.Command {
	var source string
	var days int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List feed rows inside the import window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(source) == "" {
				source = cfg.Import.Source
			}
			if days <= 0 {
				days = cfg.Import.DaysInAdvance
			}
			from := time.Now()
			to := from.Add(time.Duration(days) * 24 * time.Hour)

			return ctx.withFeeds(cmd.Context(), false, func(store *feedstore.Store) error {
				events, err := store.Window(cmd.Context(), source, from, to)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(events))
				for _, ev := range events {
					eit := ""
					if ev.EITEventID != 0 {
						eit = strconv.FormatUint(uint64(ev.EITEventID), 10)
					}
					rows = append(rows, []string{
						ev.ChannelID,
						ev.Window(),
						strconv.FormatUint(uint64(ev.EventID), 10),
						eit,
						strconv.Itoa(ev.SourceIndex),
						ev.Title,
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out,
					[]string{"Channel", "Window", "ID", "EIT ID", "Srcidx", "Title"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Feed source name (defaults to import.source)")
	cmd.Flags().IntVar(&days, "days", 0, "Days ahead to list")
	return cmd
}
