package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"epgmerge/internal/epg"
	"epgmerge/internal/schedule"
)

func newScheduleCommand(ctx *commandContext) *cobra.Command {
	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Inspect and seed channel schedules",
	}

	scheduleCmd.AddCommand(newScheduleShowCommand(ctx))
	scheduleCmd.AddCommand(newScheduleChannelsCommand(ctx))
	scheduleCmd.AddCommand(newScheduleAddChannelCommand(ctx))
	scheduleCmd.AddCommand(newScheduleAddEventCommand(ctx))

	return scheduleCmd
}

func newScheduleShowCommand(ctx *commandContext) *cobra.Command {
	var channel string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the schedule of a channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			channel = strings.TrimSpace(channel)
			if channel == "" {
				return errors.New("--channel is required")
			}
			return ctx.withSchedules(cmd.Context(), func(store *schedule.Store) error {
				sched, err := store.Load(cmd.Context(), channel, false)
				if errors.Is(err, schedule.ErrNoSchedule) {
					fmt.Fprintf(cmd.OutOrStdout(), "No events for %s\n", channel)
					return nil
				}
				if err != nil {
					return err
				}
				rows := make([][]string, 0, sched.Len())
				for _, ev := range sched.Events() {
					rows = append(rows, []string{
						ev.Window(),
						strconv.FormatUint(uint64(ev.EventID), 10),
						ev.Title,
						ev.Subtitle,
						yesNo(ev.WasEnriched()),
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out,
					[]string{"Window", "ID", "Title", "Subtitle", "Enriched"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&channel, "channel", "", "Channel to show")
	return cmd
}

func newScheduleChannelsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "channels",
		Short: "List registered channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSchedules(cmd.Context(), func(store *schedule.Store) error {
				channels, err := store.Channels(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(channels))
				for _, ch := range channels {
					rows = append(rows, []string{ch.ID, ch.Name})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out, []string{"ID", "Name"}, rows, nil))
				return nil
			})
		},
	}
}

func newScheduleAddChannelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add-channel ID [NAME]",
		Short: "Register a target channel",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			name := id
			if len(args) > 1 {
				name = strings.TrimSpace(args[1])
			}
			return ctx.withSchedules(cmd.Context(), func(store *schedule.Store) error {
				if err := store.AddChannel(cmd.Context(), id, name); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Registered channel %s\n", id)
				return nil
			})
		},
	}
}

func newScheduleAddEventCommand(ctx *commandContext) *cobra.Command {
	var (
		channel     string
		start       string
		duration    time.Duration
		title       string
		eventID     uint32
		description string
	)

	cmd := &cobra.Command{
		Use:   "add-event",
		Short: "Store a broadcast event on a channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			channel = strings.TrimSpace(channel)
			if channel == "" || strings.TrimSpace(title) == "" {
				return errors.New("--channel and --title are required")
			}
			startTime, err := time.Parse(time.RFC3339, strings.TrimSpace(start))
			if err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			ev := &epg.ScheduleEvent{
				EventID:     epg.EventID(eventID),
				Start:       startTime,
				Duration:    duration,
				Title:       strings.TrimSpace(title),
				Description: description,
			}
			return ctx.withSchedules(cmd.Context(), func(store *schedule.Store) error {
				if err := store.AddEvent(cmd.Context(), channel, ev); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s on %s\n", ev, channel)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&channel, "channel", "", "Channel to add the event to")
	cmd.Flags().StringVar(&start, "start", "", "Start time (RFC 3339)")
	cmd.Flags().DurationVar(&duration, "duration", time.Hour, "Event duration")
	cmd.Flags().StringVar(&title, "title", "", "Event title")
	cmd.Flags().Uint32Var(&eventID, "event-id", 0, "Broadcast event id")
	cmd.Flags().StringVar(&description, "description", "", "Broadcast description")
	return cmd
}
