package main

import (
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"epgmerge/internal/importer"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var days int
	var source string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Merge the feed source into the mapped channel schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if days > 0 {
				cfg.Import.DaysInAdvance = days
			}
			if s := strings.TrimSpace(source); s != "" {
				cfg.Import.Source = s
			}

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return ctx.withImporter(runCtx, func(imp *importer.Importer) error {
				result, err := imp.Run(runCtx)
				if errors.Is(err, importer.ErrStoreUnavailable) {
					return &exitError{code: 3, err: err}
				}
				if err != nil {
					return err
				}
				printResult(cmd.OutOrStdout(), "import", result)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "Days in advance to import (overrides import.days_in_advance)")
	cmd.Flags().StringVar(&source, "source", "", "Feed source name (overrides import.source)")
	return cmd
}

func newEnrichCommand(ctx *commandContext) *cobra.Command {
	var channel string

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Fill in schedule descriptions from cached feed rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			channel = strings.TrimSpace(channel)
			if channel == "" {
				return errors.New("--channel is required")
			}

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return ctx.withImporter(runCtx, func(imp *importer.Importer) error {
				result, err := imp.Enrich(runCtx, channel)
				if errors.Is(err, importer.ErrStoreUnavailable) {
					return &exitError{code: 3, err: err}
				}
				if err != nil {
					return err
				}
				printResult(cmd.OutOrStdout(), "enrich", result)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&channel, "channel", "", "Target channel to enrich")
	return cmd
}

func printResult(out io.Writer, pass string, result importer.Result) {
	if result.Status == importer.StatusStopped {
		fmt.Fprintf(out, "%s stopped after %d events\n", pass, result.Processed)
		return
	}
	fmt.Fprintf(out, "%s: processed %d events (inserted %d, changed %d, conflicts %d, skipped %d) in %s\n",
		pass,
		result.Processed,
		result.Inserted,
		result.Changed,
		result.Conflicts,
		result.Skipped,
		result.Elapsed.Round(time.Millisecond),
	)
}
