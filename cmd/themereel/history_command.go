package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"themereel/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit      int
		runID      string
		theme      string
		statusFlag string
		prune      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past render attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if prune > 0 {
				removed, err := store.Prune(cmd.Context(), time.Now().Add(-prune))
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Pruned %d record(s) older than %s\n", removed, prune)
				return nil
			}

			opts := history.ListOptions{Limit: limit, RunID: strings.TrimSpace(runID), Theme: strings.TrimSpace(theme)}
			if statusFlag != "" {
				status, ok := history.ParseStatus(statusFlag)
				if !ok {
					return fmt.Errorf("unknown status %q (want succeeded, failed or errored)", statusFlag)
				}
				opts.Status = status
			}
			records, err := store.List(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(out, "No render history")
				return nil
			}

			colorize := isTerminal(out)
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				detail := rec.OutputPath
				if rec.Diagnostic != "" {
					detail = rec.ErrorKind + ": " + rec.Diagnostic
				} else if rec.PublishedURI != "" {
					detail = rec.PublishedURI
				}
				size := ""
				if rec.SizeBytes > 0 {
					size = humanize.Bytes(uint64(rec.SizeBytes))
				}
				rows = append(rows, []string{
					humanize.Time(rec.FinishedAt),
					shortRunID(rec.RunID),
					rec.Theme,
					statusLabel(rec.Status, colorize),
					size,
					rec.Elapsed.Round(time.Millisecond).String(),
					detail,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Finished", "Run", "Theme", "Status", "Size", "Elapsed", "Output / Diagnostic"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum records to show (0 for all)")
	cmd.Flags().StringVar(&runID, "run", "", "Only show one batch run")
	cmd.Flags().StringVar(&theme, "theme", "", "Only show one theme")
	cmd.Flags().StringVar(&statusFlag, "status", "", "Only show succeeded, failed or errored attempts")
	cmd.Flags().DurationVar(&prune, "prune", 0, "Delete records older than this age (e.g. 720h) instead of listing")
	return cmd
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
