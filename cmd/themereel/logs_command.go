package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"themereel/internal/logging"
	"themereel/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines  int
		follow bool
		theme  string
		runID  string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the render log, optionally for one theme or batch run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)
			filter := logs.Filter{}
			if theme = strings.TrimSpace(theme); theme != "" {
				filter.Terms = append(filter.Terms, theme)
			}
			if runID = strings.TrimSpace(runID); runID != "" {
				filter.Terms = append(filter.Terms, runID)
			}

			out := cmd.OutOrStdout()
			tail, offset, err := logs.Last(path, lines, filter)
			if err != nil {
				return err
			}
			for _, line := range tail {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}
			err = logs.Follow(cmd.Context(), path, offset, 250*time.Millisecond, filter, func(line string) {
				fmt.Fprintln(out, line)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().StringVar(&theme, "theme", "", "Only lines mentioning this theme")
	cmd.Flags().StringVar(&runID, "run", "", "Only lines from this batch run id")
	return cmd
}
