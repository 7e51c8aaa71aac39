package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"themereel/internal/deps"
	"themereel/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check tools, filters, directories and free space",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := isTerminal(out)

			statuses := deps.CheckTools(cmd.Context(), deps.Tools(cfg.FFmpegBinary(), cfg.FFprobeBinary()))
			if statuses[0].Available {
				statuses = append(statuses, deps.CheckFFmpegFilters(cmd.Context(), cfg.FFmpegBinary(), deps.RequiredFilters))
			}
			results := preflight.RunAll(cmd.Context(), cfg)

			rows := make([][]string, 0, len(statuses)+len(results))
			failures := 0
			for _, status := range statuses {
				detail := status.Detail
				if status.Available && status.Path != "" {
					detail = status.Path
					if status.Version != "" {
						detail += " (" + status.Version + ")"
					}
				}
				if !status.Available {
					failures++
				}
				rows = append(rows, []string{status.Name, checkLabel(status.Available, colorize), detail})
			}
			for _, result := range results {
				if !result.Passed {
					failures++
				}
				rows = append(rows, []string{result.Name, checkLabel(result.Passed, colorize), result.Detail})
			}
			printChecks(out, rows)
			if failures > 0 {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}
}

func printChecks(out io.Writer, rows [][]string) {
	fmt.Fprintln(out, renderTable([]string{"Check", "Result", "Detail"}, rows, nil))
}

func checkLabel(ok bool, colorize bool) string {
	label := "ok"
	if !ok {
		label = "FAIL"
	}
	if !colorize {
		return label
	}
	if ok {
		return text.FgGreen.Sprint(label)
	}
	return text.FgRed.Sprint(label)
}
