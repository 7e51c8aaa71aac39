package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"themereel/internal/background"
	"themereel/internal/batch"
	"themereel/internal/composition"
	"themereel/internal/history"
	"themereel/internal/preflight"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var workers int
	var timeout time.Duration
	var backgroundFlag string
	var publish bool
	var skipChecks bool

	cmd := &cobra.Command{
		Use:   "batch <manifest.toml|directory>",
		Short: "Render every theme in a manifest or a directory of theme files",
		Long: "Render every [[theme]] in a TOML manifest, or every theme<N> found in a directory\n" +
			"using the theme<N>_comment<i>_*.wav / .png and title_theme<N>*.wav naming convention.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ctx.buildPipeline()
			if err != nil {
				return err
			}
			requests, err := loadBatchRequests(p, args[0], background.ParseSource(backgroundFlag))
			if err != nil {
				return err
			}
			if len(requests) == 0 {
				return fmt.Errorf("no themes found in %s", args[0])
			}

			if !skipChecks {
				if failed := preflight.Failed(preflight.RunAll(cmd.Context(), p.cfg)); len(failed) > 0 {
					for _, result := range failed {
						fmt.Fprintf(cmd.ErrOrStderr(), "preflight %s: %s\n", result.Name, result.Detail)
					}
					return errors.New("preflight checks failed (run `themereel doctor` for details)")
				}
			}

			if workers <= 0 {
				workers = batch.WorkerCount(p.cfg.Batch.Workers, p.cfg.Batch.MemoryPerRenderMiB)
			}
			if cmd.Flags().Changed("timeout") {
				p.cfg.Batch.RenderTimeout = int(timeout / time.Second)
			}
			return runRequests(cmd, p, requests, workers, publish)
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Concurrent renders (default from config or available memory)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Per-render time limit, e.g. 10m (overrides batch.render_timeout)")
	cmd.Flags().StringVar(&backgroundFlag, "background", "random", `Background for discovered themes: "random", "none", or a video path`)
	cmd.Flags().BoolVar(&publish, "publish", false, "Upload successful outputs (also enabled by publish.enabled)")
	cmd.Flags().BoolVar(&skipChecks, "skip-checks", false, "Skip directory and free-space preflight checks")
	return cmd
}

func loadBatchRequests(p *pipeline, target string, bg background.Source) ([]composition.ThemeRequest, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", target, err)
	}
	if info.IsDir() {
		return batch.Discover(target, p.cfg, bg)
	}
	manifest, err := batch.LoadManifest(target)
	if err != nil {
		return nil, err
	}
	baseDir, err := filepath.Abs(filepath.Dir(target))
	if err != nil {
		return nil, fmt.Errorf("resolve manifest directory: %w", err)
	}
	return manifest.Requests(p.cfg, baseDir), nil
}

// runRequests renders requests through the batch runner and prints the
// summary. It returns an error when any request did not succeed.
func runRequests(cmd *cobra.Command, p *pipeline, requests []composition.ThemeRequest, workers int, publish bool) error {
	opts, cleanup, err := p.runnerOptions(cmd.Context(), workers, publish)
	if err != nil {
		return err
	}
	defer cleanup()

	stderr := cmd.ErrOrStderr()
	var bar *progressbar.ProgressBar
	if len(requests) > 1 && isTerminal(stderr) {
		bar = progressbar.NewOptions(len(requests),
			progressbar.OptionSetWriter(stderr),
			progressbar.OptionSetDescription("rendering"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetElapsedTime(true),
			progressbar.OptionClearOnFinish(),
		)
		opts.Progress = func(outcome batch.Outcome) {
			bar.Describe(outcome.Theme)
			_ = bar.Add(1)
		}
	}

	summary, runErr := batch.NewRunner(p.composer, opts).Run(cmd.Context(), requests)
	if bar != nil {
		_ = bar.Finish()
	}
	if runErr != nil && len(summary.Outcomes) == 0 {
		return runErr
	}

	out := cmd.OutOrStdout()
	printSummary(out, summary, isTerminal(out))
	if runErr != nil {
		return runErr
	}
	if bad := summary.Tally.Failed + summary.Tally.Errored; bad > 0 {
		return fmt.Errorf("%d of %d themes did not render", bad, summary.Tally.Total())
	}
	return nil
}

func printSummary(out io.Writer, summary batch.Summary, colorize bool) {
	rows := make([][]string, 0, len(summary.Outcomes))
	for _, outcome := range summary.Outcomes {
		detail := outcome.OutputPath
		if outcome.Diagnostic != "" {
			detail = outcome.Kind + ": " + outcome.Diagnostic
		} else if outcome.PublishedURI != "" {
			detail = outcome.PublishedURI
		}
		size := ""
		if outcome.Result.Size > 0 {
			size = humanize.Bytes(uint64(outcome.Result.Size))
		}
		rows = append(rows, []string{
			outcome.Theme,
			statusLabel(outcome.Status, colorize),
			formatSeconds(outcome.Result.Duration),
			size,
			outcome.Elapsed.Round(time.Millisecond).String(),
			detail,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Theme", "Status", "Length", "Size", "Elapsed", "Output / Diagnostic"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	))
	fmt.Fprintf(out, "Run %s: %d succeeded, %d failed, %d errored in %s\n",
		summary.RunID,
		summary.Tally.Succeeded,
		summary.Tally.Failed,
		summary.Tally.Errored,
		summary.Elapsed.Round(time.Millisecond),
	)
}

func statusLabel(status history.Status, colorize bool) string {
	label := string(status)
	if !colorize {
		return label
	}
	switch status {
	case history.StatusSucceeded:
		return text.FgGreen.Sprint(label)
	case history.StatusFailed:
		return text.FgRed.Sprint(label)
	default:
		return text.FgYellow.Sprint(label)
	}
}

func formatSeconds(seconds float64) string {
	if seconds <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", seconds), "0"), ".") + "s"
}
