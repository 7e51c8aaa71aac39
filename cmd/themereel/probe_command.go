package main

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"themereel/internal/media/ffprobe"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <file>...",
		Short: "Show kind, duration and resolution of media files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			prober := ffprobe.NewProber(cfg.FFprobeBinary())
			rows := make([][]string, 0, len(args))
			var errs []error
			for _, path := range args {
				info, err := prober.Probe(cmd.Context(), path)
				if err != nil {
					errs = append(errs, err)
					rows = append(rows, []string{path, "error", "", "", "", "", err.Error()})
					continue
				}
				rows = append(rows, probeRow(info))
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"File", "Kind", "Duration", "Resolution", "Size", "Bitrate", "Audio"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
			))
			return errors.Join(errs...)
		},
	}
}

func probeRow(info ffprobe.Info) []string {
	resolution := ""
	if info.Width > 0 && info.Height > 0 {
		resolution = fmt.Sprintf("%dx%d", info.Width, info.Height)
	}
	bitrate := ""
	if info.BitRate > 0 {
		bitrate = fmt.Sprintf("%d kb/s", info.BitRate/1000)
	}
	audio := ""
	if info.Kind == ffprobe.KindVideo {
		audio = yesNo(info.HasAudio)
	}
	return []string{
		info.Path,
		string(info.Kind),
		formatSeconds(info.Duration),
		resolution,
		humanize.Bytes(uint64(info.Size)),
		bitrate,
		audio,
	}
}
