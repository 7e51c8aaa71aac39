package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"themereel/internal/background"
	"themereel/internal/composition"
)

func newClipCommand(ctx *commandContext) *cobra.Command {
	var (
		audio          string
		subtitle       string
		textFlag       string
		backgroundFlag string
		output         string
		position       string
	)

	cmd := &cobra.Command{
		Use:   "clip",
		Short: "Render a single audio clip with one subtitle over a background",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ctx.buildPipeline()
			if err != nil {
				return err
			}
			if output == "" && audio != "" {
				base := strings.TrimSuffix(filepath.Base(audio), filepath.Ext(audio))
				output = filepath.Join(p.cfg.Paths.OutputDir, base+".mp4")
			}
			video, subtitleSettings := composition.SettingsFromConfig(p.cfg)
			if position != "" {
				subtitleSettings.Position = strings.ToLower(strings.TrimSpace(position))
			}
			result, err := p.composer.ComposeClip(cmd.Context(), composition.ClipRequest{
				Audio:         audio,
				SubtitleImage: subtitle,
				Text:          textFlag,
				Background:    background.ParseSource(backgroundFlag),
				OutputPath:    output,
				Video:         video,
				Subtitle:      subtitleSettings,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s, %s, %s background)\n",
				result.OutputPath,
				formatSeconds(result.Duration),
				humanize.Bytes(uint64(result.Size)),
				result.Background,
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&audio, "audio", "a", "", "Audio file (sets the clip length)")
	cmd.Flags().StringVarP(&subtitle, "subtitle", "s", "", "Subtitle image")
	cmd.Flags().StringVarP(&textFlag, "text", "t", "", "Caption text, used when no subtitle image is given")
	cmd.Flags().StringVar(&backgroundFlag, "background", "random", `"random", "none", or a background video path`)
	cmd.Flags().StringVar(&position, "position", "", "Subtitle position: top, center or bottom (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output MP4 path (default <output_dir>/<audio name>.mp4)")
	_ = cmd.MarkFlagRequired("audio")
	return cmd
}
