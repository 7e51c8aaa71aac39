package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"themereel/internal/background"
	"themereel/internal/composition"
	"themereel/internal/textutil"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var (
		name           string
		titleKey       string
		audio          []string
		captions       []string
		subtitles      []string
		titleAudio     string
		titleText      string
		titleImage     string
		backgroundFlag string
		output         string
		publish        bool
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one theme video from comment audio, captions and subtitle images",
		Example: `  themereel render --name theme1 \
    --audio c1.wav --audio c2.wav --caption "first" --caption "second" \
    --subtitle c1.png --subtitle c2.png --background random`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ctx.buildPipeline()
			if err != nil {
				return err
			}
			name = strings.TrimSpace(name)
			if output == "" && name != "" {
				output = filepath.Join(p.cfg.Paths.OutputDir, textutil.OutputFileName(name, "theme"))
			}
			video, subtitle := composition.SettingsFromConfig(p.cfg)
			req := composition.ThemeRequest{
				ThemeName:      name,
				TitleKey:       titleKey,
				AudioSegments:  audio,
				CaptionTexts:   captions,
				SubtitleImages: subtitles,
				TitleAudio:     titleAudio,
				TitleText:      titleText,
				TitleImage:     titleImage,
				Background:     background.ParseSource(backgroundFlag),
				OutputPath:     output,
				Video:          video,
				Subtitle:       subtitle,
			}
			if err := req.Validate(); err != nil {
				return fmt.Errorf("render %s: %w", name, err)
			}
			return runRequests(cmd, p, []composition.ThemeRequest{req}, 1, publish)
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Theme name (used for placeholder captions and the default output name)")
	cmd.Flags().StringVar(&titleKey, "title-key", "", "Find title audio as title_<key>*.wav next to the first comment")
	cmd.Flags().StringArrayVarP(&audio, "audio", "a", nil, "Comment audio file, in order (repeatable)")
	cmd.Flags().StringArrayVar(&captions, "caption", nil, "Caption text per comment (repeatable; count must match --audio)")
	cmd.Flags().StringArrayVar(&subtitles, "subtitle", nil, `Subtitle image per comment (repeatable; "" for none)`)
	cmd.Flags().StringVar(&titleAudio, "title-audio", "", "Explicit title audio file")
	cmd.Flags().StringVar(&titleText, "title-text", "", "Title caption (defaults to the theme name)")
	cmd.Flags().StringVar(&titleImage, "title-image", "", "Title image overlay")
	cmd.Flags().StringVar(&backgroundFlag, "background", "random", `"random", "none", or a background video path`)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output MP4 path (default <output_dir>/<name>.mp4)")
	cmd.Flags().BoolVar(&publish, "publish", false, "Upload the output (also enabled by publish.enabled)")
	return cmd
}
