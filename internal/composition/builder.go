package composition

import (
	"os"
	"strings"

	"themereel/internal/background"
	"themereel/internal/layout"
	"themereel/internal/timeline"
)

func encodingSettings(v VideoSettings) EncodingSettings {
	return EncodingSettings{
		Codec:       v.Codec,
		Bitrate:     v.Bitrate,
		AudioCodec:  v.AudioCodec,
		AutoQuality: v.AutoQuality,
	}
}

func backgroundLayers(bg background.Background, canvas Canvas) []Layer {
	if bg.Kind == background.KindVideo {
		layers := []Layer{VideoLayer{
			Path:     bg.Path,
			Duration: bg.Duration,
			Loops:    max(bg.Loops, 1),
			Freeze:   bg.Freeze,
			Width:    bg.Width,
			Height:   bg.Height,
		}}
		if bg.HasAudio && bg.Volume > 0 {
			layers = append(layers, AudioLayer{
				Path:     bg.Path,
				Start:    0,
				Duration: bg.Duration,
				Volume:   bg.Volume,
				Loops:    max(bg.Loops, 1),
			})
		}
		return layers
	}
	color := bg.Color
	if color == (background.RGB{}) {
		color = background.DefaultColor
	}
	return []Layer{ColorLayer{
		Color:    color,
		Width:    canvas.Width,
		Height:   canvas.Height,
		Duration: bg.Duration,
	}}
}

// buildThemePlan assembles layers in draw order: background, background
// bed audio, comment audio, then overlays by segment index.
func buildThemePlan(req ThemeRequest, schedule timeline.Schedule, bg background.Background) RenderPlan {
	canvas := Canvas{Width: req.Video.Width, Height: req.Video.Height, FPS: req.Video.FPS}
	layers := backgroundLayers(bg, canvas)

	for _, clip := range schedule.Audio.Clips {
		layers = append(layers, AudioLayer{Path: clip.Path, Start: clip.Start, Duration: clip.Duration, Volume: 1, Loops: 1})
	}

	comments := len(schedule.Segments) - 1
	for _, seg := range schedule.Segments {
		fade := clampFade(req.Subtitle.FadeDuration, seg.SlotDuration())
		if seg.Title {
			anchor := layout.TitleAnchor(canvas.Width, canvas.Height)
			if overlay, ok := titleOverlay(req, seg, anchor, fade, canvas); ok {
				layers = append(layers, overlay)
			}
			continue
		}
		slot := layout.Anchor(seg.Index-1, comments, canvas.Width, canvas.Height)
		if isReadableFile(seg.DisplayImage) {
			layers = append(layers, ImageOverlay{
				Path:   seg.DisplayImage,
				X:      slot.X,
				Y:      slot.Y,
				Anchor: AnchorTopLeft,
				Start:  seg.Start,
				End:    seg.End,
				Fade:   fade,
			})
			continue
		}
		if seg.DisplayText == "" {
			continue
		}
		lines := WrapCaption(seg.DisplayText, gridColumns(canvas.Width))
		layers = append(layers, newTextOverlay(lines, slot.X, slot.Y, AnchorTopLeft, seg.Start, seg.End, fade))
	}

	return NewRenderPlan(req.ThemeName, req.OutputPath, canvas, schedule.Total, encodingSettings(req.Video), layers)
}

func titleOverlay(req ThemeRequest, seg timeline.Segment, anchor layout.Slot, fade float64, canvas Canvas) (Layer, bool) {
	if isReadableFile(seg.DisplayImage) {
		return ImageOverlay{
			Path:   seg.DisplayImage,
			X:      anchor.X,
			Y:      anchor.Y,
			Anchor: AnchorCenter,
			Start:  seg.Start,
			End:    seg.End,
			Fade:   fade,
		}, true
	}
	text := NormalizeCaption(seg.DisplayText)
	if text == "" {
		text = NormalizeCaption(req.ThemeName)
	}
	if text == "" {
		return nil, false
	}
	lines := WrapCaption(text, titleColumns(canvas.Width))
	return newTextOverlay(lines, anchor.X, anchor.Y, AnchorCenter, seg.Start, seg.End, fade), true
}

// gridColumns is the half-width column budget from a grid anchor to the
// right edge of its cell.
func gridColumns(canvasWidth int) int {
	cell := canvasWidth / layout.Cols
	usable := cell - cell/4
	return max(usable/(TextFontSize/2), 2)
}

func titleColumns(canvasWidth int) int {
	return max((canvasWidth*3/4)/(TextFontSize/2), 2)
}

func clampFade(fade, slot float64) float64 {
	if fade <= 0 || slot <= 0 {
		return 0
	}
	return min(fade, slot/2)
}

func isReadableFile(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()
	info, err := file.Stat()
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}
