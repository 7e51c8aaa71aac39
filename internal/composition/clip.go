package composition

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"themereel/internal/background"
	"themereel/internal/layout"
	"themereel/internal/services"
)

func (c *Composer) planClip(ctx context.Context, req ClipRequest, name string) (RenderPlan, background.Background, error) {
	if err := req.Validate(); err != nil {
		return RenderPlan{}, background.Background{}, err
	}
	if c.prober == nil {
		return RenderPlan{}, background.Background{}, errors.New("no prober configured")
	}
	req.Video = req.Video.withDefaults()

	if _, err := os.Stat(req.Audio); err != nil {
		return RenderPlan{}, background.Background{}, &services.MissingResourceError{Kind: "audio", Path: req.Audio, Index: 0, Err: err}
	}
	info, err := c.prober.Probe(ctx, req.Audio)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return RenderPlan{}, background.Background{}, &services.MissingResourceError{Kind: "audio", Path: req.Audio, Index: 0, Err: err}
		}
		return RenderPlan{}, background.Background{}, services.Wrap(services.ErrExternalTool, "clip", "probe audio", req.Audio, err)
	}
	if info.Duration <= 0 {
		return RenderPlan{}, background.Background{}, services.NewValidationError("audio", "has no measurable duration")
	}
	duration := info.Duration

	canvas := Canvas{Width: req.Video.Width, Height: req.Video.Height, FPS: req.Video.FPS}
	bg := c.resolveBackground(services.WithStage(ctx, "background"), req.Background, duration)
	layers := backgroundLayers(bg, canvas)
	layers = append(layers, AudioLayer{Path: req.Audio, Start: 0, Duration: duration, Volume: 1, Loops: 1})

	fade := clampFade(req.Subtitle.FadeDuration, duration)
	if overlay, ok := c.clipOverlay(ctx, req, canvas, duration, fade); ok {
		layers = append(layers, overlay)
	}
	return NewRenderPlan(name, req.OutputPath, canvas, duration, encodingSettings(req.Video), layers), bg, nil
}

func (c *Composer) clipOverlay(ctx context.Context, req ClipRequest, canvas Canvas, duration, fade float64) (Layer, bool) {
	if isReadableFile(req.SubtitleImage) {
		var w, h int
		if info, err := c.prober.Probe(ctx, req.SubtitleImage); err == nil {
			w, h = info.Width, info.Height
		}
		pos := layout.Position(req.Subtitle.Position, req.Subtitle.Margin, canvas.Width, canvas.Height, w, h)
		return ImageOverlay{
			Path:   req.SubtitleImage,
			X:      pos.X,
			Y:      pos.Y,
			Anchor: AnchorTopLeft,
			Start:  0,
			End:    duration,
			Fade:   fade,
		}, true
	}
	text := NormalizeCaption(req.Text)
	if text == "" {
		return nil, false
	}
	lines := WrapCaption(text, titleColumns(canvas.Width))
	w, h := textBlockSize(lines, TextFontSize)
	pos := layout.Position(req.Subtitle.Position, req.Subtitle.Margin, canvas.Width, canvas.Height, w, h)
	return newTextOverlay(lines, pos.X, pos.Y, AnchorTopLeft, 0, duration, fade), true
}
