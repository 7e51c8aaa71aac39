package composition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"themereel/internal/background"
	"themereel/internal/logging"
	"themereel/internal/services"
	"themereel/internal/timeline"
)

// Encoder renders a plan to its output path.
type Encoder interface {
	Encode(ctx context.Context, plan RenderPlan) (EncodeResult, error)
}

// BackgroundResolver produces duration-matched backgrounds.
type BackgroundResolver interface {
	Resolve(ctx context.Context, src background.Source, duration float64) background.Background
}

// Result summarizes a finished render.
type Result struct {
	Theme      string
	OutputPath string
	Duration   float64
	Segments   int
	Background background.Kind
	Size       int64
	Elapsed    time.Duration
}

// Composer wires the pipeline stages together.
type Composer struct {
	prober      timeline.Prober
	backgrounds BackgroundResolver
	encoder     Encoder
	logger      *slog.Logger
}

// NewComposer constructs a composer. A nil logger discards output.
func NewComposer(prober timeline.Prober, backgrounds BackgroundResolver, encoder Encoder, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Composer{
		prober:      prober,
		backgrounds: backgrounds,
		encoder:     encoder,
		logger:      logging.NewComponentLogger(logger, "composer"),
	}
}

// Plan validates req and builds its RenderPlan without encoding.
func (c *Composer) Plan(ctx context.Context, req ThemeRequest) (RenderPlan, background.Background, error) {
	if err := req.Validate(); err != nil {
		return RenderPlan{}, background.Background{}, err
	}
	req.Video = req.Video.withDefaults()
	captions := PadCaptions(req.ThemeName, req.CaptionTexts, len(req.AudioSegments))

	schedule, err := timeline.Allocate(services.WithStage(ctx, "timeline"), c.prober, timeline.Input{
		AudioSegments:  req.AudioSegments,
		TitleAudio:     req.TitleAudio,
		TitleKey:       req.TitleKey,
		Captions:       captions,
		SubtitleImages: req.SubtitleImages,
		TitleText:      req.TitleText,
		TitleImage:     req.TitleImage,
		TotalDuration:  req.Video.TargetDuration,
	})
	if err != nil {
		return RenderPlan{}, background.Background{}, err
	}

	bg := c.resolveBackground(services.WithStage(ctx, "background"), req.Background, schedule.Total)
	return buildThemePlan(req, schedule, bg), bg, nil
}

// Compose renders req. Every failure is a *services.RenderError carrying the
// theme and output path; the cause stays reachable through errors.Is/As.
func (c *Composer) Compose(ctx context.Context, req ThemeRequest) (Result, error) {
	ctx = services.WithTheme(ctx, req.ThemeName)
	logger := logging.WithContext(ctx, c.logger)
	started := time.Now()

	plan, bg, err := c.Plan(ctx, req)
	if err != nil {
		return Result{}, &services.RenderError{Theme: req.ThemeName, OutputPath: req.OutputPath, Err: err}
	}
	logger.Debug("render plan built",
		logging.Int("layers", len(plan.layers)),
		logging.Float64("duration_seconds", plan.Duration),
		logging.String("background", string(bg.Kind)),
	)

	encoded, err := c.encode(ctx, plan)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Theme:      req.ThemeName,
		OutputPath: encoded.OutputPath,
		Duration:   plan.Duration,
		Segments:   len(req.AudioSegments) + 1,
		Background: bg.Kind,
		Size:       encoded.Size,
		Elapsed:    time.Since(started),
	}
	logger.Info("theme video rendered",
		logging.String(logging.FieldEventType, "render_complete"),
		logging.String("output", result.OutputPath),
		logging.Int("segments", result.Segments),
		logging.Int64("size_bytes", result.Size),
		logging.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

// ComposeClip renders a single audio clip over a background with one
// subtitle overlay. The video lasts as long as the audio.
func (c *Composer) ComposeClip(ctx context.Context, req ClipRequest) (Result, error) {
	name := req.displayName()
	ctx = services.WithTheme(ctx, name)
	logger := logging.WithContext(ctx, c.logger)
	started := time.Now()

	plan, bg, err := c.planClip(ctx, req, name)
	if err != nil {
		return Result{}, &services.RenderError{Theme: name, OutputPath: req.OutputPath, Err: err}
	}

	encoded, err := c.encode(ctx, plan)
	if err != nil {
		return Result{}, err
	}
	result := Result{
		Theme:      name,
		OutputPath: encoded.OutputPath,
		Duration:   plan.Duration,
		Segments:   1,
		Background: bg.Kind,
		Size:       encoded.Size,
		Elapsed:    time.Since(started),
	}
	logger.Info("clip rendered",
		logging.String(logging.FieldEventType, "clip_complete"),
		logging.String("output", result.OutputPath),
		logging.Float64("duration_seconds", result.Duration),
		logging.Int64("size_bytes", result.Size),
	)
	return result, nil
}

func (c *Composer) encode(ctx context.Context, plan RenderPlan) (EncodeResult, error) {
	if c.encoder == nil {
		return EncodeResult{}, &services.RenderError{Theme: plan.Theme, OutputPath: plan.OutputPath, Err: errors.New("no encoder configured")}
	}
	encoded, err := c.encoder.Encode(services.WithStage(ctx, "encode"), plan)
	if err != nil {
		return EncodeResult{}, &services.RenderError{Theme: plan.Theme, OutputPath: plan.OutputPath, Err: err}
	}
	if encoded.OutputPath == "" {
		encoded.OutputPath = plan.OutputPath
	}
	info, err := os.Stat(encoded.OutputPath)
	if err != nil {
		return EncodeResult{}, &services.RenderError{Theme: plan.Theme, OutputPath: plan.OutputPath, Err: fmt.Errorf("output not produced: %w", err)}
	}
	if info.Size() == 0 {
		return EncodeResult{}, &services.RenderError{Theme: plan.Theme, OutputPath: plan.OutputPath, Err: errors.New("output is empty")}
	}
	encoded.Size = info.Size()
	return encoded, nil
}

func (c *Composer) resolveBackground(ctx context.Context, src background.Source, duration float64) background.Background {
	if c.backgrounds == nil {
		return background.Background{Kind: background.KindColor, Duration: duration, Color: background.DefaultColor, Fallback: "no resolver"}
	}
	return c.backgrounds.Resolve(ctx, src, duration)
}
