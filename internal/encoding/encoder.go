package encoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"themereel/internal/composition"
	"themereel/internal/logging"
	"themereel/internal/services"
)

type commandRunner func(ctx context.Context, name string, args ...string) error

// FFmpegEncoder renders plans with an ffmpeg binary.
type FFmpegEncoder struct {
	binary   string
	tempRoot string
	logger   *slog.Logger
	run      commandRunner
}

// NewFFmpegEncoder constructs an encoder. tempRoot hosts the per-render
// scratch directories; empty uses the system temp dir.
func NewFFmpegEncoder(binary, tempRoot string, logger *slog.Logger) *FFmpegEncoder {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &FFmpegEncoder{
		binary:   binary,
		tempRoot: tempRoot,
		logger:   logging.NewComponentLogger(logger, "encoder"),
		run:      defaultCommandRunner,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (e *FFmpegEncoder) WithCommandRunner(r commandRunner) {
	if e != nil && r != nil {
		e.run = r
	}
}

// Encode renders plan to plan.OutputPath.
func (e *FFmpegEncoder) Encode(ctx context.Context, plan composition.RenderPlan) (composition.EncodeResult, error) {
	if e == nil {
		return composition.EncodeResult{}, errors.New("encoder not initialized")
	}
	if err := validatePlan(plan); err != nil {
		return composition.EncodeResult{}, err
	}
	logger := logging.WithContext(ctx, e.logger)
	started := time.Now()

	outputDir := filepath.Dir(plan.OutputPath)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return composition.EncodeResult{}, services.Wrap(services.ErrRender, "encode", "create output dir", outputDir, err)
	}
	if e.tempRoot != "" {
		if err := os.MkdirAll(e.tempRoot, 0o755); err != nil {
			return composition.EncodeResult{}, services.Wrap(services.ErrRender, "encode", "create temp root", e.tempRoot, err)
		}
	}
	workDir, err := os.MkdirTemp(e.tempRoot, "themereel-*")
	if err != nil {
		return composition.EncodeResult{}, services.Wrap(services.ErrRender, "encode", "create work dir", e.tempRoot, err)
	}
	defer e.removeAll(logger, workDir)

	textFiles, err := writeCaptionFiles(workDir, plan.Overlays())
	if err != nil {
		return composition.EncodeResult{}, services.Wrap(services.ErrRender, "encode", "write captions", workDir, err)
	}

	mixPath := filepath.Join(workDir, "mix.wav")
	logger.Debug("mixing audio",
		logging.Int("audio_layers", len(plan.AudioLayers())),
		logging.Float64("duration_seconds", plan.Duration),
	)
	if err := e.run(ctx, e.binary, buildMixArgs(plan, mixPath)...); err != nil {
		return composition.EncodeResult{}, e.commandError(ctx, "mix audio", err)
	}

	partial := PartialPath(plan.OutputPath)
	renamed := false
	defer func() {
		if !renamed {
			e.remove(logger, partial)
		}
	}()

	logger.Debug("rendering video",
		logging.Int("overlays", len(plan.Overlays())),
		logging.String("partial", partial),
	)
	if err := e.run(ctx, e.binary, buildRenderArgs(plan, mixPath, partial, textFiles)...); err != nil {
		return composition.EncodeResult{}, e.commandError(ctx, "render video", err)
	}

	info, err := os.Stat(partial)
	if err != nil {
		return composition.EncodeResult{}, services.Wrap(services.ErrRender, "encode", "verify output", "ffmpeg did not produce output", err)
	}
	if info.Size() == 0 {
		return composition.EncodeResult{}, services.Wrap(services.ErrRender, "encode", "verify output", "ffmpeg produced an empty file", nil)
	}
	if err := os.Rename(partial, plan.OutputPath); err != nil {
		return composition.EncodeResult{}, services.Wrap(services.ErrRender, "encode", "finalize output", plan.OutputPath, err)
	}
	renamed = true

	return composition.EncodeResult{
		OutputPath: plan.OutputPath,
		Size:       info.Size(),
		Elapsed:    time.Since(started),
	}, nil
}

// PartialPath is the hidden in-progress file for output.
func PartialPath(output string) string {
	base := strings.TrimSuffix(filepath.Base(output), filepath.Ext(output))
	return filepath.Join(filepath.Dir(output), "."+base+".partial.mp4")
}

func validatePlan(plan composition.RenderPlan) error {
	if strings.TrimSpace(plan.OutputPath) == "" {
		return services.NewValidationError("output_path", "is required")
	}
	if plan.Duration <= 0 {
		return services.NewValidationError("duration", "must be positive")
	}
	if plan.Canvas.Width <= 0 || plan.Canvas.Height <= 0 || plan.Canvas.FPS <= 0 {
		return services.NewValidationError("canvas", "width, height and fps must be positive")
	}
	if _, ok := plan.Background(); !ok {
		return services.NewValidationError("background", "plan has no background layer")
	}
	return nil
}

func writeCaptionFiles(dir string, overlays []composition.Layer) (map[int]string, error) {
	files := make(map[int]string)
	for idx, overlay := range overlays {
		text, ok := overlay.(composition.TextOverlay)
		if !ok {
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("caption-%02d.txt", idx))
		if err := os.WriteFile(path, []byte(strings.Join(text.Lines, "\n")), 0o644); err != nil {
			return nil, err
		}
		files[idx] = path
	}
	return files, nil
}

func (e *FFmpegEncoder) commandError(ctx context.Context, operation string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("ffmpeg %s: %w", operation, ctxErr)
	}
	return services.Wrap(services.ErrExternalTool, "encode", operation, "ffmpeg failed", err)
}

func (e *FFmpegEncoder) removeAll(logger *slog.Logger, path string) {
	if err := os.RemoveAll(path); err != nil {
		logger.Warn("failed to remove encoder work dir",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "cleanup_failed"),
			logging.String(logging.FieldErrorHint, "remove the directory manually"),
		)
	}
}

func (e *FFmpegEncoder) remove(logger *slog.Logger, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("failed to remove partial output",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "cleanup_failed"),
		)
	}
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
