package background

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"themereel/internal/logging"
	"themereel/internal/media/ffprobe"
)

// Mode selects how a background is chosen.
type Mode string

const (
	ModeNone     Mode = ""
	ModeExplicit Mode = "explicit"
	ModeRandom   Mode = "random"
)

// Source is a background request.
type Source struct {
	Mode Mode
	Path string
}

// ParseSource interprets a manifest value: "" is none, "random" is random,
// anything else is an explicit path.
func ParseSource(value string) Source {
	trimmed := strings.TrimSpace(value)
	switch strings.ToLower(trimmed) {
	case "", "none":
		return Source{Mode: ModeNone}
	case "random":
		return Source{Mode: ModeRandom}
	default:
		return Source{Mode: ModeExplicit, Path: trimmed}
	}
}

// Kind distinguishes video backgrounds from color fallbacks.
type Kind string

const (
	KindVideo Kind = "video"
	KindColor Kind = "color"
)

// Background is a duration-matched visual layer.
type Background struct {
	Kind           Kind
	Path           string
	Duration       float64
	NativeDuration float64
	// Loops is the number of whole copies concatenated before truncation.
	Loops int
	// Freeze holds the last frame when looping is disabled and the source is
	// shorter than Duration.
	Freeze   bool
	Width    int
	Height   int
	HasAudio bool
	Volume   float64
	Color    RGB
	// Fallback names why a color background was used.
	Fallback string
}

// AssetExtensions lists the background file types picked from the pool.
var AssetExtensions = []string{".mp4", ".avi", ".mov"}

// Prober reports media durations.
type Prober interface {
	Probe(ctx context.Context, path string) (ffprobe.Info, error)
}

// Settings configure the resolver.
type Settings struct {
	Loop     bool
	Volume   float64
	AssetDir string
	Color    RGB
}

// Resolver picks backgrounds.
type Resolver struct {
	prober   Prober
	settings Settings
	logger   *slog.Logger
	pick     func(n int) int
}

// NewResolver constructs a resolver. A nil logger discards output.
func NewResolver(prober Prober, settings Settings, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	if settings.Color == (RGB{}) {
		settings.Color = DefaultColor
	}
	return &Resolver{
		prober:   prober,
		settings: settings,
		logger:   logging.NewComponentLogger(logger, "background"),
		pick:     rand.IntN,
	}
}

// Resolve returns a background of exactly duration seconds.
func (r *Resolver) Resolve(ctx context.Context, src Source, duration float64) Background {
	if src.Mode == ModeExplicit {
		bg, err := r.fromFile(ctx, src.Path, duration)
		if err == nil {
			return bg
		}
		r.logger.WarnContext(ctx, "explicit background unusable; trying asset pool",
			logging.String("path", src.Path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "background_explicit_failed"),
			logging.Alert("background_fallback"),
			logging.String(logging.FieldErrorHint, "check the background path in the manifest"),
			logging.String(logging.FieldImpact, "background chosen from the asset pool or solid color"),
		)
	}

	assets, err := ScanAssets(r.settings.AssetDir)
	if err != nil {
		r.logger.WarnContext(ctx, "background asset scan failed",
			logging.String("asset_dir", r.settings.AssetDir),
			logging.Error(err),
			logging.String(logging.FieldEventType, "background_scan_failed"),
			logging.String(logging.FieldImpact, "solid color background"),
		)
		return r.colorFallback(duration, "asset scan failed")
	}
	if len(assets) == 0 {
		r.logger.InfoContext(ctx, "no background assets; using solid color",
			logging.String("asset_dir", r.settings.AssetDir),
			logging.String(logging.FieldEventType, "background_color_fallback"),
		)
		return r.colorFallback(duration, "no assets")
	}

	choice := assets[r.pick(len(assets))]
	bg, err := r.fromFile(ctx, choice, duration)
	if err != nil {
		r.logger.WarnContext(ctx, "random background unusable; using solid color",
			logging.String("path", choice),
			logging.Error(err),
			logging.String(logging.FieldEventType, "background_random_failed"),
			logging.Alert("background_fallback"),
			logging.String(logging.FieldImpact, "solid color background"),
		)
		return r.colorFallback(duration, "random asset unusable")
	}
	r.logger.DebugContext(ctx, "random background selected",
		logging.String("path", choice),
		logging.Int("pool_size", len(assets)),
	)
	return bg
}

func (r *Resolver) fromFile(ctx context.Context, path string, duration float64) (Background, error) {
	if strings.TrimSpace(path) == "" {
		return Background{}, errors.New("empty background path")
	}
	if r.prober == nil {
		return Background{}, errors.New("no prober configured")
	}
	info, err := r.prober.Probe(ctx, path)
	if err != nil {
		return Background{}, err
	}
	if info.Duration <= 0 || math.IsNaN(info.Duration) {
		return Background{}, fmt.Errorf("background %s has no duration", path)
	}

	bg := Background{
		Kind:           KindVideo,
		Path:           path,
		Duration:       duration,
		NativeDuration: info.Duration,
		Loops:          1,
		Width:          info.Width,
		Height:         info.Height,
		HasAudio:       info.HasAudio,
		Volume:         r.settings.Volume,
	}
	if info.Duration < duration {
		if r.settings.Loop {
			bg.Loops = LoopCount(info.Duration, duration)
		} else {
			bg.Freeze = true
		}
	}
	return bg, nil
}

func (r *Resolver) colorFallback(duration float64, reason string) Background {
	return Background{
		Kind:     KindColor,
		Duration: duration,
		Color:    r.settings.Color,
		Fallback: reason,
	}
}

// LoopCount returns ceil(target/native), at least 1.
func LoopCount(native, target float64) int {
	if native <= 0 || target <= native {
		return 1
	}
	return int(math.Ceil(target / native))
}

// ScanAssets lists background videos in dir, sorted by name. A missing
// directory is reported as empty.
func ScanAssets(dir string) ([]string, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var assets []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		for _, allowed := range AssetExtensions {
			if ext == allowed {
				assets = append(assets, filepath.Join(dir, entry.Name()))
				break
			}
		}
	}
	sort.Strings(assets)
	return assets, nil
}
