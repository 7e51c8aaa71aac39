package composition

import (
	"fmt"
	"math"
	"strings"

	"themereel/internal/background"
	"themereel/internal/config"
	"themereel/internal/services"
	"themereel/internal/timeline"
)

// VideoSettings describe the output canvas and codecs.
type VideoSettings struct {
	FPS            int
	Width          int
	Height         int
	Codec          string
	Bitrate        string
	AudioCodec     string
	TargetDuration float64
	AutoQuality    bool
}

// SubtitleSettings control overlay placement and fades.
type SubtitleSettings struct {
	Position     string
	Margin       int
	FadeDuration float64
}

// SettingsFromConfig extracts render settings from the loaded configuration.
func SettingsFromConfig(cfg *config.Config) (VideoSettings, SubtitleSettings) {
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	video := VideoSettings{
		FPS:            cfg.Video.FPS,
		Width:          cfg.Video.Width,
		Height:         cfg.Video.Height,
		Codec:          cfg.Video.Codec,
		Bitrate:        cfg.Video.Bitrate,
		AudioCodec:     cfg.Video.AudioCodec,
		TargetDuration: cfg.Video.TargetDuration,
		AutoQuality:    cfg.Video.AutoQuality,
	}
	subtitle := SubtitleSettings{
		Position:     cfg.Subtitle.Position,
		Margin:       cfg.Subtitle.Margin,
		FadeDuration: cfg.Subtitle.FadeDuration,
	}
	return video, subtitle
}

func (v VideoSettings) withDefaults() VideoSettings {
	if v.FPS == 0 {
		v.FPS = 30
	}
	if v.Width == 0 {
		v.Width = 1920
	}
	if v.Height == 0 {
		v.Height = 1080
	}
	if strings.TrimSpace(v.Codec) == "" {
		v.Codec = "libx264"
	}
	if strings.TrimSpace(v.Bitrate) == "" {
		v.Bitrate = "5000k"
	}
	if strings.TrimSpace(v.AudioCodec) == "" {
		v.AudioCodec = "aac"
	}
	if v.TargetDuration == 0 {
		v.TargetDuration = timeline.DefaultTotalDuration
	}
	return v
}

func (v VideoSettings) validate() error {
	if v.FPS < 0 {
		return services.NewValidationError("video.fps", "must be positive")
	}
	if v.Width < 0 || v.Height < 0 {
		return services.NewValidationError("video.size", "width and height must be positive")
	}
	if v.TargetDuration < 0 || math.IsNaN(v.TargetDuration) || math.IsInf(v.TargetDuration, 0) {
		return services.NewValidationError("video.target_duration", "must be a positive finite number")
	}
	return nil
}

// ThemeRequest describes one theme video.
type ThemeRequest struct {
	ThemeName string
	// TitleKey selects title_<key>*.wav next to the comment audio.
	TitleKey       string
	AudioSegments  []string
	CaptionTexts   []string
	SubtitleImages []string
	TitleAudio     string
	TitleText      string
	TitleImage     string
	Background     background.Source
	OutputPath     string
	Video          VideoSettings
	Subtitle       SubtitleSettings
}

// Validate checks the request shape without touching the filesystem.
func (r ThemeRequest) Validate() error {
	if strings.TrimSpace(r.ThemeName) == "" {
		return services.NewValidationError("theme_name", "is required")
	}
	if len(r.AudioSegments) == 0 {
		return services.NewValidationError("audio_segments", "at least one audio segment required")
	}
	if len(r.CaptionTexts) > 0 && len(r.CaptionTexts) != len(r.AudioSegments) {
		return services.NewValidationError("caption_texts",
			fmt.Sprintf("has %d entries for %d audio segments", len(r.CaptionTexts), len(r.AudioSegments)))
	}
	if len(r.SubtitleImages) > len(r.AudioSegments) {
		return services.NewValidationError("subtitle_images",
			fmt.Sprintf("has %d entries for %d audio segments", len(r.SubtitleImages), len(r.AudioSegments)))
	}
	if strings.TrimSpace(r.OutputPath) == "" {
		return services.NewValidationError("output_path", "is required")
	}
	return r.Video.validate()
}

// ClipRequest describes a single-clip render: one audio file, one optional
// subtitle image or text, and a background.
type ClipRequest struct {
	Name          string
	Audio         string
	SubtitleImage string
	Text          string
	Background    background.Source
	OutputPath    string
	Video         VideoSettings
	Subtitle      SubtitleSettings
}

// Validate checks the request shape without touching the filesystem.
func (r ClipRequest) Validate() error {
	if strings.TrimSpace(r.Audio) == "" {
		return services.NewValidationError("audio", "is required")
	}
	if strings.TrimSpace(r.OutputPath) == "" {
		return services.NewValidationError("output_path", "is required")
	}
	return r.Video.validate()
}

func (r ClipRequest) displayName() string {
	if name := strings.TrimSpace(r.Name); name != "" {
		return name
	}
	base := r.OutputPath
	if idx := strings.LastIndexAny(base, `/\`); idx >= 0 {
		base = base[idx+1:]
	}
	return strings.TrimSuffix(base, ".mp4")
}
