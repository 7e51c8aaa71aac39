package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	TempDir   string `toml:"temp_dir"`
	LogDir    string `toml:"log_dir"`
	HistoryDB string `toml:"history_db"`
}

// Video contains output encoding settings.
type Video struct {
	FPS            int     `toml:"fps"`
	Width          int     `toml:"width"`
	Height         int     `toml:"height"`
	Codec          string  `toml:"codec"`
	Bitrate        string  `toml:"bitrate"`
	AudioCodec     string  `toml:"audio_codec"`
	TargetDuration float64 `toml:"target_duration"`
	// AutoQuality selects an x264 preset/crf tier from the render duration.
	AutoQuality bool `toml:"auto_quality"`
}

// Subtitle contains overlay placement and timing settings.
type Subtitle struct {
	Position     string  `toml:"position"`
	Margin       int     `toml:"margin"`
	FadeDuration float64 `toml:"fade_duration"`
}

// Background contains background layer settings.
type Background struct {
	Loop     bool    `toml:"loop"`
	Volume   float64 `toml:"volume"`
	AssetDir string  `toml:"asset_dir"`
	Color    string  `toml:"color"`
}

// Tools names the external binaries used for probing and encoding.
type Tools struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
}

// Batch contains batch driver settings.
type Batch struct {
	// Workers bounds concurrent renders. Zero sizes the pool from available memory.
	Workers            int `toml:"workers"`
	RenderTimeout      int `toml:"render_timeout"`
	MemoryPerRenderMiB int `toml:"memory_per_render_mib"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Publish contains optional S3-compatible upload settings.
type Publish struct {
	Enabled      bool   `toml:"enabled"`
	Bucket       string `toml:"bucket"`
	Prefix       string `toml:"prefix"`
	Region       string `toml:"region"`
	Profile      string `toml:"profile"`
	UsePathStyle bool   `toml:"use_path_style"`
}

// Config encapsulates all configuration values for themereel.
//
// Configuration sections by subsystem:
//   - Paths: output, temp, log, and history database locations
//   - Video: canvas, frame rate, codecs, and timeline duration
//   - Subtitle: overlay position, margin, and fades
//   - Background: loop policy, bed volume, asset pool, fallback color
//   - Tools: ffmpeg/ffprobe binaries
//   - Batch: worker pool sizing and render timeout
//   - Logging: log format and level
//   - Publish: S3 upload of finished renders
//
// Unknown keys in the TOML file are ignored.
type Config struct {
	Paths      Paths      `toml:"paths"`
	Video      Video      `toml:"video"`
	Subtitle   Subtitle   `toml:"subtitle"`
	Background Background `toml:"background"`
	Tools      Tools      `toml:"tools"`
	Batch      Batch      `toml:"batch"`
	Logging    Logging    `toml:"logging"`
	Publish    Publish    `toml:"publish"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("themereel.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the output, temp, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.TempDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if dir := filepath.Dir(c.Paths.HistoryDB); strings.TrimSpace(c.Paths.HistoryDB) != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RenderTimeout returns the per-render time budget, or zero when unlimited.
func (c *Config) RenderTimeout() time.Duration {
	if c.Batch.RenderTimeout <= 0 {
		return 0
	}
	return time.Duration(c.Batch.RenderTimeout) * time.Second
}

// FFmpegBinary returns the ffmpeg executable name.
func (c *Config) FFmpegBinary() string {
	if bin := strings.TrimSpace(c.Tools.FFmpeg); bin != "" {
		return bin
	}
	return defaultFFmpeg
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	if bin := strings.TrimSpace(c.Tools.FFprobe); bin != "" {
		return bin
	}
	return defaultFFprobe
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
