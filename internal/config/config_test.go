package config_test

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"themereel/internal/config"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("THEMEREEL_OUTPUT_DIR", "")
	t.Setenv("THEMEREEL_ASSET_DIR", "")
	t.Setenv("AWS_REGION", "")
	return home
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	home := isolateEnv(t)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if want := filepath.Join(home, "videos", "themereel"); cfg.Paths.OutputDir != want {
		t.Fatalf("unexpected output dir: got %q want %q", cfg.Paths.OutputDir, want)
	}
	if want := filepath.Join(home, ".local", "share", "themereel", "history.db"); cfg.Paths.HistoryDB != want {
		t.Fatalf("unexpected history db: got %q want %q", cfg.Paths.HistoryDB, want)
	}
	if want := filepath.Join(home, "videos", "backgrounds"); cfg.Background.AssetDir != want {
		t.Fatalf("unexpected asset dir: got %q want %q", cfg.Background.AssetDir, want)
	}
	if cfg.Video.FPS != 30 || cfg.Video.Width != 1920 || cfg.Video.Height != 1080 {
		t.Fatalf("unexpected video defaults: %+v", cfg.Video)
	}
	if cfg.Video.TargetDuration != 100 {
		t.Fatalf("expected 100s timeline, got %v", cfg.Video.TargetDuration)
	}
	if cfg.Background.Volume != 0.10 || !cfg.Background.Loop {
		t.Fatalf("unexpected background defaults: %+v", cfg.Background)
	}
	if cfg.Subtitle.Position != "bottom" || cfg.Subtitle.Margin != 50 {
		t.Fatalf("unexpected subtitle defaults: %+v", cfg.Subtitle)
	}
	if cfg.RenderTimeout() != 300*time.Second {
		t.Fatalf("unexpected render timeout: %v", cfg.RenderTimeout())
	}
	if cfg.Publish.Enabled {
		t.Fatal("expected publishing disabled by default")
	}
}

func TestLoadCustomPath(t *testing.T) {
	isolateEnv(t)
	configPath := filepath.Join(t.TempDir(), "themereel.toml")

	type payload struct {
		Video struct {
			FPS            int     `toml:"fps"`
			TargetDuration float64 `toml:"target_duration"`
		} `toml:"video"`
		Subtitle struct {
			Position string `toml:"position"`
		} `toml:"subtitle"`
		Batch struct {
			Workers       int `toml:"workers"`
			RenderTimeout int `toml:"render_timeout"`
		} `toml:"batch"`
	}
	custom := payload{}
	custom.Video.FPS = 24
	custom.Video.TargetDuration = 60
	custom.Subtitle.Position = " TOP "
	custom.Batch.Workers = 3
	custom.Batch.RenderTimeout = 0
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom path to resolve, got %q exists=%v", resolved, exists)
	}
	if cfg.Video.FPS != 24 || cfg.Video.TargetDuration != 60 {
		t.Fatalf("custom video settings not applied: %+v", cfg.Video)
	}
	if cfg.Subtitle.Position != "top" {
		t.Fatalf("expected normalized position, got %q", cfg.Subtitle.Position)
	}
	if cfg.Batch.Workers != 3 {
		t.Fatalf("expected 3 workers, got %d", cfg.Batch.Workers)
	}
	if cfg.RenderTimeout() != 0 {
		t.Fatalf("expected disabled timeout, got %v", cfg.RenderTimeout())
	}
	if cfg.Video.Codec != "libx264" {
		t.Fatalf("expected default codec to survive partial file, got %q", cfg.Video.Codec)
	}
}

func TestEnvOverridesAssetAndOutputDirs(t *testing.T) {
	isolateEnv(t)
	assets := t.TempDir()
	output := t.TempDir()
	t.Setenv("THEMEREEL_ASSET_DIR", assets)
	t.Setenv("THEMEREEL_OUTPUT_DIR", output)
	t.Setenv("AWS_REGION", "eu-central-1")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Background.AssetDir != assets {
		t.Fatalf("expected asset dir from env, got %q", cfg.Background.AssetDir)
	}
	if cfg.Paths.OutputDir != output {
		t.Fatalf("expected output dir from env, got %q", cfg.Paths.OutputDir)
	}
	if cfg.Publish.Region != "eu-central-1" {
		t.Fatalf("expected region from env, got %q", cfg.Publish.Region)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	isolateEnv(t)
	configPath := filepath.Join(t.TempDir(), "broken.toml")
	if err := os.WriteFile(configPath, []byte("[video\nfps = "), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadRejectsNonFiniteDuration(t *testing.T) {
	isolateEnv(t)
	for _, value := range []string{"nan", "inf", "-inf"} {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		body := "[video]\ntarget_duration = " + value + "\n"
		if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}
		_, _, _, err := config.Load(configPath)
		if err == nil || !strings.Contains(err.Error(), "target_duration") {
			t.Fatalf("target_duration = %s: expected rejection, got %v", value, err)
		}
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "target_duration") {
		t.Fatalf("sample config missing target_duration: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.OutputDir, "themereel") {
		t.Fatalf("expected output dir to contain themereel, got %q", cfg.Paths.OutputDir)
	}
	if cfg.Background.Color != "#228B22" {
		t.Fatalf("unexpected sample color %q", cfg.Background.Color)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(base, "out")
	cfg.Paths.TempDir = filepath.Join(base, "tmp")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.HistoryDB = filepath.Join(base, "state", "history.db")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{"out", "tmp", "logs", "state"} {
		if info, err := os.Stat(filepath.Join(base, dir)); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"fps":            func(c *config.Config) { c.Video.FPS = 0 },
		"width":          func(c *config.Config) { c.Video.Width = -1 },
		"duration":       func(c *config.Config) { c.Video.TargetDuration = 0 },
		"duration nan":   func(c *config.Config) { c.Video.TargetDuration = math.NaN() },
		"duration inf":   func(c *config.Config) { c.Video.TargetDuration = math.Inf(1) },
		"fade nan":       func(c *config.Config) { c.Subtitle.FadeDuration = math.NaN() },
		"volume nan":     func(c *config.Config) { c.Background.Volume = math.NaN() },
		"position":       func(c *config.Config) { c.Subtitle.Position = "left" },
		"margin":         func(c *config.Config) { c.Subtitle.Margin = -5 },
		"volume":         func(c *config.Config) { c.Background.Volume = 1.5 },
		"color":          func(c *config.Config) { c.Background.Color = "green" },
		"workers":        func(c *config.Config) { c.Batch.Workers = -1 },
		"memory":         func(c *config.Config) { c.Batch.MemoryPerRenderMiB = 0 },
		"log format":     func(c *config.Config) { c.Logging.Format = "xml" },
		"publish bucket": func(c *config.Config) { c.Publish.Enabled = true },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error for %s", name)
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}
