package batch_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"themereel/internal/background"
	"themereel/internal/batch"
	"themereel/internal/services"
	"themereel/internal/testsupport"
)

const sampleManifest = `
[[theme]]
name = "cats"
audio = ["voice/c1.wav", "/abs/c2.wav"]
captions = ["first", "second"]
subtitles = ["subs/c1.png", ""]
title_text = "Cats"
background = "random"

[[theme]]
audio = ["d1.wav"]
background = "bg/loop.mp4"
output = "custom/dogs.mp4"
ignored_key = true
`

func TestLoadManifestBuildsRequests(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithTargetDuration(42))
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.toml")
	if err := os.WriteFile(path, []byte(sampleManifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	manifest, err := batch.LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	requests := manifest.Requests(cfg, dir)
	if len(requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(requests))
	}

	cats := requests[0]
	if cats.ThemeName != "cats" || cats.TitleText != "Cats" {
		t.Fatalf("unexpected first request %#v", cats)
	}
	if cats.AudioSegments[0] != filepath.Join(dir, "voice", "c1.wav") || cats.AudioSegments[1] != "/abs/c2.wav" {
		t.Fatalf("unexpected audio paths %v", cats.AudioSegments)
	}
	if cats.SubtitleImages[0] != filepath.Join(dir, "subs", "c1.png") || cats.SubtitleImages[1] != "" {
		t.Fatalf("unexpected subtitle paths %v", cats.SubtitleImages)
	}
	if cats.Background.Mode != background.ModeRandom {
		t.Fatalf("expected random background, got %#v", cats.Background)
	}
	if cats.OutputPath != filepath.Join(cfg.Paths.OutputDir, "cats.mp4") {
		t.Fatalf("unexpected output %s", cats.OutputPath)
	}
	if cats.Video.TargetDuration != 42 {
		t.Fatalf("target duration not copied: %v", cats.Video.TargetDuration)
	}
	if cats.Video.FPS != cfg.Video.FPS || cats.Subtitle.Position != cfg.Subtitle.Position {
		t.Fatalf("settings not copied from config: %#v %#v", cats.Video, cats.Subtitle)
	}

	dogs := requests[1]
	if dogs.ThemeName != "theme2" {
		t.Fatalf("expected generated name theme2, got %q", dogs.ThemeName)
	}
	if dogs.Background.Mode != background.ModeExplicit || dogs.Background.Path != filepath.Join(dir, "bg", "loop.mp4") {
		t.Fatalf("unexpected background %#v", dogs.Background)
	}
	if dogs.OutputPath != filepath.Join(cfg.Paths.OutputDir, "custom", "dogs.mp4") {
		t.Fatalf("unexpected output %s", dogs.OutputPath)
	}
	if len(dogs.CaptionTexts) != 0 || dogs.SubtitleImages != nil {
		t.Fatalf("expected absent captions and subtitles, got %#v", dogs)
	}
}

func TestLoadManifestRejectsEmptyAndMalformed(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.toml")
	if err := os.WriteFile(empty, []byte("# nothing\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := batch.LoadManifest(empty); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}

	broken := filepath.Join(dir, "broken.toml")
	if err := os.WriteFile(broken, []byte("[[theme]\nname = "), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := batch.LoadManifest(broken); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}

	if _, err := batch.LoadManifest(filepath.Join(dir, "missing.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
