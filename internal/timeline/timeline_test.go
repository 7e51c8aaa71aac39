package timeline_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"testing"

	"themereel/internal/services"
	"themereel/internal/testsupport"
	"themereel/internal/timeline"
)

func writeAudio(t *testing.T, prober *testsupport.FakeProber, dir, name string, seconds float64) string {
	t.Helper()
	path := filepath.Join(dir, name)
	testsupport.WriteFile(t, path, 64)
	prober.Set(path, seconds)
	return path
}

func TestAllocateMergedTrackAlwaysSpansTotal(t *testing.T) {
	for _, n := range []int{1, 2, 3, 6, 20} {
		dir := t.TempDir()
		prober := testsupport.NewFakeProber()
		var audio []string
		for i := 0; i < n; i++ {
			// alternate far-too-long and very short clips
			seconds := 0.5
			if i%2 == 0 {
				seconds = 400
			}
			audio = append(audio, writeAudio(t, prober, dir, fmt.Sprintf("c%02d.wav", i), seconds))
		}

		schedule, err := timeline.Allocate(context.Background(), prober, timeline.Input{AudioSegments: audio, TotalDuration: 100})
		if err != nil {
			t.Fatalf("n=%d: Allocate: %v", n, err)
		}
		if schedule.Audio.Duration != 100 {
			t.Fatalf("n=%d: merged duration %v", n, schedule.Audio.Duration)
		}
		if len(schedule.Segments) != n+1 {
			t.Fatalf("n=%d: expected %d segments, got %d", n, n+1, len(schedule.Segments))
		}
		last := schedule.Segments[len(schedule.Segments)-1]
		if last.End != 100 {
			t.Fatalf("n=%d: last end %v", n, last.End)
		}
		for _, clip := range schedule.Audio.Clips {
			if clip.Start < 0 || clip.Start+clip.Duration > 100+1e-9 {
				t.Fatalf("n=%d: clip escapes track: %+v", n, clip)
			}
		}
	}
}

func TestAllocateSlotsTruncateButNeverStretch(t *testing.T) {
	dir := t.TempDir()
	prober := testsupport.NewFakeProber()
	long := writeAudio(t, prober, dir, "long.wav", 80)
	short := writeAudio(t, prober, dir, "short.wav", 2)

	schedule, err := timeline.Allocate(context.Background(), prober, timeline.Input{
		AudioSegments: []string{long, short},
		Captions:      []string{"first", "second"},
		TotalDuration: 90,
	})
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if schedule.Slot != 30 {
		t.Fatalf("expected 30s slots, got %v", schedule.Slot)
	}

	title := schedule.Segments[0]
	if !title.Title || title.Index != 0 || title.SourceAudio != long || title.Clip != 30 {
		t.Fatalf("unexpected title segment %+v", title)
	}
	first := schedule.Segments[1]
	if first.Start != 30 || first.End != 60 || first.Clip != 30 || first.DisplayText != "first" {
		t.Fatalf("unexpected first comment %+v", first)
	}
	second := schedule.Segments[2]
	if second.Start != 60 || second.End != 90 || second.Clip != 2 || second.AudioDuration != 2 {
		t.Fatalf("unexpected second comment %+v", second)
	}
	if got := len(schedule.Comments()); got != 2 {
		t.Fatalf("expected 2 comments, got %d", got)
	}
}

func TestAllocateUnevenSlotsEndExactlyAtTotal(t *testing.T) {
	dir := t.TempDir()
	prober := testsupport.NewFakeProber()
	var audio []string
	for _, name := range []string{"a.wav", "b.wav", "c.wav", "d.wav", "e.wav", "f.wav"} {
		audio = append(audio, writeAudio(t, prober, dir, name, 1))
	}
	schedule, err := timeline.Allocate(context.Background(), prober, timeline.Input{AudioSegments: audio, TotalDuration: 100})
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if math.Abs(schedule.Slot-100.0/7.0) > 1e-12 {
		t.Fatalf("unexpected slot %v", schedule.Slot)
	}
	if end := schedule.Segments[6].End; end != 100 {
		t.Fatalf("expected last end forced to 100, got %v", end)
	}
	for i := 1; i < len(schedule.Segments); i++ {
		if schedule.Segments[i].Start < schedule.Segments[i-1].End-1e-9 {
			t.Fatalf("segments overlap at %d", i)
		}
	}
}

func TestAllocateEmptyListFailsBeforeIO(t *testing.T) {
	prober := testsupport.NewFakeProber()
	_, err := timeline.Allocate(context.Background(), prober, timeline.Input{})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(prober.Calls()) != 0 {
		t.Fatalf("expected no probes, got %v", prober.Calls())
	}
}

func TestAllocateMissingAudioReportsIndexAndPath(t *testing.T) {
	dir := t.TempDir()
	prober := testsupport.NewFakeProber()
	missing := filepath.Join(dir, "gone.wav")
	present := writeAudio(t, prober, dir, "ok.wav", 3)

	_, err := timeline.Allocate(context.Background(), prober, timeline.Input{AudioSegments: []string{missing, present}})
	var missingErr *services.MissingResourceError
	if !errors.As(err, &missingErr) {
		t.Fatalf("expected MissingResourceError, got %v", err)
	}
	if missingErr.Index != 0 || missingErr.Path != missing || missingErr.Kind != "audio" {
		t.Fatalf("unexpected missing resource %+v", missingErr)
	}
	if len(prober.Calls()) != 0 {
		t.Fatal("expected existence check before probing")
	}
}

func TestAllocateTitleResolution(t *testing.T) {
	dir := t.TempDir()
	prober := testsupport.NewFakeProber()
	comment := writeAudio(t, prober, dir, "theme2_comment1_a.wav", 4)
	byKey := writeAudio(t, prober, dir, "title_theme2_intro.wav", 6)
	explicit := writeAudio(t, prober, dir, "custom_title.wav", 5)

	schedule, err := timeline.Allocate(context.Background(), prober, timeline.Input{
		AudioSegments: []string{comment},
		TitleKey:      "theme2",
	})
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if got := schedule.Segments[0].SourceAudio; got != byKey {
		t.Fatalf("expected title by naming convention, got %q", got)
	}

	schedule, err = timeline.Allocate(context.Background(), prober, timeline.Input{
		AudioSegments: []string{comment},
		TitleAudio:    explicit,
		TitleKey:      "theme2",
	})
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if got := schedule.Segments[0].SourceAudio; got != explicit {
		t.Fatalf("expected explicit title, got %q", got)
	}

	schedule, err = timeline.Allocate(context.Background(), prober, timeline.Input{
		AudioSegments: []string{comment},
		TitleAudio:    filepath.Join(dir, "missing_title.wav"),
		TitleKey:      "theme9",
	})
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if got := schedule.Segments[0].SourceAudio; got != comment {
		t.Fatalf("expected first comment fallback, got %q", got)
	}
}

func TestAllocateSilentTitleWhenNoUsableAudio(t *testing.T) {
	dir := t.TempDir()
	prober := testsupport.NewFakeProber()
	empty := writeAudio(t, prober, dir, "empty.wav", 0)

	schedule, err := timeline.Allocate(context.Background(), prober, timeline.Input{AudioSegments: []string{empty}, TotalDuration: 10})
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	title := schedule.Segments[0]
	if !title.Silent || title.SourceAudio != "" || title.Clip != 0 {
		t.Fatalf("expected silent title, got %+v", title)
	}
	if len(schedule.Audio.Clips) != 0 {
		t.Fatalf("expected no audible clips, got %+v", schedule.Audio.Clips)
	}
	if schedule.Audio.Duration != 10 {
		t.Fatalf("silence still spans the total, got %v", schedule.Audio.Duration)
	}
}

func TestAllocateDefaultsTotal(t *testing.T) {
	dir := t.TempDir()
	prober := testsupport.NewFakeProber()
	audio := writeAudio(t, prober, dir, "a.wav", 1)
	schedule, err := timeline.Allocate(context.Background(), prober, timeline.Input{AudioSegments: []string{audio}})
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if schedule.Total != timeline.DefaultTotalDuration {
		t.Fatalf("expected default total, got %v", schedule.Total)
	}
}

func TestAllocateTitleKeyIgnoresLongerThemeNumbers(t *testing.T) {
	dir := t.TempDir()
	prober := testsupport.NewFakeProber()
	comment := writeAudio(t, prober, dir, "theme1_comment1_a.wav", 4)
	writeAudio(t, prober, dir, "theme10_comment1_a.wav", 4)
	writeAudio(t, prober, dir, "title_theme10_x.wav", 6)

	schedule, err := timeline.Allocate(context.Background(), prober, timeline.Input{
		AudioSegments: []string{comment},
		TitleKey:      "theme1",
	})
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if got := schedule.Segments[0].SourceAudio; got != comment {
		t.Fatalf("expected first comment fallback for theme1, got %q", got)
	}

	own := writeAudio(t, prober, dir, "title_theme1.wav", 3)
	if got := timeline.FindTitleAudio(dir, "theme1"); got != own {
		t.Fatalf("expected %q, got %q", own, got)
	}
	if got := timeline.FindTitleAudio(dir, "theme10"); got != filepath.Join(dir, "title_theme10_x.wav") {
		t.Fatalf("theme10 lookup returned %q", got)
	}
}

func TestAllocateRejectsNonFiniteTotal(t *testing.T) {
	dir := t.TempDir()
	prober := testsupport.NewFakeProber()
	audio := writeAudio(t, prober, dir, "a.wav", 1)
	for _, total := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := timeline.Allocate(context.Background(), prober, timeline.Input{AudioSegments: []string{audio}, TotalDuration: total})
		if services.Kind(err) != services.KindValidation {
			t.Fatalf("total %v: expected validation error, got %v", total, err)
		}
	}
}
