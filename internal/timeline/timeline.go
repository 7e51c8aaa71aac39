package timeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"themereel/internal/media/ffprobe"
	"themereel/internal/services"
)

// DefaultTotalDuration is used when Input.TotalDuration is not positive.
const DefaultTotalDuration = 100.0

// Prober reports media durations.
type Prober interface {
	Probe(ctx context.Context, path string) (ffprobe.Info, error)
}

// Input describes the audio material for one theme.
type Input struct {
	AudioSegments []string
	// TitleAudio is an explicit title clip; when absent or missing the
	// title is resolved by naming convention.
	TitleAudio string
	// TitleKey selects title_<key>*.wav next to the first comment audio.
	TitleKey       string
	Captions       []string
	SubtitleImages []string
	TitleText      string
	TitleImage     string
	TotalDuration  float64
}

// Segment is one scheduled slot.
type Segment struct {
	Index         int
	Start         float64
	End           float64
	SourceAudio   string
	AudioDuration float64
	Clip          float64
	DisplayText   string
	DisplayImage  string
	Title         bool
	Silent        bool
}

// SlotDuration returns End-Start.
func (s Segment) SlotDuration() float64 {
	return s.End - s.Start
}

// AudioClip places a source file on the merged track.
type AudioClip struct {
	Path     string
	Start    float64
	Duration float64
}

// AudioTrack is the merged audio of a schedule. Duration is always the
// schedule total; gaps between clips are silence.
type AudioTrack struct {
	Duration float64
	Clips    []AudioClip
}

// Schedule is the allocator output.
type Schedule struct {
	Total    float64
	Slot     float64
	Segments []Segment
	Audio    AudioTrack
}

// Comments returns the non-title segments.
func (s Schedule) Comments() []Segment {
	if len(s.Segments) == 0 {
		return nil
	}
	return s.Segments[1:]
}

// Allocate builds the schedule for input. An empty audio list fails before
// any file access; a missing comment audio yields a MissingResourceError for
// the first missing index.
func Allocate(ctx context.Context, prober Prober, input Input) (Schedule, error) {
	if len(input.AudioSegments) == 0 {
		return Schedule{}, services.NewValidationError("audio_segments", "at least one audio segment required")
	}
	if prober == nil {
		return Schedule{}, errors.New("timeline: prober is required")
	}

	total := input.TotalDuration
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return Schedule{}, services.NewValidationError("total_duration", "must be a finite number of seconds")
	}
	if total <= 0 {
		total = DefaultTotalDuration
	}

	for idx, path := range input.AudioSegments {
		if err := requireFile(path); err != nil {
			return Schedule{}, &services.MissingResourceError{Kind: "audio", Path: path, Index: idx, Err: err}
		}
	}

	durations := make([]float64, len(input.AudioSegments))
	for idx, path := range input.AudioSegments {
		if err := ctx.Err(); err != nil {
			return Schedule{}, err
		}
		info, err := prober.Probe(ctx, path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return Schedule{}, &services.MissingResourceError{Kind: "audio", Path: path, Index: idx, Err: err}
			}
			return Schedule{}, services.Wrap(services.ErrExternalTool, "timeline", "probe audio", fmt.Sprintf("audio[%d] %s", idx, path), err)
		}
		durations[idx] = info.Duration
	}

	count := len(input.AudioSegments) + 1
	slot := total / float64(count)
	schedule := Schedule{
		Total:    total,
		Slot:     slot,
		Segments: make([]Segment, 0, count),
		Audio:    AudioTrack{Duration: total},
	}

	title := resolveTitle(ctx, prober, input, durations[0])
	title.Index = 0
	title.Title = true
	title.Start = 0
	title.End = slotEnd(0, count, slot, total)
	title.DisplayText = input.TitleText
	title.DisplayImage = input.TitleImage
	schedule.appendSegment(title)

	for idx, path := range input.AudioSegments {
		position := idx + 1
		seg := Segment{
			Index:         position,
			Start:         float64(position) * slot,
			End:           slotEnd(position, count, slot, total),
			SourceAudio:   path,
			AudioDuration: durations[idx],
			DisplayText:   at(input.Captions, idx),
			DisplayImage:  at(input.SubtitleImages, idx),
		}
		schedule.appendSegment(seg)
	}
	return schedule, nil
}

func (s *Schedule) appendSegment(seg Segment) {
	if seg.Silent || seg.SourceAudio == "" || seg.AudioDuration <= 0 {
		seg.Clip = 0
	} else {
		seg.Clip = min(seg.AudioDuration, seg.SlotDuration())
		s.Audio.Clips = append(s.Audio.Clips, AudioClip{Path: seg.SourceAudio, Start: seg.Start, Duration: seg.Clip})
	}
	s.Segments = append(s.Segments, seg)
}

// slotEnd forces the last slot to end exactly at total.
func slotEnd(position, count int, slot, total float64) float64 {
	if position == count-1 {
		return total
	}
	return float64(position+1) * slot
}

func resolveTitle(ctx context.Context, prober Prober, input Input, firstDuration float64) Segment {
	for _, candidate := range titleCandidates(input) {
		info, err := prober.Probe(ctx, candidate)
		if err != nil || info.Duration <= 0 {
			continue
		}
		return Segment{SourceAudio: candidate, AudioDuration: info.Duration}
	}
	if firstDuration > 0 {
		return Segment{SourceAudio: input.AudioSegments[0], AudioDuration: firstDuration}
	}
	return Segment{Silent: true}
}

func titleCandidates(input Input) []string {
	var candidates []string
	if explicit := strings.TrimSpace(input.TitleAudio); explicit != "" && requireFile(explicit) == nil {
		candidates = append(candidates, explicit)
	}
	if match := FindTitleAudio(filepath.Dir(input.AudioSegments[0]), input.TitleKey); match != "" {
		candidates = append(candidates, match)
	}
	return candidates
}

// FindTitleAudio returns the first title_<key>*.wav in dir, or "" when key
// is empty or nothing matches. The key must not be followed by a digit, so
// theme1 never picks up title_theme10.wav.
func FindTitleAudio(dir, key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	prefix := "title_" + key
	matches, err := filepath.Glob(filepath.Join(dir, "title_"+escapeGlob(key)+"*.wav"))
	if err != nil || len(matches) == 0 {
		return ""
	}
	sort.Strings(matches)
	for _, match := range matches {
		rest := strings.TrimPrefix(filepath.Base(match), prefix)
		if rest[0] < '0' || rest[0] > '9' {
			return match
		}
	}
	return ""
}

func escapeGlob(value string) string {
	replacer := strings.NewReplacer(`*`, `\*`, `?`, `\?`, `[`, `\[`, `\`, `\\`)
	return replacer.Replace(value)
}

func requireFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return fs.ErrNotExist
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory: %w", path, fs.ErrNotExist)
	}
	return nil
}

func at(values []string, idx int) string {
	if idx < len(values) {
		return values[idx]
	}
	return ""
}
