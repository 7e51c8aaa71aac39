package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// showEntries limits ffprobe output to the fields Probe reads.
const showEntries = "format=duration,size,bit_rate:stream=codec_type,codec_name,width,height,duration"

// Result is the decoded subset of ffprobe's JSON output.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream is one audio, video or image stream.
type Stream struct {
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Duration  string `json:"duration"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Format holds container-level values. ffprobe reports them as strings and
// uses "N/A" when unknown.
type Format struct {
	Duration string `json:"duration"`
	Size     string `json:"size"`
	BitRate  string `json:"bit_rate"`
}

// Inspect runs ffprobe on path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	if strings.TrimSpace(path) == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-show_entries", showEntries, "-of", "json", "--", path)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{}, fmt.Errorf("ffprobe %s: %w: %s", path, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return Result{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe %s: decode output: %w", path, err)
	}
	return result, nil
}

// Stream returns the first stream of codecType ("audio" or "video").
func (r Result) Stream(codecType string) (Stream, bool) {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, codecType) {
			return stream, true
		}
	}
	return Stream{}, false
}

// HasStream reports whether any stream has codecType.
func (r Result) HasStream(codecType string) bool {
	_, ok := r.Stream(codecType)
	return ok
}

// Duration returns the container duration, falling back to the first video
// stream and then the first audio stream. Stills and unknown values give 0.
func (r Result) Duration() float64 {
	if seconds := parseSeconds(r.Format.Duration); seconds > 0 {
		return seconds
	}
	for _, codecType := range []string{"video", "audio"} {
		if stream, ok := r.Stream(codecType); ok {
			if seconds := parseSeconds(stream.Duration); seconds > 0 {
				return seconds
			}
		}
	}
	return 0
}

// SizeBytes returns the reported container size, or 0 when unknown.
func (r Result) SizeBytes() int64 {
	return parseCount(r.Format.Size)
}

// BitRate returns the container bitrate in bits per second, or 0 when unknown.
func (r Result) BitRate() int64 {
	return parseCount(r.Format.BitRate)
}

func parseSeconds(value string) float64 {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return 0
	}
	return seconds
}

func parseCount(value string) int64 {
	count, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || count < 0 {
		return 0
	}
	return count
}
