package ffprobe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Kind classifies a media file.
type Kind string

const (
	KindUnknown Kind = "unknown"
	KindAudio   Kind = "audio"
	KindVideo   Kind = "video"
	KindImage   Kind = "image"
)

var extensionKinds = map[string]Kind{
	".mp4":  KindVideo,
	".avi":  KindVideo,
	".mov":  KindVideo,
	".mkv":  KindVideo,
	".webm": KindVideo,
	".wav":  KindAudio,
	".mp3":  KindAudio,
	".aac":  KindAudio,
	".m4a":  KindAudio,
	".ogg":  KindAudio,
	".png":  KindImage,
	".jpg":  KindImage,
	".jpeg": KindImage,
	".gif":  KindImage,
	".bmp":  KindImage,
}

// Info summarizes a probed media file.
type Info struct {
	Path     string
	Kind     Kind
	Duration float64
	Width    int
	Height   int
	HasAudio bool
	Size     int64
	BitRate  int64
}

// InspectFunc matches Inspect and allows tests to substitute canned results.
type InspectFunc func(ctx context.Context, binary, path string) (Result, error)

// Prober inspects media files with a configured ffprobe binary.
type Prober struct {
	binary  string
	inspect InspectFunc
}

// NewProber constructs a Prober for the given binary.
func NewProber(binary string) *Prober {
	return &Prober{binary: binary, inspect: Inspect}
}

// WithInspectFunc returns a copy of the prober that uses fn instead of ffprobe.
func (p *Prober) WithInspectFunc(fn InspectFunc) *Prober {
	clone := *p
	if fn != nil {
		clone.inspect = fn
	}
	return &clone
}

// Probe stats and inspects path. A missing file yields an error wrapping
// fs.ErrNotExist without invoking ffprobe.
func (p *Prober) Probe(ctx context.Context, path string) (Info, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return Info{}, fmt.Errorf("probe %s: %w", path, err)
	}
	if stat.IsDir() {
		return Info{}, fmt.Errorf("probe %s: is a directory", path)
	}

	inspect := p.inspect
	if inspect == nil {
		inspect = Inspect
	}
	result, err := inspect(ctx, p.binary, path)
	if err != nil {
		return Info{}, err
	}

	info := Info{
		Path:     path,
		Kind:     DetectKind(path, result),
		Duration: result.Duration(),
		HasAudio: result.HasStream("audio"),
		Size:     result.SizeBytes(),
		BitRate:  result.BitRate(),
	}
	if info.Size == 0 {
		info.Size = stat.Size()
	}
	if video, ok := result.Stream("video"); ok {
		info.Width = video.Width
		info.Height = video.Height
	}
	return info, nil
}

// DetectKind classifies path by extension, falling back to stream types.
func DetectKind(path string, result Result) Kind {
	if kind, ok := extensionKinds[strings.ToLower(filepath.Ext(path))]; ok {
		return kind
	}
	if video, ok := result.Stream("video"); ok {
		if isStillImageCodec(video.CodecName) {
			return KindImage
		}
		return KindVideo
	}
	if result.HasStream("audio") {
		return KindAudio
	}
	return KindUnknown
}

func isStillImageCodec(codec string) bool {
	switch strings.ToLower(strings.TrimSpace(codec)) {
	case "png", "mjpeg", "bmp", "gif", "webp":
		return true
	}
	return false
}
