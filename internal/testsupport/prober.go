package testsupport

import (
	"context"
	"fmt"
	"os"
	"sync"

	"themereel/internal/media/ffprobe"
)

// FakeProber answers probes from a table of durations. Paths without an
// entry are stat'ed so missing files still surface fs.ErrNotExist.
type FakeProber struct {
	mu        sync.Mutex
	Durations map[string]float64
	Errors    map[string]error
	HasAudio  bool
	calls     []string
}

// NewFakeProber returns a prober with no configured durations.
func NewFakeProber() *FakeProber {
	return &FakeProber{Durations: map[string]float64{}, Errors: map[string]error{}}
}

// Set registers the duration reported for path.
func (f *FakeProber) Set(path string, seconds float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Durations[path] = seconds
}

// Probe implements the prober interfaces used across the module.
func (f *FakeProber) Probe(_ context.Context, path string) (ffprobe.Info, error) {
	f.mu.Lock()
	f.calls = append(f.calls, path)
	duration, known := f.Durations[path]
	failure := f.Errors[path]
	hasAudio := f.HasAudio
	f.mu.Unlock()

	if failure != nil {
		return ffprobe.Info{}, failure
	}
	stat, err := os.Stat(path)
	if err != nil {
		return ffprobe.Info{}, fmt.Errorf("probe %s: %w", path, err)
	}
	if !known {
		duration = 0
	}
	return ffprobe.Info{
		Path:     path,
		Kind:     ffprobe.DetectKind(path, ffprobe.Result{}),
		Duration: duration,
		HasAudio: hasAudio,
		Size:     stat.Size(),
	}, nil
}

// Calls returns the probed paths in order.
func (f *FakeProber) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}
