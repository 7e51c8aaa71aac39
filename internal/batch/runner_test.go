package batch_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"themereel/internal/batch"
	"themereel/internal/composition"
	"themereel/internal/history"
	"themereel/internal/services"
	"themereel/internal/testsupport"
)

type fakeRenderer struct {
	mu      sync.Mutex
	calls   []string
	active  atomic.Int32
	peak    atomic.Int32
	delay   time.Duration
	results map[string]error
	block   map[string]bool
}

func (f *fakeRenderer) Compose(ctx context.Context, req composition.ThemeRequest) (composition.Result, error) {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	f.mu.Lock()
	f.calls = append(f.calls, req.ThemeName)
	f.mu.Unlock()

	if f.block[req.ThemeName] {
		<-ctx.Done()
		return composition.Result{}, &services.RenderError{Theme: req.ThemeName, OutputPath: req.OutputPath, Err: ctx.Err()}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if err := f.results[req.ThemeName]; err != nil {
		return composition.Result{}, err
	}
	return composition.Result{Theme: req.ThemeName, OutputPath: req.OutputPath, Duration: 100, Size: 2048}, nil
}

type fakePublisher struct {
	fail map[string]bool
}

func (p fakePublisher) Publish(_ context.Context, path string) (string, error) {
	if p.fail[filepath.Base(path)] {
		return "", errors.New("upload refused")
	}
	return "s3://bucket/" + filepath.Base(path), nil
}

func requestsFor(names ...string) []composition.ThemeRequest {
	requests := make([]composition.ThemeRequest, len(names))
	for i, name := range names {
		requests[i] = composition.ThemeRequest{ThemeName: name, OutputPath: "/out/" + name + ".mp4"}
	}
	return requests
}

func TestRunTalliesOutcomesAndRecordsHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	renderer := &fakeRenderer{results: map[string]error{
		"broken":  &services.RenderError{Theme: "broken", Err: errors.New("ffmpeg exited 1")},
		"invalid": &services.RenderError{Theme: "invalid", Err: services.NewValidationError("caption_texts", "has 3 entries for 5 audio segments")},
		"missing": &services.RenderError{Theme: "missing", Err: &services.MissingResourceError{Kind: "audio", Path: "/nope.wav", Index: 0}},
	}}

	var progressed []string
	runner := batch.NewRunner(renderer, batch.Options{
		Workers:   3,
		Recorder:  store,
		Publisher: fakePublisher{},
		Progress:  func(o batch.Outcome) { progressed = append(progressed, o.Theme) },
	})
	summary, err := runner.Run(context.Background(), requestsFor("ok", "broken", "invalid", "missing"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := history.Tally{Succeeded: 1, Failed: 1, Errored: 2}
	if summary.Tally != want {
		t.Fatalf("tally = %+v, want %+v", summary.Tally, want)
	}
	if len(progressed) != 4 {
		t.Fatalf("expected 4 progress callbacks, got %d", len(progressed))
	}
	if summary.RunID == "" {
		t.Fatal("expected run id")
	}

	kinds := map[string]string{}
	for i, outcome := range summary.Outcomes {
		if outcome.Index != i {
			t.Fatalf("outcome %d has index %d", i, outcome.Index)
		}
		kinds[outcome.Theme] = outcome.Kind
	}
	if kinds["broken"] != services.KindRender || kinds["invalid"] != services.KindValidation || kinds["missing"] != services.KindMissingResource || kinds["ok"] != "" {
		t.Fatalf("unexpected kinds %v", kinds)
	}
	if uri := summary.Outcomes[0].PublishedURI; uri != "s3://bucket/ok.mp4" {
		t.Fatalf("unexpected published uri %q", uri)
	}
	if summary.Outcomes[2].Diagnostic == "" {
		t.Fatal("expected diagnostic for validation failure")
	}

	stored, err := store.RunTally(context.Background(), summary.RunID)
	if err != nil {
		t.Fatalf("RunTally: %v", err)
	}
	if stored != want {
		t.Fatalf("stored tally = %+v, want %+v", stored, want)
	}
	records, err := store.List(context.Background(), history.ListOptions{RunID: summary.RunID, Theme: "ok"})
	if err != nil || len(records) != 1 {
		t.Fatalf("List: %v (%d records)", err, len(records))
	}
	if records[0].PublishedURI != "s3://bucket/ok.mp4" || records[0].SizeBytes != 2048 {
		t.Fatalf("unexpected record %#v", records[0])
	}
}

func TestRunMapsDeadlineToTimeoutWithoutAffectingSiblings(t *testing.T) {
	renderer := &fakeRenderer{block: map[string]bool{"slow": true}}
	runner := batch.NewRunner(renderer, batch.Options{Workers: 2, Timeout: 50 * time.Millisecond})

	summary, err := runner.Run(context.Background(), requestsFor("slow", "fast"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	slow, fast := summary.Outcomes[0], summary.Outcomes[1]
	var timeout *services.TimeoutError
	if !errors.As(slow.Err, &timeout) {
		t.Fatalf("expected TimeoutError, got %v", slow.Err)
	}
	if timeout.Limit != 50*time.Millisecond || timeout.Theme != "slow" {
		t.Fatalf("unexpected timeout %#v", timeout)
	}
	if slow.Kind != services.KindTimeout || slow.Status != history.StatusErrored {
		t.Fatalf("unexpected slow outcome %#v", slow)
	}
	if fast.Status != history.StatusSucceeded {
		t.Fatalf("sibling should succeed, got %#v", fast)
	}
}

func TestRunRespectsWorkerLimit(t *testing.T) {
	renderer := &fakeRenderer{delay: 20 * time.Millisecond}
	runner := batch.NewRunner(renderer, batch.Options{Workers: 2})

	summary, err := runner.Run(context.Background(), requestsFor("a", "b", "c", "d", "e"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Tally.Succeeded != 5 {
		t.Fatalf("expected 5 successes, got %+v", summary.Tally)
	}
	if peak := renderer.peak.Load(); peak > 2 {
		t.Fatalf("peak concurrency %d exceeds worker limit", peak)
	}
}

func TestRunRefusesLockedOutputDirectory(t *testing.T) {
	dir := t.TempDir()
	held := flock.New(filepath.Join(dir, batch.LockFileName))
	locked, err := held.TryLock()
	if err != nil || !locked {
		t.Fatalf("hold lock: locked=%v err=%v", locked, err)
	}
	defer held.Unlock()

	renderer := &fakeRenderer{}
	runner := batch.NewRunner(renderer, batch.Options{LockDir: dir})
	if _, err := runner.Run(context.Background(), requestsFor("a")); !errors.Is(err, batch.ErrBatchLocked) {
		t.Fatalf("expected ErrBatchLocked, got %v", err)
	}
	if len(renderer.calls) != 0 {
		t.Fatalf("renderer should not run while locked, got %v", renderer.calls)
	}
}

func TestRunLocksEveryOutputDirectory(t *testing.T) {
	outputDir := t.TempDir()
	elsewhere := t.TempDir()
	requests := []composition.ThemeRequest{
		{ThemeName: "a", OutputPath: filepath.Join(outputDir, "a.mp4")},
		{ThemeName: "b", OutputPath: filepath.Join(elsewhere, "b.mp4")},
	}

	held := flock.New(filepath.Join(elsewhere, batch.LockFileName))
	locked, err := held.TryLock()
	if err != nil || !locked {
		t.Fatalf("hold lock: locked=%v err=%v", locked, err)
	}

	renderer := &fakeRenderer{}
	runner := batch.NewRunner(renderer, batch.Options{LockDir: outputDir, LockOutputs: true})
	if _, err := runner.Run(context.Background(), requests); !errors.Is(err, batch.ErrBatchLocked) {
		t.Fatalf("expected ErrBatchLocked for the second output directory, got %v", err)
	}
	if len(renderer.calls) != 0 {
		t.Fatalf("renderer should not run while locked, got %v", renderer.calls)
	}

	first := flock.New(filepath.Join(outputDir, batch.LockFileName))
	if ok, err := first.TryLock(); err != nil || !ok {
		t.Fatalf("lock on %s should be released after failure: ok=%v err=%v", outputDir, ok, err)
	}
	_ = first.Unlock()

	_ = held.Unlock()
	summary, err := runner.Run(context.Background(), requests)
	if err != nil || summary.Tally.Succeeded != 2 {
		t.Fatalf("expected both renders once unlocked, got %+v err=%v", summary.Tally, err)
	}
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	renderer := &fakeRenderer{}
	runner := batch.NewRunner(renderer, batch.Options{Workers: 1})
	summary, err := runner.Run(ctx, requestsFor("a", "b"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if summary.Tally.Errored != 2 {
		t.Fatalf("expected both requests errored, got %+v", summary.Tally)
	}
	for _, outcome := range summary.Outcomes {
		if outcome.Kind != batch.KindCanceled {
			t.Fatalf("expected canceled kind, got %#v", outcome)
		}
	}
	if len(renderer.calls) != 0 {
		t.Fatalf("renderer should not be called, got %v", renderer.calls)
	}
}

func TestRunKeepsStatusWhenPublishFails(t *testing.T) {
	renderer := &fakeRenderer{}
	runner := batch.NewRunner(renderer, batch.Options{Publisher: fakePublisher{fail: map[string]bool{"a.mp4": true}}})
	summary, err := runner.Run(context.Background(), requestsFor("a"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Outcomes[0].Status != history.StatusSucceeded || summary.Outcomes[0].PublishedURI != "" {
		t.Fatalf("unexpected outcome %#v", summary.Outcomes[0])
	}
}
