package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"themereel/internal/composition"
	"themereel/internal/history"
	"themereel/internal/logging"
	"themereel/internal/services"
)

// LockFileName is created in the output directory while a batch runs.
const LockFileName = ".themereel.lock"

// DiagnosticLimit bounds the failure text kept per attempt.
const DiagnosticLimit = 240

// KindCanceled marks requests abandoned because the batch context ended.
const KindCanceled = "canceled"

// ErrBatchLocked is returned when another batch holds the output lock.
var ErrBatchLocked = errors.New("another batch is writing to the output directory")

// Renderer composes a single theme.
type Renderer interface {
	Compose(ctx context.Context, req composition.ThemeRequest) (composition.Result, error)
}

// Recorder persists render attempts.
type Recorder interface {
	Record(ctx context.Context, rec history.Record) (int64, error)
}

// Publisher uploads a finished output and returns its URI.
type Publisher interface {
	Publish(ctx context.Context, path string) (string, error)
}

// Options tune a Runner. Zero values run one render at a time with no
// timeout, history or publishing.
type Options struct {
	Workers   int
	Timeout   time.Duration
	Recorder  Recorder
	Publisher Publisher
	// Progress is called once per finished request, never concurrently.
	Progress func(Outcome)
	Logger   *slog.Logger
	// LockDir, when set, is locked for the duration of Run.
	LockDir string
	// LockOutputs also locks the directory of every request's OutputPath.
	LockOutputs bool
}

// Outcome is the resolved state of one request.
type Outcome struct {
	Index        int
	Theme        string
	OutputPath   string
	Status       history.Status
	Kind         string
	Err          error
	Diagnostic   string
	Result       composition.Result
	PublishedURI string
	Elapsed      time.Duration
}

// Summary reports a finished batch. Outcomes follow request order.
type Summary struct {
	RunID    string
	Outcomes []Outcome
	Tally    history.Tally
	Elapsed  time.Duration
}

// Runner renders theme requests through a bounded pool.
type Runner struct {
	renderer Renderer
	opts     Options
	logger   *slog.Logger
	now      func() time.Time
}

// NewRunner constructs a Runner.
func NewRunner(renderer Renderer, opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Runner{
		renderer: renderer,
		opts:     opts,
		logger:   logging.NewComponentLogger(logger, "batch"),
		now:      time.Now,
	}
}

// Run renders every request. A failing request never stops its siblings;
// the returned error is reserved for batch-level problems (lock contention,
// cancellation).
func (r *Runner) Run(ctx context.Context, requests []composition.ThemeRequest) (Summary, error) {
	if r.renderer == nil {
		return Summary{}, services.Wrap(services.ErrConfiguration, "batch", "run", "renderer unavailable", nil)
	}
	unlock, err := r.acquireLocks(r.lockDirs(requests))
	if err != nil {
		return Summary{}, err
	}
	defer unlock()

	summary := Summary{RunID: uuid.NewString()}
	ctx = services.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, r.logger)
	started := r.now()
	logger.Info("batch started",
		logging.String(logging.FieldEventType, "batch_start"),
		logging.Int("requests", len(requests)),
		logging.Int("workers", r.opts.Workers),
		logging.Duration("render_timeout", r.opts.Timeout),
	)

	outcomes := make([]Outcome, len(requests))
	var progressMu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(r.opts.Workers)
	for i, req := range requests {
		g.Go(func() error {
			outcome := r.renderOne(ctx, summary.RunID, i, req)
			outcomes[i] = outcome
			if r.opts.Progress != nil {
				progressMu.Lock()
				r.opts.Progress(outcome)
				progressMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	summary.Outcomes = outcomes
	for _, outcome := range outcomes {
		switch outcome.Status {
		case history.StatusSucceeded:
			summary.Tally.Succeeded++
		case history.StatusFailed:
			summary.Tally.Failed++
		default:
			summary.Tally.Errored++
		}
	}
	summary.Elapsed = r.now().Sub(started)
	logger.Info("batch finished",
		logging.String(logging.FieldEventType, "batch_complete"),
		logging.Int("succeeded", summary.Tally.Succeeded),
		logging.Int("failed", summary.Tally.Failed),
		logging.Int("errored", summary.Tally.Errored),
		logging.Duration("elapsed", summary.Elapsed),
	)
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// lockDirs returns the sorted, distinct directories Run must lock.
func (r *Runner) lockDirs(requests []composition.ThemeRequest) []string {
	seen := make(map[string]struct{})
	if r.opts.LockDir != "" {
		seen[filepath.Clean(r.opts.LockDir)] = struct{}{}
	}
	if r.opts.LockOutputs {
		for _, req := range requests {
			if strings.TrimSpace(req.OutputPath) == "" {
				continue
			}
			seen[filepath.Dir(filepath.Clean(req.OutputPath))] = struct{}{}
		}
	}
	dirs := make([]string, 0, len(seen))
	for dir := range seen {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}

// acquireLocks takes every lock in dirs or none of them.
func (r *Runner) acquireLocks(dirs []string) (func(), error) {
	held := make([]*flock.Flock, 0, len(dirs))
	release := func() {
		for _, lock := range held {
			if err := lock.Unlock(); err != nil {
				r.logger.Warn("release batch lock failed",
					logging.String("lock_path", lock.Path()),
					logging.Error(err),
				)
			}
		}
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			release()
			return nil, fmt.Errorf("create lock directory: %w", err)
		}
		lockPath := filepath.Join(dir, LockFileName)
		lock := flock.New(lockPath)
		locked, err := lock.TryLock()
		if err != nil {
			release()
			return nil, fmt.Errorf("acquire batch lock: %w", err)
		}
		if !locked {
			release()
			return nil, fmt.Errorf("%w: %s", ErrBatchLocked, lockPath)
		}
		held = append(held, lock)
	}
	return release, nil
}

func (r *Runner) renderOne(ctx context.Context, runID string, index int, req composition.ThemeRequest) Outcome {
	outcome := Outcome{Index: index, Theme: req.ThemeName, OutputPath: req.OutputPath}
	jobCtx := services.WithRequestID(services.WithTheme(ctx, req.ThemeName), uuid.NewString())
	logger := logging.WithContext(jobCtx, r.logger)
	started := r.now()

	var result composition.Result
	var err error
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	} else {
		result, err = r.compose(jobCtx, req)
	}
	outcome.Elapsed = r.now().Sub(started)
	outcome.Result = result

	switch {
	case err == nil:
		outcome.Status = history.StatusSucceeded
		logger.Info("theme rendered",
			logging.String(logging.FieldEventType, "render_complete"),
			logging.String("output_path", result.OutputPath),
			logging.Int64("size_bytes", result.Size),
			logging.Duration("elapsed", outcome.Elapsed),
		)
		outcome.PublishedURI = r.publish(jobCtx, logger, result.OutputPath)
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		outcome.Status = history.StatusErrored
		outcome.Kind = KindCanceled
	default:
		outcome.Kind = services.Kind(err)
		outcome.Status = history.StatusErrored
		if outcome.Kind == services.KindRender {
			outcome.Status = history.StatusFailed
		}
	}
	if err != nil {
		outcome.Err = err
		outcome.Diagnostic = services.Diagnostic(err, DiagnosticLimit)
		logging.ErrorWithContext(logger, "theme render failed", "render_failed",
			logging.String("kind", outcome.Kind),
			logging.String("status", string(outcome.Status)),
			logging.String(logging.FieldErrorHint, hintFor(outcome.Kind)),
			logging.Error(err),
		)
	}
	r.record(jobCtx, logger, runID, outcome, started)
	return outcome
}

// compose applies the per-render timeout and reports an exceeded budget
// as a TimeoutError.
func (r *Runner) compose(ctx context.Context, req composition.ThemeRequest) (composition.Result, error) {
	if r.opts.Timeout <= 0 {
		return r.renderer.Compose(ctx, req)
	}
	jobCtx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()
	result, err := r.renderer.Compose(jobCtx, req)
	if err != nil && ctx.Err() == nil && errors.Is(jobCtx.Err(), context.DeadlineExceeded) {
		return result, &services.TimeoutError{Theme: req.ThemeName, OutputPath: req.OutputPath, Limit: r.opts.Timeout}
	}
	return result, err
}

func (r *Runner) publish(ctx context.Context, logger *slog.Logger, path string) string {
	if r.opts.Publisher == nil {
		return ""
	}
	uri, err := r.opts.Publisher.Publish(ctx, path)
	if err != nil {
		logging.WarnWithContext(logger, "publish failed", "publish_failed",
			logging.String("output_path", path),
			logging.String(logging.FieldErrorHint, "check publish bucket and credentials"),
			logging.String(logging.FieldImpact, "output kept locally only"),
			logging.Error(err),
		)
		return ""
	}
	logger.Info("output published",
		logging.String(logging.FieldEventType, "publish_complete"),
		logging.String("uri", uri),
	)
	return uri
}

func (r *Runner) record(ctx context.Context, logger *slog.Logger, runID string, outcome Outcome, started time.Time) {
	if r.opts.Recorder == nil {
		return
	}
	rec := history.Record{
		RunID:           runID,
		Theme:           outcome.Theme,
		OutputPath:      outcome.OutputPath,
		Status:          outcome.Status,
		ErrorKind:       outcome.Kind,
		Diagnostic:      outcome.Diagnostic,
		DurationSeconds: outcome.Result.Duration,
		SizeBytes:       outcome.Result.Size,
		Elapsed:         outcome.Elapsed,
		PublishedURI:    outcome.PublishedURI,
		StartedAt:       started,
		FinishedAt:      started.Add(outcome.Elapsed),
	}
	// History must survive a cancelled batch.
	if _, err := r.opts.Recorder.Record(context.WithoutCancel(ctx), rec); err != nil {
		logging.WarnWithContext(logger, "record history failed", "history_write_failed",
			logging.String(logging.FieldImpact, "attempt missing from render history"),
			logging.Error(err),
		)
	}
}

func hintFor(kind string) string {
	switch kind {
	case services.KindValidation:
		return "fix the manifest entry for this theme"
	case services.KindMissingResource:
		return "check that every referenced audio file exists"
	case services.KindTimeout:
		return "raise batch.render_timeout or shorten the theme"
	case KindCanceled:
		return "rerun the batch"
	default:
		return "inspect ffmpeg output in the log file"
	}
}
