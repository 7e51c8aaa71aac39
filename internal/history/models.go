package history

import (
	"strings"
	"time"
)

// Status is the outcome of one render attempt.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	// StatusFailed marks render failures (encoder, output checks).
	StatusFailed Status = "failed"
	// StatusErrored marks validation, missing-resource and timeout failures.
	StatusErrored Status = "errored"
)

// ParseStatus maps user input to a Status.
func ParseStatus(value string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusSucceeded:
		return StatusSucceeded, true
	case StatusFailed:
		return StatusFailed, true
	case StatusErrored:
		return StatusErrored, true
	}
	return "", false
}

// Record is one row of render history.
type Record struct {
	ID              int64
	RunID           string
	Theme           string
	OutputPath      string
	Status          Status
	ErrorKind       string
	Diagnostic      string
	DurationSeconds float64
	SizeBytes       int64
	Elapsed         time.Duration
	PublishedURI    string
	StartedAt       time.Time
	FinishedAt      time.Time
}

// ListOptions filter List results. Zero values match everything.
type ListOptions struct {
	Limit  int
	RunID  string
	Theme  string
	Status Status
}

// Tally counts outcomes for a run.
type Tally struct {
	Succeeded int
	Failed    int
	Errored   int
}

// Total returns the number of recorded attempts.
func (t Tally) Total() int {
	return t.Succeeded + t.Failed + t.Errored
}
