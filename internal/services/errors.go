package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrMissingResource = errors.New("missing resource")
	ErrRender          = errors.New("render error")
	ErrTimeout         = errors.New("timeout")
	ErrExternalTool    = errors.New("external tool error")
	ErrConfiguration   = errors.New("configuration error")
)

// Failure kinds reported by Kind.
const (
	KindValidation      = "validation"
	KindMissingResource = "missing_resource"
	KindTimeout         = "timeout"
	KindRender          = "render"
)

// ValidationError reports a malformed or incomplete request. It is raised
// before any file is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError is shorthand for a ValidationError.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// MissingResourceError reports a referenced input that does not exist.
// Index is the position of the resource within its list, or -1 when the
// resource is not part of a list.
type MissingResourceError struct {
	Kind  string
	Path  string
	Index int
	Err   error
}

func (e *MissingResourceError) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = "file"
	}
	msg := fmt.Sprintf("%s: %s not found: %s", ErrMissingResource, kind, e.Path)
	if e.Index >= 0 {
		msg = fmt.Sprintf("%s: %s[%d] not found: %s", ErrMissingResource, kind, e.Index, e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MissingResourceError) Is(target error) bool { return target == ErrMissingResource }

func (e *MissingResourceError) Unwrap() error { return e.Err }

// RenderError wraps any failure during composition or encode with the
// context a batch driver needs to report it.
type RenderError struct {
	Theme      string
	OutputPath string
	Err        error
}

func (e *RenderError) Error() string {
	cause := "unknown failure"
	if e.Err != nil {
		cause = e.Err.Error()
	}
	return fmt.Sprintf("render %q -> %s: %s", e.Theme, e.OutputPath, cause)
}

func (e *RenderError) Is(target error) bool { return target == ErrRender }

func (e *RenderError) Unwrap() error { return e.Err }

// TimeoutError reports a render abandoned after exceeding its time budget.
type TimeoutError struct {
	Theme      string
	OutputPath string
	Limit      time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: render %q -> %s exceeded %s", ErrTimeout, e.Theme, e.OutputPath, e.Limit)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout || target == context.DeadlineExceeded
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrRender
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind classifies err for batch tallies. Render is the catch-all.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrMissingResource):
		return KindMissingResource
	default:
		return KindRender
	}
}

// Diagnostic returns err's message truncated to at most limit runes.
func Diagnostic(err error, limit int) string {
	if err == nil {
		return ""
	}
	msg := strings.TrimSpace(err.Error())
	if limit <= 0 {
		return msg
	}
	runes := []rune(msg)
	if len(runes) <= limit {
		return msg
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
