package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrCanceled      = errors.New("canceled")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify returns the marker that best describes err. Context errors are
// mapped to ErrTimeout and ErrCanceled.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrTimeout):
		return ErrTimeout
	case errors.Is(err, context.Canceled), errors.Is(err, ErrCanceled):
		return ErrCanceled
	}
	for _, marker := range []error{ErrValidation, ErrConfiguration, ErrNotFound, ErrExternalTool} {
		if errors.Is(err, marker) {
			return marker
		}
	}
	return ErrTransient
}

// ErrorHint suggests the operator's next step for a classified failure.
func ErrorHint(err error) string {
	switch Classify(err) {
	case ErrValidation:
		return "check the submitted url and format options"
	case ErrConfiguration:
		return "check mediafetch configuration"
	case ErrNotFound:
		return "the media or a matching stream was not found"
	case ErrExternalTool:
		return "check yt-dlp and ffmpeg are installed and up to date"
	case ErrTimeout:
		return "raise workflow.job_timeout_seconds or retry"
	case ErrCanceled:
		return "job was canceled; resubmit to retry"
	default:
		return "retry the submission"
	}
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
