package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"mediafetch/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "fetch", "yt-dlp", "download failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"fetch", "yt-dlp", "download failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected default detail, got %q", err.Error())
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want error
	}{
		{nil, nil},
		{context.DeadlineExceeded, services.ErrTimeout},
		{fmt.Errorf("run: %w", context.Canceled), services.ErrCanceled},
		{services.Wrap(services.ErrNotFound, "fetch", "", "no stream", nil), services.ErrNotFound},
		{services.Wrap(services.ErrExternalTool, "fetch", "", "", errors.New("exit 1")), services.ErrExternalTool},
		{errors.New("plain"), services.ErrTransient},
	}
	for _, tc := range cases {
		if got := services.Classify(tc.err); got != tc.want {
			t.Errorf("Classify(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestErrorHintNonEmpty(t *testing.T) {
	for _, err := range []error{services.ErrValidation, services.ErrTimeout, errors.New("x")} {
		if services.ErrorHint(err) == "" {
			t.Errorf("empty hint for %v", err)
		}
	}
}
