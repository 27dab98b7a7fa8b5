package services_test

import (
	"errors"
	"strings"
	"testing"

	"stylus/internal/queue"
	"stylus/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "downloading", "enqueue", "failed", base)
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
	for _, fragment := range []string{"downloading", "enqueue", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "searching", "poll", "lost connection", errors.New("io"))
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestFailureStatusMapping(t *testing.T) {
	validationErr := services.Wrap(services.ErrValidation, "resolving", "prepare", "invalid", nil)
	if status := services.FailureStatus(validationErr); status != queue.StatusReview {
		t.Fatalf("expected review for validation error, got %s", status)
	}

	notFoundErr := services.Wrap(services.ErrNotFound, "searching", "rank", "no viable candidate", nil)
	if status := services.FailureStatus(notFoundErr); status != queue.StatusReview {
		t.Fatalf("expected review for not-found error, got %s", status)
	}

	transientErr := services.Wrap(services.ErrTransient, "downloading", "poll", "poll failed", errors.New("io"))
	if status := services.FailureStatus(transientErr); status != queue.StatusFailed {
		t.Fatalf("expected failed for transient error, got %s", status)
	}

	if status := services.FailureStatus(nil); status != queue.StatusFailed {
		t.Fatalf("expected failed for nil error, got %s", status)
	}
}

func TestUserMessageStripsMarkerPrefix(t *testing.T) {
	err := services.Wrap(services.ErrValidation, "verifier", "authenticity check", "Fake lossless (cutoff 16.0kHz)", nil)
	got := services.UserMessage(err)
	if got != "verifier: authenticity check: Fake lossless (cutoff 16.0kHz)" {
		t.Fatalf("unexpected user message: %q", got)
	}
	if strings.Contains(got, services.ErrValidation.Error()) {
		t.Fatalf("marker leaked into user message: %q", got)
	}
}

func TestUserMessageKeepsUnmarkedErrors(t *testing.T) {
	plain := errors.New("disk is full")
	if got := services.UserMessage(plain); got != "disk is full" {
		t.Fatalf("unexpected user message: %q", got)
	}
	if got := services.UserMessage(nil); got != "" {
		t.Fatalf("expected empty message for nil error, got %q", got)
	}
}

func TestUserMessagePreservesWrappedCause(t *testing.T) {
	base := errors.New("connect refused")
	err := services.Wrap(services.ErrExternalTool, "downloader", "enqueue transfer", "Peer offline", base)
	got := services.UserMessage(err)
	if !strings.Contains(got, "Peer offline") || !strings.Contains(got, "connect refused") {
		t.Fatalf("expected detail and cause in %q", got)
	}
	if strings.HasPrefix(got, services.ErrExternalTool.Error()) {
		t.Fatalf("marker prefix not stripped: %q", got)
	}
}
