package main

import (
	"path/filepath"
	"testing"

	"stylus/internal/logging"
	"stylus/internal/notifications"
	"stylus/internal/testsupport"
)

func TestBuildStageSetWiresEveryLane(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	set := buildStageSet(cfg, store, logging.NewNop(), notifications.NewService(cfg))

	if set.Resolver == nil {
		t.Fatal("resolver stage missing")
	}
	if set.Searcher == nil {
		t.Fatal("searcher stage missing")
	}
	if set.Downloader == nil {
		t.Fatal("downloader stage missing")
	}
	if set.Verifier == nil {
		t.Fatal("verifier stage missing")
	}
	if set.Organizer == nil {
		t.Fatal("organizer stage missing")
	}
}

func TestBuildSocketPath(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	expected := filepath.Join(cfg.Paths.LogDir, "stylus.sock")
	if got := buildSocketPath(cfg); got != expected {
		t.Fatalf("expected socket path %q, got %q", expected, got)
	}

	if got := buildSocketPath(nil); got != filepath.Join("", "stylus.sock") {
		t.Fatalf("expected default socket path %q, got %q", filepath.Join("", "stylus.sock"), got)
	}
}
