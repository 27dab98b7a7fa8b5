package workflow

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stylus/internal/queue"
	"stylus/internal/testsupport"
)

func TestDeriveStageLabel(t *testing.T) {
	cases := []struct {
		status queue.Status
		want   string
	}{
		{queue.StatusResolving, "Resolving"},
		{queue.StatusSearching, "Searching"},
		{queue.StatusDownloading, "Downloading"},
		{queue.StatusCompleted, "Completed"},
		{queue.Status(""), ""},
	}
	for _, tc := range cases {
		if got := deriveStageLabel(tc.status); got != tc.want {
			t.Fatalf("deriveStageLabel(%q) = %q, want %q", tc.status, got, tc.want)
		}
	}
}

func TestStageOverrideLevelMatchesCaseInsensitively(t *testing.T) {
	overrides := map[string]string{" Searcher ": " debug "}
	if got := stageOverrideLevel(overrides, "searcher"); got != "debug" {
		t.Fatalf("override = %q, want debug", got)
	}
	if got := stageOverrideLevel(overrides, "downloader"); got != "" {
		t.Fatalf("override = %q, want empty", got)
	}
	if got := stageOverrideLevel(nil, "searcher"); got != "" {
		t.Fatalf("override without table = %q, want empty", got)
	}
}

func TestParseStageLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		" error ": slog.LevelError,
		"info":    slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for input, want := range cases {
		if got := parseStageLevel(input); got != want {
			t.Fatalf("parseStageLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestCountActiveItemsSkipsTerminalStatuses(t *testing.T) {
	stats := map[queue.Status]int{
		queue.StatusPending:     2,
		queue.StatusDownloading: 1,
		queue.StatusFound:       1,
		queue.StatusCompleted:   5,
		queue.StatusFailed:      3,
		queue.StatusReview:      2,
	}
	if got := countActiveItems(stats); got != 4 {
		t.Fatalf("countActiveItems = %d, want 4", got)
	}
}

func TestItemLoggerEnsureCreatesStablePath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	logs := NewItemLogger(cfg)

	item := &queue.Item{ID: 42}
	path, err := logs.Ensure(item)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	want := filepath.Join(cfg.Paths.LogDir, "items", "item-42.log")
	if path != want {
		t.Fatalf("path = %q, want %q", path, want)
	}
	if again, err := logs.Ensure(item); err != nil || again != path {
		t.Fatalf("repeat Ensure = %q (%v), want the same path", again, err)
	}
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Fatalf("log directory missing: %v", err)
	}
}

func TestItemLoggerHandlerAppendsAcrossStages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	logs := NewItemLogger(cfg)

	item := &queue.Item{ID: 7}
	path, err := logs.Ensure(item)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}

	for i := 0; i < 2; i++ {
		handler, err := logs.CreateHandler(path)
		if err != nil {
			t.Fatalf("CreateHandler: %v", err)
		}
		slog.New(handler).Info(fmt.Sprintf("stage record %d", i))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	for i := 0; i < 2; i++ {
		if want := fmt.Sprintf("stage record %d", i); !strings.Contains(string(data), want) {
			t.Fatalf("log missing %q:\n%s", want, data)
		}
	}
}

func TestItemLoggerRejectsMissingConfiguration(t *testing.T) {
	logs := NewItemLogger(nil)
	if _, err := logs.Ensure(&queue.Item{ID: 1}); err == nil {
		t.Fatal("Ensure succeeded without a log directory")
	}
	if _, err := logs.Ensure(nil); err == nil {
		t.Fatal("Ensure succeeded for a nil item")
	}
}
