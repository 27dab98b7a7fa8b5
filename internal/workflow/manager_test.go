package workflow_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"stylus/internal/config"
	"stylus/internal/logging"
	"stylus/internal/notifications"
	"stylus/internal/queue"
	"stylus/internal/search"
	"stylus/internal/services"
	"stylus/internal/stage"
	"stylus/internal/testsupport"
	"stylus/internal/workflow"
)

func fastConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 0
	cfg.Workflow.ErrorRetryInterval = 0
	return cfg
}

func testCandidate(filename string) search.Scored {
	return search.Scored{
		Candidate: search.Candidate{
			Username:    "peer",
			Filename:    filename,
			Size:        25_000_000,
			Extension:   "flac",
			HasFreeSlot: true,
			UploadSpeed: 2_000_000,
		},
		Total: 90,
		Rank:  1,
	}
}

func encodedCandidate(t *testing.T, filename string) string {
	t.Helper()
	encoded, err := testCandidate(filename).Encode()
	if err != nil {
		t.Fatalf("encode candidate: %v", err)
	}
	return encoded
}

func TestManagerRunsPipelineToCompletion(t *testing.T) {
	cfg := fastConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	selection := encodedCandidate(t, "Music\\Prince - Purple Rain.flac")
	searcher := newStubHandler("searcher")
	searcher.executeHook = func(item *queue.Item) {
		item.CandidateJSON = selection
	}

	notifier := &recordingNotifier{}
	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), notifier)
	mgr.ConfigureStages(workflow.StageSet{
		Resolver:   newStubHandler("resolver"),
		Searcher:   searcher,
		Downloader: newStubHandler("downloader"),
		Verifier:   newStubHandler("verifier"),
		Organizer:  newStubHandler("organizer"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)

	item := testsupport.NewRequest(t, store, "Prince - Purple Rain", "cli")
	final := waitForStatus(t, store, item.ID, queue.StatusCompleted)

	if final.ProgressPercent != 100 {
		t.Fatalf("progress = %v, want 100", final.ProgressPercent)
	}
	if final.LastHeartbeat != nil {
		t.Fatalf("heartbeat not cleared on completion")
	}

	waitForCondition(t, "queue completion notification", func() bool {
		return notifier.count(notifications.EventQueueCompleted) >= 1
	})
	if got := notifier.count(notifications.EventQueueStarted); got != 1 {
		t.Fatalf("queue start notifications = %d, want 1", got)
	}

	logPath := filepath.Join(cfg.Paths.LogDir, "items", fmt.Sprintf("item-%d.log", item.ID))
	if _, err := os.Stat(logPath); err != nil {
		t.Fatalf("item log missing: %v", err)
	}
}

func TestManagerRoutesValidationFailureToReview(t *testing.T) {
	cfg := fastConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	item := testsupport.NewRequest(t, store, "Prince - Purple Rain", "cli")
	item.Status = queue.StatusFound
	item.CandidateJSON = encodedCandidate(t, "Music\\Prince - Purple Rain.flac")
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	staged := filepath.Join(cfg.Paths.StagingDir, fmt.Sprintf("%d_Purple Rain.flac", item.ID))
	downloader := newStubHandler("downloader")
	downloader.executeHook = func(current *queue.Item) {
		if err := os.MkdirAll(filepath.Dir(staged), 0o755); err != nil {
			t.Errorf("mkdir staging: %v", err)
			return
		}
		if err := os.WriteFile(staged, []byte("audio bytes"), 0o644); err != nil {
			t.Errorf("write staged: %v", err)
			return
		}
		current.StagedFile = staged
	}
	downloader.executeErr = services.Wrap(
		services.ErrValidation, "downloader", "authenticity check",
		"Fake lossless (cutoff 16.0kHz)", nil)

	notifier := &recordingNotifier{}
	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), notifier)
	mgr.ConfigureStages(workflow.StageSet{
		Downloader: downloader,
		Organizer:  newStubHandler("organizer"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)

	final := waitForStatus(t, store, item.ID, queue.StatusReview)

	if !final.NeedsReview {
		t.Fatal("review flag not set")
	}
	if !strings.Contains(final.ReviewReason, "Fake lossless") {
		t.Fatalf("review reason = %q", final.ReviewReason)
	}
	if !strings.HasPrefix(final.StagedFile, cfg.Paths.ReviewDir+string(os.PathSeparator)) {
		t.Fatalf("staged file not parked in review dir: %q", final.StagedFile)
	}
	if _, err := os.Stat(final.StagedFile); err != nil {
		t.Fatalf("review copy missing: %v", err)
	}
	if _, err := os.Stat(staged); !os.IsNotExist(err) {
		t.Fatalf("staging copy still present: %v", err)
	}
	if got := notifier.count(notifications.EventError); got != 0 {
		t.Fatalf("error notifications = %d, review failures must not alert twice", got)
	}
}

func TestManagerMarksExternalFailureFailed(t *testing.T) {
	cfg := fastConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	item := testsupport.NewRequest(t, store, "Prince - Purple Rain", "cli")
	item.Status = queue.StatusFound
	item.CandidateJSON = encodedCandidate(t, "Music\\Prince - Purple Rain.flac")
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	downloader := newStubHandler("downloader")
	downloader.executeErr = services.Wrap(
		services.ErrExternalTool, "downloader", "transfer file",
		"All download attempts failed; peers may be offline or rejecting transfers", nil)

	notifier := &recordingNotifier{}
	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), notifier)
	mgr.ConfigureStages(workflow.StageSet{Downloader: downloader})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)

	final := waitForStatus(t, store, item.ID, queue.StatusFailed)

	if !strings.Contains(final.ErrorMessage, "All download attempts failed") {
		t.Fatalf("error message = %q", final.ErrorMessage)
	}
	if strings.Contains(final.ErrorMessage, "external tool error") {
		t.Fatalf("error message leaks the marker: %q", final.ErrorMessage)
	}

	waitForCondition(t, "error notification", func() bool {
		return notifier.count(notifications.EventError) >= 1
	})
	payload, ok := notifier.payloadFor(notifications.EventError)
	if !ok {
		t.Fatal("error payload missing")
	}
	label := fmt.Sprint(payload["context"])
	if !strings.Contains(label, fmt.Sprintf("downloader (item #%d)", item.ID)) {
		t.Fatalf("error context = %q", label)
	}
}

func TestManagerCollapsesMissingStages(t *testing.T) {
	cfg := fastConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	item := testsupport.NewRequest(t, store, "Prince - Purple Rain", "cli")
	item.Status = queue.StatusDownloaded
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	var organized atomic.Bool
	organizer := newStubHandler("organizer")
	organizer.executeHook = func(*queue.Item) { organized.Store(true) }

	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), &recordingNotifier{})
	mgr.ConfigureStages(workflow.StageSet{Organizer: organizer})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)

	waitForStatus(t, store, item.ID, queue.StatusCompleted)
	if !organized.Load() {
		t.Fatal("organizer never ran; downloaded items must feed it when no verifier is configured")
	}
}

func TestManagerStatusReportsStageHealth(t *testing.T) {
	cfg := fastConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	downloader := newStubHandler("downloader")
	downloader.health = stage.Unhealthy("downloader", "slskd connection not configured")

	mgr := workflow.NewManager(cfg, store, logging.NewNop())
	mgr.ConfigureStages(workflow.StageSet{Downloader: downloader})

	status := mgr.Status(context.Background())
	if status.Running {
		t.Fatal("manager reported running before Start")
	}
	health, ok := status.StageHealth["downloader"]
	if !ok {
		t.Fatalf("stage health missing downloader entry: %v", status.StageHealth)
	}
	if health.Ready {
		t.Fatal("expected unhealthy downloader")
	}
	if !strings.Contains(health.Detail, "slskd") {
		t.Fatalf("health detail = %q", health.Detail)
	}
}

func TestManagerStartRequiresStages(t *testing.T) {
	cfg := fastConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	mgr := workflow.NewManager(cfg, store, logging.NewNop())
	if err := mgr.Start(context.Background()); err == nil {
		mgr.Stop()
		t.Fatal("Start succeeded without configured stages")
	}
}
