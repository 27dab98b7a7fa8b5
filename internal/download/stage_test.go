package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"stylus/internal/logging"
	"stylus/internal/notifications"
	"stylus/internal/queue"
	"stylus/internal/search"
	"stylus/internal/services"
	"stylus/internal/slskd"
	"stylus/internal/testsupport"
)

type stubNotifier struct {
	events   []notifications.Event
	payloads []notifications.Payload
}

func (s *stubNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	s.events = append(s.events, event)
	s.payloads = append(s.payloads, payload)
	return nil
}

// stubTransfers scripts the slskd transfer endpoints. Each peer advances
// through its state sequence one poll at a time, holding the last state.
type stubTransfers struct {
	mu         sync.Mutex
	states     map[string][]string
	enqueueErr map[string]error
	filenames  map[string]string
	sizes      map[string]int64
	polls      map[string]int
	enqueued   []string
	cancelled  []string
	onPoll     func(polls int)
}

func newStubTransfers() *stubTransfers {
	return &stubTransfers{
		states:     map[string][]string{},
		enqueueErr: map[string]error{},
		filenames:  map[string]string{},
		sizes:      map[string]int64{},
		polls:      map[string]int{},
	}
}

func (s *stubTransfers) script(username, filename string, size int64, states ...string) {
	s.states[username] = states
	s.filenames[username] = filename
	s.sizes[username] = size
}

func (s *stubTransfers) EnqueueDownloads(_ context.Context, username string, _ []slskd.DownloadRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enqueued = append(s.enqueued, username)
	return s.enqueueErr[username]
}

func (s *stubTransfers) Downloads(_ context.Context, username string) (*slskd.DownloadQueue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	states := s.states[username]
	if len(states) == 0 {
		return &slskd.DownloadQueue{Username: username}, nil
	}
	idx := s.polls[username]
	if idx >= len(states) {
		idx = len(states) - 1
	}
	s.polls[username]++
	if s.onPoll != nil {
		s.onPoll(s.polls[username])
	}
	return &slskd.DownloadQueue{
		Username: username,
		Directories: []slskd.DownloadDirectory{{
			Directory: "share",
			FileCount: 1,
			Files: []slskd.Transfer{{
				ID:               "t-" + username,
				Username:         username,
				Filename:         s.filenames[username],
				Size:             s.sizes[username],
				State:            states[idx],
				BytesTransferred: s.sizes[username] / 2,
				PercentComplete:  50,
			}},
		}},
	}, nil
}

func (s *stubTransfers) CancelDownload(_ context.Context, _, transferID string, _ bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = append(s.cancelled, transferID)
	return nil
}

func (s *stubTransfers) Searches(context.Context) ([]slskd.SearchState, error) { return nil, nil }
func (s *stubTransfers) StartSearch(context.Context, string, time.Duration) (*slskd.SearchState, error) {
	return nil, errors.New("not scripted")
}
func (s *stubTransfers) GetSearch(context.Context, string, bool) (*slskd.SearchState, error) {
	return nil, errors.New("not scripted")
}
func (s *stubTransfers) StopSearch(context.Context, string) error   { return nil }
func (s *stubTransfers) DeleteSearch(context.Context, string) error { return nil }

func scoredCandidate(username, filename string, size int64, rank int) search.Scored {
	return search.Scored{
		Candidate: search.Candidate{
			Username:  username,
			Filename:  filename,
			Size:      size,
			Extension: "flac",
		},
		Total: 90 - float64(rank),
		Rank:  rank,
	}
}

func commitCandidate(t *testing.T, item *queue.Item, candidate search.Scored) {
	t.Helper()
	encoded, err := candidate.Encode()
	if err != nil {
		t.Fatalf("encode candidate: %v", err)
	}
	item.CandidateJSON = encoded
}

func storeResults(t *testing.T, item *queue.Item, candidates ...search.Scored) {
	t.Helper()
	results := &search.ResultSet{Candidates: candidates}
	encoded, err := results.Encode()
	if err != nil {
		t.Fatalf("encode results: %v", err)
	}
	item.ResultsJSON = encoded
}

func landFile(t *testing.T, root, username, base string) string {
	t.Helper()
	dir := filepath.Join(root, username, "share")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(dir, base)
	if err := os.WriteFile(path, []byte("flac bytes"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func TestDownloaderCompletesTransfer(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewResolved(t, store, "New Order", "Blue Monday")
	commitCandidate(t, item, scoredCandidate("attic", "Music\\FLAC\\01 - Blue Monday.flac", 31337, 1))

	api := newStubTransfers()
	api.script("attic", "Music\\FLAC\\01 - Blue Monday.flac", 31337,
		"Queued, Remotely", "InProgress", "Completed, Succeeded")
	source := landFile(t, cfg.Paths.DownloadDir, "attic", "01 - Blue Monday.flac")

	notifier := &stubNotifier{}
	downloader := NewDownloaderWithClient(cfg, store, logging.NewNop(), notifier, api)
	downloader.pollInterval = time.Millisecond

	if err := downloader.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := downloader.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	wantStaged := filepath.Join(cfg.Paths.StagingDir, fmt.Sprintf("%d_01 - Blue Monday.flac", item.ID))
	if item.StagedFile != wantStaged {
		t.Fatalf("staged = %q, want %q", item.StagedFile, wantStaged)
	}
	data, err := os.ReadFile(wantStaged)
	if err != nil || string(data) != "flac bytes" {
		t.Fatalf("staged content = %q, err %v", data, err)
	}
	if item.DownloadedFile != source {
		t.Fatalf("downloaded = %q, want %q", item.DownloadedFile, source)
	}
	if _, err := os.Stat(source); !os.IsNotExist(err) {
		t.Fatalf("source still present: %v", err)
	}
	if _, err := os.Stat(filepath.Dir(source)); !os.IsNotExist(err) {
		t.Fatalf("emptied share directory still present: %v", err)
	}
	if item.ProgressStage != "Downloaded" || item.ProgressPercent != 100 {
		t.Fatalf("progress = %s/%.0f", item.ProgressStage, item.ProgressPercent)
	}
	if len(notifier.events) != 1 || notifier.events[0] != notifications.EventDownloadCompleted {
		t.Fatalf("events = %v", notifier.events)
	}
	if got, _ := notifier.payloads[0]["filename"].(string); got != "01 - Blue Monday.flac" {
		t.Fatalf("notified filename = %q", got)
	}
}

func TestDownloaderFallsBackToNextPeer(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewResolved(t, store, "Orbital", "Halcyon")

	first := scoredCandidate("ghost", "A\\halcyon.flac", 100, 1)
	second := scoredCandidate("ghost", "B\\halcyon (live).flac", 100, 2)
	third := scoredCandidate("mirror", "C\\halcyon.flac", 100, 3)
	commitCandidate(t, item, first)
	storeResults(t, item, first, second, third)

	api := newStubTransfers()
	api.script("ghost", "A\\halcyon.flac", 100, "Completed, Errored")
	api.script("mirror", "C\\halcyon.flac", 100, "Completed, Succeeded")
	landFile(t, cfg.Paths.DownloadDir, "mirror", "halcyon.flac")

	downloader := NewDownloaderWithClient(cfg, store, logging.NewNop(), &stubNotifier{}, api)
	downloader.pollInterval = time.Millisecond

	if err := downloader.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	// The second ghost file is skipped: a failing peer fails for all its files.
	if len(api.enqueued) != 2 || api.enqueued[0] != "ghost" || api.enqueued[1] != "mirror" {
		t.Fatalf("enqueue order = %v", api.enqueued)
	}
	winner, err := search.DecodeScored(item.CandidateJSON)
	if err != nil {
		t.Fatalf("DecodeScored: %v", err)
	}
	if winner.Username != "mirror" {
		t.Fatalf("winner = %q, want mirror", winner.Username)
	}
}

func TestDownloaderRetriesWhenEnqueueRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewResolved(t, store, "Boards of Canada", "Dayvan Cowboy")

	first := scoredCandidate("offline", "X\\dayvan cowboy.flac", 100, 1)
	second := scoredCandidate("mirror", "Y\\dayvan cowboy.flac", 100, 2)
	commitCandidate(t, item, first)
	storeResults(t, item, first, second)

	api := newStubTransfers()
	api.enqueueErr["offline"] = errors.New("peer offline")
	api.script("mirror", "Y\\dayvan cowboy.flac", 100, "Completed, Succeeded")
	landFile(t, cfg.Paths.DownloadDir, "mirror", "dayvan cowboy.flac")

	downloader := NewDownloaderWithClient(cfg, store, logging.NewNop(), &stubNotifier{}, api)
	downloader.pollInterval = time.Millisecond

	if err := downloader.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(api.enqueued) != 2 || api.enqueued[1] != "mirror" {
		t.Fatalf("enqueue order = %v", api.enqueued)
	}
}

func TestDownloaderTimeoutCancelsTransfer(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewResolved(t, store, "Aphex Twin", "Xtal")
	commitCandidate(t, item, scoredCandidate("slowpoke", "Z\\xtal.flac", 100, 1))

	api := newStubTransfers()
	api.script("slowpoke", "Z\\xtal.flac", 100, "InProgress")

	downloader := NewDownloaderWithClient(cfg, store, logging.NewNop(), &stubNotifier{}, api)
	downloader.pollInterval = time.Millisecond
	downloader.timeout = 30 * time.Millisecond

	err := downloader.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrExternalTool) || !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("Execute error = %v, want external tool wrapping timeout", err)
	}
	if services.FailureStatus(err) != queue.StatusFailed {
		t.Fatalf("failure status = %s, want %s", services.FailureStatus(err), queue.StatusFailed)
	}
	if len(api.cancelled) == 0 || api.cancelled[0] != "t-slowpoke" {
		t.Fatalf("cancelled = %v, want t-slowpoke", api.cancelled)
	}
}

func TestDownloaderShutdownCancelsTransfer(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewResolved(t, store, "Massive Attack", "Teardrop")
	commitCandidate(t, item, scoredCandidate("slowpoke", "Z\\teardrop.flac", 100, 1))

	api := newStubTransfers()
	api.script("slowpoke", "Z\\teardrop.flac", 100, "InProgress")

	// Cancel mid-transfer, after the transfer ID is known from the first poll.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	api.onPoll = func(polls int) {
		if polls >= 2 {
			cancel()
		}
	}

	downloader := NewDownloaderWithClient(cfg, store, logging.NewNop(), &stubNotifier{}, api)
	downloader.pollInterval = time.Millisecond

	err := downloader.Execute(ctx, item)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Execute error = %v, want context.Canceled", err)
	}
	if len(api.cancelled) == 0 || api.cancelled[0] != "t-slowpoke" {
		t.Fatalf("cancelled = %v, want t-slowpoke", api.cancelled)
	}
}

func TestDownloaderRequiresSelection(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewResolved(t, store, "Burial", "Archangel")

	downloader := NewDownloaderWithClient(cfg, store, logging.NewNop(), &stubNotifier{}, newStubTransfers())
	err := downloader.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("Execute error = %v, want validation", err)
	}
	if services.FailureStatus(err) != queue.StatusReview {
		t.Fatalf("failure status = %s, want review", services.FailureStatus(err))
	}
}

func TestDownloaderMissingFileStopsRetries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewResolved(t, store, "Four Tet", "Angel Echoes")

	first := scoredCandidate("attic", "A\\angel echoes.flac", 100, 1)
	second := scoredCandidate("mirror", "B\\angel echoes.flac", 100, 2)
	commitCandidate(t, item, first)
	storeResults(t, item, first, second)
	if err := os.MkdirAll(cfg.Paths.DownloadDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	api := newStubTransfers()
	api.script("attic", "A\\angel echoes.flac", 100, "Completed, Succeeded")

	downloader := NewDownloaderWithClient(cfg, store, logging.NewNop(), &stubNotifier{}, api)
	downloader.pollInterval = time.Millisecond

	err := downloader.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("Execute error = %v, want configuration", err)
	}
	if !strings.Contains(err.Error(), "download_dir") {
		t.Fatalf("error should point at the download dir setting: %v", err)
	}
	// A local filesystem problem is not the peer's fault; no fallback attempt.
	if len(api.enqueued) != 1 {
		t.Fatalf("enqueued = %v, want a single attempt", api.enqueued)
	}
}

func TestDownloaderHealthCheck(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	healthy := NewDownloaderWithClient(cfg, store, logging.NewNop(), &stubNotifier{}, newStubTransfers())
	if health := healthy.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("health = %+v, want ready", health)
	}

	missing := NewDownloaderWithClient(nil, store, logging.NewNop(), &stubNotifier{}, nil)
	if health := missing.HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected unready health without configuration")
	}

	cfg.Paths.DownloadDir = ""
	nodir := NewDownloaderWithClient(cfg, store, logging.NewNop(), &stubNotifier{}, newStubTransfers())
	health := nodir.HealthCheck(context.Background())
	if health.Ready || !strings.Contains(health.Detail, "downloads directory") {
		t.Fatalf("health = %+v, want download dir failure", health)
	}
}
