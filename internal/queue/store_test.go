package queue_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"stylus/internal/queue"
	"stylus/internal/testsupport"
)

func TestOpenInitializesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item, err := store.NewRequest(ctx, "Nancy Sinatra - Bang Bang", "cli")
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	if item.ID == 0 {
		t.Fatal("expected item ID to be assigned")
	}
	if item.Status != queue.StatusPending {
		t.Fatalf("expected pending status, got %s", item.Status)
	}
	if item.Artist != "Nancy Sinatra" || item.Title != "Bang Bang" {
		t.Fatalf("unexpected parsed fields: %q / %q", item.Artist, item.Title)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.Query != "Nancy Sinatra - Bang Bang" {
		t.Fatalf("unexpected fetched item: %#v", fetched)
	}

	found, err := store.FindActiveByRequestKey(ctx, queue.RequestKey("Nancy Sinatra", "Bang Bang"))
	if err != nil {
		t.Fatalf("FindActiveByRequestKey failed: %v", err)
	}
	if found == nil || found.ID != item.ID {
		t.Fatalf("expected to find inserted item, got %#v", found)
	}
}

func TestNewRequestRequiresQuery(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if _, err := store.NewRequest(ctx, "   ", "cli"); err == nil {
		t.Fatal("expected error when query missing")
	}
}

func TestNewResolvedPopulatesTrackFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item, err := store.NewResolved(ctx, &queue.Item{
		Artist:          "Prince",
		Title:           "Purple Rain",
		Album:           "Purple Rain",
		Year:            "1984",
		DurationSeconds: 521,
		SpotifyURL:      "https://open.spotify.com/track/abc",
		Query:           "prince purple rain",
		Requester:       "telegram:1001",
	})
	if err != nil {
		t.Fatalf("NewResolved failed: %v", err)
	}
	if item.Status != queue.StatusResolved {
		t.Fatalf("expected resolved status, got %s", item.Status)
	}
	if item.DurationSeconds != 521 {
		t.Fatalf("expected duration 521, got %d", item.DurationSeconds)
	}
	if item.RequestKey != queue.RequestKey("Prince", "Purple Rain") {
		t.Fatalf("unexpected request key: %q", item.RequestKey)
	}
	if item.Requester != "telegram:1001" {
		t.Fatalf("unexpected requester: %q", item.Requester)
	}
}

func TestFindActiveByRequestKeySkipsTerminal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.NewResolved(t, store, "Queen", "Flash")
	item.Status = queue.StatusCompleted
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	found, err := store.FindActiveByRequestKey(ctx, queue.RequestKey("Queen", "Flash"))
	if err != nil {
		t.Fatalf("FindActiveByRequestKey failed: %v", err)
	}
	if found != nil {
		t.Fatalf("expected completed item to be ignored, got %#v", found)
	}

	active := testsupport.NewResolved(t, store, "Queen", "Flash")
	found, err = store.FindActiveByRequestKey(ctx, queue.RequestKey("queen", "flash"))
	if err != nil {
		t.Fatalf("FindActiveByRequestKey failed: %v", err)
	}
	if found == nil || found.ID != active.ID {
		t.Fatalf("expected active item %d, got %#v", active.ID, found)
	}
}

func TestResetStuckProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	cases := []struct {
		name          string
		initialStatus queue.Status
		expected      queue.Status
	}{
		{"resolving", queue.StatusResolving, queue.StatusPending},
		{"searching", queue.StatusSearching, queue.StatusResolved},
		{"downloading", queue.StatusDownloading, queue.StatusFound},
		{"verifying", queue.StatusVerifying, queue.StatusDownloaded},
		{"organizing", queue.StatusOrganizing, queue.StatusVerified},
	}
	var ids []int64
	for i, tc := range cases {
		item, err := store.NewRequest(ctx, fmt.Sprintf("Artist %d - Track %s", i, tc.name), "cli")
		if err != nil {
			t.Fatalf("NewRequest failed: %v", err)
		}
		item.Status = tc.initialStatus
		item.ProgressStage = tc.name
		if err := store.Update(ctx, item); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		ids = append(ids, item.ID)
	}

	count, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing failed: %v", err)
	}
	if int(count) != len(cases) {
		t.Fatalf("expected %d items reset, got %d", len(cases), count)
	}

	for idx, tc := range cases {
		updated, err := store.GetByID(ctx, ids[idx])
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if updated.Status != tc.expected {
			t.Fatalf("%s: expected status %s, got %s", tc.name, tc.expected, updated.Status)
		}
		if updated.LastHeartbeat != nil {
			t.Fatalf("%s: expected heartbeat cleared", tc.name)
		}
	}
}

func TestItemsByStatusOrdering(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if _, err := store.NewRequest(ctx, "Artist A - Track A", "cli"); err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	b, err := store.NewRequest(ctx, "Artist B - Track B", "cli")
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	b.Status = queue.StatusResolved
	if err := store.Update(ctx, b); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	items, err := store.ItemsByStatus(ctx, queue.StatusResolved)
	if err != nil {
		t.Fatalf("ItemsByStatus failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected one resolved item, got %d", len(items))
	}
	if items[0].Title != "Track B" {
		t.Fatalf("expected Track B, got %s", items[0].Title)
	}
}

func TestListSupportsStatusFilter(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	a, err := store.NewRequest(ctx, "Artist A - Track A", "cli")
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	b, err := store.NewRequest(ctx, "Artist B - Track B", "cli")
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	b.Status = queue.StatusResolved
	if err := store.Update(ctx, b); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	c, err := store.NewRequest(ctx, "Artist C - Track C", "cli")
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	c.Status = queue.StatusFailed
	c.ErrorMessage = "boom"
	if err := store.Update(ctx, c); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	items, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].ID != a.ID || items[1].ID != b.ID || items[2].ID != c.ID {
		t.Fatalf("expected order A,B,C, got IDs %d,%d,%d", items[0].ID, items[1].ID, items[2].ID)
	}

	filtered, err := store.List(ctx, queue.StatusResolved, queue.StatusFailed)
	if err != nil {
		t.Fatalf("Filtered list failed: %v", err)
	}
	if len(filtered) != 2 {
		t.Fatalf("expected 2 items, got %d", len(filtered))
	}
	if filtered[0].ID != b.ID || filtered[1].ID != c.ID {
		t.Fatalf("unexpected filtered order: got %d,%d", filtered[0].ID, filtered[1].ID)
	}
}

func TestRetryFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	a, err := store.NewRequest(ctx, "Artist A - Track A", "cli")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	b, err := store.NewRequest(ctx, "Artist B - Track B", "cli")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	for _, item := range []*queue.Item{a, b} {
		item.Status = queue.StatusFailed
		item.ErrorMessage = "boom"
		item.RetryCount = 3
		if err := store.Update(ctx, item); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}

	updated, err := store.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed all: %v", err)
	}
	if updated != 2 {
		t.Fatalf("expected 2 items retried, got %d", updated)
	}

	item, err := store.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if item.Status != queue.StatusPending {
		t.Fatalf("expected item A pending, got %s", item.Status)
	}
	if item.RetryCount != 0 {
		t.Fatalf("expected retry count reset, got %d", item.RetryCount)
	}

	// Mark B failed again and retry targeted selection.
	b.Status = queue.StatusFailed
	if err := store.Update(ctx, b); err != nil {
		t.Fatalf("Update: %v", err)
	}
	updated, err = store.RetryFailed(ctx, b.ID)
	if err != nil {
		t.Fatalf("RetryFailed targeted: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected 1 item retried, got %d", updated)
	}
}

func TestRetryFailedRevivesReviewItemByID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	parked, err := store.NewRequest(ctx, "Artist - Parked", "cli")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	parked.SetReview("Fake lossless (cutoff 16.0kHz)")
	if err := store.Update(ctx, parked); err != nil {
		t.Fatalf("Update: %v", err)
	}

	// Bulk retry leaves review items parked.
	updated, err := store.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed all: %v", err)
	}
	if updated != 0 {
		t.Fatalf("expected bulk retry to skip review items, got %d", updated)
	}

	updated, err = store.RetryFailed(ctx, parked.ID)
	if err != nil {
		t.Fatalf("RetryFailed targeted: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected 1 item revived, got %d", updated)
	}

	revived, err := store.GetByID(ctx, parked.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if revived.Status != queue.StatusPending {
		t.Fatalf("expected pending, got %s", revived.Status)
	}
	if revived.NeedsReview || revived.ReviewReason != "" {
		t.Fatalf("expected review flags cleared, got %v %q", revived.NeedsReview, revived.ReviewReason)
	}
}

func TestStopItemsParksActiveInReview(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	active, err := store.NewRequest(ctx, "Artist - Active", "cli")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	active.Status = queue.StatusDownloading
	if err := store.Update(ctx, active); err != nil {
		t.Fatalf("Update: %v", err)
	}
	done, err := store.NewRequest(ctx, "Artist - Done", "cli")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	done.Status = queue.StatusCompleted
	if err := store.Update(ctx, done); err != nil {
		t.Fatalf("Update: %v", err)
	}

	updated, err := store.StopItems(ctx, active.ID, done.ID)
	if err != nil {
		t.Fatalf("StopItems: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected 1 item stopped, got %d", updated)
	}

	stopped, err := store.GetByID(ctx, active.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stopped.Status != queue.StatusReview {
		t.Fatalf("expected review, got %s", stopped.Status)
	}
	if !stopped.NeedsReview || !queue.IsUserStopReason(stopped.ReviewReason) {
		t.Fatalf("expected user stop reason, got %v %q", stopped.NeedsReview, stopped.ReviewReason)
	}

	untouched, err := store.GetByID(ctx, done.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if untouched.Status != queue.StatusCompleted {
		t.Fatalf("expected completed to stay terminal, got %s", untouched.Status)
	}
}

func TestUpdateHeartbeat(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item, err := store.NewRequest(ctx, "Artist - Heartbeat", "cli")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	item.Status = queue.StatusResolving
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if err := store.UpdateHeartbeat(ctx, item.ID); err != nil {
		t.Fatalf("UpdateHeartbeat: %v", err)
	}

	updated, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if updated.LastHeartbeat == nil {
		t.Fatal("expected last heartbeat to be set")
	}
}

func TestReclaimStaleProcessing(t *testing.T) {
	t.Run("all statuses", func(t *testing.T) {
		cfg := testsupport.NewConfig(t)
		store := testsupport.MustOpenStore(t, cfg)

		ctx := context.Background()
		past := time.Now().Add(-2 * time.Hour).UTC()
		cases := []struct {
			name       string
			processing queue.Status
			expected   queue.Status
		}{
			{"resolving", queue.StatusResolving, queue.StatusPending},
			{"searching", queue.StatusSearching, queue.StatusResolved},
			{"downloading", queue.StatusDownloading, queue.StatusFound},
			{"verifying", queue.StatusVerifying, queue.StatusDownloaded},
			{"organizing", queue.StatusOrganizing, queue.StatusVerified},
		}
		var ids []int64
		for i, tc := range cases {
			item, err := store.NewRequest(ctx, fmt.Sprintf("Artist %d - Stale %s", i, tc.name), "cli")
			if err != nil {
				t.Fatalf("NewRequest: %v", err)
			}
			item.Status = tc.processing
			item.LastHeartbeat = &past
			if err := store.Update(ctx, item); err != nil {
				t.Fatalf("Update: %v", err)
			}
			ids = append(ids, item.ID)
		}

		count, err := store.ReclaimStaleProcessing(ctx, time.Now().Add(-1*time.Hour))
		if err != nil {
			t.Fatalf("ReclaimStaleProcessing: %v", err)
		}
		if int(count) != len(cases) {
			t.Fatalf("expected %d items reclaimed, got %d", len(cases), count)
		}

		for idx, tc := range cases {
			updated, err := store.GetByID(ctx, ids[idx])
			if err != nil {
				t.Fatalf("GetByID: %v", err)
			}
			if updated.Status != tc.expected {
				t.Fatalf("%s: expected status %s after reclaim, got %s", tc.name, tc.expected, updated.Status)
			}
			if updated.LastHeartbeat != nil {
				t.Fatalf("%s: expected heartbeat cleared, got %v", tc.name, updated.LastHeartbeat)
			}
		}
	})

	t.Run("filtered statuses", func(t *testing.T) {
		cfg := testsupport.NewConfig(t)
		store := testsupport.MustOpenStore(t, cfg)

		ctx := context.Background()
		past := time.Now().Add(-2 * time.Hour).UTC()

		searching, err := store.NewRequest(ctx, "Artist - Stale Search", "cli")
		if err != nil {
			t.Fatalf("NewRequest searching: %v", err)
		}
		searching.Status = queue.StatusSearching
		searching.LastHeartbeat = &past
		if err := store.Update(ctx, searching); err != nil {
			t.Fatalf("Update searching: %v", err)
		}

		downloading, err := store.NewRequest(ctx, "Artist - Stale Download", "cli")
		if err != nil {
			t.Fatalf("NewRequest downloading: %v", err)
		}
		downloading.Status = queue.StatusDownloading
		downloading.LastHeartbeat = &past
		if err := store.Update(ctx, downloading); err != nil {
			t.Fatalf("Update downloading: %v", err)
		}

		count, err := store.ReclaimStaleProcessing(ctx, time.Now().Add(-1*time.Hour), queue.StatusDownloading)
		if err != nil {
			t.Fatalf("ReclaimStaleProcessing filtered: %v", err)
		}
		if count != 1 {
			t.Fatalf("expected 1 item reclaimed, got %d", count)
		}

		reclaimed, err := store.GetByID(ctx, downloading.ID)
		if err != nil {
			t.Fatalf("GetByID downloading: %v", err)
		}
		if reclaimed.Status != queue.StatusFound {
			t.Fatalf("expected downloading item rolled back to found, got %s", reclaimed.Status)
		}
		if reclaimed.LastHeartbeat != nil {
			t.Fatalf("expected downloading heartbeat cleared, got %v", reclaimed.LastHeartbeat)
		}

		unchanged, err := store.GetByID(ctx, searching.ID)
		if err != nil {
			t.Fatalf("GetByID searching: %v", err)
		}
		if unchanged.Status != queue.StatusSearching {
			t.Fatalf("expected searching item untouched, got %s", unchanged.Status)
		}
		if unchanged.LastHeartbeat == nil || !unchanged.LastHeartbeat.Equal(past) {
			t.Fatalf("expected searching heartbeat unchanged, got %v", unchanged.LastHeartbeat)
		}
	})
}

func TestUpdateProgressPreservesHeartbeat(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item, err := store.NewRequest(ctx, "Artist - Heartbeat Progress", "cli")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	item.Status = queue.StatusDownloading
	past := time.Now().Add(-5 * time.Minute).UTC()
	item.LastHeartbeat = &past
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if err := store.UpdateHeartbeat(ctx, item.ID); err != nil {
		t.Fatalf("UpdateHeartbeat: %v", err)
	}

	before, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID before progress: %v", err)
	}
	if before.LastHeartbeat == nil {
		t.Fatal("expected heartbeat set before progress update")
	}
	origHeartbeat := *before.LastHeartbeat

	before.ProgressStage = "Downloading"
	before.ProgressPercent = 42.5
	before.ProgressMessage = "Transferring"
	if err := store.UpdateProgress(ctx, before); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}

	after, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID after progress: %v", err)
	}
	if after.LastHeartbeat == nil {
		t.Fatal("expected heartbeat preserved after progress update")
	}
	if !after.LastHeartbeat.Equal(origHeartbeat) {
		t.Fatalf("expected heartbeat unchanged, before %v after %v", origHeartbeat, after.LastHeartbeat)
	}
	if after.ProgressStage != "Downloading" || after.ProgressMessage != "Transferring" {
		t.Fatalf("expected progress fields persisted, got stage=%q message=%q", after.ProgressStage, after.ProgressMessage)
	}
	if after.ProgressPercent != 42.5 {
		t.Fatalf("expected progress percent 42.5, got %f", after.ProgressPercent)
	}
}

func TestHealthSummaryCounts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	seed := []struct {
		query  string
		status queue.Status
	}{
		{"Artist A - One", queue.StatusPending},
		{"Artist B - Two", queue.StatusSearching},
		{"Artist C - Three", queue.StatusDownloading},
		{"Artist D - Four", queue.StatusFailed},
		{"Artist E - Five", queue.StatusReview},
		{"Artist F - Six", queue.StatusCompleted},
	}
	for _, entry := range seed {
		item, err := store.NewRequest(ctx, entry.query, "cli")
		if err != nil {
			t.Fatalf("NewRequest: %v", err)
		}
		if entry.status == queue.StatusPending {
			continue
		}
		item.Status = entry.status
		if err := store.Update(ctx, item); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Total != 6 {
		t.Fatalf("expected total 6, got %d", health.Total)
	}
	if health.Pending != 1 || health.Processing != 2 || health.Failed != 1 || health.Review != 1 || health.Completed != 1 {
		t.Fatalf("unexpected summary: %+v", health)
	}
}

var downloadBusy = []queue.Status{queue.StatusDownloading, queue.StatusVerifying, queue.StatusOrganizing}

func TestNextEligibleHoldsFoundWithoutCandidate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item, err := store.NewRequest(ctx, "Prince - Purple Rain", "telegram:1001")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	item.Status = queue.StatusFound
	item.CandidateJSON = ""
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	held, err := store.NextEligible(ctx, []queue.Status{queue.StatusFound}, downloadBusy)
	if err != nil {
		t.Fatalf("NextEligible: %v", err)
	}
	if held != nil {
		t.Fatalf("claimed item %d before a candidate was committed", held.ID)
	}

	item.CandidateJSON = `{"username":"peer","filename":"Music\\Purple Rain.flac"}`
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	claimed, err := store.NextEligible(ctx, []queue.Status{queue.StatusFound}, downloadBusy)
	if err != nil {
		t.Fatalf("NextEligible: %v", err)
	}
	if claimed == nil || claimed.ID != item.ID {
		t.Fatalf("expected item %d once candidate committed, got %#v", item.ID, claimed)
	}
}

func TestNextEligibleSkipsRequesterWithBusyItem(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	busy, err := store.NewRequest(ctx, "Prince - Purple Rain", "telegram:1001")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	busy.Status = queue.StatusDownloading
	if err := store.Update(ctx, busy); err != nil {
		t.Fatalf("Update: %v", err)
	}

	waiting, err := store.NewRequest(ctx, "Prince - Kiss", "telegram:1001")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	waiting.Status = queue.StatusFound
	waiting.CandidateJSON = `{"username":"peer"}`
	if err := store.Update(ctx, waiting); err != nil {
		t.Fatalf("Update: %v", err)
	}

	other, err := store.NewRequest(ctx, "Sade - Smooth Operator", "telegram:2002")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	other.Status = queue.StatusFound
	other.CandidateJSON = `{"username":"peer"}`
	if err := store.Update(ctx, other); err != nil {
		t.Fatalf("Update: %v", err)
	}

	claimed, err := store.NextEligible(ctx, []queue.Status{queue.StatusFound}, downloadBusy)
	if err != nil {
		t.Fatalf("NextEligible: %v", err)
	}
	if claimed == nil || claimed.ID != other.ID {
		t.Fatalf("expected the idle requester's item %d, got %#v", other.ID, claimed)
	}

	busy.Status = queue.StatusDownloaded
	if err := store.Update(ctx, busy); err != nil {
		t.Fatalf("Update: %v", err)
	}
	freed, err := store.NextEligible(ctx, []queue.Status{queue.StatusFound}, downloadBusy)
	if err != nil {
		t.Fatalf("NextEligible: %v", err)
	}
	if freed == nil || freed.ID != waiting.ID {
		t.Fatalf("expected waiting item %d once the requester freed up, got %#v", waiting.ID, freed)
	}
}

func TestNextEligibleClaimsOldestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first, err := store.NewRequest(ctx, "Artist A - Early", "cli")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if _, err := store.NewRequest(ctx, "Artist B - Late", "cli"); err != nil {
		t.Fatalf("NewRequest: %v", err)
	}

	claimed, err := store.NextEligible(ctx, []queue.Status{queue.StatusPending}, []queue.Status{queue.StatusResolving, queue.StatusSearching})
	if err != nil {
		t.Fatalf("NextEligible: %v", err)
	}
	if claimed == nil || claimed.ID != first.ID {
		t.Fatalf("expected oldest item %d, got %#v", first.ID, claimed)
	}

	if none, err := store.NextEligible(ctx, nil, nil); err != nil || none != nil {
		t.Fatalf("empty status list should return nothing, got %#v (%v)", none, err)
	}
}
