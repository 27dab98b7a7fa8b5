package api

import "testing"

func TestSortQueueItemsNewestFirst(t *testing.T) {
	items := []QueueItem{
		{ID: 1, CreatedAt: "2026-08-01T10:00:00.000Z"},
		{ID: 3, CreatedAt: "2026-08-02T10:00:00.000Z"},
		{ID: 2, CreatedAt: "2026-08-02T10:00:00.000Z"},
	}
	sorted := SortQueueItemsNewestFirst(items)
	if sorted[0].ID != 3 || sorted[1].ID != 2 || sorted[2].ID != 1 {
		t.Fatalf("unexpected order: %d,%d,%d", sorted[0].ID, sorted[1].ID, sorted[2].ID)
	}
	if items[0].ID != 1 {
		t.Fatal("expected input slice untouched")
	}
}

func TestDisplayTitle(t *testing.T) {
	cases := []struct {
		name string
		item QueueItem
		want string
	}{
		{"resolved", QueueItem{Artist: "Prince", Title: "Purple Rain"}, "Prince - Purple Rain"},
		{"title only", QueueItem{Title: "Purple Rain"}, "Purple Rain"},
		{"query fallback", QueueItem{Query: "prince purple rain"}, "prince purple rain"},
		{"empty", QueueItem{}, "Unknown Track"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DisplayTitle(tc.item); got != tc.want {
				t.Fatalf("DisplayTitle = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDurationDisplay(t *testing.T) {
	if got := DurationDisplay(523); got != "8:43" {
		t.Fatalf("DurationDisplay(523) = %q, want 8:43", got)
	}
	if got := DurationDisplay(0); got != "" {
		t.Fatalf("DurationDisplay(0) = %q, want empty", got)
	}
}
