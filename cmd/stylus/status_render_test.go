package main

import (
	"strings"
	"testing"

	"stylus/internal/api"
)

func TestRenderStatusLine(t *testing.T) {
	line := renderStatusLine("Daemon", statusOK, "listening", false)
	requireContains(t, line, "Daemon:")
	requireContains(t, line, "[OK] listening")
	if strings.Contains(line, ansiGreen) {
		t.Fatalf("uncolored line contains ANSI codes: %q", line)
	}

	colored := renderStatusLine("Daemon", statusError, "", true)
	requireContains(t, colored, ansiRed)
	requireContains(t, colored, "[ERROR]")
}

func TestFormatStatusLabel(t *testing.T) {
	cases := map[string]string{
		"pending":     "Pending",
		"downloading": "Downloading",
		"":            "",
	}
	for input, want := range cases {
		if got := formatStatusLabel(input); got != want {
			t.Fatalf("formatStatusLabel(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestBuildQueueListRowsOrdersNewestFirst(t *testing.T) {
	rows := buildQueueListRows([]api.QueueItem{
		{ID: 1, Artist: "Prince", Title: "Purple Rain", Status: "pending", CreatedAt: "2026-08-01T10:00:00Z"},
		{ID: 2, Artist: "Portishead", Title: "Glory Box", Status: "found", CreatedAt: "2026-08-02T10:00:00Z"},
	})
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0][1] != "Portishead - Glory Box" {
		t.Fatalf("newest row first, got %q", rows[0][1])
	}
	if rows[1][2] != "Pending" {
		t.Fatalf("status label = %q", rows[1][2])
	}
}

func TestBuildQueueStatusRowsSorted(t *testing.T) {
	rows := buildQueueStatusRows(map[string]int{"pending": 2, "failed": 1})
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0][0] != "Failed" || rows[1][0] != "Pending" {
		t.Fatalf("unexpected order: %v", rows)
	}
}
