package telegram

import (
	"context"
	"fmt"
	"strings"

	"stylus/internal/logging"
	"stylus/internal/queue"
	"stylus/internal/search"
	"stylus/internal/spectral"
)

// primeWatcher records the current status of every telegram-originated item
// so a bot restart does not replay old terminal announcements. Items still
// parked for candidate selection are deliberately left unprimed; those get
// their keyboard on the first scan.
func (b *Bot) primeWatcher(ctx context.Context) {
	items, err := b.store.List(ctx)
	if err != nil {
		b.logger.Warn("telegram watcher prime failed", logging.Error(err))
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, item := range items {
		if _, ok := chatIDFromRequester(item.Requester); !ok {
			continue
		}
		if awaitingSelection(item) {
			continue
		}
		b.lastStatus[item.ID] = item.Status
	}
}

// scanQueue is one watcher pass: offer candidate keyboards for items parked
// at found, and push terminal transitions back to the originating chat.
func (b *Bot) scanQueue(ctx context.Context) {
	items, err := b.store.List(ctx)
	if err != nil {
		b.logger.Warn("telegram watcher scan failed", logging.Error(err))
		return
	}

	for _, item := range items {
		chatID, ok := chatIDFromRequester(item.Requester)
		if !ok {
			continue
		}

		if b.manualSelection() && awaitingSelection(item) && !b.alreadyOffered(item.ID) {
			set, err := search.DecodeResultSet(item.ResultsJSON)
			if err != nil || len(set.Candidates) == 0 {
				continue
			}
			b.offerSelection(chatID, item, set)
			continue
		}

		if item.IsTerminal() && b.statusChanged(item.ID, item.Status) {
			b.send(chatID, terminalMessage(item))
			b.forgetOffer(item.ID)
			b.rememberStatus(item.ID, item.Status)
			continue
		}

		if !item.IsTerminal() {
			b.rememberStatus(item.ID, item.Status)
		}
	}
}

// awaitingSelection reports whether an item is parked at found with no
// committed candidate.
func awaitingSelection(item *queue.Item) bool {
	return item.Status == queue.StatusFound && strings.TrimSpace(item.CandidateJSON) == ""
}

// terminalMessage renders the push notification for a finished item.
func terminalMessage(item *queue.Item) string {
	switch item.Status {
	case queue.StatusCompleted:
		var sb strings.Builder
		fmt.Fprintf(&sb, "✅ #%d %s is in the library.", item.ID, item.DisplayTitle())
		if report, err := spectral.DecodeReport(item.VerdictJSON); err == nil {
			sb.WriteString("\n")
			sb.WriteString(report.Summary())
		}
		if final := strings.TrimSpace(item.FinalFile); final != "" {
			fmt.Fprintf(&sb, "\n%s", final)
		}
		return sb.String()
	case queue.StatusReview:
		reason := strings.TrimSpace(item.ReviewReason)
		if reason == "" {
			reason = "manual review required"
		}
		return fmt.Sprintf("⚠️ #%d %s needs review: %s", item.ID, item.DisplayTitle(), reason)
	default:
		reason := strings.TrimSpace(item.ErrorMessage)
		if reason == "" {
			reason = "unknown error"
		}
		return fmt.Sprintf("❌ #%d %s failed: %s", item.ID, item.DisplayTitle(), reason)
	}
}

func (b *Bot) rememberStatus(itemID int64, status queue.Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastStatus[itemID] = status
}

func (b *Bot) statusChanged(itemID int64, status queue.Status) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastStatus[itemID] != status
}

func (b *Bot) markOffered(itemID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.offered[itemID] = struct{}{}
}

func (b *Bot) alreadyOffered(itemID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.offered[itemID]
	return ok
}

func (b *Bot) forgetOffer(itemID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.offered, itemID)
}
