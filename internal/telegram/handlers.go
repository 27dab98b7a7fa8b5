package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"stylus/internal/api"
	"stylus/internal/logging"
	"stylus/internal/queue"
)

const helpText = `Send me a track as "Artist - Title" and I will hunt down a lossless copy.

Commands:
/status - requests still in flight
/history - recent finished requests
/auto - show the candidate selection mode
/cancel <id> - stop a request
/retry <id> - retry a failed request
/help - this message`

// historyLimit caps how many finished items /history reports.
const historyLimit = 10

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	chatID := msg.Chat.ID
	if !b.authorized(msg.From.ID) {
		b.logger.Warn("rejected unauthorized telegram user",
			logging.Int64("user_id", msg.From.ID),
			logging.Int64("chat_id", chatID),
		)
		b.send(chatID, "🚫 You are not authorized to use this bot.")
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, chatID, msg.Command(), msg.CommandArguments())
		return
	}

	query := strings.TrimSpace(msg.Text)
	if query == "" {
		return
	}
	b.enqueue(ctx, chatID, query)
}

func (b *Bot) handleCommand(ctx context.Context, chatID int64, command, args string) {
	switch command {
	case "start", "help":
		b.send(chatID, helpText)
	case "status":
		b.sendStatus(ctx, chatID)
	case "history":
		b.sendHistory(ctx, chatID)
	case "auto":
		if b.manualSelection() {
			b.send(chatID, "Selection mode: manual. I will show you the ranked candidates and you pick one.")
		} else {
			b.send(chatID, "Selection mode: automatic. The top-ranked candidate is downloaded without asking.")
		}
	case "cancel":
		b.stopItem(ctx, chatID, args)
	case "retry":
		b.retryItem(ctx, chatID, args)
	default:
		b.send(chatID, "Unknown command. Send /help for usage.")
	}
}

// enqueue turns a free-text message into a queue request.
func (b *Bot) enqueue(ctx context.Context, chatID int64, query string) {
	result, err := api.AddTrack(ctx, api.AddTrackRequest{
		Config:    b.cfg,
		Store:     b.store,
		Logger:    b.logger,
		Query:     query,
		Requester: requesterFor(chatID),
	})
	if err != nil {
		b.logger.Error("telegram request failed", logging.String("query", query), logging.Error(err))
		b.send(chatID, "❌ Could not queue that request. Try again in a moment.")
		return
	}
	if result.Duplicate != nil {
		b.send(chatID, fmt.Sprintf("⏳ %s is already queued as #%d (%s).",
			result.Duplicate.DisplayTitle(), result.Duplicate.ID, statusLabel(result.Duplicate.Status)))
		return
	}

	item := result.Item
	b.rememberStatus(item.ID, item.Status)
	b.send(chatID, fmt.Sprintf("🔍 Queued %s as #%d. I will report back when there is something to show.",
		item.DisplayTitle(), item.ID))
}

func (b *Bot) sendStatus(ctx context.Context, chatID int64) {
	items, err := b.itemsForChat(ctx, chatID)
	if err != nil {
		b.send(chatID, "❌ Could not read the queue.")
		return
	}

	var lines []string
	for _, item := range items {
		if item.IsTerminal() {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s #%d %s — %s",
			statusEmoji(item.Status), item.ID, item.DisplayTitle(), statusLabel(item.Status)))
	}
	if len(lines) == 0 {
		b.send(chatID, "Nothing in flight. Send me a track as \"Artist - Title\".")
		return
	}
	b.send(chatID, strings.Join(lines, "\n"))
}

func (b *Bot) sendHistory(ctx context.Context, chatID int64) {
	items, err := b.itemsForChat(ctx, chatID)
	if err != nil {
		b.send(chatID, "❌ Could not read the queue.")
		return
	}

	var lines []string
	for _, item := range items {
		if !item.IsTerminal() {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s #%d %s — %s",
			statusEmoji(item.Status), item.ID, item.DisplayTitle(), statusLabel(item.Status)))
		if len(lines) == historyLimit {
			break
		}
	}
	if len(lines) == 0 {
		b.send(chatID, "No finished requests yet.")
		return
	}
	b.send(chatID, strings.Join(lines, "\n"))
}

func (b *Bot) stopItem(ctx context.Context, chatID int64, args string) {
	item, ok := b.ownedItem(ctx, chatID, args)
	if !ok {
		return
	}
	if item.IsTerminal() {
		b.send(chatID, fmt.Sprintf("#%d is already %s.", item.ID, statusLabel(item.Status)))
		return
	}
	if _, err := b.store.StopItems(ctx, item.ID); err != nil {
		b.send(chatID, fmt.Sprintf("❌ Could not stop #%d.", item.ID))
		return
	}
	b.forgetOffer(item.ID)
	b.rememberStatus(item.ID, queue.StatusReview)
	b.send(chatID, fmt.Sprintf("🚫 Stopped #%d %s.", item.ID, item.DisplayTitle()))
}

func (b *Bot) retryItem(ctx context.Context, chatID int64, args string) {
	item, ok := b.ownedItem(ctx, chatID, args)
	if !ok {
		return
	}
	updated, err := b.store.RetryFailed(ctx, item.ID)
	if err != nil || updated == 0 {
		b.send(chatID, fmt.Sprintf("#%d is not in a retryable state (%s).", item.ID, statusLabel(item.Status)))
		return
	}
	b.forgetOffer(item.ID)
	b.rememberStatus(item.ID, queue.StatusPending)
	b.send(chatID, fmt.Sprintf("🔁 Retrying #%d %s.", item.ID, item.DisplayTitle()))
}

// ownedItem parses an item id argument and checks the item belongs to the
// requesting chat.
func (b *Bot) ownedItem(ctx context.Context, chatID int64, args string) (*queue.Item, bool) {
	id, err := parseItemID(args)
	if err != nil {
		b.send(chatID, "Give me an item id, e.g. /cancel 12.")
		return nil, false
	}
	item, err := b.store.GetByID(ctx, id)
	if err != nil || item == nil {
		b.send(chatID, fmt.Sprintf("#%d is not in the queue.", id))
		return nil, false
	}
	if item.Requester != requesterFor(chatID) {
		b.send(chatID, fmt.Sprintf("#%d was not requested from this chat.", id))
		return nil, false
	}
	return item, true
}

// itemsForChat returns all queue items requested from the given chat,
// newest first.
func (b *Bot) itemsForChat(ctx context.Context, chatID int64) ([]*queue.Item, error) {
	items, err := b.store.List(ctx)
	if err != nil {
		return nil, err
	}
	requester := requesterFor(chatID)
	filtered := items[:0]
	for _, item := range items {
		if item.Requester == requester {
			filtered = append(filtered, item)
		}
	}
	// List returns insertion order; newest first reads better in chat.
	for i, j := 0, len(filtered)-1; i < j; i, j = i+1, j-1 {
		filtered[i], filtered[j] = filtered[j], filtered[i]
	}
	return filtered, nil
}

func parseItemID(args string) (int64, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return 0, fmt.Errorf("missing item id")
	}
	var id int64
	if _, err := fmt.Sscanf(fields[0], "%d", &id); err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid item id %q", fields[0])
	}
	return id, nil
}

func statusLabel(status queue.Status) string {
	label := strings.ReplaceAll(string(status), "_", " ")
	if label == "" {
		return "unknown"
	}
	return label
}

func statusEmoji(status queue.Status) string {
	switch status {
	case queue.StatusCompleted:
		return "✅"
	case queue.StatusFailed:
		return "❌"
	case queue.StatusReview:
		return "⚠️"
	case queue.StatusDownloading, queue.StatusDownloaded:
		return "⬇️"
	case queue.StatusFound:
		return "🎯"
	default:
		return "🔍"
	}
}
