package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"stylus/internal/logging"
	"stylus/internal/queue"
	"stylus/internal/search"
)

// selectionPageSize is how many candidate buttons fit on one keyboard page.
const selectionPageSize = 5

// Callback data formats. Telegram caps callback data at 64 bytes, so the
// payload is just the verb, the item id, and an index.
//
//	pick:<item>:<index>  commit candidate at zero-based index
//	auto:<item>          commit the top-ranked candidate
//	cancel:<item>        stop the request
//	page:<item>:<page>   flip the keyboard to another page
func pickData(itemID int64, index int) string {
	return fmt.Sprintf("pick:%d:%d", itemID, index)
}

func pageData(itemID int64, page int) string {
	return fmt.Sprintf("page:%d:%d", itemID, page)
}

// offerSelection presents the ranked candidates for an item as an inline
// keyboard so the requester can pick one.
func (b *Bot) offerSelection(chatID int64, item *queue.Item, set *search.ResultSet) {
	text := selectionText(item, set)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = selectionKeyboard(item.ID, set, 0)
	if _, err := b.client.Send(msg); err != nil {
		b.logger.Warn("telegram selection prompt failed",
			logging.Int64("chat_id", chatID),
			logging.Int64("item_id", item.ID),
			logging.Error(err),
		)
		return
	}
	b.markOffered(item.ID)
}

func selectionText(item *queue.Item, set *search.ResultSet) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🎯 #%d %s\n", item.ID, item.DisplayTitle())
	fmt.Fprintf(&sb, "Found %d candidates", len(set.Candidates))
	if set.Tier != "" {
		fmt.Fprintf(&sb, " (%s tier", set.Tier)
		if set.Fallback {
			sb.WriteString(", fallback")
		}
		sb.WriteString(")")
	}
	sb.WriteString(". Pick one:\n\n")
	for i, scored := range set.Candidates {
		if i >= selectionPageSize {
			fmt.Fprintf(&sb, "…and %d more on the next pages.\n", len(set.Candidates)-i)
			break
		}
		sb.WriteString(candidateLine(i, scored))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// candidateLine renders one candidate for the prompt body.
func candidateLine(index int, scored search.Scored) string {
	return fmt.Sprintf("#%d %s | %s | %s — %s",
		index+1,
		scored.DurationDisplay(),
		scored.QualityDisplay(),
		scored.SizeDisplay(),
		scored.BaseName(),
	)
}

// candidateButton renders the compact label used on keyboard buttons.
func candidateButton(index int, scored search.Scored) string {
	return fmt.Sprintf("#%d  %s | %s | %s",
		index+1,
		scored.DurationDisplay(),
		scored.QualityDisplay(),
		scored.SizeDisplay(),
	)
}

// selectionKeyboard builds one page of candidate buttons plus the action row.
func selectionKeyboard(itemID int64, set *search.ResultSet, page int) tgbotapi.InlineKeyboardMarkup {
	total := len(set.Candidates)
	pages := (total + selectionPageSize - 1) / selectionPageSize
	if pages < 1 {
		pages = 1
	}
	if page < 0 {
		page = 0
	}
	if page >= pages {
		page = pages - 1
	}

	start := page * selectionPageSize
	end := start + selectionPageSize
	if end > total {
		end = total
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for i := start; i < end; i++ {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(candidateButton(i, set.Candidates[i]), pickData(itemID, i)),
		))
	}
	if pages > 1 {
		var nav []tgbotapi.InlineKeyboardButton
		if page > 0 {
			nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("◀️ Prev", pageData(itemID, page-1)))
		}
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d/%d", page+1, pages), pageData(itemID, page)))
		if page < pages-1 {
			nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Next ▶️", pageData(itemID, page+1)))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(nav...))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⭐ Auto-pick best", fmt.Sprintf("auto:%d", itemID)),
		tgbotapi.NewInlineKeyboardButtonData("🚫 Cancel", fmt.Sprintf("cancel:%d", itemID)),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	// Always ack so the client stops its spinner, even on bad input.
	if _, err := b.client.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.Warn("telegram callback ack failed", logging.Error(err))
	}
	if cb.Message == nil || cb.From == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	if !b.authorized(cb.From.ID) {
		return
	}

	verb, itemID, index, err := parseCallbackData(cb.Data)
	if err != nil {
		b.logger.Warn("telegram callback with malformed data", logging.String("data", cb.Data))
		return
	}

	switch verb {
	case "pick":
		b.finishSelection(ctx, chatID, cb.Message.MessageID, itemID, index)
	case "auto":
		b.finishSelection(ctx, chatID, cb.Message.MessageID, itemID, 0)
	case "cancel":
		b.cancelSelection(ctx, chatID, cb.Message.MessageID, itemID)
	case "page":
		b.flipSelectionPage(ctx, chatID, cb.Message.MessageID, itemID, index)
	}
}

func parseCallbackData(data string) (verb string, itemID int64, index int, err error) {
	parts := strings.Split(data, ":")
	if len(parts) < 2 {
		return "", 0, 0, fmt.Errorf("malformed callback data %q", data)
	}
	verb = parts[0]
	itemID, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil || itemID <= 0 {
		return "", 0, 0, fmt.Errorf("malformed callback item id %q", data)
	}
	if len(parts) >= 3 {
		index, err = strconv.Atoi(parts[2])
		if err != nil || index < 0 {
			return "", 0, 0, fmt.Errorf("malformed callback index %q", data)
		}
	}
	return verb, itemID, index, nil
}

// finishSelection commits the chosen candidate so the download lane can claim
// the item, then replaces the keyboard message with a confirmation.
func (b *Bot) finishSelection(ctx context.Context, chatID int64, messageID int, itemID int64, index int) {
	scored, err := b.commitCandidate(ctx, chatID, itemID, index)
	if err != nil {
		b.editMessage(chatID, messageID, fmt.Sprintf("⚠️ #%d: %s", itemID, err))
		return
	}
	b.editMessage(chatID, messageID, fmt.Sprintf("⬇️ #%d: downloading %s\n%s | %s | %s",
		itemID, scored.BaseName(), scored.DurationDisplay(), scored.QualityDisplay(), scored.SizeDisplay()))
}

// commitCandidate persists the requester's pick on the queue item. The
// download lane only claims found items that carry a committed candidate.
func (b *Bot) commitCandidate(ctx context.Context, chatID, itemID int64, index int) (search.Scored, error) {
	item, err := b.store.GetByID(ctx, itemID)
	if err != nil {
		return search.Scored{}, fmt.Errorf("queue lookup failed")
	}
	if item == nil || item.Requester != requesterFor(chatID) {
		return search.Scored{}, fmt.Errorf("request no longer exists")
	}
	if item.Status != queue.StatusFound {
		return search.Scored{}, fmt.Errorf("request moved on to %s", statusLabel(item.Status))
	}
	if strings.TrimSpace(item.CandidateJSON) != "" {
		return search.Scored{}, fmt.Errorf("a candidate was already selected")
	}

	set, err := search.DecodeResultSet(item.ResultsJSON)
	if err != nil {
		return search.Scored{}, fmt.Errorf("search results are no longer available")
	}
	scored, ok := set.CandidateAt(index)
	if !ok {
		return search.Scored{}, fmt.Errorf("that candidate is no longer available")
	}
	encoded, err := scored.Encode()
	if err != nil {
		return search.Scored{}, fmt.Errorf("could not record the selection")
	}

	item.CandidateJSON = encoded
	item.SetProgress("Found", fmt.Sprintf("Candidate #%d selected", index+1), 100)
	if err := b.store.Update(ctx, item); err != nil {
		return search.Scored{}, fmt.Errorf("could not record the selection")
	}

	b.forgetOffer(itemID)
	b.rememberStatus(itemID, item.Status)
	b.logger.Info("candidate committed from telegram",
		logging.Int64("item_id", itemID),
		logging.Int("candidate_index", index),
		logging.String("username", scored.Username),
	)
	return scored, nil
}

func (b *Bot) cancelSelection(ctx context.Context, chatID int64, messageID int, itemID int64) {
	item, err := b.store.GetByID(ctx, itemID)
	if err != nil || item == nil || item.Requester != requesterFor(chatID) {
		b.editMessage(chatID, messageID, fmt.Sprintf("⚠️ #%d: request no longer exists", itemID))
		return
	}
	if _, err := b.store.StopItems(ctx, itemID); err != nil {
		b.editMessage(chatID, messageID, fmt.Sprintf("⚠️ #%d: could not stop the request", itemID))
		return
	}
	b.forgetOffer(itemID)
	b.rememberStatus(itemID, queue.StatusReview)
	b.editMessage(chatID, messageID, fmt.Sprintf("🚫 #%d %s canceled.", itemID, item.DisplayTitle()))
}

func (b *Bot) flipSelectionPage(ctx context.Context, chatID int64, messageID int, itemID int64, page int) {
	item, err := b.store.GetByID(ctx, itemID)
	if err != nil || item == nil || item.Status != queue.StatusFound {
		return
	}
	set, err := search.DecodeResultSet(item.ResultsJSON)
	if err != nil {
		return
	}
	markup := selectionKeyboard(itemID, set, page)
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, markup)
	if _, err := b.client.Send(edit); err != nil {
		b.logger.Warn("telegram keyboard update failed", logging.Int64("item_id", itemID), logging.Error(err))
	}
}

func (b *Bot) editMessage(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if _, err := b.client.Send(edit); err != nil {
		b.logger.Warn("telegram edit failed", logging.Int64("chat_id", chatID), logging.Error(err))
	}
}
