package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"stylus/internal/config"
	"stylus/internal/logging"
	"stylus/internal/queue"
)

// watchInterval is how often the bot scans the queue for items that need a
// candidate pick or a completion push.
const watchInterval = 2 * time.Second

// sender is the slice of the Bot API client the bot uses. Tests swap in a
// recording fake.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot bridges Telegram chats and the daemon's queue store.
type Bot struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger

	client  sender
	updates <-chan tgbotapi.Update
	stop    func()

	mu sync.Mutex
	// lastStatus tracks the last queue status pushed or observed per item so
	// terminal transitions are announced exactly once.
	lastStatus map[int64]queue.Status
	// offered tracks items whose candidate keyboard has already been sent.
	offered map[int64]struct{}
}

// New connects to the Bot API and returns a bot ready to Run. The caller is
// expected to have validated cfg.Telegram before the daemon starts.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger) (*Bot, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("telegram bot requires config and queue store")
	}
	token := strings.TrimSpace(cfg.Telegram.BotToken)
	if token == "" {
		return nil, errors.New("telegram bot token is not configured")
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect telegram bot api: %w", err)
	}

	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 60
	updates := api.GetUpdatesChan(updateCfg)

	bot := newBot(cfg, store, logger, api, updates)
	bot.stop = api.StopReceivingUpdates
	bot.logger.Info("telegram bot connected", logging.String("username", api.Self.UserName))
	return bot, nil
}

// newBot wires a bot around an existing client and update channel.
func newBot(cfg *config.Config, store *queue.Store, logger *slog.Logger, client sender, updates <-chan tgbotapi.Update) *Bot {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Bot{
		cfg:        cfg,
		store:      store,
		logger:     logger.With(logging.String("component", "telegram")),
		client:     client,
		updates:    updates,
		lastStatus: make(map[int64]queue.Status),
		offered:    make(map[int64]struct{}),
	}
}

// Run consumes updates and watches the queue until the context is canceled.
// It blocks; the daemon runs it on its own goroutine.
func (b *Bot) Run(ctx context.Context) error {
	b.primeWatcher(ctx)

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()
	if b.stop != nil {
		defer b.stop()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			b.scanQueue(ctx)
		case update, ok := <-b.updates:
			if !ok {
				return errors.New("telegram update channel closed")
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate dispatches one long-poll update.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

// authorized reports whether the sending user may drive the bot. The
// allowlist is mandatory when the bot is enabled; an empty list locks
// everyone out rather than opening the bot to the world.
func (b *Bot) authorized(userID int64) bool {
	for _, id := range b.cfg.Telegram.AllowedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// manualSelection reports whether telegram requests park at found for a
// human pick instead of taking the ranked winner.
func (b *Bot) manualSelection() bool {
	return !b.cfg.Telegram.AutoMode
}

// requesterFor builds the queue requester identity for a chat.
func requesterFor(chatID int64) string {
	return queue.RequesterTelegramPrefix + strconv.FormatInt(chatID, 10)
}

// chatIDFromRequester recovers the chat id from a telegram requester string.
func chatIDFromRequester(requester string) (int64, bool) {
	suffix, ok := strings.CutPrefix(requester, queue.RequesterTelegramPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimSpace(suffix), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// send delivers a plain-text message to a chat, logging instead of failing
// the caller when Telegram rejects it.
func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.client.Send(msg); err != nil {
		b.logger.Warn("telegram send failed", logging.Int64("chat_id", chatID), logging.Error(err))
	}
}
