package preflight

import (
	"context"
	"strings"

	"stylus/internal/config"
)

// CheckSlskdFromConfig evaluates slskd status from config and connectivity.
func CheckSlskdFromConfig(cfg *config.Config) Result {
	const name = "slskd"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if strings.TrimSpace(cfg.Slskd.URL) == "" {
		return Result{Name: name, Detail: "Missing URL"}
	}
	if strings.TrimSpace(cfg.Slskd.APIKey) == "" {
		return Result{Name: name, Detail: "Missing API key"}
	}
	return CheckSlskd(context.Background(), cfg.Slskd.URL, cfg.Slskd.APIKey)
}

// CheckSpotifyFromConfig evaluates metadata resolution status from config and
// connectivity. Missing credentials pass: the resolver falls back to
// request-text metadata, so an unconfigured Spotify is a mode, not a fault.
func CheckSpotifyFromConfig(cfg *config.Config) Result {
	const name = "Spotify"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if strings.TrimSpace(cfg.Spotify.ClientID) == "" && strings.TrimSpace(cfg.Spotify.ClientSecret) == "" {
		return Result{Name: name, Passed: true, Detail: "Not configured (resolution uses request text)"}
	}
	return CheckSpotify(context.Background(), cfg.Spotify)
}

// CheckTelegramFromConfig evaluates bot status from config and connectivity.
func CheckTelegramFromConfig(cfg *config.Config) Result {
	const name = "Telegram"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if !cfg.Telegram.Enabled {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	if strings.TrimSpace(cfg.Telegram.BotToken) == "" {
		return Result{Name: name, Detail: "Missing bot token"}
	}
	return CheckTelegram(context.Background(), "", cfg.Telegram.BotToken)
}

// CheckNtfyFromConfig reports notification configuration state. Publishing
// is fire-and-forget, so no network probe runs here; the daemon's
// test-notification operation exercises the live path.
func CheckNtfyFromConfig(cfg *config.Config) Result {
	const name = "ntfy"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	return Result{Name: name, Passed: true, Detail: "Configured (" + topic + ")"}
}
