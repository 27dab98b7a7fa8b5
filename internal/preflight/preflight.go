package preflight

import (
	"context"
	"strings"

	"stylus/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Staging directory (always checked)
	results = append(results, CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir))

	// Library directory (when configured)
	if cfg.Paths.LibraryDir != "" {
		results = append(results, CheckDirectoryAccess("Library directory", cfg.Paths.LibraryDir))
	}

	// Review directory (when configured)
	if cfg.Paths.ReviewDir != "" {
		results = append(results, CheckDirectoryAccess("Review directory", cfg.Paths.ReviewDir))
	}

	// slskd download directory (when configured; slskd writes, stylus reads)
	if cfg.Paths.DownloadDir != "" {
		results = append(results, CheckDirectoryAccess("Download directory", cfg.Paths.DownloadDir))
	}

	// slskd connection (always; nothing works without it)
	results = append(results, CheckSlskd(ctx, cfg.Slskd.URL, cfg.Slskd.APIKey))

	// Spotify (when credentials are configured; the resolver degrades to
	// query-derived metadata without them, so absence is not a failure)
	if spotifyConfigured(cfg) {
		results = append(results, CheckSpotify(ctx, cfg.Spotify))
	}

	// Telegram bot
	if cfg.Telegram.Enabled {
		results = append(results, CheckTelegram(ctx, "", cfg.Telegram.BotToken))
	}

	// FFmpeg (only needed to decode non-WAV files for spectral analysis)
	if cfg.Analysis.Enabled {
		results = append(results, CheckFFmpeg(cfg.FFmpegBinary()))
	}

	return results
}

// spotifyConfigured reports whether both halves of the Client Credentials
// pair are present. A single configured half is treated as configured so the
// check surfaces the mistake instead of silently skipping.
func spotifyConfigured(cfg *config.Config) bool {
	return strings.TrimSpace(cfg.Spotify.ClientID) != "" || strings.TrimSpace(cfg.Spotify.ClientSecret) != ""
}
