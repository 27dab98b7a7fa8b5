package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSlskd(); err != nil {
		return err
	}
	if err := c.validateSpotify(); err != nil {
		return err
	}
	if err := c.validateLibrary(); err != nil {
		return err
	}
	if err := c.validateSearch(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	if err := c.validateTelegram(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSlskd() error {
	if c.Slskd.URL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/stylus/config.toml"
		}
		return fmt.Errorf("slskd.url is required. Set SLSKD_URL env var or edit %s (create with 'stylus config init')", defaultPath)
	}
	if c.Slskd.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/stylus/config.toml"
		}
		return fmt.Errorf("slskd.api_key is required. Set SLSKD_API_KEY env var or edit %s (create with 'stylus config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateSpotify() error {
	if c.Spotify.ClientID == "" {
		return errors.New("spotify.client_id is required. Set SPOTIFY_CLIENT_ID env var or add it to the config file")
	}
	if c.Spotify.ClientSecret == "" {
		return errors.New("spotify.client_secret is required. Set SPOTIFY_CLIENT_SECRET env var or add it to the config file")
	}
	return nil
}

func (c *Config) validateLibrary() error {
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		return errors.New("paths.library_dir must be set")
	}
	if !strings.Contains(c.Library.FilenameTemplate, "{title}") {
		return errors.New("library.filename_template must contain the {title} placeholder")
	}
	if c.Library.DuplicateSimilarity <= 0 || c.Library.DuplicateSimilarity > 1 {
		return errors.New("library.duplicate_similarity must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateSearch() error {
	for _, format := range c.Search.FallbackFormats {
		fields := strings.Fields(format)
		switch len(fields) {
		case 1:
		case 2:
			if _, err := strconv.Atoi(fields[1]); err != nil {
				return fmt.Errorf("search.fallback_formats: bitrate in %q must be numeric", format)
			}
		default:
			return fmt.Errorf("search.fallback_formats: %q must be an extension with an optional minimum bitrate", format)
		}
	}
	return nil
}

func (c *Config) validateMatching() error {
	switch c.Matching.TieBreak {
	case "reliability", "filename":
	default:
		return fmt.Errorf("matching.tie_break must be one of reliability, filename (got %q)", c.Matching.TieBreak)
	}
	if c.Matching.DurationToleranceSeconds <= 0 {
		return errors.New("matching.duration_tolerance_seconds must be positive")
	}
	if c.Matching.MaxDurationDiffSeconds < 0 {
		return errors.New("matching.max_duration_diff_seconds must be >= 0")
	}
	if c.Matching.MaxDurationDiffSeconds > 0 && c.Matching.MaxDurationDiffSeconds < c.Matching.DurationToleranceSeconds {
		return errors.New("matching.max_duration_diff_seconds must be at least matching.duration_tolerance_seconds")
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	if !c.Analysis.Enabled {
		return nil
	}
	if c.Analysis.SampleSeconds <= 0 {
		return errors.New("analysis.sample_seconds must be positive when analysis.enabled is true")
	}
	if c.Analysis.WarningCutoffKHz < c.Analysis.SuspiciousCutoffKHz {
		return errors.New("analysis.warning_cutoff_khz must not be below analysis.suspicious_cutoff_khz")
	}
	return nil
}

func (c *Config) validateTelegram() error {
	if !c.Telegram.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Telegram.BotToken) == "" {
		return errors.New("telegram.bot_token must be set when telegram.enabled is true (or set TELEGRAM_BOT_TOKEN)")
	}
	if len(c.Telegram.AllowedUserIDs) == 0 {
		return errors.New("telegram.allowed_user_ids must include at least one user when telegram.enabled is true")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"slskd.request_timeout":          c.Slskd.RequestTimeout,
		"search.timeout_seconds":         c.Search.TimeoutSeconds,
		"search.poll_interval_seconds":   c.Search.PollIntervalSeconds,
		"search.stable_window_seconds":   c.Search.StableWindowSeconds,
		"search.max_results":             c.Search.MaxResults,
		"download.timeout_seconds":       c.Download.TimeoutSeconds,
		"download.poll_interval_seconds": c.Download.PollIntervalSeconds,
		"notifications.request_timeout":  c.Notifications.RequestTimeout,
		"workflow.queue_poll_interval":   c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval":  c.Workflow.ErrorRetryInterval,
	}); err != nil {
		return err
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		return errors.New("workflow.heartbeat_interval must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		return errors.New("workflow.heartbeat_timeout must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.DedupWindowSeconds < 0 {
		return errors.New("notifications.dedup_window_seconds must be >= 0")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
