package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSlskd()
	c.normalizeSpotify()
	c.normalizeSearch()
	c.normalizeMatching()
	c.normalizeAnalysis()
	c.normalizeDownload()
	c.normalizeLibrary()
	c.normalizeTelegram()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.LibraryDir, err = expandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.ReviewDir, err = expandPath(c.Paths.ReviewDir); err != nil {
		return fmt.Errorf("paths.review_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DownloadDir) == "" {
		c.Paths.DownloadDir = defaultDownloadDir
	}
	if c.Paths.DownloadDir, err = expandPath(c.Paths.DownloadDir); err != nil {
		return fmt.Errorf("paths.download_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("STYLUS_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeSlskd() {
	c.Slskd.URL = strings.TrimRight(strings.TrimSpace(c.Slskd.URL), "/")
	if c.Slskd.URL == "" {
		if value, ok := os.LookupEnv("SLSKD_URL"); ok {
			c.Slskd.URL = strings.TrimRight(strings.TrimSpace(value), "/")
		}
	}
	c.Slskd.APIKey = strings.TrimSpace(c.Slskd.APIKey)
	if c.Slskd.APIKey == "" {
		if value, ok := os.LookupEnv("SLSKD_API_KEY"); ok {
			c.Slskd.APIKey = strings.TrimSpace(value)
		}
	}
	if c.Slskd.RequestTimeout <= 0 {
		c.Slskd.RequestTimeout = defaultSlskdRequestTimeout
	}
}

func (c *Config) normalizeSpotify() {
	c.Spotify.ClientID = strings.TrimSpace(c.Spotify.ClientID)
	if c.Spotify.ClientID == "" {
		if value, ok := os.LookupEnv("SPOTIFY_CLIENT_ID"); ok {
			c.Spotify.ClientID = strings.TrimSpace(value)
		}
	}
	c.Spotify.ClientSecret = strings.TrimSpace(c.Spotify.ClientSecret)
	if c.Spotify.ClientSecret == "" {
		if value, ok := os.LookupEnv("SPOTIFY_CLIENT_SECRET"); ok {
			c.Spotify.ClientSecret = strings.TrimSpace(value)
		}
	}
	c.Spotify.BaseURL = strings.TrimRight(strings.TrimSpace(c.Spotify.BaseURL), "/")
	if c.Spotify.BaseURL == "" {
		c.Spotify.BaseURL = defaultSpotifyBaseURL
	}
	c.Spotify.TokenURL = strings.TrimSpace(c.Spotify.TokenURL)
	if c.Spotify.TokenURL == "" {
		c.Spotify.TokenURL = defaultSpotifyTokenURL
	}
}

func (c *Config) normalizeSearch() {
	if c.Search.TimeoutSeconds <= 0 {
		c.Search.TimeoutSeconds = defaultSearchTimeout
	}
	if c.Search.PollIntervalSeconds <= 0 {
		c.Search.PollIntervalSeconds = defaultSearchPollInterval
	}
	if c.Search.StableWindowSeconds <= 0 {
		c.Search.StableWindowSeconds = defaultSearchStableWindow
	}
	if c.Search.MaxResults <= 0 {
		c.Search.MaxResults = defaultSearchMaxResults
	}
	formats := make([]string, 0, len(c.Search.FallbackFormats))
	seen := make(map[string]struct{}, len(c.Search.FallbackFormats))
	for _, format := range c.Search.FallbackFormats {
		normalized := strings.Join(strings.Fields(strings.ToLower(format)), " ")
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		formats = append(formats, normalized)
	}
	c.Search.FallbackFormats = formats
}

func (c *Config) normalizeMatching() {
	if c.Matching.DurationToleranceSeconds <= 0 {
		c.Matching.DurationToleranceSeconds = defaultDurationTolerance
	}
	if c.Matching.MaxDurationDiffSeconds < 0 {
		c.Matching.MaxDurationDiffSeconds = 0
	}
	if len(c.Matching.ExcludeKeywords) == 0 {
		c.Matching.ExcludeKeywords = defaultExcludeKeywords()
	} else {
		keywords := make([]string, 0, len(c.Matching.ExcludeKeywords))
		seen := make(map[string]struct{}, len(c.Matching.ExcludeKeywords))
		for _, keyword := range c.Matching.ExcludeKeywords {
			normalized := strings.ToLower(strings.TrimSpace(keyword))
			if normalized == "" {
				continue
			}
			if _, exists := seen[normalized]; exists {
				continue
			}
			seen[normalized] = struct{}{}
			keywords = append(keywords, normalized)
		}
		c.Matching.ExcludeKeywords = keywords
	}
	c.Matching.TieBreak = strings.ToLower(strings.TrimSpace(c.Matching.TieBreak))
	if c.Matching.TieBreak == "" {
		c.Matching.TieBreak = defaultTieBreak
	}
}

func (c *Config) normalizeAnalysis() {
	if c.Analysis.SampleSeconds <= 0 {
		c.Analysis.SampleSeconds = defaultAnalysisSampleSeconds
	}
	if c.Analysis.SegmentLength <= 0 {
		c.Analysis.SegmentLength = defaultAnalysisSegmentLength
	}
	if c.Analysis.DropThresholdDB <= 0 {
		c.Analysis.DropThresholdDB = defaultAnalysisDropDB
	}
	if c.Analysis.WarningCutoffKHz <= 0 {
		c.Analysis.WarningCutoffKHz = defaultAnalysisWarningKHz
	}
	if c.Analysis.SuspiciousCutoffKHz <= 0 {
		c.Analysis.SuspiciousCutoffKHz = defaultAnalysisSuspiciousKHz
	}
}

func (c *Config) normalizeDownload() {
	if c.Download.TimeoutSeconds <= 0 {
		c.Download.TimeoutSeconds = defaultDownloadTimeout
	}
	if c.Download.PollIntervalSeconds <= 0 {
		c.Download.PollIntervalSeconds = defaultDownloadPollInterval
	}
	if c.Download.MaxRetries < 0 {
		c.Download.MaxRetries = 0
	}
}

func (c *Config) normalizeLibrary() {
	c.Library.FilenameTemplate = strings.TrimSpace(c.Library.FilenameTemplate)
	if c.Library.FilenameTemplate == "" {
		c.Library.FilenameTemplate = defaultFilenameTemplate
	}
	if c.Library.DuplicateSimilarity <= 0 {
		c.Library.DuplicateSimilarity = defaultDuplicateSimilarity
	}
}

func (c *Config) normalizeTelegram() {
	c.Telegram.BotToken = strings.TrimSpace(c.Telegram.BotToken)
	if c.Telegram.BotToken == "" {
		if value, ok := os.LookupEnv("TELEGRAM_BOT_TOKEN"); ok {
			c.Telegram.BotToken = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
