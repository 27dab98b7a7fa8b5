package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	StagingDir  string `toml:"staging_dir"`
	LibraryDir  string `toml:"library_dir"`
	LogDir      string `toml:"log_dir"`
	ReviewDir   string `toml:"review_dir"`
	DownloadDir string `toml:"download_dir"`
	APIBind     string `toml:"api_bind"`
	APIToken    string `toml:"api_token"`
}

// Slskd contains connection settings for the slskd daemon that fronts the
// Soulseek network.
type Slskd struct {
	URL            string `toml:"url"`
	APIKey         string `toml:"api_key"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Spotify contains Client Credentials flow settings for metadata resolution.
type Spotify struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	BaseURL      string `toml:"base_url"`
	TokenURL     string `toml:"token_url"`
}

// Search contains tiered Soulseek search behaviour. FallbackFormats lists
// format classes tried in priority order when no lossless candidate
// survives filtering; an entry is an extension with an optional minimum
// bitrate, e.g. "mp3 320".
type Search struct {
	TimeoutSeconds      int      `toml:"timeout_seconds"`
	PollIntervalSeconds int      `toml:"poll_interval_seconds"`
	StableWindowSeconds int      `toml:"stable_window_seconds"`
	MaxResults          int      `toml:"max_results"`
	LosslessOnly        bool     `toml:"lossless_only"`
	FallbackFormats     []string `toml:"fallback_formats"`
}

// Matching contains candidate filtering and scoring behaviour.
type Matching struct {
	DurationToleranceSeconds int      `toml:"duration_tolerance_seconds"`
	MaxDurationDiffSeconds   int      `toml:"max_duration_diff_seconds"`
	ExcludeKeywords          []string `toml:"exclude_keywords"`
	TieBreak                 string   `toml:"tie_break"`
}

// Analysis contains spectral authenticity verification behaviour. The
// cutoff thresholds are tunable because verdict banding is heuristic;
// recalibrating them must not require a rebuild.
type Analysis struct {
	Enabled             bool    `toml:"enabled"`
	SampleSeconds       float64 `toml:"sample_seconds"`
	SegmentLength       int     `toml:"segment_length"`
	RejectFake          bool    `toml:"reject_fake"`
	RejectSuspicious    bool    `toml:"reject_suspicious"`
	DropThresholdDB     float64 `toml:"drop_threshold_db"`
	WarningCutoffKHz    float64 `toml:"warning_cutoff_khz"`
	SuspiciousCutoffKHz float64 `toml:"suspicious_cutoff_khz"`
}

// Download contains transfer polling behaviour.
type Download struct {
	TimeoutSeconds      int `toml:"timeout_seconds"`
	PollIntervalSeconds int `toml:"poll_interval_seconds"`
	MaxRetries          int `toml:"max_retries"`
}

// Library contains configuration for the music library structure.
type Library struct {
	FilenameTemplate    string  `toml:"filename_template"`
	OverwriteExisting   bool    `toml:"overwrite_existing"`
	DuplicateSimilarity float64 `toml:"duplicate_similarity"`
}

// Telegram contains configuration for the Telegram bot front-end.
type Telegram struct {
	Enabled        bool    `toml:"enabled"`
	BotToken       string  `toml:"bot_token"`
	AllowedUserIDs []int64 `toml:"allowed_user_ids"`
	AutoMode       bool    `toml:"auto_mode"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic          string `toml:"ntfy_topic"`
	RequestTimeout     int    `toml:"request_timeout"`
	Found              bool   `toml:"found"`
	Downloaded         bool   `toml:"downloaded"`
	Organized          bool   `toml:"organized"`
	Review             bool   `toml:"review"`
	Errors             bool   `toml:"errors"`
	DedupWindowSeconds int    `toml:"dedup_window_seconds"`
}

// Workflow contains configuration for daemon timing and intervals.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	HeartbeatInterval  int `toml:"heartbeat_interval"`
	HeartbeatTimeout   int `toml:"heartbeat_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
	// StageOverrides raises or lowers the log level for individual stages,
	// e.g. {"searcher": "debug"}.
	StageOverrides map[string]string `toml:"stage_overrides"`
}

// Config encapsulates all configuration values for Stylus.
//
// Configuration sections by subsystem:
//   - Paths: directories and API bind address
//   - Slskd: Soulseek daemon connection
//   - Spotify: track metadata resolution via Client Credentials
//   - Search: tiered search timeouts and polling
//   - Matching: candidate filtering and scoring knobs
//   - Analysis: spectral authenticity verification
//   - Download: transfer polling and retry behaviour
//   - Library: output naming and duplicate handling
//   - Telegram: bot front-end settings
//   - Notifications: ntfy push notification settings
//   - Workflow: daemon polling intervals and timeouts
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Slskd         Slskd         `toml:"slskd"`
	Spotify       Spotify       `toml:"spotify"`
	Search        Search        `toml:"search"`
	Matching      Matching      `toml:"matching"`
	Analysis      Analysis      `toml:"analysis"`
	Download      Download      `toml:"download"`
	Library       Library       `toml:"library"`
	Telegram      Telegram      `toml:"telegram"`
	Notifications Notifications `toml:"notifications"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/stylus/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized. A .env file in the working
// directory is layered into the environment first so secret fallbacks
// (SLSKD_API_KEY and friends) work the same in containers and on hosts.
func Load(path string) (*Config, string, bool, error) {
	_ = godotenv.Load()

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/stylus/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("stylus.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// LibraryDir and DownloadDir are created on a best-effort basis so the daemon
// can run when external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.LogDir, c.Paths.ReviewDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	for _, dir := range []string{c.Paths.LibraryDir, c.Paths.DownloadDir} {
		if strings.TrimSpace(dir) != "" {
			// Best-effort to avoid failing config load when storage is offline.
			_ = os.MkdirAll(dir, 0o755)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name used for decoding and previews.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
