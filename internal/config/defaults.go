package config

const (
	defaultStagingDir            = "~/.local/share/stylus/staging"
	defaultLibraryDir            = "~/music"
	defaultLogDir                = "~/.local/share/stylus/logs"
	defaultReviewDir             = "~/.local/share/stylus/review"
	defaultDownloadDir           = "~/.local/share/slskd/downloads"
	defaultAPIBind               = "127.0.0.1:7530"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogRetentionDays      = 60
	defaultSlskdRequestTimeout   = 15
	defaultSpotifyBaseURL        = "https://api.spotify.com/v1"
	defaultSpotifyTokenURL       = "https://accounts.spotify.com/api/token"
	defaultSearchTimeout         = 30
	defaultSearchPollInterval    = 2
	defaultSearchStableWindow    = 8
	defaultSearchMaxResults      = 5
	defaultDurationTolerance     = 5
	defaultTieBreak              = "reliability"
	defaultAnalysisSampleSeconds = 30
	defaultAnalysisSegmentLength = 8192
	defaultAnalysisDropDB        = 30
	defaultAnalysisWarningKHz    = 19
	defaultAnalysisSuspiciousKHz = 17
	defaultDownloadTimeout       = 600
	defaultDownloadPollInterval  = 3
	defaultDownloadMaxRetries    = 3
	defaultFilenameTemplate      = "{artist} - {title}"
	defaultDuplicateSimilarity   = 0.95
	defaultNotifyRequestTimeout  = 10
	defaultNotifyDedupWindow     = 600
	defaultHeartbeatInterval     = 15
	defaultHeartbeatTimeout      = 120
)

// defaultFallbackFormats is the lossy fallback priority: high-bitrate mp3
// beats m4a, which beats mp3 at any bitrate. Candidates with an unknown
// bitrate only match the bare "mp3" class.
func defaultFallbackFormats() []string {
	return []string{"mp3 320", "m4a", "mp3"}
}

// defaultExcludeKeywords flags unwanted track variants. A keyword is ignored
// when it also appears in the reference title ("My Acoustic Song" keeps
// acoustic results).
func defaultExcludeKeywords() []string {
	return []string{
		"live",
		"remix",
		"acoustic",
		"karaoke",
		"instrumental",
		"cover",
		"demo",
		"radio edit",
		"tribute",
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir:  defaultStagingDir,
			LibraryDir:  defaultLibraryDir,
			LogDir:      defaultLogDir,
			ReviewDir:   defaultReviewDir,
			DownloadDir: defaultDownloadDir,
			APIBind:     defaultAPIBind,
		},
		Slskd: Slskd{
			RequestTimeout: defaultSlskdRequestTimeout,
		},
		Spotify: Spotify{
			BaseURL:  defaultSpotifyBaseURL,
			TokenURL: defaultSpotifyTokenURL,
		},
		Search: Search{
			TimeoutSeconds:      defaultSearchTimeout,
			PollIntervalSeconds: defaultSearchPollInterval,
			StableWindowSeconds: defaultSearchStableWindow,
			MaxResults:          defaultSearchMaxResults,
			LosslessOnly:        true,
			FallbackFormats:     defaultFallbackFormats(),
		},
		Matching: Matching{
			DurationToleranceSeconds: defaultDurationTolerance,
			ExcludeKeywords:          defaultExcludeKeywords(),
			TieBreak:                 defaultTieBreak,
		},
		Analysis: Analysis{
			Enabled:             true,
			SampleSeconds:       defaultAnalysisSampleSeconds,
			SegmentLength:       defaultAnalysisSegmentLength,
			RejectFake:          true,
			DropThresholdDB:     defaultAnalysisDropDB,
			WarningCutoffKHz:    defaultAnalysisWarningKHz,
			SuspiciousCutoffKHz: defaultAnalysisSuspiciousKHz,
		},
		Download: Download{
			TimeoutSeconds:      defaultDownloadTimeout,
			PollIntervalSeconds: defaultDownloadPollInterval,
			MaxRetries:          defaultDownloadMaxRetries,
		},
		Library: Library{
			FilenameTemplate:    defaultFilenameTemplate,
			DuplicateSimilarity: defaultDuplicateSimilarity,
		},
		Notifications: Notifications{
			RequestTimeout:     defaultNotifyRequestTimeout,
			Found:              true,
			Downloaded:         true,
			Organized:          true,
			Review:             true,
			Errors:             true,
			DedupWindowSeconds: defaultNotifyDedupWindow,
		},
		Workflow: Workflow{
			QueuePollInterval:  5,
			ErrorRetryInterval: 10,
			HeartbeatInterval:  defaultHeartbeatInterval,
			HeartbeatTimeout:   defaultHeartbeatTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
