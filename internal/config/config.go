// Package config loads the pipeline's configuration from environment
// variables, following the surface enumerated in the system's external
// interfaces.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every tunable the pipeline reads at startup.
type Config struct {
	// Feed
	RSSURL          string
	PollInterval    time.Duration
	RSSMaxPages     int

	// Archive policy
	ArchiveMode          string // "deletable" or "all"
	ArchiveQuoteOnlyLink bool

	// Concurrency
	WorkerConcurrency        int
	PerDomainConcurrency     int
	DomainRatePerMin         int
	MaxRetries               int
	ArchiveProcessingTimeout time.Duration

	// Video
	YouTubeMaxDuration   time.Duration
	YouTubeDownloadTimeout time.Duration
	SubtitleLangs        []string

	// Browser captures
	ScreenshotEnabled bool
	PDFEnabled        bool
	MHTMLEnabled      bool
	MonolithEnabled   bool
	ViewportWidth     int
	ViewportHeight    int

	// Storage
	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3Prefix        string
	S3PublicURLBase string
	S3AccessKey     string
	S3SecretKey     string
	S3UseSSL        bool

	// Third-party submitters
	WaybackEnabled      bool
	ArchiveTodayEnabled bool
	WaybackRatePerMin      int
	ArchiveTodayRatePerMin int

	// Cookies
	CookiesFilePath string

	// Backup
	BackupInterval  time.Duration
	BackupRetention int

	// Dedup
	PerceptualHashThreshold int

	// Ambient
	DatabasePath string
	WorkDir      string
	LogLevel     string
}

// Load reads and validates configuration from the environment.
func Load() (*Config, error) {
	rssURL := os.Getenv("RSS_URL")
	if rssURL == "" {
		return nil, fmt.Errorf("RSS_URL is required")
	}

	cfg := &Config{
		RSSURL:       rssURL,
		DatabasePath: envOr("DATABASE_PATH", "./data/forumarchiver.db"),
		WorkDir:      envOr("WORK_DIR", "./data/work"),
		LogLevel:     envOr("LOG_LEVEL", "info"),

		ArchiveMode:          envOr("ARCHIVE_MODE", "deletable"),
		ArchiveQuoteOnlyLink: envBool("ARCHIVE_QUOTE_ONLY_LINKS", true),

		CookiesFilePath: os.Getenv("COOKIES_FILE_PATH"),

		S3Bucket:        os.Getenv("S3_BUCKET"),
		S3Region:        envOr("S3_REGION", "us-east-1"),
		S3Endpoint:      os.Getenv("S3_ENDPOINT"),
		S3Prefix:        os.Getenv("S3_PREFIX"),
		S3PublicURLBase: os.Getenv("S3_PUBLIC_URL_BASE"),
		S3AccessKey:     os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:     os.Getenv("S3_SECRET_KEY"),
		S3UseSSL:        envBool("S3_USE_SSL", true),

		ScreenshotEnabled: envBool("SCREENSHOT_ENABLED", true),
		PDFEnabled:        envBool("PDF_ENABLED", true),
		MHTMLEnabled:      envBool("MHTML_ENABLED", true),
		MonolithEnabled:   envBool("MONOLITH_ENABLED", false),

		WaybackEnabled:      envBool("WAYBACK_ENABLED", true),
		ArchiveTodayEnabled: envBool("ARCHIVE_TODAY_ENABLED", true),
	}

	var err error
	if cfg.PollInterval, err = envDuration("POLL_INTERVAL_SECS", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.RSSMaxPages, err = envInt("RSS_MAX_PAGES", 5); err != nil {
		return nil, err
	}
	if cfg.WorkerConcurrency, err = envInt("WORKER_CONCURRENCY", 4); err != nil {
		return nil, err
	}
	if cfg.PerDomainConcurrency, err = envInt("PER_DOMAIN_CONCURRENCY", 1); err != nil {
		return nil, err
	}
	if cfg.DomainRatePerMin, err = envInt("DOMAIN_RATE_PER_MIN", 20); err != nil {
		return nil, err
	}
	if cfg.MaxRetries, err = envInt("ARCHIVE_MAX_RETRIES", 3); err != nil {
		return nil, err
	}
	if cfg.ArchiveProcessingTimeout, err = envDuration("ARCHIVE_PROCESSING_TIMEOUT_SECONDS", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.YouTubeMaxDuration, err = envDuration("YOUTUBE_MAX_DURATION_SECONDS", 3*time.Hour); err != nil {
		return nil, err
	}
	if cfg.YouTubeDownloadTimeout, err = envDuration("YOUTUBE_DOWNLOAD_TIMEOUT_SECONDS", 20*time.Minute); err != nil {
		return nil, err
	}
	if cfg.ViewportWidth, err = envInt("VIEWPORT_WIDTH", 1280); err != nil {
		return nil, err
	}
	if cfg.ViewportHeight, err = envInt("VIEWPORT_HEIGHT", 1024); err != nil {
		return nil, err
	}
	if cfg.WaybackRatePerMin, err = envInt("WAYBACK_RATE_PER_MIN", 5); err != nil {
		return nil, err
	}
	if cfg.ArchiveTodayRatePerMin, err = envInt("ARCHIVE_TODAY_RATE_PER_MIN", 3); err != nil {
		return nil, err
	}
	if cfg.BackupInterval, err = envDuration("BACKUP_INTERVAL_SECS", 6*time.Hour); err != nil {
		return nil, err
	}
	if cfg.BackupRetention, err = envInt("BACKUP_RETENTION_COUNT", 14); err != nil {
		return nil, err
	}
	if cfg.PerceptualHashThreshold, err = envInt("PERCEPTUAL_HASH_THRESHOLD", 6); err != nil {
		return nil, err
	}

	if raw := os.Getenv("SUBTITLE_LANGUAGES"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				cfg.SubtitleLangs = append(cfg.SubtitleLangs, s)
			}
		}
	} else {
		cfg.SubtitleLangs = []string{"en"}
	}

	if cfg.ArchiveMode != "deletable" && cfg.ArchiveMode != "all" {
		return nil, fmt.Errorf("ARCHIVE_MODE must be %q or %q, got %q", "deletable", "all", cfg.ArchiveMode)
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return time.Duration(secs) * time.Second, nil
}
