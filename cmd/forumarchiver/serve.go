package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/forumarchiver/forumarchiver/internal/backup"
	"github.com/forumarchiver/forumarchiver/internal/capture"
	"github.com/forumarchiver/forumarchiver/internal/config"
	"github.com/forumarchiver/forumarchiver/internal/feedpoller"
	"github.com/forumarchiver/forumarchiver/internal/handlers"
	"github.com/forumarchiver/forumarchiver/internal/httpx"
	"github.com/forumarchiver/forumarchiver/internal/objectstore"
	"github.com/forumarchiver/forumarchiver/internal/store"
	"github.com/forumarchiver/forumarchiver/internal/submitters"
	"github.com/forumarchiver/forumarchiver/internal/worker"
)

const defaultUserAgent = "" // empty rotates a random User-Agent per request

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the feed poller, worker pool, and backup scheduler until signalled to stop",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			log := newLogger(cfg.LogLevel)

			if err := os.MkdirAll(cfg.WorkDir, 0o755); err != nil {
				return fmt.Errorf("creating work dir %q: %w", cfg.WorkDir, err)
			}
			if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
				return fmt.Errorf("creating database dir: %w", err)
			}

			db, err := store.Open(cfg.DatabasePath, log)
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer db.Close()

			objects, err := objectstore.New(cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3Prefix, cfg.S3UseSSL)
			if err != nil {
				return fmt.Errorf("building object store gateway: %w", err)
			}

			httpClient := httpx.New(cfg.ArchiveProcessingTimeout, defaultUserAgent)

			var browser *capture.Browser
			if cfg.ScreenshotEnabled || cfg.PDFEnabled || cfg.MHTMLEnabled {
				browser, err = capture.NewBrowser()
				if err != nil {
					return fmt.Errorf("launching browser: %w", err)
				}
				defer browser.Close()
			}

			subs := submitters.NewSet(cfg.WaybackEnabled, cfg.WaybackRatePerMin, cfg.ArchiveTodayEnabled, cfg.ArchiveTodayRatePerMin, httpClient, log)

			registry := handlers.NewRegistry()
			state := &worker.State{
				Store:      db,
				Objects:    objects,
				Registry:   registry,
				Config:     cfg,
				Submitters: subs,
				Browser:    browser,
				HTTP:       httpClient,
				Log:        log,
			}
			pool := worker.NewPool(state)

			sink := &postSink{
				store:    db,
				http:     httpClient,
				registry: registry,
				deps: handlers.Deps{
					HTTP:        httpClient,
					Config:      cfg,
					Log:         log,
					CookiesFile: cfg.CookiesFilePath,
				},
				cfg: archivePolicy{mode: cfg.ArchiveMode, quoteOnlyLink: cfg.ArchiveQuoteOnlyLink},
				log: log,
			}
			poller := feedpoller.New(cfg.RSSURL, cfg.RSSMaxPages, cfg.PollInterval, maxPollInterval(cfg.PollInterval), sink, log)

			scheduler := backup.New(db.DB(), objects, cfg.BackupInterval, cfg.BackupRetention, cfg.WorkDir, log)

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			var wg sync.WaitGroup
			wg.Add(3)
			go func() { defer wg.Done(); poller.Run(ctx) }()
			go func() { defer wg.Done(); scheduler.Run(ctx) }()
			go func() {
				defer wg.Done()
				if err := pool.Run(ctx); err != nil {
					log.Error("worker pool exited with error", "error", err)
				}
			}()

			log.Info("forumarchiver serving", "feed", cfg.RSSURL, "archive_mode", cfg.ArchiveMode)
			<-ctx.Done()
			log.Info("shutdown signal received, waiting for in-flight work")
			wg.Wait()
			return nil
		},
	}
}

// maxPollInterval caps the Feed Poller's adaptive backoff at 32x its base
// interval, matching davidroman0O-4chan-archiver's monitor.go inactivity
// backoff ceiling generalized to the feed's own base interval.
func maxPollInterval(base time.Duration) time.Duration {
	return base * 32
}
