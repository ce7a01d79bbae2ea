package submitters

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/forumarchiver/forumarchiver/internal/httpx"
)

// archiveTodaySubmitter submits to archive.today's `submit` form,
// rate-limited per spec §4.7's tighter "3/min" default.
type archiveTodaySubmitter struct {
	http    *httpx.Client
	limiter *rate.Limiter
}

func newArchiveTodaySubmitter(http *httpx.Client, ratePerMin int) *archiveTodaySubmitter {
	return &archiveTodaySubmitter{http: http, limiter: rate.NewLimiter(ratePerMinute(ratePerMin), 1)}
}

func (s *archiveTodaySubmitter) ID() string { return "archive_today" }

func (s *archiveTodaySubmitter) Submit(ctx context.Context, targetURL string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for archive.today rate limit: %w", err)
	}

	submitURL := fmt.Sprintf("https://archive.ph/submit/?url=%s", targetURL)
	status, finalURL, err := s.http.Get(ctx, submitURL)
	if err != nil {
		return "", fmt.Errorf("submitting %q to archive.today: %w", targetURL, err)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("archive.today submission of %q returned status %d", targetURL, status)
	}
	return finalURL, nil
}
