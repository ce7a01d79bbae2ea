package submitters

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/forumarchiver/forumarchiver/internal/httpx"
)

// waybackSubmitter submits to the Wayback Machine's save endpoint,
// rate-limited per spec §4.7's "5/min" default.
type waybackSubmitter struct {
	http    *httpx.Client
	limiter *rate.Limiter
}

func newWaybackSubmitter(http *httpx.Client, ratePerMin int) *waybackSubmitter {
	return &waybackSubmitter{http: http, limiter: rate.NewLimiter(ratePerMinute(ratePerMin), 1)}
}

func (s *waybackSubmitter) ID() string { return "wayback" }

func (s *waybackSubmitter) Submit(ctx context.Context, targetURL string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for wayback rate limit: %w", err)
	}

	saveURL := fmt.Sprintf("https://web.archive.org/save/%s", targetURL)
	status, finalURL, err := s.http.Get(ctx, saveURL)
	if err != nil {
		return "", fmt.Errorf("submitting %q to wayback: %w", targetURL, err)
	}
	if status != http.StatusOK && status != http.StatusFound {
		return "", fmt.Errorf("wayback submission of %q returned status %d", targetURL, status)
	}
	return finalURL, nil
}
