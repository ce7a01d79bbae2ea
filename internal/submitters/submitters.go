// Package submitters implements the External Archive Submitters (§4.7):
// fire-and-forget, independently rate-limited clients that hand the
// original URL to a third-party archiver. Rate limiting follows
// davidroman0O-4chan-archiver/internal/archiver/archiver.go's
// golang.org/x/time/rate usage; failures here never affect an Archive's
// terminal state (§7's propagation policy).
package submitters

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/forumarchiver/forumarchiver/internal/httpx"
)

// Submitter submits one URL to a third-party archiver and returns the
// snapshot URL it was given back, if any.
type Submitter interface {
	ID() string
	Submit(ctx context.Context, targetURL string) (snapshotURL string, err error)
}

// Set holds every enabled submitter, dispatched together after an Archive
// completes (§4.4 step 8).
type Set struct {
	submitters []Submitter
	log        *slog.Logger
}

// NewSet builds the enabled submitter set from configuration.
func NewSet(waybackEnabled bool, waybackRatePerMin int, archiveTodayEnabled bool, archiveTodayRatePerMin int, http *httpx.Client, log *slog.Logger) *Set {
	s := &Set{log: log}
	if waybackEnabled {
		s.submitters = append(s.submitters, newWaybackSubmitter(http, waybackRatePerMin))
	}
	if archiveTodayEnabled {
		s.submitters = append(s.submitters, newArchiveTodaySubmitter(http, archiveTodayRatePerMin))
	}
	return s
}

// SubmitAll fires every enabled submitter for targetURL and returns a map
// of submitter id to snapshot URL for whichever succeeded. Errors are
// logged, never returned — per §4.7 this is best-effort redundancy.
func (s *Set) SubmitAll(ctx context.Context, targetURL string) map[string]string {
	results := make(map[string]string)
	for _, sub := range s.submitters {
		snapshot, err := sub.Submit(ctx, targetURL)
		if err != nil {
			s.log.Warn("submitter failed", "submitter", sub.ID(), "url", targetURL, "error", err)
			continue
		}
		if snapshot != "" {
			results[sub.ID()] = snapshot
		}
	}
	return results
}

func ratePerMinute(n int) rate.Limit {
	if n <= 0 {
		n = 1
	}
	return rate.Every(time.Minute / time.Duration(n))
}
