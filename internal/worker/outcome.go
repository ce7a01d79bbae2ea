package worker

import (
	"errors"
	"strings"
	"time"

	"github.com/forumarchiver/forumarchiver/internal/capture"
)

// outcomeKind is the state transition a processing failure drives, per
// §4.4's state machine diagram.
type outcomeKind int

const (
	outcomeAuthRequired outcomeKind = iota
	outcomePermanent                // -> skipped
	outcomeTransient                // -> failed, with backoff
)

// classify maps a capture error to its outcomeKind. A *capture.VideoCaptureError
// carries an explicit Kind from yt-dlp/gallery-dl; anything else falls back
// to a substring scan of the error text, grounded on
// original_source/src/archiver/worker.rs's is_permanent_failure.
func classify(err error) outcomeKind {
	var vce *capture.VideoCaptureError
	if errors.As(err, &vce) {
		switch vce.Kind {
		case "auth_required", "age_restricted":
			return outcomeAuthRequired
		case "unsupported_url", "over_duration_limit":
			return outcomePermanent
		default: // network, timeout, empty_output
			return outcomeTransient
		}
	}

	if isPermanentFailure(err.Error()) {
		return outcomePermanent
	}
	return outcomeTransient
}

// permanentMarkers are the lowercase substrings that mean a link is gone
// or access is durably denied rather than transiently unreachable.
var permanentMarkers = []string{
	"401", "403", "404", "unauthorized", "forbidden", "not found", "private", "deleted", "removed",
}

func isPermanentFailure(msg string) bool {
	lower := strings.ToLower(msg)
	for _, marker := range permanentMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// baseBackoff and maxBackoff bound the exponential retry schedule required
// by §4.4 ("5m, 10m, 20m, 40m ... capped"), an explicit enrichment over
// original_source/src/db/queries.rs's reset_archive_for_retry, which has no
// backoff at all despite the next_retry_at column existing in its schema.
const (
	baseBackoff = 5 * time.Minute
	maxBackoff  = 6 * time.Hour
)

// backoffDelay returns the delay before the (retryCount+1)th retry.
func backoffDelay(retryCount int) time.Duration {
	if retryCount < 0 {
		retryCount = 0
	}
	delay := baseBackoff
	for i := 0; i < retryCount; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}
