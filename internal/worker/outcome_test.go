package worker

import (
	"errors"
	"testing"
	"time"

	"github.com/forumarchiver/forumarchiver/internal/capture"
)

func TestClassifyVideoCaptureError(t *testing.T) {
	tests := []struct {
		kind string
		want outcomeKind
	}{
		{"auth_required", outcomeAuthRequired},
		{"age_restricted", outcomeAuthRequired},
		{"unsupported_url", outcomePermanent},
		{"over_duration_limit", outcomePermanent},
		{"network", outcomeTransient},
		{"timeout", outcomeTransient},
		{"empty_output", outcomeTransient},
	}
	for _, tt := range tests {
		err := &capture.VideoCaptureError{Kind: tt.kind, Detail: "x"}
		if got := classify(err); got != tt.want {
			t.Errorf("classify(%q) = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestClassifyPermanentHTTPStatus(t *testing.T) {
	for _, msg := range []string{
		"fetching url: unexpected status 404",
		"fetching url: unexpected status 403",
		"request forbidden",
		"video is private",
	} {
		if got := classify(errors.New(msg)); got != outcomePermanent {
			t.Errorf("classify(%q) = %v, want outcomePermanent", msg, got)
		}
	}
}

func TestClassifyTransientByDefault(t *testing.T) {
	if got := classify(errors.New("connection reset by peer")); got != outcomeTransient {
		t.Errorf("classify() = %v, want outcomeTransient", got)
	}
}

func TestBackoffDelayDoublesAndCaps(t *testing.T) {
	if got := backoffDelay(0); got != 5*time.Minute {
		t.Errorf("backoffDelay(0) = %v, want 5m", got)
	}
	if got := backoffDelay(1); got != 10*time.Minute {
		t.Errorf("backoffDelay(1) = %v, want 10m", got)
	}
	if got := backoffDelay(2); got != 20*time.Minute {
		t.Errorf("backoffDelay(2) = %v, want 20m", got)
	}
	if got := backoffDelay(20); got != maxBackoff {
		t.Errorf("backoffDelay(20) = %v, want capped at %v", got, maxBackoff)
	}
}
