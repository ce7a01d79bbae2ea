package store

import (
	"context"
	"testing"
	"time"
)

func TestTouchDomainRateLimitWithinLimit(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := s.TouchDomainRateLimit(ctx, "example.com", time.Minute, 3)
		if err != nil {
			t.Fatalf("TouchDomainRateLimit() failed: %v", err)
		}
		if !ok {
			t.Errorf("request %d: expected within limit", i+1)
		}
	}
}

func TestTouchDomainRateLimitExceedsLimit(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := s.TouchDomainRateLimit(ctx, "example.com", time.Minute, 3); err != nil {
			t.Fatalf("TouchDomainRateLimit() failed: %v", err)
		}
	}

	ok, err := s.TouchDomainRateLimit(ctx, "example.com", time.Minute, 3)
	if err != nil {
		t.Fatalf("TouchDomainRateLimit() failed: %v", err)
	}
	if ok {
		t.Error("expected the 4th request within the window to exceed the limit")
	}
}

func TestTouchDomainRateLimitResetsAfterWindow(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := s.TouchDomainRateLimit(ctx, "example.com", time.Millisecond, 3); err != nil {
			t.Fatalf("TouchDomainRateLimit() failed: %v", err)
		}
	}
	time.Sleep(5 * time.Millisecond)

	ok, err := s.TouchDomainRateLimit(ctx, "example.com", time.Millisecond, 3)
	if err != nil {
		t.Fatalf("TouchDomainRateLimit() failed: %v", err)
	}
	if !ok {
		t.Error("expected the window reset to allow a fresh request")
	}
}

func TestTouchDomainRateLimitIsPerDomain(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := s.TouchDomainRateLimit(ctx, "example.com", time.Minute, 3); err != nil {
			t.Fatalf("TouchDomainRateLimit() failed: %v", err)
		}
	}

	ok, err := s.TouchDomainRateLimit(ctx, "other.com", time.Minute, 3)
	if err != nil {
		t.Fatalf("TouchDomainRateLimit() failed: %v", err)
	}
	if !ok {
		t.Error("a different domain's counter should be independent")
	}
}
