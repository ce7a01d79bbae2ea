package store

import (
	"context"
	"testing"
	"time"

	"github.com/forumarchiver/forumarchiver/internal/model"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", nil)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertLinkUniqueness(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	l1, created1, err := s.UpsertLink(ctx, "https://example.com/a", "https://example.com/a", "", "example.com")
	if err != nil {
		t.Fatalf("UpsertLink() failed: %v", err)
	}
	if !created1 {
		t.Errorf("expected first UpsertLink to create a row")
	}

	l2, created2, err := s.UpsertLink(ctx, "https://example.com/a", "https://example.com/a?utm_source=x", "", "example.com")
	if err != nil {
		t.Fatalf("UpsertLink() second call failed: %v", err)
	}
	if created2 {
		t.Errorf("expected second UpsertLink for the same normalized URL to not create a row")
	}
	if l1.ID != l2.ID {
		t.Errorf("expected same link id, got %d and %d", l1.ID, l2.ID)
	}
}

func TestClaimNextPendingOrdering(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	link, _, err := s.UpsertLink(ctx, "https://example.com/a", "https://example.com/a", "", "example.com")
	if err != nil {
		t.Fatalf("UpsertLink() failed: %v", err)
	}

	low, err := s.CreateArchive(ctx, link.ID, 0)
	if err != nil {
		t.Fatalf("CreateArchive() low priority failed: %v", err)
	}
	link2, _, err := s.UpsertLink(ctx, "https://example.com/b", "https://example.com/b", "", "example.com")
	if err != nil {
		t.Fatalf("UpsertLink() second link failed: %v", err)
	}
	high, err := s.CreateArchive(ctx, link2.ID, 10)
	if err != nil {
		t.Fatalf("CreateArchive() high priority failed: %v", err)
	}

	claimed, err := s.ClaimNextPending(ctx)
	if err != nil {
		t.Fatalf("ClaimNextPending() failed: %v", err)
	}
	if claimed.ID != high.ID {
		t.Errorf("expected to claim high-priority archive %d first, got %d", high.ID, claimed.ID)
	}
	if claimed.Status != model.ArchiveStatusProcessing {
		t.Errorf("expected claimed archive to be processing, got %s", claimed.Status)
	}

	next, err := s.ClaimNextPending(ctx)
	if err != nil {
		t.Fatalf("ClaimNextPending() second call failed: %v", err)
	}
	if next.ID != low.ID {
		t.Errorf("expected to claim remaining low-priority archive %d, got %d", low.ID, next.ID)
	}
}

func TestFailArchiveIncrementsRetryCount(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	link, _, err := s.UpsertLink(ctx, "https://slow.example/1", "https://slow.example/1", "", "slow.example")
	if err != nil {
		t.Fatalf("UpsertLink() failed: %v", err)
	}
	archive, err := s.CreateArchive(ctx, link.ID, 0)
	if err != nil {
		t.Fatalf("CreateArchive() failed: %v", err)
	}
	if _, err := s.ClaimNextPending(ctx); err != nil {
		t.Fatalf("ClaimNextPending() failed: %v", err)
	}

	next := time.Now().UTC().Add(5 * time.Minute)
	if err := s.FailArchive(ctx, archive.ID, "boom", next); err != nil {
		t.Fatalf("FailArchive() failed: %v", err)
	}
	if err := s.FailArchive(ctx, archive.ID, "boom again", next.Add(10*time.Minute)); err != nil {
		t.Fatalf("FailArchive() second call failed: %v", err)
	}

	got, err := s.GetArchive(ctx, archive.ID)
	if err != nil {
		t.Fatalf("GetArchive() failed: %v", err)
	}
	if got.RetryCount != 2 {
		t.Errorf("expected retry_count = 2, got %d", got.RetryCount)
	}
	if got.Status != model.ArchiveStatusFailed {
		t.Errorf("expected status failed, got %s", got.Status)
	}
	if got.NextRetryAt == nil || !got.NextRetryAt.After(*got.LastAttemptAt) {
		t.Errorf("expected next_retry_at strictly after last_attempt_at")
	}
}

func TestRecoverOnStartupResetsProcessing(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	link, _, err := s.UpsertLink(ctx, "https://example.com/crash", "https://example.com/crash", "", "example.com")
	if err != nil {
		t.Fatalf("UpsertLink() failed: %v", err)
	}
	archive, err := s.CreateArchive(ctx, link.ID, 0)
	if err != nil {
		t.Fatalf("CreateArchive() failed: %v", err)
	}
	if _, err := s.ClaimNextPending(ctx); err != nil {
		t.Fatalf("ClaimNextPending() failed: %v", err)
	}

	n, err := s.RecoverOnStartup(ctx)
	if err != nil {
		t.Fatalf("RecoverOnStartup() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 recovered archive, got %d", n)
	}

	got, err := s.GetArchive(ctx, archive.ID)
	if err != nil {
		t.Fatalf("GetArchive() failed: %v", err)
	}
	if got.Status != model.ArchiveStatusPending {
		t.Errorf("expected recovered archive to be pending, got %s", got.Status)
	}
}

func TestVideoFileDedup(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if _, err := s.GetVideoFile(ctx, "youtube", "dQw4w9WgXcQ"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound before insert, got %v", err)
	}

	v := &model.VideoFile{Platform: "youtube", VideoID: "dQw4w9WgXcQ", ObjectKey: "videos/dQw4w9WgXcQ.mp4"}
	if err := s.InsertVideoFile(ctx, v); err != nil {
		t.Fatalf("InsertVideoFile() failed: %v", err)
	}

	got, err := s.GetVideoFile(ctx, "youtube", "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("GetVideoFile() failed: %v", err)
	}
	if got.ObjectKey != "videos/dQw4w9WgXcQ.mp4" {
		t.Errorf("ObjectKey = %q", got.ObjectKey)
	}
}
